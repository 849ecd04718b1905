package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/hpungsan/flowfocus/internal/ai"
	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/logging"
	"github.com/hpungsan/flowfocus/internal/ops"
	"github.com/hpungsan/flowfocus/internal/persist"
)

var testStart = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// setupTestEnv builds an in-memory env exporting to a temp dir.
func setupTestEnv(t *testing.T, cfg *config.Config, gen ai.Generator, clock func() time.Time) *env {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.DeckTransitionMillis = 0
	if clock == nil {
		clock = func() time.Time { return testStart }
	}
	logger := logging.Discard()
	adapter := persist.NewAdapter(persist.NewMemoryKV(), 0, logger)
	ws := ops.NewWorkspace(context.Background(), adapter, cfg, logger,
		ops.WithClock(clock), ops.WithExportsDir(t.TempDir()))
	return &env{
		cfg:    cfg,
		logger: logger,
		ws:     ws,
		ai:     ai.NewService(gen, nil, logger, ai.WithClock(clock)),
	}
}

// runCLI runs args with stdin fed from input and returns what was printed to stdout.
func runCLI(t *testing.T, e *env, input string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(e)

	oldStdout, oldStdin := os.Stdout, os.Stdin
	r, w, _ := os.Pipe()
	os.Stdout = w
	stdinR, stdinW, _ := os.Pipe()
	os.Stdin = stdinR
	go func() {
		_, _ = stdinW.WriteString(input)
		stdinW.Close()
	}()

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	err := app.Run(append([]string{"flowfocus"}, args...))

	w.Close()
	<-done
	os.Stdout, os.Stdin = oldStdout, oldStdin
	stdinR.Close()
	return buf.String(), err
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	return v
}

// TestParseTags tests the parseTags helper function.
func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single tag", input: "foo", expected: []string{"foo"}},
		{name: "multiple tags", input: "foo,bar,baz", expected: []string{"foo", "bar", "baz"}},
		{name: "tags with spaces", input: " foo , bar , baz ", expected: []string{"foo", "bar", "baz"}},
		{name: "empty tags filtered", input: "foo,,bar,", expected: []string{"foo", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTags(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d tags, got %d", len(tt.expected), len(result))
				return
			}
			for i, tag := range result {
				if tag != tt.expected[i] {
					t.Errorf("expected tag[%d]=%q, got %q", i, tt.expected[i], tag)
				}
			}
		})
	}
}

func TestCLIHelpWithoutEnv(t *testing.T) {
	app := newCLIApp(nil)
	app.Writer = io.Discard
	if err := app.Run([]string{"flowfocus", "--help"}); err != nil {
		t.Fatalf("help failed: %v", err)
	}
}

// TestCLINote tests note add, edit and list.
func TestCLINote(t *testing.T) {
	e := setupTestEnv(t, nil, nil, nil)

	out, err := runCLI(t, e, "first draft\n", "note", "add", "--title=Ideas", "--tags=work, later")
	if err != nil {
		t.Fatalf("note add failed: %v", err)
	}
	note := decodeOutput[entity.Note](t, out)
	if note.Body != "first draft" || len(note.Tags) != 2 {
		t.Errorf("note = %+v", note)
	}

	out, err = runCLI(t, e, "second draft", "note", "edit", note.ID)
	if err != nil {
		t.Fatalf("note edit failed: %v", err)
	}
	if got := decodeOutput[entity.Note](t, out); got.Body != "second draft" || got.Title != "Ideas" {
		t.Errorf("edited note = %+v", got)
	}

	out, err = runCLI(t, e, "", "note", "list", "--tag=later")
	if err != nil {
		t.Fatalf("note list failed: %v", err)
	}
	list := decodeOutput[ops.ListOutput[entity.Note]](t, out)
	if list.Pagination.Total != 1 || list.Items[0].ID != note.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestCLIErrors(t *testing.T) {
	e := setupTestEnv(t, nil, nil, nil)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing id", []string{"note", "show"}, "[INVALID_REQUEST] id is required"},
		{"unknown note", []string{"note", "show", "nope"}, "[NOT_FOUND]"},
		{"invalid priority", []string{"task", "add", "Write", "--priority=urgent"}, "[VALIDATION_FAILED]"},
		{"ai not configured", []string{"summarize", "--style=brief"}, "[INVALID_REQUEST] AI generation is not configured"},
		{"toggle needs two ids", []string{"plan", "toggle", "p1"}, "[INVALID_REQUEST]"},
		{"zero cycles", []string{"pomodoro", "run", "--cycles=0"}, "[INVALID_REQUEST]"},
		{"zero tick", []string{"pomodoro", "run", "--tick=0s"}, "[INVALID_REQUEST] tick must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, e, "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestCLITaskLinkedToHabit(t *testing.T) {
	e := setupTestEnv(t, nil, nil, nil)

	out, err := runCLI(t, e, "", "habit", "add", "Running", "--type=quantitative", "--target=5", "--unit=km")
	if err != nil {
		t.Fatalf("habit add failed: %v", err)
	}
	habit := decodeOutput[entity.Habit](t, out)

	out, err = runCLI(t, e, "", "task", "add", "Morning run", "--habit="+habit.ID, "--priority=high")
	if err != nil {
		t.Fatalf("task add failed: %v", err)
	}
	if task := decodeOutput[entity.Task](t, out); task.HabitID != habit.ID {
		t.Errorf("task = %+v", task)
	}

	out, err = runCLI(t, e, "", "habit", "log", habit.ID, "--amount=5")
	if err != nil {
		t.Fatalf("habit log failed: %v", err)
	}
	if got := decodeOutput[entity.Habit](t, out); !got.CompletedToday || got.Streak != 1 {
		t.Errorf("logged habit = %+v", got)
	}
}

func TestCLIDeckStudy(t *testing.T) {
	e := setupTestEnv(t, nil, nil, nil)
	d, err := e.ws.CreateDeck(ops.DeckInput{
		Name: "Capitals",
		Cards: []ops.CardInput{
			{Question: "France?", Answer: "Paris"},
			{Question: "Peru?", Answer: "Lima"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	app := newCLIApp(e)
	var buf bytes.Buffer
	app.Reader = strings.NewReader("f\nn\nd\nq\n")
	app.Writer = &buf
	if err := app.Run([]string{"flowfocus", "deck", "study", d.ID}); err != nil {
		t.Fatalf("deck study failed: %v", err)
	}

	want := []string{
		studyHelp,
		"[1/2] question: France?",
		"[1/2] answer: Paris",
		"[2/2] question: Peru?",
		"[1/1] question: France?",
	}
	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("study output:\n%s\nwant:\n%s", buf.String(), strings.Join(want, "\n"))
	}

	stored, _ := e.ws.GetDeck(d.ID)
	if len(stored.Cards) != 1 || stored.Cards[0].Question != "France?" {
		t.Errorf("stored cards = %+v", stored.Cards)
	}
}

func TestCLIPlanExportImport(t *testing.T) {
	e := setupTestEnv(t, nil, nil, nil)
	if _, err := e.ws.CreatePlan(ops.PlanInput{
		Title: "SQL",
		Goal:  "joins",
		Tasks: []entity.StudyTask{{Topic: "inner joins", Duration: 30, Date: "2024-05-01"}},
	}); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, e, "", "plan", "export")
	if err != nil {
		t.Fatalf("plan export failed: %v", err)
	}
	export := decodeOutput[ops.ExportOutput](t, out)
	if filepath.Base(export.Path) != "study-plans-2024-05-01.json" || export.Count != 1 {
		t.Errorf("export = %+v", export)
	}

	// A second workspace importing from the same exports dir.
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{filepath.Dir(export.Path)}
	other := setupTestEnv(t, cfg, nil, nil)
	out, err = runCLI(t, other, "", "plan", "import", export.Path)
	if err != nil {
		t.Fatalf("plan import failed: %v", err)
	}
	if got := decodeOutput[ops.ImportOutput](t, out); got.Added != 1 {
		t.Errorf("import = %+v", got)
	}
}

func TestCLIPomodoroRun(t *testing.T) {
	var mu sync.Mutex
	now := testStart
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
	cfg := config.DefaultConfig()
	cfg.FocusMinutes = 2
	e := setupTestEnv(t, cfg, nil, clock)

	app := newCLIApp(e)
	var progress bytes.Buffer
	app.Writer = &progress

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	err := app.Run([]string{"flowfocus", "pomodoro", "run", "--tick=1ms"})
	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("pomodoro run failed: %v", err)
	}
	today := decodeOutput[entity.DayStats](t, buf.String())
	if today.Sessions != 1 || today.FocusMinutes != 2 {
		t.Errorf("today = %+v", today)
	}
	if !strings.Contains(progress.String(), "focus       done") {
		t.Errorf("progress output = %q", progress.String())
	}
}

func TestCLIFlashcardsIntoNewDeck(t *testing.T) {
	var prompt string
	gen := ai.GeneratorFunc(func(_ context.Context, p string, _ *genai.Schema) (string, error) {
		prompt = p
		return `{"cards":[{"question":"2+2?","answer":"4"}]}`, nil
	})
	e := setupTestEnv(t, nil, gen, nil)

	out, err := runCLI(t, e, "", "flashcards", "--topic=addition", "--count=1", "--new-deck=Maths")
	if err != nil {
		t.Fatalf("flashcards failed: %v", err)
	}
	d := decodeOutput[entity.Deck](t, out)
	if d.Name != "Maths" || len(d.Cards) != 1 || d.Cards[0].Answer != "4" {
		t.Errorf("deck = %+v", d)
	}
	if !strings.Contains(prompt, "addition") {
		t.Errorf("topic missing from prompt:\n%s", prompt)
	}
}

func TestCLISummarizeNote(t *testing.T) {
	gen := ai.GeneratorFunc(func(context.Context, string, *genai.Schema) (string, error) {
		return `{"summary":"Short.","keyPoints":["a"]}`, nil
	})
	e := setupTestEnv(t, nil, gen, nil)
	note, err := e.ws.CreateNote(ops.NoteInput{Title: "Long", Body: "a long note"})
	if err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, e, "", "summarize", "--note="+note.ID)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if got := decodeOutput[ai.SummaryOutput](t, out); got.Summary != "Short." {
		t.Errorf("summary = %+v", got)
	}
}
