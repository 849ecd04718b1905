package web

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/hpungsan/flowfocus/internal/ai"
	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/logging"
	"github.com/hpungsan/flowfocus/internal/ops"
	"github.com/hpungsan/flowfocus/internal/persist"
	"github.com/hpungsan/flowfocus/internal/transcript"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type testServer struct {
	h  http.Handler
	ws *ops.Workspace
	kv *persist.MemoryKV
}

func setupTest(t *testing.T, gen ai.Generator, transcripts ai.TranscriptSource) *testServer {
	t.Helper()
	kv := persist.NewMemoryKV()
	adapter := persist.NewAdapter(kv, time.Hour, logging.Discard())
	clock := func() time.Time { return testNow }
	ws := ops.NewWorkspace(context.Background(), adapter, config.DefaultConfig(), logging.Discard(),
		ops.WithClock(clock), ops.WithExportsDir(t.TempDir()))
	svc := ai.NewService(gen, transcripts, logging.Discard(), ai.WithClock(clock))
	h := &Handlers{ws: ws, ai: svc, transcripts: transcripts, logger: logging.Discard(), version: "test"}
	return &testServer{h: h.Routes(), ws: ws, kv: kv}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Status  int            `json:"status"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

// --- notes ---

func TestNotes_CRUD(t *testing.T) {
	s := setupTest(t, nil, nil)

	rec := s.do(t, "POST", "/api/notes", `{"title":"Groceries","body":"- milk","tags":["home"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	note := decodeJSON[entity.Note](t, rec)

	rec = s.do(t, "PATCH", "/api/notes/"+note.ID, `{"body":"- eggs"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}
	if got := decodeJSON[entity.Note](t, rec); got.Body != "- eggs" || got.Title != "Groceries" {
		t.Errorf("updated note = %+v", got)
	}

	rec = s.do(t, "GET", "/api/notes?tag=home", "")
	list := decodeJSON[ops.ListOutput[entity.Note]](t, rec)
	if list.Pagination.Total != 1 || list.Items[0].ID != note.ID {
		t.Errorf("list = %+v", list)
	}

	rec = s.do(t, "GET", "/api/notes/active", "")
	if got := decodeJSON[entity.Note](t, rec); got.ID != note.ID {
		t.Errorf("active note = %q, want %q", got.ID, note.ID)
	}

	if rec = s.do(t, "DELETE", "/api/notes/"+note.ID, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = s.do(t, "GET", "/api/notes/"+note.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
	if e := decodeJSON[errorBody](t, rec); e.Error.Code != string(errors.ErrNotFound) {
		t.Errorf("error code = %q", e.Error.Code)
	}
}

func TestCreateNote_RejectsUnknownFields(t *testing.T) {
	s := setupTest(t, nil, nil)
	rec := s.do(t, "POST", "/api/notes", `{"title":"x","colour":"red"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestNotePreview_RendersMarkdown(t *testing.T) {
	s := setupTest(t, nil, nil)
	note, err := s.ws.CreateNote(ops.NoteInput{Title: "Plan <b>", Body: "# Heading\n\n*focus* <script>alert(1)</script>"})
	if err != nil {
		t.Fatal(err)
	}

	rec := s.do(t, "GET", "/notes/"+note.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Heading</h1>") || !strings.Contains(body, "<em>focus</em>") {
		t.Errorf("markdown not rendered:\n%s", body)
	}
	if strings.Contains(body, "<script>") {
		t.Error("raw HTML from the note body must not be rendered")
	}
	if !strings.Contains(body, "Plan &lt;b&gt;") {
		t.Error("title must be escaped")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing security headers")
	}
}

func TestNoteMarkdown_Download(t *testing.T) {
	s := setupTest(t, nil, nil)
	note, _ := s.ws.CreateNote(ops.NoteInput{Title: "Week plan", Body: "text"})
	rec := s.do(t, "GET", "/api/notes/"+note.ID+"/markdown", "")
	if got := attachmentName(t, rec); got != "Week-plan.md" {
		t.Errorf("filename = %q", got)
	}
	if rec.Body.String() != "# Week plan\n\ntext" {
		t.Errorf("body = %q", rec.Body.String())
	}

	quoted, _ := s.ws.CreateNote(ops.NoteInput{Title: `Say "hi"; x=1`})
	rec = s.do(t, "GET", "/api/notes/"+quoted.ID+"/markdown", "")
	if got := attachmentName(t, rec); got != `Say-"hi";-x=1.md` {
		t.Errorf("filename = %q", got)
	}
}

// --- tasks and habits ---

func TestTasks_HabitLink(t *testing.T) {
	s := setupTest(t, nil, nil)
	rec := s.do(t, "POST", "/api/tasks", `{"name":"Read","habitId":"missing"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("dangling habit link status = %d: %s", rec.Code, rec.Body)
	}

	rec = s.do(t, "POST", "/api/habits", `{"name":"Reading","type":"quantitative","target":20,"unit":"pages"}`)
	habit := decodeJSON[entity.Habit](t, rec)
	rec = s.do(t, "POST", "/api/tasks", `{"name":"Read","habitId":"`+habit.ID+`"}`)
	task := decodeJSON[entity.Task](t, rec)

	rec = s.do(t, "GET", "/api/tasks/"+task.ID+"/habit", "")
	if got := decodeJSON[entity.Habit](t, rec); got.ID != habit.ID {
		t.Errorf("habit for task = %+v", got)
	}

	rec = s.do(t, "POST", "/api/tasks/"+task.ID+"/toggle", "")
	if got := decodeJSON[entity.Task](t, rec); !got.Completed {
		t.Error("toggle did not complete task")
	}
	rec = s.do(t, "GET", "/api/tasks?hide_completed=true", "")
	if list := decodeJSON[ops.ListOutput[entity.Task]](t, rec); list.Pagination.Total != 0 {
		t.Errorf("hide_completed list = %+v", list)
	}
}

func TestLogHabit(t *testing.T) {
	s := setupTest(t, nil, nil)
	habit, _ := s.ws.CreateHabit(ops.HabitInput{Name: "Water", Type: entity.HabitQuantitative, Target: 3, Unit: "glasses"})

	s.do(t, "POST", "/api/habits/"+habit.ID+"/log", `{"amount":2}`)
	rec := s.do(t, "POST", "/api/habits/"+habit.ID+"/log", "")
	got := decodeJSON[entity.Habit](t, rec)
	if got.Value != 3 || !got.CompletedToday || got.Streak != 1 {
		t.Errorf("habit = %+v", got)
	}
}

func TestValidationErrorDetails(t *testing.T) {
	s := setupTest(t, nil, nil)
	rec := s.do(t, "POST", "/api/habits", `{"name":"","type":"sometimes"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	e := decodeJSON[errorBody](t, rec)
	if e.Error.Code != string(errors.ErrValidation) || e.Error.Details["fields"] == nil {
		t.Errorf("error = %+v", e.Error)
	}
}

// --- import, decks, plans ---

func TestImport(t *testing.T) {
	s := setupTest(t, nil, nil)
	rec := s.do(t, "POST", "/api/import/tasks", `[{"id":"t1","name":"Imported"}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if out := decodeJSON[ops.ImportOutput](t, rec); out.Added != 1 {
		t.Errorf("import = %+v", out)
	}

	rec = s.do(t, "POST", "/api/import/tasks", `{"id":"t1"}`)
	if e := decodeJSON[errorBody](t, rec); e.Error.Code != string(errors.ErrImportFormat) {
		t.Errorf("non-array import: %+v", e.Error)
	}
	if rec = s.do(t, "POST", "/api/import/widgets", `[]`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d", rec.Code)
	}
}

func TestDeckCards(t *testing.T) {
	s := setupTest(t, nil, nil)
	rec := s.do(t, "POST", "/api/decks", `{"name":"Go","cards":[{"question":"q1","answer":"a1"}]}`)
	deck := decodeJSON[entity.Deck](t, rec)

	rec = s.do(t, "POST", "/api/decks/"+deck.ID+"/cards", `{"cards":[{"question":"q2","answer":"a2"}]}`)
	deck = decodeJSON[entity.Deck](t, rec)
	if len(deck.Cards) != 2 {
		t.Fatalf("cards = %+v", deck.Cards)
	}

	cardID := deck.Cards[0].ID
	rec = s.do(t, "PATCH", "/api/decks/"+deck.ID+"/cards/"+cardID, `{"answer":"A1"}`)
	if got := decodeJSON[entity.Flashcard](t, rec); got.Answer != "A1" {
		t.Errorf("card = %+v", got)
	}
	rec = s.do(t, "DELETE", "/api/decks/"+deck.ID+"/cards/"+cardID, "")
	if got := decodeJSON[entity.Deck](t, rec); len(got.Cards) != 1 {
		t.Errorf("cards after remove = %+v", got.Cards)
	}
}

func TestPlans_ProgressAndExport(t *testing.T) {
	s := setupTest(t, nil, nil)
	plan, err := s.ws.CreatePlan(ops.PlanInput{
		Title: "Go",
		Goal:  "services",
		Tasks: []entity.StudyTask{{Topic: "a", Date: "2024-05-01"}, {Topic: "b", Date: "2024-05-02"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	s.do(t, "POST", "/api/plans/"+plan.ID+"/tasks/"+plan.Tasks[0].ID+"/toggle", "")
	rec := s.do(t, "GET", "/api/plans/"+plan.ID+"/progress", "")
	if p := decodeJSON[ops.PlanProgress](t, rec); p.Percent != 50 || p.Completed != 1 {
		t.Errorf("progress = %+v", p)
	}

	rec = s.do(t, "GET", "/api/plans/export", "")
	if got := attachmentName(t, rec); got != "study-plans-2024-05-01.json" {
		t.Errorf("filename = %q", got)
	}
	plans := decodeJSON[[]entity.StudyPlan](t, rec)
	if len(plans) != 1 || plans[0].ID != plan.ID {
		t.Errorf("exported = %+v", plans)
	}
}

// --- dashboard ---

func TestLayoutAndPomodoro(t *testing.T) {
	s := setupTest(t, nil, nil)
	rec := s.do(t, "PUT", "/api/layout", `{"layout":["tasks","pomodoro"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set layout status = %d: %s", rec.Code, rec.Body)
	}
	if rec = s.do(t, "PUT", "/api/layout", `{"layout":["tasks","tasks"]}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("repeated widget status = %d", rec.Code)
	}

	rec = s.do(t, "POST", "/api/pomodoro/start", "")
	out := decodeJSON[map[string]any](t, rec)
	state, _ := out["state"].(map[string]any)
	if state["running"] != true || state["phase"] != "focus" {
		t.Errorf("pomodoro = %v", out)
	}
	if rec = s.do(t, "POST", "/api/pomodoro/rewind", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown action status = %d", rec.Code)
	}
}

func TestFlush(t *testing.T) {
	s := setupTest(t, nil, nil)
	s.ws.CreateNote(ops.NoteInput{Title: "pending"})
	if _, ok, _ := s.kv.Get(context.Background(), persist.KeyNotes); ok {
		t.Fatal("note written before flush despite long debounce")
	}
	if rec := s.do(t, "POST", "/api/flush", ""); rec.Code != http.StatusOK {
		t.Fatalf("flush status = %d", rec.Code)
	}
	if _, ok, _ := s.kv.Get(context.Background(), persist.KeyNotes); !ok {
		t.Error("notes not written after flush")
	}
}

// --- AI and transcripts ---

func TestAI_NotConfigured(t *testing.T) {
	s := setupTest(t, nil, nil)
	rec := s.do(t, "POST", "/api/ai/summary", `{"text":"hello"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if e := decodeJSON[errorBody](t, rec); !strings.Contains(e.Error.Message, config.EnvAPIKey) {
		t.Errorf("message = %q", e.Error.Message)
	}
}

func TestGenerateFlashcards_IntoNewDeck(t *testing.T) {
	gen := ai.GeneratorFunc(func(context.Context, string, *genai.Schema) (string, error) {
		return `{"cards":[{"question":"What is a goroutine?","answer":"A lightweight thread"}]}`, nil
	})
	s := setupTest(t, gen, nil)

	rec := s.do(t, "POST", "/api/ai/flashcards", `{"topic":"Go","count":5,"deckName":"Go basics"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	deck := decodeJSON[entity.Deck](t, rec)
	if deck.Name != "Go basics" || len(deck.Cards) != 1 || deck.Cards[0].ID == "" {
		t.Errorf("deck = %+v", deck)
	}
}

func TestGenerateStudyPlan_Save(t *testing.T) {
	gen := ai.GeneratorFunc(func(context.Context, string, *genai.Schema) (string, error) {
		return `{"title":"Rust","goal":"ownership","tasks":[{"topic":"borrowing","description":"d","duration":60,"date":"2024-05-01"}]}`, nil
	})
	s := setupTest(t, gen, nil)

	rec := s.do(t, "POST", "/api/ai/study-plan", `{"subject":"Rust","goal":"ownership","durationDays":2,"hoursPerDay":1,"save":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	plan := decodeJSON[entity.StudyPlan](t, rec)
	if _, err := s.ws.GetPlan(plan.ID); err != nil {
		t.Errorf("plan not stored: %v", err)
	}
	if plan.UserInput.Subject != "Rust" {
		t.Errorf("userInput = %+v", plan.UserInput)
	}
}

type stubTranscripts struct{}

func (stubTranscripts) Fetch(_ context.Context, rawURL string) (*transcript.Transcript, error) {
	id, err := transcript.ResolveVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	return &transcript.Transcript{VideoID: id, Language: "en", Text: "hello world"}, nil
}

func TestTranscript(t *testing.T) {
	s := setupTest(t, nil, stubTranscripts{})
	rec := s.do(t, "GET", "/api/transcript?url=https://youtu.be/dQw4w9WgXcQ", "")
	if got := decodeJSON[transcript.Transcript](t, rec); got.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("transcript = %+v", got)
	}

	rec = s.do(t, "GET", "/api/transcript?url=https://example.com/x", "")
	if e := decodeJSON[errorBody](t, rec); e.Error.Code != string(errors.ErrInvalidVideoURL) {
		t.Errorf("error = %+v", e.Error)
	}
}

func TestRequestID(t *testing.T) {
	s := setupTest(t, nil, nil)
	rec := s.do(t, "GET", "/", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "6f1d2a7e-9a4b-4c55-8f1e-2b9d0c3a1e44")
	rec = httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "6f1d2a7e-9a4b-4c55-8f1e-2b9d0c3a1e44" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func attachmentName(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil || disposition != "attachment" {
		t.Fatalf("Content-Disposition = %q (%v)", rec.Header().Get("Content-Disposition"), err)
	}
	return params["filename"]
}
