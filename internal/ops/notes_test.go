package ops

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/persist"
)

func TestCreateNote_PrependsAndActivates(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.ws.CreateNote(NoteInput{Title: "First"})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	second, err := env.ws.CreateNote(NoteInput{Title: "Second"})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	all := env.ws.notes.All()
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Errorf("notes order = %v", all)
	}
	active, ok := env.ws.ActiveNote()
	if !ok || active.ID != second.ID {
		t.Errorf("ActiveNote() = %v, %v", active.ID, ok)
	}
	if env.kv.Writes(persist.KeyNotes) != 2 {
		t.Errorf("writes = %d, want 2", env.kv.Writes(persist.KeyNotes))
	}
}

func TestCreateNote_DefaultTitle(t *testing.T) {
	env := newTestEnv(t)
	n, err := env.ws.CreateNote(NoteInput{Body: "text"})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if n.Title != entity.DefaultNoteTitle {
		t.Errorf("Title = %q", n.Title)
	}
	if n.Tags == nil {
		t.Error("Tags should be an empty slice")
	}
}

func TestUpdateNote_RefreshesUpdatedAt(t *testing.T) {
	env := newTestEnv(t)
	n, _ := env.ws.CreateNote(NoteInput{Title: "A", Body: "x"})

	env.clock.Advance(time.Minute)
	updated, err := env.ws.UpdateNote(n.ID, NotePatch{Body: ptr("y")})
	if err != nil {
		t.Fatalf("UpdateNote() error = %v", err)
	}
	if updated.Body != "y" || updated.Title != "A" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.UpdatedAt != n.CreatedAt+time.Minute.Milliseconds() {
		t.Errorf("UpdatedAt = %d, want %d", updated.UpdatedAt, n.CreatedAt+time.Minute.Milliseconds())
	}
	if updated.CreatedAt != n.CreatedAt {
		t.Error("CreatedAt changed")
	}
}

func TestUpdateNote_Errors(t *testing.T) {
	env := newTestEnv(t)
	n, _ := env.ws.CreateNote(NoteInput{Title: "A"})

	if _, err := env.ws.UpdateNote(n.ID, NotePatch{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty patch: err = %v", err)
	}
	if _, err := env.ws.UpdateNote("missing", NotePatch{Body: ptr("x")}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing id: err = %v", err)
	}
}

func TestDeleteNote_ActiveFallback(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.ws.CreateNote(NoteInput{Title: "A"})
	b, _ := env.ws.CreateNote(NoteInput{Title: "B"})
	c, _ := env.ws.CreateNote(NoteInput{Title: "C"})

	if err := env.ws.SelectNote(b.ID); err != nil {
		t.Fatalf("SelectNote() error = %v", err)
	}
	if err := env.ws.DeleteNote(b.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	active, ok := env.ws.ActiveNote()
	if !ok || active.ID != c.ID {
		t.Errorf("active after delete = %v, want first remaining %v", active.ID, c.ID)
	}

	_ = env.ws.DeleteNote(c.ID)
	_ = env.ws.DeleteNote(a.ID)
	if _, ok := env.ws.ActiveNote(); ok {
		t.Error("no note should be active after deleting all")
	}
	if err := env.ws.DeleteNote(a.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func TestListNotes_PinnedThenRecent(t *testing.T) {
	env := newTestEnv(t)
	old, _ := env.ws.CreateNote(NoteInput{Title: "old go note"})
	env.clock.Advance(time.Second)
	mid, _ := env.ws.CreateNote(NoteInput{Title: "mid", Tags: []string{"work"}})
	env.clock.Advance(time.Second)
	recent, _ := env.ws.CreateNote(NoteInput{Title: "recent GO"})

	if _, err := env.ws.TogglePin(old.ID); err != nil {
		t.Fatalf("TogglePin() error = %v", err)
	}

	got := env.ws.ListNotes(NoteQuery{})
	want := []string{old.ID, recent.ID, mid.ID}
	for i, id := range want {
		if got.Items[i].ID != id {
			t.Fatalf("order[%d] = %s, want %s", i, got.Items[i].Title, id)
		}
	}

	search := env.ws.ListNotes(NoteQuery{Search: "go"})
	if search.Pagination.Total != 2 {
		t.Errorf("search total = %d, want 2", search.Pagination.Total)
	}
	tagged := env.ws.ListNotes(NoteQuery{Tag: "WORK"})
	if len(tagged.Items) != 1 || tagged.Items[0].ID != mid.ID {
		t.Errorf("tag filter = %v", tagged.Items)
	}

	paged := env.ws.ListNotes(NoteQuery{Limit: 1, Offset: 1})
	if len(paged.Items) != 1 || !paged.Pagination.HasMore || paged.Items[0].ID != recent.ID {
		t.Errorf("paged = %+v", paged)
	}
}

func TestExportNoteMarkdown(t *testing.T) {
	env := newTestEnv(t)
	n, _ := env.ws.CreateNote(NoteInput{Title: "A", Body: "x"})
	if _, err := env.ws.UpdateNote(n.ID, NotePatch{Body: ptr("y")}); err != nil {
		t.Fatalf("UpdateNote() error = %v", err)
	}
	md, err := env.ws.ExportNoteMarkdown(n.ID)
	if err != nil {
		t.Fatalf("ExportNoteMarkdown() error = %v", err)
	}
	if md != "# A\n\ny" {
		t.Errorf("markdown = %q", md)
	}
}

func TestImportNotes(t *testing.T) {
	env := newTestEnv(t)
	existing, _ := env.ws.CreateNote(NoteInput{Title: "Keep"})

	batch, _ := json.Marshal([]map[string]any{
		{"id": existing.ID, "title": "Replaced", "body": "new", "createdAt": 1, "updatedAt": 2},
		{"id": "imported-1", "title": "Fresh"},
	})

	out, err := env.ws.ImportNotes(batch)
	if err != nil {
		t.Fatalf("ImportNotes() error = %v", err)
	}
	if out.Added != 1 || out.Replaced != 1 || out.Total != 2 {
		t.Errorf("ImportNotes() = %+v", out)
	}
	got, _ := env.ws.GetNote(existing.ID)
	if got.Title != "Replaced" {
		t.Errorf("title = %q", got.Title)
	}

	again, err := env.ws.ImportNotes(batch)
	if err != nil || again.Added != 0 || again.Total != 2 {
		t.Errorf("second import = %+v, %v", again, err)
	}
}

func TestImportNotes_RejectsWholeFile(t *testing.T) {
	env := newTestEnv(t)
	bad := []byte(`[{"id":"a","title":"ok"},{"title":"no id"}]`)
	if _, err := env.ws.ImportNotes(bad); !errors.Is(err, errors.ErrImportFormat) {
		t.Fatalf("err = %v, want IMPORT_FORMAT", err)
	}
	if env.ws.notes.Len() != 0 {
		t.Error("rejected import must not change the collection")
	}
}

func TestWorkspace_ReloadsFromStore(t *testing.T) {
	env := newTestEnv(t)
	n, _ := env.ws.CreateNote(NoteInput{Title: "Persisted", Tags: []string{"a"}})
	if err := env.ws.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	reopened := openTestEnv(t, env.kv)
	got, err := reopened.ws.GetNote(n.ID)
	if err != nil {
		t.Fatalf("GetNote() after reload error = %v", err)
	}
	if got.Title != "Persisted" || len(got.Tags) != 1 {
		t.Errorf("reloaded note = %+v", got)
	}
	if active, ok := reopened.ws.ActiveNote(); !ok || active.ID != n.ID {
		t.Error("first note should be active after reload")
	}
}

func TestWorkspace_MalformedStoreStartsEmpty(t *testing.T) {
	kv := persist.NewMemoryKV()
	kv.Set(persist.KeyNotes, []byte(`{not json`))
	kv.Set(persist.KeyTasks, []byte(`[{"id":"t1","name":"legacy"},{"name":"no id"},{"id":"t1","name":"dup"}]`))

	env := openTestEnv(t, kv)
	if env.ws.notes.Len() != 0 {
		t.Errorf("notes = %d, want 0", env.ws.notes.Len())
	}
	tasks := env.ws.tasks.All()
	if len(tasks) != 1 || tasks[0].Name != "legacy" {
		t.Fatalf("tasks = %+v", tasks)
	}
	if tasks[0].Priority != entity.PriorityMedium || tasks[0].Category != entity.DefaultCategory {
		t.Errorf("defaults not filled: %+v", tasks[0])
	}
}
