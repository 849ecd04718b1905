package web

import (
	"bytes"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/flowfocus/internal/ai"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/ops"
)

// Handlers contains HTTP route handlers for the API.
type Handlers struct {
	ws          *ops.Workspace
	ai          *ai.Service
	transcripts ai.TranscriptSource
	logger      *log.Logger
	version     string
}

// --- notes ---

// HandleListNotes handles GET /api/notes.
func (h *Handlers) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	renderJSON(w, http.StatusOK, h.ws.ListNotes(ops.NoteQuery{
		Search: q.Get("search"),
		Tag:    q.Get("tag"),
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	}))
}

// HandleCreateNote handles POST /api/notes.
func (h *Handlers) HandleCreateNote(w http.ResponseWriter, r *http.Request) {
	var input ops.NoteInput
	if !decodeBody(w, r, &input) {
		return
	}
	note, err := h.ws.CreateNote(input)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, note)
}

// HandleActiveNote handles GET /api/notes/active.
func (h *Handlers) HandleActiveNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ws.ActiveNote()
	if !ok {
		renderError(w, errors.NewNotFound("note", "active"))
		return
	}
	renderJSON(w, http.StatusOK, note)
}

// HandleGetNote handles GET /api/notes/{id}.
func (h *Handlers) HandleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.ws.GetNote(r.PathValue("id"))
	respond(w, note, err)
}

// HandleUpdateNote handles PATCH /api/notes/{id}.
func (h *Handlers) HandleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var patch ops.NotePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	note, err := h.ws.UpdateNote(r.PathValue("id"), patch)
	respond(w, note, err)
}

// HandleDeleteNote handles DELETE /api/notes/{id}.
func (h *Handlers) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	respond(w, map[string]any{"deleted": true, "id": id}, h.ws.DeleteNote(id))
}

// HandleTogglePin handles POST /api/notes/{id}/pin.
func (h *Handlers) HandleTogglePin(w http.ResponseWriter, r *http.Request) {
	note, err := h.ws.TogglePin(r.PathValue("id"))
	respond(w, note, err)
}

// HandleSelectNote handles POST /api/notes/{id}/select.
func (h *Handlers) HandleSelectNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	respond(w, map[string]any{"active": id}, h.ws.SelectNote(id))
}

// HandleNoteMarkdown handles GET /api/notes/{id}/markdown: the note as a
// downloadable markdown file.
func (h *Handlers) HandleNoteMarkdown(w http.ResponseWriter, r *http.Request) {
	note, err := h.ws.GetNote(r.PathValue("id"))
	if err != nil {
		renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	setAttachment(w, ops.SanitizeForFilename(note.Title)+".md")
	_, _ = w.Write([]byte(note.Markdown()))
}

// HandleNotePreview handles GET /notes/{id}: the note rendered as HTML.
func (h *Handlers) HandleNotePreview(w http.ResponseWriter, r *http.Request) {
	note, err := h.ws.GetNote(r.PathValue("id"))
	if err != nil {
		fErr := errors.As(err)
		http.Error(w, fErr.Message, fErr.Status)
		return
	}

	var buf bytes.Buffer
	if err := previewTemplate.Execute(&buf, PreviewPageData{
		Note:         note,
		RenderedHTML: renderMarkdown(note.Body),
		Version:      h.version,
	}); err != nil {
		h.logger.Error("template execution error", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// --- tasks ---

// HandleListTasks handles GET /api/tasks.
func (h *Handlers) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	renderJSON(w, http.StatusOK, h.ws.ListTasks(ops.TaskQuery{
		Search:        q.Get("search"),
		Category:      q.Get("category"),
		HideCompleted: parseBoolParam(r, "hide_completed"),
		Limit:         parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:        parseIntParam(r, "offset", 0),
	}))
}

// HandleCreateTask handles POST /api/tasks.
func (h *Handlers) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	var input ops.TaskInput
	if !decodeBody(w, r, &input) {
		return
	}
	task, err := h.ws.CreateTask(input)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, task)
}

// HandleGetTask handles GET /api/tasks/{id}.
func (h *Handlers) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.ws.GetTask(r.PathValue("id"))
	respond(w, task, err)
}

// HandleUpdateTask handles PATCH /api/tasks/{id}.
func (h *Handlers) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch ops.TaskPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	task, err := h.ws.UpdateTask(r.PathValue("id"), patch)
	respond(w, task, err)
}

// HandleDeleteTask handles DELETE /api/tasks/{id}.
func (h *Handlers) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	respond(w, map[string]any{"deleted": true, "id": id}, h.ws.DeleteTask(id))
}

// HandleToggleTask handles POST /api/tasks/{id}/toggle.
func (h *Handlers) HandleToggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.ws.ToggleTask(r.PathValue("id"))
	respond(w, task, err)
}

// HandleTaskHabit handles GET /api/tasks/{id}/habit.
func (h *Handlers) HandleTaskHabit(w http.ResponseWriter, r *http.Request) {
	habit, err := h.ws.HabitForTask(r.PathValue("id"))
	respond(w, habit, err)
}

// --- habits ---

// HandleListHabits handles GET /api/habits.
func (h *Handlers) HandleListHabits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	renderJSON(w, http.StatusOK, h.ws.ListHabits(ops.HabitQuery{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	}))
}

// HandleCreateHabit handles POST /api/habits.
func (h *Handlers) HandleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var input ops.HabitInput
	if !decodeBody(w, r, &input) {
		return
	}
	habit, err := h.ws.CreateHabit(input)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, habit)
}

// HandleGetHabit handles GET /api/habits/{id}.
func (h *Handlers) HandleGetHabit(w http.ResponseWriter, r *http.Request) {
	habit, err := h.ws.GetHabit(r.PathValue("id"))
	respond(w, habit, err)
}

// HandleUpdateHabit handles PATCH /api/habits/{id}.
func (h *Handlers) HandleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	var patch ops.HabitPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	habit, err := h.ws.UpdateHabit(r.PathValue("id"), patch)
	respond(w, habit, err)
}

// HandleDeleteHabit handles DELETE /api/habits/{id}.
func (h *Handlers) HandleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	respond(w, map[string]any{"deleted": true, "id": id}, h.ws.DeleteHabit(id))
}

// HandleLogHabit handles POST /api/habits/{id}/log. The amount defaults to 1.
func (h *Handlers) HandleLogHabit(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Amount *float64 `json:"amount"`
	}{}
	if !decodeBody(w, r, &body) {
		return
	}
	amount := 1.0
	if body.Amount != nil {
		amount = *body.Amount
	}
	habit, err := h.ws.LogHabit(r.PathValue("id"), amount)
	respond(w, habit, err)
}

// HandleRollOver handles POST /api/habits/rollover.
func (h *Handlers) HandleRollOver(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{"reset": h.ws.RollOverHabits()})
}

// --- import, dashboard, pomodoro ---

// HandleImport handles POST /api/import/{kind}. The body is the JSON array.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, ops.MaxImportBytes)
	if !ok {
		return
	}
	out, err := h.ws.Import(ops.ImportKind(r.PathValue("kind")), data)
	respond(w, out, err)
}

// HandleLayout handles GET /api/layout.
func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{"layout": h.ws.Layout()})
}

// HandleSetLayout handles PUT /api/layout.
func (h *Handlers) HandleSetLayout(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Layout entity.Layout `json:"layout"`
	}{}
	if !decodeBody(w, r, &body) {
		return
	}
	layout, err := h.ws.SetLayout(body.Layout)
	respond(w, map[string]any{"layout": layout}, err)
}

// HandlePomodoro handles GET /api/pomodoro and POST /api/pomodoro/{action}.
func (h *Handlers) HandlePomodoro(w http.ResponseWriter, r *http.Request) {
	action := ops.PomodoroAction(r.PathValue("action"))
	if r.Method == http.MethodGet {
		action = ops.PomodoroStatus
	}
	out, err := h.ws.Pomodoro(action)
	respond(w, out, err)
}

// HandlePomodoroStats handles GET /api/pomodoro/stats.
func (h *Handlers) HandlePomodoroStats(w http.ResponseWriter, r *http.Request) {
	stats := h.ws.PomodoroStats()
	renderJSON(w, http.StatusOK, map[string]any{"days": stats.Days, "totals": stats.Totals()})
}

// HandleFlush handles POST /api/flush: write every pending change now.
func (h *Handlers) HandleFlush(w http.ResponseWriter, r *http.Request) {
	respond(w, map[string]any{"flushed": true}, h.ws.Flush(r.Context()))
}
