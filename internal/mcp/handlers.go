package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/flowfocus/internal/ai"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/ops"
)

// Request types for tools whose arguments are not an ops input as-is

// IDRequest names one record.
type IDRequest struct {
	ID string `json:"id"`
}

// NoteUpdateRequest represents the arguments for note_update.
type NoteUpdateRequest struct {
	ID string `json:"id"`
	ops.NotePatch
}

// ExportRequest represents the arguments for note_export and plan_export.
type ExportRequest struct {
	ID   string `json:"id,omitempty"`
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for the *_import tools.
type ImportRequest struct {
	Path string `json:"path"`
}

// TaskUpdateRequest represents the arguments for task_update.
type TaskUpdateRequest struct {
	ID string `json:"id"`
	ops.TaskPatch
}

// HabitUpdateRequest represents the arguments for habit_update.
type HabitUpdateRequest struct {
	ID string `json:"id"`
	ops.HabitPatch
}

// HabitLogRequest represents the arguments for habit_log.
type HabitLogRequest struct {
	ID     string   `json:"id"`
	Amount *float64 `json:"amount,omitempty"`
}

// DeckUpdateRequest represents the arguments for deck_update.
type DeckUpdateRequest struct {
	ID string `json:"id"`
	ops.DeckPatch
}

// DeckCardsRequest represents the arguments for deck_add_cards.
type DeckCardsRequest struct {
	ID    string          `json:"id"`
	Cards []ops.CardInput `json:"cards"`
}

// CardRef identifies a card within a deck (deck_remove_card).
type CardRef struct {
	ID     string `json:"id"`
	CardID string `json:"cardId"`
}

// CardUpdateRequest represents the arguments for deck_update_card.
type CardUpdateRequest struct {
	CardRef
	ops.CardPatch
}

// PlanTaskRequest represents the arguments for plan_toggle_task.
type PlanTaskRequest struct {
	ID     string `json:"id"`
	TaskID string `json:"taskId"`
}

// PomodoroRequest represents the arguments for pomodoro_timer.
type PomodoroRequest struct {
	Action ops.PomodoroAction `json:"action,omitempty"`
}

// StudyPlanRequest represents the arguments for ai_study_plan.
type StudyPlanRequest struct {
	entity.StudyPlanInput
	Save bool `json:"save,omitempty"`
}

// SummarizeRequest represents the arguments for ai_summarize.
type SummarizeRequest struct {
	ai.SummaryInput
	NoteID string `json:"noteId,omitempty"`
}

// FlashcardsRequest represents the arguments for ai_flashcards.
type FlashcardsRequest struct {
	ai.FlashcardInput
	DeckID   string `json:"deckId,omitempty"`
	DeckName string `json:"deckName,omitempty"`
}

// TranscriptRequest represents the arguments for transcript_fetch.
type TranscriptRequest struct {
	URL             string `json:"url"`
	IncludeSegments bool   `json:"includeSegments,omitempty"`
}

// --- notes ---

// HandleNoteCreate handles the note_create tool call.
func (h *Handlers) HandleNoteCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.NoteInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.ws.CreateNote(input))
}

// HandleNoteUpdate handles the note_update tool call.
func (h *Handlers) HandleNoteUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteUpdateRequest](req)
	if err == nil {
		err = requireField(input.ID, "id")
	}
	if err != nil {
		return errorResult(err), nil
	}
	return respond(h.ws.UpdateNote(input.ID, input.NotePatch))
}

// HandleNoteGet handles the note_get tool call.
func (h *Handlers) HandleNoteGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return respond(h.ws.GetNote(id))
}

// HandleNoteList handles the note_list tool call.
func (h *Handlers) HandleNoteList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.NoteQuery](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(h.ws.ListNotes(input))
}

// HandleNotePin handles the note_pin tool call.
func (h *Handlers) HandleNotePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return respond(h.ws.TogglePin(id))
}

// HandleNoteDelete handles the note_delete tool call.
func (h *Handlers) HandleNoteDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return deleted(id, h.ws.DeleteNote(id))
}

// HandleNoteExport handles the note_export tool call.
func (h *Handlers) HandleNoteExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err == nil {
		err = requireField(input.ID, "id")
	}
	if err != nil {
		return errorResult(err), nil
	}
	return respond(h.ws.ExportNoteFile(input.ID, input.Path))
}

// importHandler builds the handler for one *_import tool.
func importHandler(kind ops.ImportKind) func(*Handlers) server.ToolHandlerFunc {
	return func(h *Handlers) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			input, err := decode[ImportRequest](req)
			if err == nil {
				err = requireField(input.Path, "path")
			}
			if err != nil {
				return errorResult(err), nil
			}
			return respond(h.ws.ImportFile(kind, input.Path))
		}
	}
}

// --- tasks ---

// HandleTaskCreate handles the task_create tool call.
func (h *Handlers) HandleTaskCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.TaskInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.ws.CreateTask(input))
}

// HandleTaskUpdate handles the task_update tool call.
func (h *Handlers) HandleTaskUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TaskUpdateRequest](req)
	if err == nil {
		err = requireField(input.ID, "id")
	}
	if err != nil {
		return errorResult(err), nil
	}
	return respond(h.ws.UpdateTask(input.ID, input.TaskPatch))
}

// HandleTaskToggle handles the task_toggle tool call.
func (h *Handlers) HandleTaskToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return respond(h.ws.ToggleTask(id))
}

// HandleTaskGet handles the task_get tool call.
func (h *Handlers) HandleTaskGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return respond(h.ws.GetTask(id))
}

// HandleTaskList handles the task_list tool call.
func (h *Handlers) HandleTaskList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.TaskQuery](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(h.ws.ListTasks(input))
}

// HandleTaskDelete handles the task_delete tool call.
func (h *Handlers) HandleTaskDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return deleted(id, h.ws.DeleteTask(id))
}

// --- habits ---

// HandleHabitCreate handles the habit_create tool call.
func (h *Handlers) HandleHabitCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.HabitInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.ws.CreateHabit(input))
}

// HandleHabitUpdate handles the habit_update tool call.
func (h *Handlers) HandleHabitUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HabitUpdateRequest](req)
	if err == nil {
		err = requireField(input.ID, "id")
	}
	if err != nil {
		return errorResult(err), nil
	}
	return respond(h.ws.UpdateHabit(input.ID, input.HabitPatch))
}

// HandleHabitLog handles the habit_log tool call.
func (h *Handlers) HandleHabitLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HabitLogRequest](req)
	if err == nil {
		err = requireField(input.ID, "id")
	}
	if err != nil {
		return errorResult(err), nil
	}
	amount := 1.0
	if input.Amount != nil {
		amount = *input.Amount
	}
	return respond(h.ws.LogHabit(input.ID, amount))
}

// HandleHabitGet handles the habit_get tool call.
func (h *Handlers) HandleHabitGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return respond(h.ws.GetHabit(id))
}

// HandleHabitList handles the habit_list tool call.
func (h *Handlers) HandleHabitList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.HabitQuery](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(h.ws.ListHabits(input))
}

// HandleHabitDelete handles the habit_delete tool call.
func (h *Handlers) HandleHabitDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return deleted(id, h.ws.DeleteHabit(id))
}

// HandleHabitRollOver handles the habit_rollover tool call.
func (h *Handlers) HandleHabitRollOver(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{"reset": h.ws.RollOverHabits()})
}

// --- decks ---

// HandleDeckCreate handles the deck_create tool call.
func (h *Handlers) HandleDeckCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.DeckInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.ws.CreateDeck(input))
}

// HandleDeckUpdate handles the deck_update tool call.
func (h *Handlers) HandleDeckUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeckUpdateRequest](req)
	if err == nil {
		err = requireField(input.ID, "id")
	}
	if err != nil {
		return errorResult(err), nil
	}
	return respond(h.ws.UpdateDeck(input.ID, input.DeckPatch))
}

// HandleDeckGet handles the deck_get tool call.
func (h *Handlers) HandleDeckGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return respond(h.ws.GetDeck(id))
}

// HandleDeckList handles the deck_list tool call.
func (h *Handlers) HandleDeckList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.DeckQuery](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(h.ws.ListDecks(input))
}

// HandleDeckDelete handles the deck_delete tool call.
func (h *Handlers) HandleDeckDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return deleted(id, h.ws.DeleteDeck(id))
}

// HandleDeckAddCards handles the deck_add_cards tool call.
func (h *Handlers) HandleDeckAddCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeckCardsRequest](req)
	if err == nil {
		err = requireField(input.ID, "id")
	}
	if err != nil {
		return errorResult(err), nil
	}
	return respond(h.ws.AddCards(input.ID, input.Cards))
}

// HandleDeckUpdateCard handles the deck_update_card tool call.
func (h *Handlers) HandleDeckUpdateCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardUpdateRequest](req)
	if err == nil {
		err = requireFields(map[string]string{"id": input.ID, "cardId": input.CardID})
	}
	if err != nil {
		return errorResult(err), nil
	}
	return respond(h.ws.UpdateCard(input.ID, input.CardID, input.CardPatch))
}

// HandleDeckRemoveCard handles the deck_remove_card tool call.
func (h *Handlers) HandleDeckRemoveCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardRef](req)
	if err == nil {
		err = requireFields(map[string]string{"id": input.ID, "cardId": input.CardID})
	}
	if err != nil {
		return errorResult(err), nil
	}
	return respond(h.ws.RemoveCard(input.ID, input.CardID))
}

// --- study plans ---

// HandlePlanCreate handles the plan_create tool call.
func (h *Handlers) HandlePlanCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.PlanInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.ws.CreatePlan(input))
}

// HandlePlanGet handles the plan_get tool call.
func (h *Handlers) HandlePlanGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return respond(h.ws.GetPlan(id))
}

// HandlePlanList handles the plan_list tool call.
func (h *Handlers) HandlePlanList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.PlanQuery](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(h.ws.ListPlans(input))
}

// HandlePlanDelete handles the plan_delete tool call.
func (h *Handlers) HandlePlanDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return deleted(id, h.ws.DeletePlan(id))
}

// HandlePlanToggleTask handles the plan_toggle_task tool call.
func (h *Handlers) HandlePlanToggleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanTaskRequest](req)
	if err == nil {
		err = requireFields(map[string]string{"id": input.ID, "taskId": input.TaskID})
	}
	if err != nil {
		return errorResult(err), nil
	}
	return respond(h.ws.TogglePlanTask(input.ID, input.TaskID))
}

// HandlePlanProgress handles the plan_progress tool call.
func (h *Handlers) HandlePlanProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireID(req)
	if errRes != nil {
		return errRes, nil
	}
	return respond(h.ws.Progress(id))
}

// HandlePlanExport handles the plan_export tool call.
func (h *Handlers) HandlePlanExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.ws.ExportPlansFile(input.Path))
}

// --- pomodoro ---

// HandlePomodoroTimer handles the pomodoro_timer tool call.
func (h *Handlers) HandlePomodoroTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PomodoroRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.ws.Pomodoro(input.Action))
}

// HandlePomodoroStats handles the pomodoro_stats tool call.
func (h *Handlers) HandlePomodoroStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := h.ws.PomodoroStats()
	return successResult(map[string]any{"days": stats.Days, "totals": stats.Totals()})
}

// --- AI and transcripts ---

// HandleAIStudyPlan handles the ai_study_plan tool call.
func (h *Handlers) HandleAIStudyPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StudyPlanRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := h.ai.GenerateStudyPlan(ctx, input.StudyPlanInput)
	if err != nil || !input.Save {
		return respond(out, err)
	}
	return respond(h.ws.CreatePlan(ops.PlanInput{
		Title:     out.Title,
		Goal:      out.Goal,
		Tasks:     out.Tasks,
		UserInput: input.StudyPlanInput,
		StartDate: input.StartDate,
	}))
}

// HandleAISummarize handles the ai_summarize tool call.
func (h *Handlers) HandleAISummarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummarizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.NoteID != "" {
		if input.Text != "" {
			return errorResult(errors.NewInvalidRequest("text and noteId are mutually exclusive")), nil
		}
		note, err := h.ws.GetNote(input.NoteID)
		if err != nil {
			return errorResult(err), nil
		}
		input.Text = note.Markdown()
	}
	return respond(h.ai.Summarize(ctx, input.SummaryInput))
}

// HandleAIFlashcards handles the ai_flashcards tool call.
func (h *Handlers) HandleAIFlashcards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FlashcardsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.DeckID != "" && input.DeckName != "" {
		return errorResult(errors.NewInvalidRequest("deckId and deckName are mutually exclusive")), nil
	}
	out, err := h.ai.GenerateFlashcards(ctx, input.FlashcardInput)
	if err != nil {
		return errorResult(err), nil
	}

	cards := make([]ops.CardInput, len(out.Cards))
	for i, c := range out.Cards {
		cards[i] = ops.CardInput{Question: c.Question, Answer: c.Answer}
	}
	switch {
	case input.DeckID != "":
		return respond(h.ws.AddCards(input.DeckID, cards))
	case input.DeckName != "":
		return respond(h.ws.CreateDeck(ops.DeckInput{Name: input.DeckName, Description: input.Topic, Cards: cards}))
	default:
		return successResult(out)
	}
}

// HandleAIVideoSummary handles the ai_video_summary tool call.
func (h *Handlers) HandleAIVideoSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ai.VideoSummaryInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.ai.SummarizeVideo(ctx, input))
}

// HandleTranscriptFetch handles the transcript_fetch tool call.
func (h *Handlers) HandleTranscriptFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TranscriptRequest](req)
	if err == nil {
		err = requireField(input.URL, "url")
	}
	if err != nil {
		return errorResult(err), nil
	}
	if h.transcripts == nil {
		return errorResult(errors.NewInvalidRequest("video transcripts are not configured")), nil
	}
	tr, err := h.transcripts.Fetch(ctx, input.URL)
	if err != nil {
		return errorResult(err), nil
	}
	if !input.IncludeSegments {
		tr.Segments = nil
	}
	return successResult(tr)
}

// Argument helpers

func requireField(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewInvalidRequest(name + " is required")
	}
	return nil
}

func requireFields(fields map[string]string) error {
	missing := errors.FieldErrors{}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing.Add(name, "is required")
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.NewInvalidRequest(strings.Join(missing.Fields(), ", ") + " required")
}

func requireID(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	input, err := decode[IDRequest](req)
	if err == nil {
		err = requireField(input.ID, "id")
	}
	if err != nil {
		return "", errorResult(err)
	}
	return input.ID, nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	fErr := errors.As(err)
	message := fErr.Message
	// Keep context added by wrapping, e.g. "cards[2]: ...".
	if full := err.Error(); full != fErr.Error() {
		message = strings.TrimSuffix(full, fErr.Error()) + fErr.Message
	}
	errorObj := map[string]any{
		"code":    fErr.Code,
		"message": message,
		"status":  fErr.Status,
	}
	if fErr.Code == errors.ErrInternal {
		errorObj["message"] = "an internal error occurred"
	} else if fErr.Details != nil {
		errorObj["details"] = fErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

// respond renders an operation's result or error.
func respond[T any](v T, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(v)
}

func deleted(id string, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": true, "id": id})
}
