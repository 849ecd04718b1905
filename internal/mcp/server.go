package mcp

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/flowfocus/internal/ai"
	"github.com/hpungsan/flowfocus/internal/logging"
	"github.com/hpungsan/flowfocus/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"note", "task", "habit", "deck", "plan", "pomodoro", "ai", "transcript"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"note_create": {def: noteCreateToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteCreate }},
	"note_update": {def: noteUpdateToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteUpdate }},
	"note_get":    {def: noteGetToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteGet }},
	"note_list":   {def: noteListToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteList }},
	"note_pin":    {def: notePinToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNotePin }},
	"note_delete": {def: noteDeleteToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteDelete }},
	"note_export": {def: noteExportToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteExport }},
	"note_import": {def: importToolDef("note_import", "notes"), handler: importHandler(ops.ImportNotes)},

	"task_create": {def: taskCreateToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskCreate }},
	"task_update": {def: taskUpdateToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskUpdate }},
	"task_toggle": {def: taskToggleToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskToggle }},
	"task_get":    {def: taskGetToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskGet }},
	"task_list":   {def: taskListToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskList }},
	"task_delete": {def: taskDeleteToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskDelete }},
	"task_import": {def: importToolDef("task_import", "tasks"), handler: importHandler(ops.ImportTasks)},

	"habit_create":   {def: habitCreateToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHabitCreate }},
	"habit_update":   {def: habitUpdateToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHabitUpdate }},
	"habit_log":      {def: habitLogToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHabitLog }},
	"habit_get":      {def: habitGetToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHabitGet }},
	"habit_list":     {def: habitListToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHabitList }},
	"habit_delete":   {def: habitDeleteToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHabitDelete }},
	"habit_rollover": {def: habitRollOverToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHabitRollOver }},
	"habit_import":   {def: importToolDef("habit_import", "habits"), handler: importHandler(ops.ImportHabits)},

	"deck_create":      {def: deckCreateToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckCreate }},
	"deck_update":      {def: deckUpdateToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckUpdate }},
	"deck_get":         {def: deckGetToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckGet }},
	"deck_list":        {def: deckListToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckList }},
	"deck_delete":      {def: deckDeleteToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckDelete }},
	"deck_add_cards":   {def: deckAddCardsToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckAddCards }},
	"deck_update_card": {def: deckUpdateCardToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckUpdateCard }},
	"deck_remove_card": {def: deckRemoveCardToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckRemoveCard }},
	"deck_import":      {def: importToolDef("deck_import", "decks"), handler: importHandler(ops.ImportDecks)},

	"plan_create":      {def: planCreateToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanCreate }},
	"plan_get":         {def: planGetToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanGet }},
	"plan_list":        {def: planListToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanList }},
	"plan_delete":      {def: planDeleteToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanDelete }},
	"plan_toggle_task": {def: planToggleTaskToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanToggleTask }},
	"plan_progress":    {def: planProgressToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanProgress }},
	"plan_export":      {def: planExportToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanExport }},
	"plan_import":      {def: importToolDef("plan_import", "study plans"), handler: importHandler(ops.ImportPlans)},

	"pomodoro_timer": {def: pomodoroTimerToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePomodoroTimer }},
	"pomodoro_stats": {def: pomodoroStatsToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePomodoroStats }},

	"ai_study_plan":    {def: aiStudyPlanToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAIStudyPlan }},
	"ai_summarize":     {def: aiSummarizeToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAISummarize }},
	"ai_flashcards":    {def: aiFlashcardsToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAIFlashcards }},
	"ai_video_summary": {def: aiVideoSummaryToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAIVideoSummary }},

	"transcript_fetch": {def: transcriptFetchToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTranscriptFetch }},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "note_create" → "note").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with FlowFocus tools registered.
// Tools listed in DisabledTools or belonging to DisabledTypes of the
// workspace config are excluded from registration.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"flowfocus",
		version,
		server.WithToolCapabilities(true),
	)

	cfg := h.ws.Config()
	if unknown := ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		h.logger.Warn("ignoring unknown names in disabled_tools", "tools", unknown)
	}
	if unknown := ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		h.logger.Warn("ignoring unknown names in disabled_types", "types", unknown)
	}
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves MCP over stdio and flushes pending writes when the client
// disconnects.
func Run(ctx context.Context, h *Handlers, version string) error {
	s := NewServer(h, version)
	err := server.ServeStdio(s)
	if cerr := h.ws.Close(ctx); cerr != nil {
		h.logger.Error("final flush failed", "err", cerr)
		if err == nil {
			err = cerr
		}
	}
	return err
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	ws          *ops.Workspace
	ai          *ai.Service
	transcripts ai.TranscriptSource
	logger      *log.Logger
}

// NewHandlers creates a new Handlers instance. transcripts may be nil.
func NewHandlers(ws *ops.Workspace, svc *ai.Service, transcripts ai.TranscriptSource, logger *log.Logger) *Handlers {
	return &Handlers{ws: ws, ai: svc, transcripts: transcripts, logger: logging.With(logger, "mcp")}
}
