package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var stringItems = mcp.Items(map[string]any{"type": "string"})

var cardItems = mcp.Items(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question": map[string]any{"type": "string"},
		"answer":   map[string]any{"type": "string"},
	},
	"required": []string{"question", "answer"},
})

func idTool(name, description, what string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("id", mcp.Required(), mcp.Description("ID of the "+what)),
	)
}

func importToolDef(name, what string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription("Merge a JSON array of "+what+" from a file. Records with a known id replace the stored one; the rest are appended."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the JSON file")),
	)
}

// --- notes ---

var noteCreateToolDef = mcp.NewTool("note_create",
	mcp.WithDescription("Create a markdown note. It becomes the active note."),
	mcp.WithString("title", mcp.Description("Title (defaults to \"Untitled Note\")")),
	mcp.WithString("body", mcp.Description("Markdown body")),
	mcp.WithArray("tags", stringItems, mcp.Description("Tags")),
	mcp.WithBoolean("isPinned", mcp.Description("Pin the note to the top of lists")),
)

var noteUpdateToolDef = mcp.NewTool("note_update",
	mcp.WithDescription("Change fields of a note. Omitted fields are left as they are."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithString("body", mcp.Description("New markdown body")),
	mcp.WithArray("tags", stringItems, mcp.Description("Replacement tags")),
	mcp.WithBoolean("isPinned", mcp.Description("Pinned state")),
)

var noteGetToolDef = idTool("note_get", "Fetch a note by ID.", "note")
var notePinToolDef = idTool("note_pin", "Toggle whether a note is pinned.", "note")
var noteDeleteToolDef = idTool("note_delete", "Delete a note.", "note")

var noteListToolDef = mcp.NewTool("note_list",
	mcp.WithDescription("List notes, pinned first then most recently updated."),
	mcp.WithString("search", mcp.Description("Case-insensitive text in title, body or tags")),
	mcp.WithString("tag", mcp.Description("Only notes with this tag")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var noteExportToolDef = mcp.NewTool("note_export",
	mcp.WithDescription("Write a note to a markdown file."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note ID")),
	mcp.WithString("path", mcp.Description("Output .md path (defaults to the exports directory)")),
)

// --- tasks ---

var taskCreateToolDef = mcp.NewTool("task_create",
	mcp.WithDescription("Create a task, optionally linked to a habit."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Task name")),
	mcp.WithString("description", mcp.Description("Details")),
	mcp.WithString("category", mcp.Description("Category (default \"general\")")),
	mcp.WithString("dueDate", mcp.Description("Due date, YYYY-MM-DD")),
	mcp.WithString("priority", mcp.Enum("low", "medium", "high"), mcp.Description("Priority (default medium)")),
	mcp.WithString("habitId", mcp.Description("ID of an existing habit to link")),
)

var taskUpdateToolDef = mcp.NewTool("task_update",
	mcp.WithDescription("Change fields of a task. An empty habitId unlinks the habit."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithString("description", mcp.Description("New description")),
	mcp.WithString("category", mcp.Description("New category")),
	mcp.WithString("dueDate", mcp.Description("New due date, YYYY-MM-DD")),
	mcp.WithString("priority", mcp.Enum("low", "medium", "high"), mcp.Description("New priority")),
	mcp.WithString("habitId", mcp.Description("Habit to link")),
	mcp.WithBoolean("completed", mcp.Description("Completion state")),
)

var taskToggleToolDef = idTool("task_toggle", "Flip a task between done and not done.", "task")
var taskGetToolDef = idTool("task_get", "Fetch a task by ID.", "task")
var taskDeleteToolDef = idTool("task_delete", "Delete a task.", "task")

var taskListToolDef = mcp.NewTool("task_list",
	mcp.WithDescription("List tasks, open high-priority tasks first."),
	mcp.WithString("search", mcp.Description("Case-insensitive text in name, description or category")),
	mcp.WithString("category", mcp.Description("Only tasks in this category")),
	mcp.WithBoolean("hideCompleted", mcp.Description("Leave out completed tasks")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

// --- habits ---

var habitCreateToolDef = mcp.NewTool("habit_create",
	mcp.WithDescription("Create a daily habit. Binary habits are done or not; quantitative habits count toward a target."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Habit name")),
	mcp.WithString("category", mcp.Description("Category (default \"general\")")),
	mcp.WithString("type", mcp.Enum("binary", "quantitative"), mcp.Description("Habit type (default binary)")),
	mcp.WithNumber("target", mcp.Description("Daily target for quantitative habits")),
	mcp.WithString("unit", mcp.Description("Unit of the target, e.g. pages")),
	mcp.WithNumber("goalStreak", mcp.Description("Streak length to aim for")),
)

var habitUpdateToolDef = mcp.NewTool("habit_update",
	mcp.WithDescription("Change fields of a habit. goalStreak 0 clears the goal."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Habit ID")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithString("category", mcp.Description("New category")),
	mcp.WithString("type", mcp.Enum("binary", "quantitative"), mcp.Description("New type")),
	mcp.WithNumber("target", mcp.Description("New daily target")),
	mcp.WithString("unit", mcp.Description("New unit")),
	mcp.WithNumber("goalStreak", mcp.Description("New streak goal")),
)

var habitLogToolDef = mcp.NewTool("habit_log",
	mcp.WithDescription("Record progress on a habit for today."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Habit ID")),
	mcp.WithNumber("amount", mcp.Description("Amount to add for quantitative habits (default 1)")),
)

var habitGetToolDef = idTool("habit_get", "Fetch a habit by ID.", "habit")
var habitDeleteToolDef = idTool("habit_delete", "Delete a habit.", "habit")

var habitListToolDef = mcp.NewTool("habit_list",
	mcp.WithDescription("List habits, those not yet done today first."),
	mcp.WithString("search", mcp.Description("Case-insensitive text in name, category or unit")),
	mcp.WithString("category", mcp.Description("Only habits in this category")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var habitRollOverToolDef = mcp.NewTool("habit_rollover",
	mcp.WithDescription("Start a new day for every habit: clear today's progress and break streaks that missed yesterday."),
)

// --- decks ---

var deckCreateToolDef = mcp.NewTool("deck_create",
	mcp.WithDescription("Create a flashcard deck."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Deck name")),
	mcp.WithString("description", mcp.Description("Description")),
	mcp.WithArray("cards", cardItems, mcp.Description("Initial cards")),
)

var deckUpdateToolDef = mcp.NewTool("deck_update",
	mcp.WithDescription("Rename a deck or change its description."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Deck ID")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithString("description", mcp.Description("New description")),
)

var deckGetToolDef = idTool("deck_get", "Fetch a deck and its cards.", "deck")
var deckDeleteToolDef = idTool("deck_delete", "Delete a deck and all its cards.", "deck")

var deckListToolDef = mcp.NewTool("deck_list",
	mcp.WithDescription("List decks, newest first."),
	mcp.WithString("search", mcp.Description("Case-insensitive text in the name, description or cards")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var deckAddCardsToolDef = mcp.NewTool("deck_add_cards",
	mcp.WithDescription("Append cards to a deck."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Deck ID")),
	mcp.WithArray("cards", mcp.Required(), cardItems, mcp.Description("Cards to add")),
)

var deckUpdateCardToolDef = mcp.NewTool("deck_update_card",
	mcp.WithDescription("Edit one card of a deck."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Deck ID")),
	mcp.WithString("cardId", mcp.Required(), mcp.Description("Card ID")),
	mcp.WithString("question", mcp.Description("New question")),
	mcp.WithString("answer", mcp.Description("New answer")),
)

var deckRemoveCardToolDef = mcp.NewTool("deck_remove_card",
	mcp.WithDescription("Remove one card from a deck."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Deck ID")),
	mcp.WithString("cardId", mcp.Required(), mcp.Description("Card ID")),
)

// --- study plans ---

var planCreateToolDef = mcp.NewTool("plan_create",
	mcp.WithDescription("Store a study plan. Use ai_study_plan with save=true to generate and store one in a single step."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Plan title")),
	mcp.WithString("goal", mcp.Required(), mcp.Description("What the plan achieves")),
	mcp.WithArray("tasks", mcp.Required(), mcp.Description("Study tasks: topic, description, duration (minutes), date (YYYY-MM-DD), resource"),
		mcp.Items(map[string]any{"type": "object"})),
	mcp.WithString("startDate", mcp.Description("First day, YYYY-MM-DD (default today)")),
)

var planGetToolDef = idTool("plan_get", "Fetch a study plan by ID.", "study plan")
var planDeleteToolDef = idTool("plan_delete", "Delete a study plan.", "study plan")
var planProgressToolDef = idTool("plan_progress", "Report how many tasks of a plan are done.", "study plan")

var planListToolDef = mcp.NewTool("plan_list",
	mcp.WithDescription("List study plans, most recent start first."),
	mcp.WithString("search", mcp.Description("Case-insensitive text in title, goal, subject or topics")),
	mcp.WithString("subject", mcp.Description("Only plans for this subject")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var planToggleTaskToolDef = mcp.NewTool("plan_toggle_task",
	mcp.WithDescription("Flip one study task between done and not done."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Plan ID")),
	mcp.WithString("taskId", mcp.Required(), mcp.Description("Task ID")),
)

var planExportToolDef = mcp.NewTool("plan_export",
	mcp.WithDescription("Write every study plan to a JSON file."),
	mcp.WithString("path", mcp.Description("Output .json path (defaults to study-plans-<date>.json in the exports directory)")),
)

// --- pomodoro ---

var pomodoroTimerToolDef = mcp.NewTool("pomodoro_timer",
	mcp.WithDescription("Drive the focus timer. Completed focus sessions are added to today's stats."),
	mcp.WithString("action", mcp.Enum("status", "start", "pause", "reset", "skip"), mcp.Description("Action (default status)")),
)

var pomodoroStatsToolDef = mcp.NewTool("pomodoro_stats",
	mcp.WithDescription("Focus sessions and minutes per day, with totals."),
)

// --- AI ---

var aiStudyPlanToolDef = mcp.NewTool("ai_study_plan",
	mcp.WithDescription("Generate a day-by-day study plan."),
	mcp.WithString("subject", mcp.Required(), mcp.Description("What to study")),
	mcp.WithString("goal", mcp.Required(), mcp.Description("What the learner wants to achieve")),
	mcp.WithString("level", mcp.Enum("beginner", "intermediate", "advanced"), mcp.Description("Current level")),
	mcp.WithNumber("durationDays", mcp.Required(), mcp.Description("Plan length in days (1-365)")),
	mcp.WithNumber("hoursPerDay", mcp.Required(), mcp.Description("Study hours per day")),
	mcp.WithString("startDate", mcp.Description("First day, YYYY-MM-DD (default today)")),
	mcp.WithBoolean("save", mcp.Description("Store the generated plan")),
)

var aiSummarizeToolDef = mcp.NewTool("ai_summarize",
	mcp.WithDescription("Summarize text, or a stored note when noteId is given."),
	mcp.WithString("text", mcp.Description("Text to summarize")),
	mcp.WithString("noteId", mcp.Description("Summarize this note's body instead of text")),
	mcp.WithString("style", mcp.Enum("brief", "detailed", "bullets"), mcp.Description("Summary style (default brief)")),
)

var aiFlashcardsToolDef = mcp.NewTool("ai_flashcards",
	mcp.WithDescription("Generate flashcards from text or a topic, optionally saving them to a deck."),
	mcp.WithString("text", mcp.Description("Source material")),
	mcp.WithString("topic", mcp.Description("Topic")),
	mcp.WithNumber("count", mcp.Description("Maximum number of cards (default 10, max 50)")),
	mcp.WithString("deckId", mcp.Description("Append the cards to this deck")),
	mcp.WithString("deckName", mcp.Description("Create a new deck with this name for the cards")),
)

var aiVideoSummaryToolDef = mcp.NewTool("ai_video_summary",
	mcp.WithDescription("Summarize a YouTube video from its transcript."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Video URL or ID")),
	mcp.WithString("style", mcp.Enum("brief", "detailed", "bullets"), mcp.Description("Summary style (default brief)")),
)

var transcriptFetchToolDef = mcp.NewTool("transcript_fetch",
	mcp.WithDescription("Fetch the caption transcript of a YouTube video."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Video URL or ID")),
	mcp.WithBoolean("includeSegments", mcp.Description("Include timed segments, not just the joined text")),
)
