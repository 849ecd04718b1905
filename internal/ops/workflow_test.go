package ops

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/db"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/logging"
	"github.com/hpungsan/flowfocus/internal/persist"
)

// TestFullWorkflow drives a study day end to end against SQLite with
// debounced writes: plan → tasks → habit → notes → flush → reopen.
func TestFullWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultConfig()
	clock := newFakeClock()
	adapter := persist.NewAdapter(persist.NewSQLiteKV(database), time.Hour, logging.Discard())
	ws := NewWorkspace(context.Background(), adapter, cfg, logging.Discard(), WithClock(clock.Now))

	// 1. Plan
	plan, err := ws.CreatePlan(samplePlan())
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 2)

	// 2. Habit and a task linked to it
	habit, err := ws.CreateHabit(HabitInput{Name: "study", Type: entity.HabitBinary})
	require.NoError(t, err)
	task, err := ws.CreateTask(TaskInput{Name: "review syntax", Priority: entity.PriorityHigh, HabitID: habit.ID})
	require.NoError(t, err)

	linked, err := ws.HabitForTask(task.ID)
	require.NoError(t, err)
	require.Equal(t, habit.ID, linked.ID)

	// 3. Do the work
	_, err = ws.ToggleTask(task.ID)
	require.NoError(t, err)
	_, err = ws.TogglePlanTask(plan.ID, plan.Tasks[0].ID)
	require.NoError(t, err)
	habit, err = ws.LogHabit(habit.ID, 1)
	require.NoError(t, err)
	require.True(t, habit.CompletedToday)
	ws.RecordSession(25)

	// 4. Notes
	note, err := ws.CreateNote(NoteInput{Title: "A", Body: "y", Tags: []string{"go"}})
	require.NoError(t, err)
	md, err := ws.ExportNoteMarkdown(note.ID)
	require.NoError(t, err)
	require.Equal(t, "# A\n\ny", md)

	// Nothing has hit the database yet: the quiet period is an hour.
	_, found, err := db.Get(context.Background(), database, persist.KeyNotes)
	require.NoError(t, err)
	require.False(t, found)
	require.NotEmpty(t, adapter.Pending())

	// 5. Flush before exit
	require.NoError(t, ws.Close(context.Background()))
	require.Empty(t, adapter.Pending())

	// 6. Reopen and verify everything survived
	reopened := NewWorkspace(context.Background(),
		persist.NewAdapter(persist.NewSQLiteKV(database), 0, logging.Discard()),
		cfg, logging.Discard(), WithClock(clock.Now))

	gotNote, err := reopened.GetNote(note.ID)
	require.NoError(t, err)
	require.Equal(t, note, gotNote)

	gotTask, err := reopened.GetTask(task.ID)
	require.NoError(t, err)
	require.True(t, gotTask.Completed)

	progress, err := reopened.Progress(plan.ID)
	require.NoError(t, err)
	require.Equal(t, 50, progress.Percent)

	gotHabit, err := reopened.GetHabit(habit.ID)
	require.NoError(t, err)
	require.Equal(t, 1, gotHabit.Streak)

	require.Equal(t, 1, reopened.PomodoroStats().Totals().Sessions)

	// 7. Deleting the plan removes its tasks with it
	require.NoError(t, reopened.DeletePlan(plan.ID))
	_, err = reopened.Progress(plan.ID)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
