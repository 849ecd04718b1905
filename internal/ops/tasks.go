package ops

import (
	"strings"

	"github.com/hpungsan/flowfocus/internal/collection"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
)

// TaskInput contains parameters for CreateTask.
type TaskInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	DueDate     string          `json:"dueDate,omitempty"`
	Priority    entity.Priority `json:"priority,omitempty"`
	HabitID     string          `json:"habitId,omitempty"`
}

// TaskPatch lists the fields UpdateTask changes (nil = don't change).
// An empty HabitID unlinks the habit.
type TaskPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	DueDate     *string          `json:"dueDate,omitempty"`
	Priority    *entity.Priority `json:"priority,omitempty"`
	HabitID     *string          `json:"habitId,omitempty"`
	Completed   *bool            `json:"completed,omitempty"`
}

// TaskQuery filters ListTasks.
type TaskQuery struct {
	Search        string `json:"search,omitempty"`
	Category      string `json:"category,omitempty"`
	HideCompleted bool   `json:"hideCompleted,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// CreateTask adds a task. A habit link must name an existing habit.
func (w *Workspace) CreateTask(input TaskInput) (entity.Task, error) {
	t := entity.Task{
		ID:          entity.NewID(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    strings.TrimSpace(input.Category),
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		HabitID:     input.HabitID,
	}.WithDefaults()
	if err := t.Validate(); err != nil {
		return entity.Task{}, err
	}
	if err := w.checkHabitLink(t.HabitID); err != nil {
		return entity.Task{}, err
	}
	return w.tasks.Create(t), nil
}

// UpdateTask applies patch.
func (w *Workspace) UpdateTask(id string, patch TaskPatch) (entity.Task, error) {
	if patch == (TaskPatch{}) {
		return entity.Task{}, errors.NewInvalidRequest("at least one editable field must be provided")
	}
	if patch.HabitID != nil {
		if err := w.checkHabitLink(*patch.HabitID); err != nil {
			return entity.Task{}, err
		}
	}
	return updateRecord(w.tasks, "task", id, func(t *entity.Task) {
		if patch.Name != nil {
			t.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Category != nil {
			t.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.DueDate != nil {
			t.DueDate = *patch.DueDate
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.HabitID != nil {
			t.HabitID = *patch.HabitID
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		*t = t.WithDefaults()
	})
}

// ToggleTask flips a task's completed flag.
func (w *Workspace) ToggleTask(id string) (entity.Task, error) {
	return updateRecord(w.tasks, "task", id, func(t *entity.Task) {
		t.Completed = !t.Completed
	})
}

// DeleteTask removes a task. A linked habit is untouched.
func (w *Workspace) DeleteTask(id string) error {
	return deleteRecord(w.tasks, "task", id)
}

// GetTask returns one task.
func (w *Workspace) GetTask(id string) (entity.Task, error) {
	return getRecord(w.tasks, "task", id)
}

// ListTasks returns open high-priority tasks first, then the newest.
func (w *Workspace) ListTasks(q TaskQuery) *ListOutput[entity.Task] {
	items := w.tasks.View(collection.Query{Search: q.Search, Label: q.Category})
	if q.HideCompleted {
		open := items[:0]
		for _, t := range items {
			if !t.Completed {
				open = append(open, t)
			}
		}
		items = open
	}
	return page(items, q.Limit, q.Offset)
}

// ImportTasks merges a JSON array of tasks by id.
func (w *Workspace) ImportTasks(data []byte) (*ImportOutput, error) {
	return importRecords(w.tasks, data, entity.Task.WithDefaults, "id", "name")
}

// HabitForTask resolves a task's habit link. A task without a link, or with
// a link to a deleted habit, yields not-found.
func (w *Workspace) HabitForTask(taskID string) (entity.Habit, error) {
	t, err := w.GetTask(taskID)
	if err != nil {
		return entity.Habit{}, err
	}
	if t.HabitID == "" {
		return entity.Habit{}, errors.NewNotFound("habit link for task", taskID)
	}
	return w.GetHabit(t.HabitID)
}

func (w *Workspace) checkHabitLink(habitID string) error {
	if habitID == "" {
		return nil
	}
	if _, ok := w.habits.Get(habitID); !ok {
		return errors.NewNotFound("habit", habitID)
	}
	return nil
}
