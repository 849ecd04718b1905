package ops

import (
	"strings"

	"github.com/hpungsan/flowfocus/internal/collection"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
)

// HabitInput contains parameters for CreateHabit.
type HabitInput struct {
	Name       string           `json:"name"`
	Category   string           `json:"category,omitempty"`
	Type       entity.HabitType `json:"type,omitempty"`
	Target     float64          `json:"target,omitempty"`
	Unit       string           `json:"unit,omitempty"`
	GoalStreak *int             `json:"goalStreak,omitempty"`
}

// HabitPatch lists the fields UpdateHabit changes (nil = don't change).
type HabitPatch struct {
	Name       *string           `json:"name,omitempty"`
	Category   *string           `json:"category,omitempty"`
	Type       *entity.HabitType `json:"type,omitempty"`
	Target     *float64          `json:"target,omitempty"`
	Unit       *string           `json:"unit,omitempty"`
	GoalStreak *int              `json:"goalStreak,omitempty"`
}

// HabitQuery filters ListHabits.
type HabitQuery struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// CreateHabit adds a habit starting today with no streak.
func (w *Workspace) CreateHabit(input HabitInput) (entity.Habit, error) {
	h := entity.Habit{
		ID:         entity.NewID(),
		Name:       strings.TrimSpace(input.Name),
		Category:   strings.TrimSpace(input.Category),
		Type:       input.Type,
		Target:     input.Target,
		Unit:       strings.TrimSpace(input.Unit),
		GoalStreak: input.GoalStreak,
		ActiveDay:  w.today(),
	}.WithDefaults()
	if err := h.Validate(); err != nil {
		return entity.Habit{}, err
	}
	return w.habits.Create(h), nil
}

// UpdateHabit applies patch. Progress and streak are left alone.
func (w *Workspace) UpdateHabit(id string, patch HabitPatch) (entity.Habit, error) {
	if patch == (HabitPatch{}) {
		return entity.Habit{}, errors.NewInvalidRequest("at least one editable field must be provided")
	}
	return updateRecord(w.habits, "habit", id, func(h *entity.Habit) {
		if patch.Name != nil {
			h.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Category != nil {
			h.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Type != nil {
			h.Type = *patch.Type
		}
		if patch.Target != nil {
			h.Target = *patch.Target
		}
		if patch.Unit != nil {
			h.Unit = strings.TrimSpace(*patch.Unit)
		}
		if patch.GoalStreak != nil {
			goal := *patch.GoalStreak
			if goal == 0 {
				h.GoalStreak = nil
			} else {
				h.GoalStreak = &goal
			}
		}
		*h = h.WithDefaults()
	})
}

// DeleteHabit removes a habit. Tasks linking to it keep the dangling id.
func (w *Workspace) DeleteHabit(id string) error {
	return deleteRecord(w.habits, "habit", id)
}

// GetHabit returns one habit.
func (w *Workspace) GetHabit(id string) (entity.Habit, error) {
	return getRecord(w.habits, "habit", id)
}

// ListHabits returns habits still open today first.
func (w *Workspace) ListHabits(q HabitQuery) *ListOutput[entity.Habit] {
	items := w.habits.View(collection.Query{Search: q.Search, Label: q.Category})
	return page(items, q.Limit, q.Offset)
}

// LogHabit records progress for today: binary habits complete, quantitative
// habits add amount toward their target.
func (w *Workspace) LogHabit(id string, amount float64) (entity.Habit, error) {
	today := w.today()
	return updateRecord(w.habits, "habit", id, func(h *entity.Habit) {
		*h = h.Log(amount, today)
	})
}

// RollOverHabits moves every habit onto today, clearing yesterday's progress
// and breaking streaks where a day was missed. It returns how many changed.
func (w *Workspace) RollOverHabits() int {
	today := w.today()
	changed := 0
	for _, h := range w.habits.All() {
		if h.ActiveDay == today {
			continue
		}
		if _, ok := w.habits.Update(h.ID, func(v *entity.Habit) bool {
			*v = v.RollOver(today)
			return true
		}); ok {
			changed++
		}
	}
	return changed
}

// ImportHabits merges a JSON array of habits by id.
func (w *Workspace) ImportHabits(data []byte) (*ImportOutput, error) {
	return importRecords(w.habits, data, entity.Habit.WithDefaults, "id", "name", "type")
}
