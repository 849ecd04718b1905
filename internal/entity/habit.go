package entity

import (
	"strings"
	"time"

	"github.com/hpungsan/flowfocus/internal/errors"
)

// HabitType distinguishes done/not-done habits from ones measured against a target.
type HabitType string

const (
	HabitBinary       HabitType = "binary"
	HabitQuantitative HabitType = "quantitative"
)

// Habit is a daily habit with a running streak.
//
// CompletedToday and Value describe ActiveDay. RollOver moves a habit onto a
// new day, clearing those fields and breaking the streak if a day was missed.
type Habit struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Type           HabitType `json:"type"`
	Streak         int       `json:"streak"`
	CompletedToday bool      `json:"completedToday"`
	Value          float64   `json:"value"`
	Target         float64   `json:"target"`
	Unit           string    `json:"unit"`
	GoalStreak     *int      `json:"goalStreak,omitempty"`
	LastCompleted  string    `json:"lastCompleted,omitempty"`
	ActiveDay      string    `json:"activeDay,omitempty"`
}

func (h Habit) RecordID() string { return h.ID }

// Pinned flags habits still open for the day.
func (h Habit) Pinned() bool   { return !h.CompletedToday }
func (h Habit) Recency() int64 { return IDTime(h.ID) }

func (h Habit) Matches(term string) bool {
	return containsFold(term, h.Name, h.Category, h.Unit)
}

func (h Habit) HasLabel(category string) bool {
	return strings.EqualFold(h.Category, category)
}

// GoalReached reports whether the streak has hit the optional goal.
func (h Habit) GoalReached() bool {
	return h.GoalStreak != nil && h.Streak >= *h.GoalStreak
}

// RollOver moves the habit onto today. It is a no-op when ActiveDay is already today.
func (h Habit) RollOver(today string) Habit {
	if h.ActiveDay == today {
		return h
	}
	h.CompletedToday = false
	h.Value = 0
	if h.LastCompleted != today && h.LastCompleted != previousDay(today) {
		h.Streak = 0
	}
	h.ActiveDay = today
	return h
}

// Log records progress for today. Binary habits complete outright; quantitative
// habits accumulate amount and complete once Value reaches Target. The streak
// grows at most once per day.
func (h Habit) Log(amount float64, today string) Habit {
	h = h.RollOver(today)
	switch h.Type {
	case HabitQuantitative:
		h.Value += amount
		if h.Value < 0 {
			h.Value = 0
		}
		if h.Value >= h.Target {
			h = h.complete(today)
		}
	default:
		h = h.complete(today)
	}
	return h
}

func (h Habit) complete(today string) Habit {
	if h.CompletedToday {
		return h
	}
	h.CompletedToday = true
	if h.LastCompleted != today {
		h.Streak++
	}
	h.LastCompleted = today
	return h
}

// WithDefaults fills fields missing from older stored habits.
func (h Habit) WithDefaults() Habit {
	if h.Type == "" {
		h.Type = HabitBinary
	}
	if strings.TrimSpace(h.Category) == "" {
		h.Category = DefaultCategory
	}
	if h.Target <= 0 {
		h.Target = 1
	}
	if h.Streak < 0 {
		h.Streak = 0
	}
	return h
}

// Validate checks the habit's shape.
func (h Habit) Validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(h.ID) == "" {
		fields.Add("id", "is required")
	}
	if strings.TrimSpace(h.Name) == "" {
		fields.Add("name", "is required")
	}
	if h.Type != HabitBinary && h.Type != HabitQuantitative {
		fields.Add("type", "must be one of: binary, quantitative")
	}
	if h.Streak < 0 {
		fields.Add("streak", "must not be negative")
	}
	if h.Target <= 0 {
		fields.Add("target", "must be positive")
	}
	if h.GoalStreak != nil && *h.GoalStreak < 1 {
		fields.Add("goalStreak", "must be at least 1")
	}
	if h.LastCompleted != "" && !ValidDate(h.LastCompleted) {
		fields.Add("lastCompleted", "must be a YYYY-MM-DD date")
	}
	return fields.Err("habit")
}

func previousDay(day string) string {
	t, err := time.Parse(DateLayout, day)
	if err != nil {
		return ""
	}
	return Day(t.AddDate(0, 0, -1))
}
