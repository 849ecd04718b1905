package entity

import (
	"strings"

	"github.com/hpungsan/flowfocus/internal/errors"
)

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// DefaultCategory is assigned to tasks and habits created without one.
const DefaultCategory = "general"

// Task is a to-do item. HabitID is a weak reference: it may point at a habit
// that no longer exists and is only ever resolved by lookup.
type Task struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Completed   bool     `json:"completed"`
	DueDate     string   `json:"dueDate,omitempty"`
	Priority    Priority `json:"priority"`
	HabitID     string   `json:"habitId,omitempty"`
}

func (t Task) RecordID() string { return t.ID }

// Pinned flags open high-priority tasks so they sort first.
func (t Task) Pinned() bool   { return t.Priority == PriorityHigh && !t.Completed }
func (t Task) Recency() int64 { return IDTime(t.ID) }

func (t Task) Matches(term string) bool {
	return containsFold(term, t.Name, t.Description, t.Category)
}

func (t Task) HasLabel(category string) bool {
	return strings.EqualFold(t.Category, category)
}

// WithDefaults fills fields missing from older stored tasks.
func (t Task) WithDefaults() Task {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if strings.TrimSpace(t.Category) == "" {
		t.Category = DefaultCategory
	}
	return t
}

// Validate checks the task's shape.
func (t Task) Validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(t.ID) == "" {
		fields.Add("id", "is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		fields.Add("name", "is required")
	}
	if !t.Priority.Valid() {
		fields.Add("priority", "must be one of: low, medium, high")
	}
	if t.DueDate != "" && !ValidDate(t.DueDate) {
		fields.Add("dueDate", "must be a YYYY-MM-DD date")
	}
	return fields.Err("task")
}
