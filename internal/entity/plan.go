package entity

import (
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/flowfocus/internal/errors"
)

// Study levels accepted by StudyPlanInput.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// MaxPlanDays bounds how long a generated plan may run.
const MaxPlanDays = 365

// StudyPlanInput is what the user asked for when a plan was generated.
// Plans keep a copy so they can be regenerated later.
type StudyPlanInput struct {
	Subject      string  `json:"subject"`
	Goal         string  `json:"goal"`
	Level        string  `json:"level,omitempty"`
	DurationDays int     `json:"durationDays"`
	HoursPerDay  float64 `json:"hoursPerDay"`
	StartDate    string  `json:"startDate,omitempty"`
}

// Validate checks a plan request.
func (in StudyPlanInput) Validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(in.Subject) == "" {
		fields.Add("subject", "is required")
	}
	if strings.TrimSpace(in.Goal) == "" {
		fields.Add("goal", "is required")
	}
	switch in.Level {
	case "", LevelBeginner, LevelIntermediate, LevelAdvanced:
	default:
		fields.Add("level", "must be one of: beginner, intermediate, advanced")
	}
	if in.DurationDays < 1 || in.DurationDays > MaxPlanDays {
		fields.Add("durationDays", "must be between 1 and "+strconv.Itoa(MaxPlanDays))
	}
	if in.HoursPerDay <= 0 || in.HoursPerDay > 24 {
		fields.Add("hoursPerDay", "must be greater than 0 and at most 24")
	}
	if in.StartDate != "" && !ValidDate(in.StartDate) {
		fields.Add("startDate", "must be a YYYY-MM-DD date")
	}
	return fields.Err("study plan input")
}

// StudyTask is one scheduled session of a plan. Duration is in minutes.
type StudyTask struct {
	ID          string `json:"id"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Completed   bool   `json:"completed"`
	Date        string `json:"date"`
	Resource    string `json:"resource,omitempty"`
}

// StudyPlan owns its tasks; importing a plan with a known id replaces them wholesale.
type StudyPlan struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Goal      string         `json:"goal"`
	Tasks     []StudyTask    `json:"tasks"`
	UserInput StudyPlanInput `json:"userInput"`
	StartDate string         `json:"startDate"`
}

func (p StudyPlan) RecordID() string { return p.ID }
func (p StudyPlan) Pinned() bool     { return false }

// Recency orders plans by start date, falling back to creation time.
func (p StudyPlan) Recency() int64 {
	if t, err := time.Parse(DateLayout, p.StartDate); err == nil {
		return t.UnixMilli()
	}
	return IDTime(p.ID)
}

func (p StudyPlan) Matches(term string) bool {
	if containsFold(term, p.Title, p.Goal, p.UserInput.Subject) {
		return true
	}
	for _, t := range p.Tasks {
		if containsFold(term, t.Topic, t.Description) {
			return true
		}
	}
	return false
}

// HasLabel matches the subject the plan was generated for.
func (p StudyPlan) HasLabel(subject string) bool {
	return strings.EqualFold(p.UserInput.Subject, subject)
}

// TaskIndex returns the position of the task with id, or -1.
func (p StudyPlan) TaskIndex(id string) int {
	for i, t := range p.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Progress is the share of completed tasks as a whole percentage.
func (p StudyPlan) Progress() int {
	if len(p.Tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range p.Tasks {
		if t.Completed {
			done++
		}
	}
	return done * 100 / len(p.Tasks)
}

// WithDefaults fills fields missing from older stored or imported plans.
func (p StudyPlan) WithDefaults() StudyPlan {
	if p.Tasks == nil {
		p.Tasks = []StudyTask{}
	}
	if p.StartDate == "" {
		p.StartDate = p.UserInput.StartDate
	}
	if p.Goal == "" {
		p.Goal = p.UserInput.Goal
	}
	for i := range p.Tasks {
		if p.Tasks[i].Duration < 0 {
			p.Tasks[i].Duration = 0
		}
	}
	return p
}

// Validate checks the plan and its tasks.
func (p StudyPlan) Validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(p.ID) == "" {
		fields.Add("id", "is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		fields.Add("title", "is required")
	}
	if p.StartDate != "" && !ValidDate(p.StartDate) {
		fields.Add("startDate", "must be a YYYY-MM-DD date")
	}
	seen := make(map[string]bool, len(p.Tasks))
	for i, t := range p.Tasks {
		prefix := "tasks[" + strconv.Itoa(i) + "]."
		switch {
		case t.ID == "":
			fields.Add(prefix+"id", "is required")
		case seen[t.ID]:
			fields.Add(prefix+"id", "is duplicated")
		}
		seen[t.ID] = true
		if strings.TrimSpace(t.Topic) == "" {
			fields.Add(prefix+"topic", "is required")
		}
		if t.Date != "" && !ValidDate(t.Date) {
			fields.Add(prefix+"date", "must be a YYYY-MM-DD date")
		}
	}
	return fields.Err("study plan")
}
