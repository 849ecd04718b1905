package ops

import (
	"encoding/json"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/hpungsan/flowfocus/internal/collection"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
)

// PlanInput contains parameters for CreatePlan. Tasks without an id get one.
type PlanInput struct {
	Title     string                `json:"title"`
	Goal      string                `json:"goal"`
	Tasks     []entity.StudyTask    `json:"tasks"`
	UserInput entity.StudyPlanInput `json:"userInput"`
	StartDate string                `json:"startDate,omitempty"`
}

// PlanQuery filters ListPlans.
type PlanQuery struct {
	Search  string `json:"search,omitempty"`
	Subject string `json:"subject,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// PlanProgress summarizes how far a plan has come.
type PlanProgress struct {
	PlanID    string `json:"planId"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// CreatePlan stores a plan. The start date falls back to the request's, then today.
func (w *Workspace) CreatePlan(input PlanInput) (entity.StudyPlan, error) {
	p := entity.StudyPlan{
		ID:        entity.NewID(),
		Title:     strings.TrimSpace(input.Title),
		Goal:      strings.TrimSpace(input.Goal),
		Tasks:     slices.Clone(input.Tasks),
		UserInput: input.UserInput,
		StartDate: input.StartDate,
	}.WithDefaults()
	if p.StartDate == "" {
		p.StartDate = w.today()
	}
	for i := range p.Tasks {
		if p.Tasks[i].ID == "" {
			p.Tasks[i].ID = entity.NewID()
		}
	}
	if err := p.Validate(); err != nil {
		return entity.StudyPlan{}, err
	}
	return w.plans.Create(p), nil
}

// DeletePlan removes a plan and its tasks.
func (w *Workspace) DeletePlan(id string) error {
	return deleteRecord(w.plans, "study plan", id)
}

// GetPlan returns one plan.
func (w *Workspace) GetPlan(id string) (entity.StudyPlan, error) {
	return getRecord(w.plans, "study plan", id)
}

// ListPlans returns plans by start date, latest first.
func (w *Workspace) ListPlans(q PlanQuery) *ListOutput[entity.StudyPlan] {
	return page(w.plans.View(collection.Query{Search: q.Search, Label: q.Subject}), q.Limit, q.Offset)
}

// TogglePlanTask flips one task's completed flag.
func (w *Workspace) TogglePlanTask(planID, taskID string) (entity.StudyPlan, error) {
	p, err := w.GetPlan(planID)
	if err != nil {
		return entity.StudyPlan{}, err
	}
	if p.TaskIndex(taskID) < 0 {
		return entity.StudyPlan{}, errors.NewNotFound("study task", taskID)
	}
	return updateRecord(w.plans, "study plan", planID, func(p *entity.StudyPlan) {
		i := p.TaskIndex(taskID)
		if i < 0 {
			return
		}
		next := slices.Clone(p.Tasks)
		next[i].Completed = !next[i].Completed
		p.Tasks = next
	})
}

// Progress reports completed tasks for a plan.
func (w *Workspace) Progress(planID string) (*PlanProgress, error) {
	p, err := w.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	done := 0
	for _, t := range p.Tasks {
		if t.Completed {
			done++
		}
	}
	return &PlanProgress{PlanID: p.ID, Completed: done, Total: len(p.Tasks), Percent: p.Progress()}, nil
}

// ImportPlans merges a JSON array of plans. Every element needs id, title and
// tasks. A known id replaces the stored plan outright; tasks are not merged.
func (w *Workspace) ImportPlans(data []byte) (*ImportOutput, error) {
	return importRecords(w.plans, data, entity.StudyPlan.WithDefaults, "id", "title", "tasks")
}

// ExportPlans writes every plan as an indented JSON array.
func (w *Workspace) ExportPlans(out io.Writer) (int, error) {
	plans := w.plans.All()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plans); err != nil {
		return 0, errors.NewInternal(err)
	}
	return len(plans), nil
}

// PlansExportFilename is the default file name for a plan export made at now.
func PlansExportFilename(now time.Time) string {
	return "study-plans-" + entity.Day(now) + ".json"
}
