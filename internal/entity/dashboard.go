package entity

import (
	"maps"
	"slices"

	"github.com/hpungsan/flowfocus/internal/errors"
)

// Dashboard widgets.
const (
	WidgetPomodoro   = "pomodoro"
	WidgetTasks      = "tasks"
	WidgetHabits     = "habits"
	WidgetNotes      = "notes"
	WidgetFlashcards = "flashcards"
	WidgetStudyPlans = "study-plans"
)

// Widgets lists every known widget in default dashboard order.
var Widgets = []string{WidgetPomodoro, WidgetTasks, WidgetHabits, WidgetNotes, WidgetFlashcards, WidgetStudyPlans}

// Layout is the dashboard widget order.
type Layout []string

// DefaultLayout returns every widget in default order.
func DefaultLayout() Layout {
	return slices.Clone(Widgets)
}

// Validate rejects unknown and repeated widgets.
func (l Layout) Validate() error {
	fields := errors.FieldErrors{}
	seen := make(map[string]bool, len(l))
	for _, w := range l {
		if !slices.Contains(Widgets, w) {
			fields.Add(w, "is not a known widget")
		} else if seen[w] {
			fields.Add(w, "is repeated")
		}
		seen[w] = true
	}
	return fields.Err("layout")
}

// DayStats counts completed focus sessions for one day.
type DayStats struct {
	Sessions     int `json:"sessions"`
	FocusMinutes int `json:"focusMinutes"`
}

// PomodoroStats is per-day focus history keyed by YYYY-MM-DD.
type PomodoroStats struct {
	Days map[string]DayStats `json:"days"`
}

// Record adds one completed focus session of minutes to day.
func (s PomodoroStats) Record(day string, minutes int) PomodoroStats {
	days := s.Clone().Days
	d := days[day]
	d.Sessions++
	d.FocusMinutes += minutes
	days[day] = d
	return PomodoroStats{Days: days}
}

// Totals sums every recorded day.
func (s PomodoroStats) Totals() DayStats {
	var total DayStats
	for _, d := range s.Days {
		total.Sessions += d.Sessions
		total.FocusMinutes += d.FocusMinutes
	}
	return total
}

// Clone returns a copy that shares no map with s.
func (s PomodoroStats) Clone() PomodoroStats {
	days := maps.Clone(s.Days)
	if days == nil {
		days = map[string]DayStats{}
	}
	return PomodoroStats{Days: days}
}

// WithDefaults replaces a missing map.
func (s PomodoroStats) WithDefaults() PomodoroStats {
	if s.Days == nil {
		s.Days = map[string]DayStats{}
	}
	return s
}
