package ops

import (
	"slices"

	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/persist"
	"github.com/hpungsan/flowfocus/internal/pomodoro"
)

// Layout returns the dashboard widget order.
func (w *Workspace) Layout() entity.Layout {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.layout)
}

// SetLayout replaces the widget order. Unknown or repeated widgets are rejected.
func (w *Workspace) SetLayout(layout entity.Layout) (entity.Layout, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.layout = slices.Clone(layout)
	w.save(persist.KeyLayout, w.layout)
	return slices.Clone(w.layout), nil
}

// RecordSession adds a completed focus session of minutes to today's stats.
func (w *Workspace) RecordSession(minutes int) entity.DayStats {
	day := w.today()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pomodoro = w.pomodoro.Record(day, max(minutes, 0))
	w.save(persist.KeyPomodoro, w.pomodoro)
	return w.pomodoro.Days[day]
}

// PomodoroStats returns a copy of the focus history.
func (w *Workspace) PomodoroStats() entity.PomodoroStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pomodoro.Clone()
}

// PomodoroAction drives the focus timer.
type PomodoroAction string

const (
	PomodoroStatus PomodoroAction = "status"
	PomodoroStart  PomodoroAction = "start"
	PomodoroPause  PomodoroAction = "pause"
	PomodoroReset  PomodoroAction = "reset"
	PomodoroSkip   PomodoroAction = "skip"
)

// PomodoroOutput is the timer state after an action. Ended holds phases
// that finished during the call, in order.
type PomodoroOutput struct {
	State pomodoro.State   `json:"state"`
	Ended []pomodoro.Event `json:"ended,omitempty"`
	Today entity.DayStats  `json:"today"`
}

// Pomodoro applies action to the workspace timer. A focus phase that has run
// to completion is recorded in today's stats before the action applies.
func (w *Workspace) Pomodoro(action PomodoroAction) (*PomodoroOutput, error) {
	switch action {
	case "", PomodoroStatus, PomodoroStart, PomodoroPause, PomodoroReset, PomodoroSkip:
	default:
		return nil, errors.NewInvalidRequest("unknown pomodoro action: " + string(action))
	}

	now := w.now()
	out := &PomodoroOutput{}
	if ev, done := w.timer.Tick(now); done {
		out.Ended = append(out.Ended, ev)
	}

	switch action {
	case PomodoroStart:
		out.State = w.timer.Start(now)
	case PomodoroPause:
		out.State = w.timer.Pause(now)
	case PomodoroReset:
		out.State = w.timer.Reset()
	case PomodoroSkip:
		out.Ended = append(out.Ended, w.timer.Skip(now))
		out.State = w.timer.State(now)
	default:
		out.State = w.timer.State(now)
	}

	for _, ev := range out.Ended {
		if ev.Phase == pomodoro.Focus && !ev.Skipped {
			w.RecordSession(ev.FocusMinutes())
		}
	}
	w.mu.Lock()
	out.Today = w.pomodoro.Days[w.today()]
	w.mu.Unlock()
	return out, nil
}
