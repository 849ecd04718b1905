// Package pomodoro is the focus timer: a state machine over explicit
// timestamps. Callers drive it with the current time; it never sleeps.
package pomodoro

import (
	"sync"
	"time"

	"github.com/hpungsan/flowfocus/internal/config"
)

// Phase is one segment of the pomodoro cycle.
type Phase string

const (
	Focus      Phase = "focus"
	ShortBreak Phase = "short_break"
	LongBreak  Phase = "long_break"
)

// Settings are the phase lengths.
type Settings struct {
	Focus          time.Duration
	ShortBreak     time.Duration
	LongBreak      time.Duration
	LongBreakEvery int
}

// DefaultSettings is 25/5/15 minutes with a long break after every fourth
// focus session.
func DefaultSettings() Settings {
	return Settings{
		Focus:          25 * time.Minute,
		ShortBreak:     5 * time.Minute,
		LongBreak:      15 * time.Minute,
		LongBreakEvery: 4,
	}
}

// SettingsFromConfig reads durations from cfg, keeping defaults for unset values.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfg.FocusMinutes > 0 {
		s.Focus = time.Duration(cfg.FocusMinutes) * time.Minute
	}
	if cfg.ShortBreakMinutes > 0 {
		s.ShortBreak = time.Duration(cfg.ShortBreakMinutes) * time.Minute
	}
	if cfg.LongBreakMinutes > 0 {
		s.LongBreak = time.Duration(cfg.LongBreakMinutes) * time.Minute
	}
	if cfg.LongBreakEvery > 0 {
		s.LongBreakEvery = cfg.LongBreakEvery
	}
	return s
}

func (s Settings) length(p Phase) time.Duration {
	switch p {
	case ShortBreak:
		return s.ShortBreak
	case LongBreak:
		return s.LongBreak
	default:
		return s.Focus
	}
}

// Event reports the end of a phase. Skipped is set when Skip ended it early.
type Event struct {
	Phase    Phase     `json:"phase"`
	Duration Duration  `json:"duration"`
	EndedAt  time.Time `json:"endedAt"`
	Skipped  bool      `json:"skipped"`
	Next     Phase     `json:"next"`
}

// FocusMinutes is the focus time an event contributes to daily stats:
// whole minutes of a completed focus phase, zero otherwise.
func (e Event) FocusMinutes() int {
	if e.Phase != Focus || e.Skipped {
		return 0
	}
	return int(time.Duration(e.Duration) / time.Minute)
}

// Duration marshals as whole seconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(formatSeconds(time.Duration(d))), nil
}

// State is a snapshot of the timer. Completed counts focus sessions finished
// since the last reset.
type State struct {
	Phase     Phase    `json:"phase"`
	Running   bool     `json:"running"`
	Remaining Duration `json:"remainingSeconds"`
	Completed int      `json:"completed"`
}

// Timer tracks the current phase. It is safe for concurrent use.
type Timer struct {
	mu        sync.Mutex
	settings  Settings
	phase     Phase
	running   bool
	remaining time.Duration // valid while paused
	endsAt    time.Time     // valid while running
	completed int
}

// New returns a paused timer at the start of a focus phase.
func New(settings Settings) *Timer {
	if settings.LongBreakEvery <= 0 {
		settings.LongBreakEvery = DefaultSettings().LongBreakEvery
	}
	return &Timer{
		settings:  settings,
		phase:     Focus,
		remaining: settings.Focus,
	}
}

// Start runs the timer from now. Starting a running timer does nothing.
func (t *Timer) Start(now time.Time) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		t.running = true
		t.endsAt = now.Add(t.remaining)
	}
	return t.state(now)
}

// Pause freezes the remaining time.
func (t *Timer) Pause(now time.Time) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.remaining = max(t.endsAt.Sub(now), 0)
		t.running = false
	}
	return t.state(now)
}

// Reset stops the timer and returns to a fresh focus phase.
func (t *Timer) Reset() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = Focus
	t.running = false
	t.remaining = t.settings.Focus
	t.completed = 0
	return t.state(time.Time{})
}

// Skip ends the current phase early. A skipped focus phase is not counted.
func (t *Timer) Skip(now time.Time) Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := t.settings.length(t.phase) - t.remainingAt(now)
	return t.advance(now, elapsed, true)
}

// Tick reports whether the running phase has ended by now. On completion the
// timer moves to the next phase and stops; the caller starts it again.
func (t *Timer) Tick(now time.Time) (Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || now.Before(t.endsAt) {
		return Event{}, false
	}
	return t.advance(t.endsAt, t.settings.length(t.phase), false), true
}

// State returns a snapshot as of now.
func (t *Timer) State(now time.Time) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state(now)
}

// Settings returns the phase lengths.
func (t *Timer) Settings() Settings {
	return t.settings
}

func (t *Timer) state(now time.Time) State {
	return State{
		Phase:     t.phase,
		Running:   t.running,
		Remaining: Duration(t.remainingAt(now)),
		Completed: t.completed,
	}
}

func (t *Timer) remainingAt(now time.Time) time.Duration {
	if !t.running {
		return t.remaining
	}
	return max(t.endsAt.Sub(now), 0)
}

func (t *Timer) advance(at time.Time, elapsed time.Duration, skipped bool) Event {
	ev := Event{Phase: t.phase, Duration: Duration(max(elapsed, 0)), EndedAt: at, Skipped: skipped}
	next := Focus
	if t.phase == Focus {
		next = ShortBreak
		if !skipped {
			t.completed++
			if t.completed%t.settings.LongBreakEvery == 0 {
				next = LongBreak
			}
		}
	}
	t.phase = next
	t.running = false
	t.remaining = t.settings.length(next)
	ev.Next = next
	return ev
}
