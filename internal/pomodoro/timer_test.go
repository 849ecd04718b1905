package pomodoro

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hpungsan/flowfocus/internal/config"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func short() Settings {
	return Settings{Focus: 10 * time.Minute, ShortBreak: 2 * time.Minute, LongBreak: 5 * time.Minute, LongBreakEvery: 2}
}

func TestTimer_FocusCompletes(t *testing.T) {
	tm := New(short())
	tm.Start(t0)

	if _, done := tm.Tick(t0.Add(9 * time.Minute)); done {
		t.Fatal("Tick() completed early")
	}
	ev, done := tm.Tick(t0.Add(11 * time.Minute))
	if !done {
		t.Fatal("Tick() did not complete")
	}
	if ev.Phase != Focus || ev.Next != ShortBreak || ev.Skipped {
		t.Errorf("event = %+v", ev)
	}
	if !ev.EndedAt.Equal(t0.Add(10 * time.Minute)) {
		t.Errorf("EndedAt = %v", ev.EndedAt)
	}
	if ev.FocusMinutes() != 10 {
		t.Errorf("FocusMinutes() = %d", ev.FocusMinutes())
	}

	st := tm.State(t0.Add(20 * time.Minute))
	if st.Running || st.Phase != ShortBreak || time.Duration(st.Remaining) != 2*time.Minute || st.Completed != 1 {
		t.Errorf("state after completion = %+v", st)
	}
}

func TestTimer_PauseKeepsRemaining(t *testing.T) {
	tm := New(short())
	tm.Start(t0)
	st := tm.Pause(t0.Add(4 * time.Minute))
	if st.Running || time.Duration(st.Remaining) != 6*time.Minute {
		t.Fatalf("paused state = %+v", st)
	}
	if _, done := tm.Tick(t0.Add(time.Hour)); done {
		t.Fatal("paused timer completed")
	}

	resume := t0.Add(time.Hour)
	tm.Start(resume)
	if _, done := tm.Tick(resume.Add(5 * time.Minute)); done {
		t.Fatal("completed before remaining time elapsed")
	}
	if _, done := tm.Tick(resume.Add(6 * time.Minute)); !done {
		t.Fatal("did not complete after remaining time")
	}
}

func TestTimer_LongBreakCycle(t *testing.T) {
	tm := New(short())
	now := t0
	var phases []Phase
	for range 4 {
		tm.Start(now)
		now = now.Add(time.Hour)
		ev, done := tm.Tick(now)
		if !done {
			t.Fatal("phase did not complete")
		}
		phases = append(phases, ev.Next)
	}
	want := []Phase{ShortBreak, Focus, LongBreak, Focus}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("next phases = %v, want %v", phases, want)
		}
	}
}

func TestTimer_SkipFocusNotCounted(t *testing.T) {
	tm := New(short())
	tm.Start(t0)
	ev := tm.Skip(t0.Add(3 * time.Minute))
	if !ev.Skipped || ev.Phase != Focus || ev.Next != ShortBreak {
		t.Errorf("event = %+v", ev)
	}
	if time.Duration(ev.Duration) != 3*time.Minute || ev.FocusMinutes() != 0 {
		t.Errorf("duration = %v, focus minutes = %d", time.Duration(ev.Duration), ev.FocusMinutes())
	}
	if st := tm.State(t0); st.Completed != 0 || st.Running {
		t.Errorf("state = %+v", st)
	}

	ev = tm.Skip(t0.Add(4 * time.Minute))
	if ev.Phase != ShortBreak || ev.Next != Focus || ev.Duration != 0 {
		t.Errorf("skipping an unstarted break: %+v", ev)
	}
}

func TestTimer_Reset(t *testing.T) {
	tm := New(short())
	tm.Start(t0)
	tm.Tick(t0.Add(time.Hour))
	st := tm.Reset()
	if st.Phase != Focus || st.Running || st.Completed != 0 || time.Duration(st.Remaining) != 10*time.Minute {
		t.Errorf("Reset() = %+v", st)
	}
}

func TestTimer_StartIsIdempotent(t *testing.T) {
	tm := New(short())
	tm.Start(t0)
	tm.Start(t0.Add(5 * time.Minute))
	if st := tm.State(t0.Add(5 * time.Minute)); time.Duration(st.Remaining) != 5*time.Minute {
		t.Errorf("remaining = %v", time.Duration(st.Remaining))
	}
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{FocusMinutes: 50, LongBreakEvery: 3}
	s := SettingsFromConfig(cfg)
	if s.Focus != 50*time.Minute || s.ShortBreak != 5*time.Minute || s.LongBreakEvery != 3 {
		t.Errorf("settings = %+v", s)
	}
	if SettingsFromConfig(nil) != DefaultSettings() {
		t.Error("nil config should give defaults")
	}
}

func TestState_JSON(t *testing.T) {
	data, err := json.Marshal(New(DefaultSettings()).State(t0))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"phase":"focus","running":false,"remainingSeconds":1500,"completed":0}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestClock(t *testing.T) {
	tests := map[time.Duration]string{
		25 * time.Minute:                      "25:00",
		90*time.Second + 500*time.Millisecond: "01:31",
		0:                                     "00:00",
	}
	for d, want := range tests {
		if got := Clock(d); got != want {
			t.Errorf("Clock(%v) = %q, want %q", d, got, want)
		}
	}
}
