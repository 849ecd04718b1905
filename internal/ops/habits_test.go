package ops

import (
	"testing"
	"time"

	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/persist"
)

func TestLogHabit_StreakAcrossDays(t *testing.T) {
	env := newTestEnv(t)
	h, err := env.ws.CreateHabit(HabitInput{Name: "water", Type: entity.HabitQuantitative, Target: 8, Unit: "glasses"})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}

	h, _ = env.ws.LogHabit(h.ID, 4)
	if h.CompletedToday {
		t.Fatal("half the target should not complete")
	}
	h, _ = env.ws.LogHabit(h.ID, 4)
	if !h.CompletedToday || h.Streak != 1 {
		t.Fatalf("target reached: %+v", h)
	}

	env.clock.Advance(24 * time.Hour)
	if n := env.ws.RollOverHabits(); n != 1 {
		t.Errorf("RollOverHabits() = %d, want 1", n)
	}
	h, _ = env.ws.GetHabit(h.ID)
	if h.CompletedToday || h.Value != 0 || h.Streak != 1 {
		t.Errorf("after rollover: %+v", h)
	}
	if n := env.ws.RollOverHabits(); n != 0 {
		t.Errorf("second RollOverHabits() = %d, want 0", n)
	}

	env.clock.Advance(48 * time.Hour)
	env.ws.RollOverHabits()
	h, _ = env.ws.GetHabit(h.ID)
	if h.Streak != 0 {
		t.Errorf("missed day should break streak, got %d", h.Streak)
	}
}

func TestUpdateHabit(t *testing.T) {
	env := newTestEnv(t)
	h, _ := env.ws.CreateHabit(HabitInput{Name: "run", GoalStreak: ptr(30)})

	updated, err := env.ws.UpdateHabit(h.ID, HabitPatch{Name: ptr("jog"), GoalStreak: ptr(0)})
	if err != nil {
		t.Fatalf("UpdateHabit() error = %v", err)
	}
	if updated.Name != "jog" || updated.GoalStreak != nil {
		t.Errorf("updated = %+v", updated)
	}
	writes := env.kv.Writes(persist.KeyHabits)
	if _, err := env.ws.UpdateHabit(h.ID, HabitPatch{Type: ptr(entity.HabitType("weekly"))}); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("unknown type: err = %v", err)
	}
	if got, _ := env.ws.GetHabit(h.ID); got.Type != entity.HabitBinary {
		t.Errorf("rejected update changed the habit: %+v", got)
	}
	if got := env.kv.Writes(persist.KeyHabits); got != writes {
		t.Errorf("rejected update was saved: writes = %d, want %d", got, writes)
	}
	if _, err := env.ws.UpdateHabit(h.ID, HabitPatch{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty patch: err = %v", err)
	}
}

func TestImportHabits_RequiresType(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.ws.ImportHabits([]byte(`[{"id":"h1","name":"x"}]`)); !errors.Is(err, errors.ErrImportFormat) {
		t.Errorf("err = %v", err)
	}
	out, err := env.ws.ImportHabits([]byte(`[{"id":"h1","name":"x","type":"binary","streak":3}]`))
	if err != nil || out.Added != 1 {
		t.Fatalf("ImportHabits() = %+v, %v", out, err)
	}
	h, _ := env.ws.GetHabit("h1")
	if h.Target != 1 || h.Streak != 3 {
		t.Errorf("imported habit = %+v", h)
	}
}
