// Package ops implements every FlowFocus operation over an explicit Workspace.
//
// A Workspace owns one collection per entity, loaded from storage at
// construction. Every mutation hands the new collection state to the
// persistence adapter, which debounces the actual write.
package ops

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/flowfocus/internal/collection"
	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/logging"
	"github.com/hpungsan/flowfocus/internal/persist"
	"github.com/hpungsan/flowfocus/internal/pomodoro"
)

// Pagination limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// ListOutput is one page of a filtered, ordered view.
type ListOutput[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Workspace is the FlowFocus store. It is safe for concurrent use.
type Workspace struct {
	adapter    *persist.Adapter
	cfg        *config.Config
	logger     *log.Logger
	now        func() time.Time
	exportsDir string

	notes  *collection.Collection[entity.Note]
	tasks  *collection.Collection[entity.Task]
	habits *collection.Collection[entity.Habit]
	decks  *collection.Collection[entity.Deck]
	plans  *collection.Collection[entity.StudyPlan]

	timer *pomodoro.Timer

	mu       sync.Mutex
	layout   entity.Layout
	pomodoro entity.PomodoroStats
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// WithExportsDir sets the default directory for file exports.
func WithExportsDir(dir string) Option {
	return func(w *Workspace) { w.exportsDir = dir }
}

// NewWorkspace loads every collection through adapter. Missing or unreadable
// collections start empty; the layout starts with every widget.
func NewWorkspace(ctx context.Context, adapter *persist.Adapter, cfg *config.Config, logger *log.Logger, opts ...Option) *Workspace {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	w := &Workspace{
		adapter: adapter,
		cfg:     cfg,
		logger:  logging.With(logger, "ops"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.exportsDir == "" {
		w.exportsDir = cfg.ExportsDir
	}
	if w.exportsDir != "" {
		w.exportsDir = filepath.Clean(w.exportsDir)
	}

	w.notes = collection.New(
		loadRecords(ctx, w, persist.KeyNotes, entity.Note.WithDefaults),
		saver[entity.Note](w, persist.KeyNotes))
	w.tasks = collection.New(
		loadRecords(ctx, w, persist.KeyTasks, entity.Task.WithDefaults),
		saver[entity.Task](w, persist.KeyTasks))
	w.habits = collection.New(
		loadRecords(ctx, w, persist.KeyHabits, entity.Habit.WithDefaults),
		saver[entity.Habit](w, persist.KeyHabits))
	w.decks = collection.New(
		loadRecords(ctx, w, persist.KeyDecks, loadDeck),
		saver[entity.Deck](w, persist.KeyDecks))
	w.plans = collection.New(
		loadRecords(ctx, w, persist.KeyStudyPlans, entity.StudyPlan.WithDefaults),
		saver[entity.StudyPlan](w, persist.KeyStudyPlans))

	if notes := w.notes.All(); len(notes) > 0 {
		w.notes.SetActive(notes[0].ID)
	}

	w.layout = persist.Load(ctx, adapter, persist.KeyLayout, entity.DefaultLayout)
	if err := w.layout.Validate(); err != nil {
		w.logger.Warn("stored layout is invalid, using default", "err", err)
		w.layout = entity.DefaultLayout()
	}
	w.pomodoro = persist.Load(ctx, adapter, persist.KeyPomodoro, func() entity.PomodoroStats {
		return entity.PomodoroStats{}
	}).WithDefaults()
	w.timer = pomodoro.New(pomodoro.SettingsFromConfig(cfg))

	return w
}

// Flush writes every pending collection now.
func (w *Workspace) Flush(ctx context.Context) error {
	return w.adapter.Flush(ctx)
}

// Close flushes pending writes; later mutations are written through.
func (w *Workspace) Close(ctx context.Context) error {
	return w.adapter.Close(ctx)
}

// Config returns the workspace configuration.
func (w *Workspace) Config() *config.Config {
	return w.cfg
}

// Now reads the workspace clock.
func (w *Workspace) Now() time.Time {
	return w.now()
}

func (w *Workspace) nowMillis() int64 {
	return w.now().UnixMilli()
}

func (w *Workspace) today() string {
	return entity.Day(w.now())
}

func (w *Workspace) save(key string, value any) {
	if err := w.adapter.Save(key, value); err != nil {
		w.logger.Error("failed to queue save", "key", key, "err", err)
	}
}

func saver[T collection.Record](w *Workspace, key string) collection.SaveFunc[T] {
	return func(items []T) { w.save(key, items) }
}

// loadRecords reads a collection, fills defaults and drops records without an
// id or with a repeated one (first wins).
func loadRecords[T collection.Record](ctx context.Context, w *Workspace, key string, fill func(T) T) []T {
	stored := persist.Load(ctx, w.adapter, key, func() []T { return []T{} })
	out := make([]T, 0, len(stored))
	seen := make(map[string]bool, len(stored))
	for _, v := range stored {
		v = fill(v)
		id := v.RecordID()
		if id == "" || seen[id] {
			w.logger.Warn("dropping stored record without a unique id", "key", key, "id", id)
			continue
		}
		seen[id] = true
		out = append(out, v)
	}
	return out
}

// loadDeck fills deck defaults and assigns ids to cards stored without one.
func loadDeck(d entity.Deck) entity.Deck {
	d = d.WithDefaults()
	d.Cards = slices.Clone(d.Cards)
	for i := range d.Cards {
		if d.Cards[i].ID == "" {
			d.Cards[i].ID = entity.NewID()
		}
	}
	return d
}

// page applies limit/offset to a full view.
func page[T any](items []T, limit, offset int) *ListOutput[T] {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset = max(offset, 0)
	total := len(items)
	start := min(offset, total)
	end := min(start+limit, total)

	out := items[start:end]
	if out == nil {
		out = []T{}
	}
	return &ListOutput[T]{
		Items: out,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: end < total,
			Total:   total,
		},
	}
}
