package persist

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/flowfocus/internal/logging"
)

// DefaultQuietPeriod is how long a key must go without saves before it is written.
const DefaultQuietPeriod = 500 * time.Millisecond

// Adapter loads collections once and writes them back through per-key debouncers.
//
// Save serializes the value immediately, so the write that eventually lands is
// always a consistent snapshot of the latest saved state.
type Adapter struct {
	kv     KV
	quiet  time.Duration
	logger *log.Logger

	mu         sync.Mutex
	pending    map[string][]byte
	debouncers map[string]*Debouncer
	closed     bool

	// writeMu orders take-and-write so an older snapshot never lands after a newer one.
	writeMu sync.Mutex
}

// NewAdapter creates an Adapter over kv. A quiet period of 0 writes synchronously.
func NewAdapter(kv KV, quiet time.Duration, logger *log.Logger) *Adapter {
	if quiet < 0 {
		quiet = DefaultQuietPeriod
	}
	return &Adapter{
		kv:         kv,
		quiet:      quiet,
		logger:     logging.With(logger, "persist"),
		pending:    make(map[string][]byte),
		debouncers: make(map[string]*Debouncer),
	}
}

// Load decodes the value stored under key.
//
// A missing key, an unreadable store, or malformed stored JSON all yield
// defaults(); the latter two are logged and never returned to the caller.
// A snapshot still waiting to be written wins over the stored value.
func Load[T any](ctx context.Context, a *Adapter, key string, defaults func() T) T {
	a.mu.Lock()
	data, pending := a.pending[key]
	a.mu.Unlock()

	if !pending {
		stored, found, err := a.kv.Get(ctx, key)
		if err != nil {
			a.logger.Warn("storage read failed, using defaults", "key", key, "err", err)
			return defaults()
		}
		if !found {
			return defaults()
		}
		data = stored
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		a.logger.Warn("stored collection is malformed, using defaults", "key", key, "err", err)
		return defaults()
	}
	return v
}

// Save schedules value to be written under key after the quiet period.
// Saves within the quiet period collapse into one write of the latest value.
func (a *Adapter) Save(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	a.mu.Lock()
	a.pending[key] = data
	if a.closed || a.quiet == 0 {
		a.mu.Unlock()
		return a.flushKey(context.Background(), key)
	}
	d, ok := a.debouncers[key]
	if !ok {
		d = NewDebouncer(a.quiet)
		a.debouncers[key] = d
	}
	a.mu.Unlock()

	d.Debounce(func() {
		if err := a.flushKey(context.Background(), key); err != nil {
			a.logger.Error("debounced write failed", "key", key, "err", err)
		}
	})
	return nil
}

// Flush cancels all timers and writes every pending key now.
func (a *Adapter) Flush(ctx context.Context) error {
	a.mu.Lock()
	keys := make([]string, 0, len(a.pending))
	for key := range a.pending {
		keys = append(keys, key)
	}
	for _, d := range a.debouncers {
		d.Cancel()
	}
	a.mu.Unlock()

	sort.Strings(keys)
	var errs []error
	for _, key := range keys {
		if err := a.flushKey(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Close flushes pending writes. Later saves are written synchronously.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return a.Flush(ctx)
}

// Pending reports the keys with a write still waiting.
func (a *Adapter) Pending() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, 0, len(a.pending))
	for key := range a.pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// flushKey writes the pending snapshot for key, if there still is one.
// A failed write is re-queued unless a newer snapshot arrived meanwhile.
func (a *Adapter) flushKey(ctx context.Context, key string) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	data, ok := a.pending[key]
	delete(a.pending, key)
	a.mu.Unlock()
	if !ok {
		return nil
	}

	if err := a.kv.Put(ctx, key, data); err != nil {
		a.mu.Lock()
		if _, newer := a.pending[key]; !newer {
			a.pending[key] = data
		}
		a.mu.Unlock()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	a.logger.Debug("collection written", "key", key, "bytes", len(data))
	return nil
}
