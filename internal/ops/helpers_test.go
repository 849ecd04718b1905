package ops

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/logging"
	"github.com/hpungsan/flowfocus/internal/persist"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	ws    *Workspace
	kv    *persist.MemoryKV
	clock *fakeClock
	dir   string
}

// newTestEnv builds a workspace over an in-memory store with synchronous writes.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	kv := persist.NewMemoryKV()
	return openTestEnv(t, kv)
}

func openTestEnv(t *testing.T, kv *persist.MemoryKV) *testEnv {
	t.Helper()
	clock := newFakeClock()
	dir := t.TempDir()
	adapter := persist.NewAdapter(kv, 0, logging.Discard())
	ws := NewWorkspace(context.Background(), adapter, config.DefaultConfig(), logging.Discard(),
		WithClock(clock.Now), WithExportsDir(dir))
	return &testEnv{ws: ws, kv: kv, clock: clock, dir: dir}
}

func ptr[T any](v T) *T { return &v }

// newTestEnvSharingDir opens a fresh workspace whose exports dir is dir.
func newTestEnvSharingDir(t *testing.T, dir string) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.ws.exportsDir = dir
	env.dir = dir
	return env
}
