// Package persist mirrors in-memory collections to a key/value store.
//
// Every collection lives under one fixed key as a single JSON document. Writes
// are debounced per key so bursts of edits collapse into one write of the
// latest state; Flush forces pending writes out before shutdown.
package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/hpungsan/flowfocus/internal/db"
)

// Collection keys.
const (
	KeyNotes      = "flowfocus.notes"
	KeyTasks      = "flowfocus.tasks"
	KeyHabits     = "flowfocus.habits"
	KeyDecks      = "flowfocus.decks"
	KeyStudyPlans = "flowfocus.studyPlans"
	KeyLayout     = "flowfocus.dashboardLayout"
	KeyPomodoro   = "flowfocus.pomodoro"
)

// KV is the storage a collection is mirrored to.
type KV interface {
	// Get returns the value stored under key; found is false if it was never written.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
}

// SQLiteKV stores collections as rows of the collections table.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV wraps an initialized database (see db.Init).
func NewSQLiteKV(database *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: database}
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return db.Get(ctx, s.db, key)
}

func (s *SQLiteKV) Put(ctx context.Context, key string, value []byte) error {
	return db.Put(ctx, s.db, key, value)
}

// FileKV stores each collection as <dir>/<key>.json, replaced atomically on write.
type FileKV struct {
	dir string
}

// NewFileKV creates dir if needed and returns a FileKV rooted there.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (f *FileKV) Put(_ context.Context, key string, value []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(p, strings.NewReader(string(value))); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

// MemoryKV is an in-process KV, used by tests and as a scratch store.
type MemoryKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes map[string]int
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte), writes: make(map[string]int)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	m.writes[key]++
	return nil
}

// Set seeds a raw value without counting it as a write.
func (m *MemoryKV) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
}

// Writes reports how many times key was written through Put.
func (m *MemoryKV) Writes(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[key]
}
