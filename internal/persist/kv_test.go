package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/db"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := kv.Get(ctx, KeyNotes); err != nil || found {
		t.Fatalf("Get(missing) = found %v, err %v", found, err)
	}
	if err := kv.Put(ctx, KeyNotes, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := kv.Put(ctx, KeyNotes, []byte(`[{"id":"2"}]`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	value, found, err := kv.Get(ctx, KeyNotes)
	if err != nil || !found {
		t.Fatalf("Get() = found %v, err %v", found, err)
	}
	if string(value) != `[{"id":"2"}]` {
		t.Errorf("value = %s", value)
	}
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestSQLiteKV(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	defer database.Close()
	exerciseKV(t, NewSQLiteKV(database))
}

func TestFileKV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("NewFileKV() error = %v", err)
	}
	exerciseKV(t, kv)

	if _, err := os.Stat(filepath.Join(dir, KeyNotes+".json")); err != nil {
		t.Errorf("expected file per key: %v", err)
	}
}

func TestFileKV_RejectsTraversal(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV() error = %v", err)
	}
	for _, key := range []string{"../escape", "a/b", ""} {
		if err := kv.Put(context.Background(), key, []byte(`[]`)); err == nil {
			t.Errorf("Put(%q) expected error", key)
		}
	}
}

func TestOpen_Backends(t *testing.T) {
	base := t.TempDir()

	cfg := config.DefaultConfig()
	b, err := Open(base, cfg)
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	if _, ok := b.KV.(*SQLiteKV); !ok {
		t.Errorf("KV = %T, want *SQLiteKV", b.KV)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	cfg.StorageBackend = config.BackendFile
	b, err = Open(base, cfg)
	if err != nil {
		t.Fatalf("Open(file) error = %v", err)
	}
	if _, ok := b.KV.(*FileKV); !ok {
		t.Errorf("KV = %T, want *FileKV", b.KV)
	}

	cfg.StorageBackend = "tape"
	if _, err := Open(base, cfg); err == nil {
		t.Error("Open(unknown) expected error")
	}
}
