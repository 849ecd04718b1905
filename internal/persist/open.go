package persist

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/db"
)

// Backend is an opened KV together with whatever must be released on shutdown.
type Backend struct {
	KV KV
	DB *sql.DB // nil for the file backend
}

// Close releases the backend's resources.
func (b *Backend) Close() error {
	if b.DB != nil {
		return b.DB.Close()
	}
	return nil
}

// Open opens the storage backend selected by cfg under baseDir.
func Open(baseDir string, cfg *config.Config) (*Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendFile:
		kv, err := NewFileKV(filepath.Join(baseDir, "data"))
		if err != nil {
			return nil, err
		}
		return &Backend{KV: kv}, nil
	case config.BackendSQLite, "":
		database, err := db.Init(baseDir)
		if err != nil {
			return nil, err
		}
		db.ConfigurePool(database, cfg)
		return &Backend{KV: NewSQLiteKV(database), DB: database}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
