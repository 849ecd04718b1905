package ops

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/hpungsan/flowfocus/internal/errors"
)

// MaxImportBytes caps how much of an import file is read.
const MaxImportBytes = 32 << 20

// ExportOutput describes a file written by an export.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ImportKind names the collection an import file is merged into.
type ImportKind string

const (
	ImportNotes  ImportKind = "notes"
	ImportTasks  ImportKind = "tasks"
	ImportHabits ImportKind = "habits"
	ImportDecks  ImportKind = "decks"
	ImportPlans  ImportKind = "plans"
)

func (w *Workspace) pathPolicy() PathPolicy {
	return PathPolicy{
		ExportsDir:   w.exportsDir,
		AllowedPaths: w.cfg.AllowedPaths,
		AllowUnsafe:  w.cfg.AllowUnsafePaths,
	}
}

// ExportPlansFile writes every plan to path, or to
// <exports>/study-plans-YYYY-MM-DD.json when path is empty.
func (w *Workspace) ExportPlansFile(path string) (*ExportOutput, error) {
	now := w.now()
	if path == "" {
		path = filepath.Join(w.exportsDir, PlansExportFilename(now))
	}
	var buf bytes.Buffer
	count, err := w.ExportPlans(&buf)
	if err != nil {
		return nil, err
	}
	if err := w.writeExport(path, &buf, ".json"); err != nil {
		return nil, err
	}
	return &ExportOutput{Path: path, Count: count, ExportedAt: now.Unix()}, nil
}

// ExportNoteFile writes a note as markdown to path, or to <exports>/<title>.md
// when path is empty.
func (w *Workspace) ExportNoteFile(id, path string) (*ExportOutput, error) {
	n, err := w.GetNote(id)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(w.exportsDir, SanitizeForFilename(n.Title)+".md")
	}
	if err := w.writeExport(path, bytes.NewBufferString(n.Markdown()), ".md", ".markdown"); err != nil {
		return nil, err
	}
	return &ExportOutput{Path: path, Count: 1, ExportedAt: w.now().Unix()}, nil
}

// ImportFile reads a JSON import file and merges it into the named collection.
func (w *Workspace) ImportFile(kind ImportKind, path string) (*ImportOutput, error) {
	if err := ValidatePath(path, PathCheckRead, w.pathPolicy(), ".json"); err != nil {
		return nil, err
	}
	f, err := openFileNoFollowRead(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if len(data) > MaxImportBytes {
		return nil, errors.NewImportFormat(fmt.Sprintf("import file exceeds %d bytes", MaxImportBytes))
	}
	return w.Import(kind, data)
}

// Import merges raw JSON into the named collection.
func (w *Workspace) Import(kind ImportKind, data []byte) (*ImportOutput, error) {
	switch kind {
	case ImportNotes:
		return w.ImportNotes(data)
	case ImportTasks:
		return w.ImportTasks(data)
	case ImportHabits:
		return w.ImportHabits(data)
	case ImportDecks:
		return w.ImportDecks(data)
	case ImportPlans:
		return w.ImportPlans(data)
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown import kind %q (want notes, tasks, habits, decks or plans)", kind))
	}
}

func (w *Workspace) writeExport(path string, content io.Reader, exts ...string) error {
	if w.exportsDir == "" && !w.cfg.AllowUnsafePaths && len(w.cfg.AllowedPaths) == 0 {
		return errors.NewInvalidRequest("no exports directory configured")
	}
	if w.exportsDir != "" {
		if err := os.MkdirAll(w.exportsDir, 0700); err != nil {
			return errors.NewInternal(fmt.Errorf("failed to create exports directory: %w", err))
		}
	}
	if err := ValidatePath(path, PathCheckWrite, w.pathPolicy(), exts...); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, content); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to write export: %w", err))
	}
	return nil
}
