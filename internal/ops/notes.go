package ops

import (
	"slices"
	"strings"

	"github.com/hpungsan/flowfocus/internal/collection"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
)

// NoteInput contains parameters for CreateNote.
type NoteInput struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags"`
	IsPinned bool     `json:"isPinned"`
}

// NotePatch lists the fields UpdateNote changes (nil = don't change).
type NotePatch struct {
	Title    *string   `json:"title,omitempty"`
	Body     *string   `json:"body,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	IsPinned *bool     `json:"isPinned,omitempty"`
}

// NoteQuery filters ListNotes.
type NoteQuery struct {
	Search string `json:"search,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// CreateNote adds a note at the top of the list and makes it active.
func (w *Workspace) CreateNote(input NoteInput) (entity.Note, error) {
	now := w.nowMillis()
	n := entity.Note{
		ID:        entity.NewID(),
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		Tags:      slices.Clone(input.Tags),
		CreatedAt: now,
		UpdatedAt: now,
		IsPinned:  input.IsPinned,
	}.WithDefaults()
	if err := n.Validate(); err != nil {
		return entity.Note{}, err
	}
	return w.notes.Create(n), nil
}

// UpdateNote applies patch and refreshes updatedAt.
func (w *Workspace) UpdateNote(id string, patch NotePatch) (entity.Note, error) {
	if patch.Title == nil && patch.Body == nil && patch.Tags == nil && patch.IsPinned == nil {
		return entity.Note{}, errors.NewInvalidRequest("at least one editable field must be provided")
	}
	now := w.nowMillis()
	return updateRecord(w.notes, "note", id, func(n *entity.Note) {
		if patch.Title != nil {
			n.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Body != nil {
			n.Body = *patch.Body
		}
		if patch.Tags != nil {
			n.Tags = slices.Clone(*patch.Tags)
		}
		if patch.IsPinned != nil {
			n.IsPinned = *patch.IsPinned
		}
		n.UpdatedAt = max(now, n.CreatedAt)
		*n = n.WithDefaults()
	})
}

// TogglePin flips a note's pinned flag.
func (w *Workspace) TogglePin(id string) (entity.Note, error) {
	return updateRecord(w.notes, "note", id, func(n *entity.Note) {
		n.IsPinned = !n.IsPinned
	})
}

// DeleteNote removes a note. If it was active, the first remaining note becomes active.
func (w *Workspace) DeleteNote(id string) error {
	return deleteRecord(w.notes, "note", id)
}

// GetNote returns one note.
func (w *Workspace) GetNote(id string) (entity.Note, error) {
	return getRecord(w.notes, "note", id)
}

// ListNotes returns pinned notes first, then the most recently updated.
func (w *Workspace) ListNotes(q NoteQuery) *ListOutput[entity.Note] {
	items := w.notes.View(collection.Query{Search: q.Search, Label: q.Tag})
	return page(items, q.Limit, q.Offset)
}

// ActiveNote returns the note currently being edited.
func (w *Workspace) ActiveNote() (entity.Note, bool) {
	return w.notes.Active()
}

// SelectNote makes id the active note. An empty id clears the selection.
func (w *Workspace) SelectNote(id string) error {
	if !w.notes.SetActive(id) {
		return errors.NewNotFound("note", id)
	}
	return nil
}

// ImportNotes merges a JSON array of notes by id.
func (w *Workspace) ImportNotes(data []byte) (*ImportOutput, error) {
	return importRecords(w.notes, data, entity.Note.WithDefaults, "id", "title")
}

// ExportNoteMarkdown renders a note as "# title\n\nbody".
func (w *Workspace) ExportNoteMarkdown(id string) (string, error) {
	n, err := w.GetNote(id)
	if err != nil {
		return "", err
	}
	return n.Markdown(), nil
}
