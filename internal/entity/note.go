package entity

import (
	"strings"

	"github.com/hpungsan/flowfocus/internal/errors"
)

// DefaultNoteTitle names notes created without a title.
const DefaultNoteTitle = "Untitled Note"

// Note is a markdown note. Timestamps are unix milliseconds.
type Note struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	IsPinned  bool     `json:"isPinned"`
}

func (n Note) RecordID() string { return n.ID }
func (n Note) Pinned() bool     { return n.IsPinned }
func (n Note) Recency() int64   { return n.UpdatedAt }

// Matches reports whether term occurs in the title, body, or a tag.
func (n Note) Matches(term string) bool {
	return containsFold(term, append([]string{n.Title, n.Body}, n.Tags...)...)
}

// HasLabel reports whether the note carries tag (case-insensitive).
func (n Note) HasLabel(tag string) bool {
	for _, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Markdown renders the note as a standalone markdown document.
func (n Note) Markdown() string {
	return "# " + n.Title + "\n\n" + n.Body
}

// WithDefaults fills fields missing from older stored notes.
func (n Note) WithDefaults() Note {
	if strings.TrimSpace(n.Title) == "" {
		n.Title = DefaultNoteTitle
	}
	n.Tags = cleanTags(n.Tags)
	if n.UpdatedAt < n.CreatedAt {
		n.UpdatedAt = n.CreatedAt
	}
	return n
}

// Validate checks the note's shape.
func (n Note) Validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(n.ID) == "" {
		fields.Add("id", "is required")
	}
	if strings.TrimSpace(n.Title) == "" {
		fields.Add("title", "is required")
	}
	if n.CreatedAt < 0 {
		fields.Add("createdAt", "must not be negative")
	}
	if n.UpdatedAt < n.CreatedAt {
		fields.Add("updatedAt", "must not precede createdAt")
	}
	return fields.Err("note")
}
