// Package entity defines the records FlowFocus persists: notes, tasks, habits,
// flashcard decks, study plans, and the dashboard/pomodoro bookkeeping.
//
// Records are plain values. Each carries Validate for shape checks and
// WithDefaults to fill fields that older stored records may lack.
package entity

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// DateLayout is the calendar-date format used for due dates and plan days.
const DateLayout = "2006-01-02"

// NewID returns a fresh timestamp-derived identifier.
func NewID() string {
	return ulid.Make().String()
}

// IDTime returns the creation time embedded in a ULID id, in unix milliseconds.
// Ids that are not ULIDs (e.g. hand-written imports) yield 0.
func IDTime(id string) int64 {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return 0
	}
	return int64(parsed.Time())
}

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Day formats t as a calendar date in t's location.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}

// containsFold reports whether any field contains term, ignoring case.
func containsFold(term string, fields ...string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// cleanTags trims tags, drops empties and duplicates, and never returns nil.
func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}
