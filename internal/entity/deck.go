package entity

import (
	"strconv"
	"strings"

	"github.com/hpungsan/flowfocus/internal/errors"
)

// Flashcard is a question/answer pair owned by a deck.
type Flashcard struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Deck is an ordered set of flashcards. Deleting a deck deletes its cards.
type Deck struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Cards       []Flashcard `json:"cards"`
}

func (d Deck) RecordID() string { return d.ID }
func (d Deck) Pinned() bool     { return false }
func (d Deck) Recency() int64   { return IDTime(d.ID) }

func (d Deck) Matches(term string) bool {
	if containsFold(term, d.Name, d.Description) {
		return true
	}
	for _, c := range d.Cards {
		if containsFold(term, c.Question, c.Answer) {
			return true
		}
	}
	return false
}

// HasLabel matches the deck name exactly (case-insensitive).
func (d Deck) HasLabel(name string) bool {
	return strings.EqualFold(d.Name, name)
}

// CardIndex returns the position of the card with id, or -1.
func (d Deck) CardIndex(id string) int {
	for i, c := range d.Cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// CardIDs returns the card ids in deck order.
func (d Deck) CardIDs() []string {
	ids := make([]string, len(d.Cards))
	for i, c := range d.Cards {
		ids[i] = c.ID
	}
	return ids
}

// WithDefaults fills fields missing from older stored decks.
func (d Deck) WithDefaults() Deck {
	if d.Cards == nil {
		d.Cards = []Flashcard{}
	}
	return d
}

// Validate checks the deck and every card.
func (d Deck) Validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(d.ID) == "" {
		fields.Add("id", "is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		fields.Add("name", "is required")
	}
	seen := make(map[string]bool, len(d.Cards))
	for i, c := range d.Cards {
		prefix := "cards[" + strconv.Itoa(i) + "]."
		if c.ID == "" {
			fields.Add(prefix+"id", "is required")
		} else if seen[c.ID] {
			fields.Add(prefix+"id", "is duplicated")
		}
		seen[c.ID] = true
		if err := c.Validate(); err != nil {
			for name, reason := range errors.As(err).Details["fields"].(map[string]string) {
				fields.Add(prefix+name, reason)
			}
		}
	}
	return fields.Err("deck")
}

// Validate checks a card's content.
func (c Flashcard) Validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(c.Question) == "" {
		fields.Add("question", "is required")
	}
	if strings.TrimSpace(c.Answer) == "" {
		fields.Add("answer", "is required")
	}
	return fields.Err("flashcard")
}
