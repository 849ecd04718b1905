package ops

import (
	"slices"
	"strings"

	"github.com/hpungsan/flowfocus/internal/collection"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
)

// CardInput is a question/answer pair to add to a deck.
type CardInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CardPatch lists the card fields UpdateCard changes (nil = don't change).
type CardPatch struct {
	Question *string `json:"question,omitempty"`
	Answer   *string `json:"answer,omitempty"`
}

// DeckInput contains parameters for CreateDeck.
type DeckInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Cards       []CardInput `json:"cards,omitempty"`
}

// DeckPatch lists the deck fields UpdateDeck changes (nil = don't change).
type DeckPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// DeckQuery filters ListDecks.
type DeckQuery struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

func newCard(in CardInput) entity.Flashcard {
	return entity.Flashcard{
		ID:       entity.NewID(),
		Question: strings.TrimSpace(in.Question),
		Answer:   strings.TrimSpace(in.Answer),
	}
}

// CreateDeck adds a deck with its initial cards.
func (w *Workspace) CreateDeck(input DeckInput) (entity.Deck, error) {
	d := entity.Deck{
		ID:          entity.NewID(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Cards:       make([]entity.Flashcard, 0, len(input.Cards)),
	}
	for _, c := range input.Cards {
		d.Cards = append(d.Cards, newCard(c))
	}
	if err := d.Validate(); err != nil {
		return entity.Deck{}, err
	}
	return w.decks.Create(d), nil
}

// UpdateDeck renames or re-describes a deck.
func (w *Workspace) UpdateDeck(id string, patch DeckPatch) (entity.Deck, error) {
	if patch == (DeckPatch{}) {
		return entity.Deck{}, errors.NewInvalidRequest("at least one editable field must be provided")
	}
	return updateRecord(w.decks, "deck", id, func(d *entity.Deck) {
		if patch.Name != nil {
			d.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			d.Description = strings.TrimSpace(*patch.Description)
		}
	})
}

// DeleteDeck removes a deck and every card in it.
func (w *Workspace) DeleteDeck(id string) error {
	return deleteRecord(w.decks, "deck", id)
}

// GetDeck returns one deck.
func (w *Workspace) GetDeck(id string) (entity.Deck, error) {
	return getRecord(w.decks, "deck", id)
}

// ListDecks returns the newest decks first.
func (w *Workspace) ListDecks(q DeckQuery) *ListOutput[entity.Deck] {
	return page(w.decks.View(collection.Query{Search: q.Search}), q.Limit, q.Offset)
}

// AddCards appends cards to the end of a deck.
func (w *Workspace) AddCards(deckID string, cards []CardInput) (entity.Deck, error) {
	if len(cards) == 0 {
		return entity.Deck{}, errors.NewInvalidRequest("at least one card must be provided")
	}
	return updateRecord(w.decks, "deck", deckID, func(d *entity.Deck) {
		next := slices.Clone(d.Cards)
		for _, c := range cards {
			next = append(next, newCard(c))
		}
		d.Cards = next
	})
}

// AddCard appends one card and returns it.
func (w *Workspace) AddCard(deckID string, card CardInput) (entity.Flashcard, error) {
	d, err := w.AddCards(deckID, []CardInput{card})
	if err != nil {
		return entity.Flashcard{}, err
	}
	return d.Cards[len(d.Cards)-1], nil
}

// UpdateCard edits a card in place.
func (w *Workspace) UpdateCard(deckID, cardID string, patch CardPatch) (entity.Flashcard, error) {
	if patch == (CardPatch{}) {
		return entity.Flashcard{}, errors.NewInvalidRequest("at least one editable field must be provided")
	}
	if err := w.requireCard(deckID, cardID); err != nil {
		return entity.Flashcard{}, err
	}
	d, err := updateRecord(w.decks, "deck", deckID, func(d *entity.Deck) {
		i := d.CardIndex(cardID)
		if i < 0 {
			return
		}
		next := slices.Clone(d.Cards)
		if patch.Question != nil {
			next[i].Question = strings.TrimSpace(*patch.Question)
		}
		if patch.Answer != nil {
			next[i].Answer = strings.TrimSpace(*patch.Answer)
		}
		d.Cards = next
	})
	if err != nil {
		return entity.Flashcard{}, err
	}
	i := d.CardIndex(cardID)
	if i < 0 {
		return entity.Flashcard{}, errors.NewNotFound("card", cardID)
	}
	return d.Cards[i], nil
}

// RemoveCard deletes a card from a deck.
func (w *Workspace) RemoveCard(deckID, cardID string) (entity.Deck, error) {
	if err := w.requireCard(deckID, cardID); err != nil {
		return entity.Deck{}, err
	}
	return updateRecord(w.decks, "deck", deckID, func(d *entity.Deck) {
		d.Cards = slices.DeleteFunc(slices.Clone(d.Cards), func(c entity.Flashcard) bool {
			return c.ID == cardID
		})
	})
}

// ImportDecks merges a JSON array of decks by id. A known id replaces the whole deck.
func (w *Workspace) ImportDecks(data []byte) (*ImportOutput, error) {
	return importRecords(w.decks, data, loadDeck, "id", "name", "cards")
}

func (w *Workspace) requireCard(deckID, cardID string) error {
	d, err := w.GetDeck(deckID)
	if err != nil {
		return err
	}
	if d.CardIndex(cardID) < 0 {
		return errors.NewNotFound("card", cardID)
	}
	return nil
}
