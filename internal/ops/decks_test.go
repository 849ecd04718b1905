package ops

import (
	"testing"

	"github.com/hpungsan/flowfocus/internal/errors"
)

func TestDeckCards(t *testing.T) {
	env := newTestEnv(t)
	deck, err := env.ws.CreateDeck(DeckInput{Name: "Spanish", Cards: []CardInput{
		{Question: "hola", Answer: "hello"},
	}})
	if err != nil {
		t.Fatalf("CreateDeck() error = %v", err)
	}

	card, err := env.ws.AddCard(deck.ID, CardInput{Question: "adios", Answer: "bye"})
	if err != nil {
		t.Fatalf("AddCard() error = %v", err)
	}
	deck, _ = env.ws.GetDeck(deck.ID)
	if len(deck.Cards) != 2 || deck.Cards[1].ID != card.ID {
		t.Fatalf("cards = %+v", deck.Cards)
	}

	edited, err := env.ws.UpdateCard(deck.ID, card.ID, CardPatch{Answer: ptr("goodbye")})
	if err != nil || edited.Answer != "goodbye" || edited.Question != "adios" {
		t.Fatalf("UpdateCard() = %+v, %v", edited, err)
	}
	if _, err := env.ws.UpdateCard(deck.ID, card.ID, CardPatch{Question: ptr("")}); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("blank question: err = %v", err)
	}
	if _, err := env.ws.UpdateCard(deck.ID, "nope", CardPatch{Answer: ptr("x")}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown card: err = %v", err)
	}

	deck, err = env.ws.RemoveCard(deck.ID, deck.Cards[0].ID)
	if err != nil || len(deck.Cards) != 1 || deck.Cards[0].ID != card.ID {
		t.Fatalf("RemoveCard() = %+v, %v", deck.Cards, err)
	}

	if err := env.ws.DeleteDeck(deck.ID); err != nil {
		t.Fatalf("DeleteDeck() error = %v", err)
	}
	if _, err := env.ws.AddCard(deck.ID, CardInput{Question: "q", Answer: "a"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("deleted deck: err = %v", err)
	}
}

func TestImportDecks_AssignsCardIDs(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.ws.ImportDecks([]byte(`[{"id":"d1","name":"Imported","cards":[{"question":"q","answer":"a"}]}]`))
	if err != nil || out.Added != 1 {
		t.Fatalf("ImportDecks() = %+v, %v", out, err)
	}
	d, _ := env.ws.GetDeck("d1")
	if d.Cards[0].ID == "" {
		t.Error("imported card should get an id")
	}
	if _, err := env.ws.ImportDecks([]byte(`[{"id":"d2","name":"no cards"}]`)); !errors.Is(err, errors.ErrImportFormat) {
		t.Errorf("missing cards: err = %v", err)
	}
}
