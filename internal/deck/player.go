// Package deck steps through a flashcard deck one card at a time.
package deck

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
)

// DefaultTransition is the pause between turning a card face-down and moving on.
const DefaultTransition = 150 * time.Millisecond

// Face is the side of the current card being shown.
type Face string

const (
	FaceQuestion Face = "question"
	FaceAnswer   Face = "answer"
)

// State is a snapshot of the player.
type State struct {
	DeckID   string            `json:"deckId"`
	Card     *entity.Flashcard `json:"card,omitempty"`
	Index    int               `json:"index"`
	Total    int               `json:"total"`
	Face     Face              `json:"face"`
	Shuffled bool              `json:"shuffled"`
}

// Player holds the viewing order over a deck's cards. It is safe for concurrent use.
type Player struct {
	mu         sync.Mutex
	deckID     string
	cards      map[string]entity.Flashcard
	original   []string
	order      []string
	index      int
	face       Face
	shuffled   bool
	transition time.Duration
	rng        *rand.Rand
}

// Option configures a Player.
type Option func(*Player)

// WithTransition overrides DefaultTransition. Zero disables the pause.
func WithTransition(d time.Duration) Option {
	return func(p *Player) { p.transition = max(d, 0) }
}

// WithRand sets the shuffle source.
func WithRand(r *rand.Rand) Option {
	return func(p *Player) { p.rng = r }
}

// New starts a player on the deck's first card, question side up.
func New(d entity.Deck, opts ...Option) *Player {
	p := &Player{
		deckID:     d.ID,
		cards:      make(map[string]entity.Flashcard, len(d.Cards)),
		original:   d.CardIDs(),
		face:       FaceQuestion,
		transition: DefaultTransition,
	}
	for _, c := range d.Cards {
		p.cards[c.ID] = c
	}
	p.order = slices.Clone(p.original)
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p
}

// Current returns the card in view. It is false for an empty deck.
func (p *Player) Current() (entity.Flashcard, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.order) == 0 {
		return entity.Flashcard{}, false
	}
	return p.cards[p.order[p.index]], true
}

// State returns a snapshot of the player.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := State{
		DeckID:   p.deckID,
		Index:    p.index,
		Total:    len(p.order),
		Face:     p.face,
		Shuffled: p.shuffled,
	}
	if len(p.order) > 0 {
		c := p.cards[p.order[p.index]]
		s.Card = &c
	}
	return s
}

// Flip turns the current card over.
func (p *Player) Flip() Face {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.face == FaceQuestion {
		p.face = FaceAnswer
	} else {
		p.face = FaceQuestion
	}
	return p.face
}

// Next turns the card question side up, waits the transition, then moves
// forward, wrapping past the last card.
func (p *Player) Next(ctx context.Context) error {
	return p.step(ctx, 1)
}

// Prev is Next in the other direction.
func (p *Player) Prev(ctx context.Context) error {
	return p.step(ctx, -1)
}

func (p *Player) step(ctx context.Context, delta int) error {
	p.mu.Lock()
	if len(p.order) == 0 {
		p.mu.Unlock()
		return nil
	}
	p.face = FaceQuestion
	wait := p.transition
	p.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return errors.NewCancelled("card transition")
		case <-timer.C:
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.order); n > 0 {
		p.index = ((p.index+delta)%n + n) % n
	}
	return nil
}

// Shuffle randomizes the viewing order and starts again from the first card.
func (p *Player) Shuffle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng.Shuffle(len(p.order), func(i, j int) {
		p.order[i], p.order[j] = p.order[j], p.order[i]
	})
	p.index = 0
	p.face = FaceQuestion
	p.shuffled = true
}

// Unshuffle restores deck order, keeping the current card in view.
func (p *Player) Unshuffle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	var current string
	if len(p.order) > 0 {
		current = p.order[p.index]
	}
	p.order = slices.Clone(p.original)
	p.index = max(slices.Index(p.order, current), 0)
	p.shuffled = false
}

// Remove drops a card from the player, keeping the index in range.
func (p *Player) Remove(cardID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := slices.Index(p.order, cardID)
	if i < 0 {
		return false
	}
	p.order = slices.Delete(p.order, i, i+1)
	p.original = slices.DeleteFunc(p.original, func(id string) bool { return id == cardID })
	delete(p.cards, cardID)
	if i < p.index {
		p.index--
	}
	if p.index >= len(p.order) {
		p.index = max(len(p.order)-1, 0)
	}
	p.face = FaceQuestion
	return true
}
