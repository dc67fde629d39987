// Package deck provides the flashcard type and named card collections
// with due-set queries.
package deck

import (
	"errors"
	"sort"
	"time"

	"github.com/czaku/wickit/internal/sm2"
)

// ErrCardNotFound is returned when an operation references an unknown card id.
var ErrCardNotFound = errors.New("card not found")

// ErrDuplicateCard is returned when a card id collides on insert.
var ErrDuplicateCard = errors.New("card id already exists in deck")

// Card is a flashcard: content plus embedded SM-2 scheduling state.
type Card struct {
	ID        string    `json:"id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	SM2       sm2.Card  `json:"sm2"`
}

// Deck is a named collection of cards. Cards keep their insertion order,
// which serves as the deterministic tie-break for due-set queries.
type Deck struct {
	Name  string
	cards []Card
	index map[string]int
}

// New creates an empty deck with the given name.
func New(name string) *Deck {
	return &Deck{
		Name:  name,
		index: make(map[string]int),
	}
}

// Len returns the number of cards in the deck.
func (d *Deck) Len() int {
	return len(d.cards)
}

// AddCard appends a card to the deck. Returns ErrDuplicateCard if a card
// with the same id is already present.
func (d *Deck) AddCard(card Card) error {
	if _, exists := d.index[card.ID]; exists {
		return ErrDuplicateCard
	}
	d.index[card.ID] = len(d.cards)
	d.cards = append(d.cards, card)
	return nil
}

// RemoveCard removes the card with the given id. Returns ErrCardNotFound
// if no such card exists.
func (d *Deck) RemoveCard(id string) error {
	pos, exists := d.index[id]
	if !exists {
		return ErrCardNotFound
	}
	d.cards = append(d.cards[:pos], d.cards[pos+1:]...)
	delete(d.index, id)
	for i := pos; i < len(d.cards); i++ {
		d.index[d.cards[i].ID] = i
	}
	return nil
}

// Card returns the card with the given id.
func (d *Deck) Card(id string) (Card, error) {
	pos, exists := d.index[id]
	if !exists {
		return Card{}, ErrCardNotFound
	}
	return d.cards[pos], nil
}

// UpdateCard replaces the stored card with the same id, preserving its
// position in the deck.
func (d *Deck) UpdateCard(card Card) error {
	pos, exists := d.index[card.ID]
	if !exists {
		return ErrCardNotFound
	}
	d.cards[pos] = card
	return nil
}

// Cards returns a copy of all cards in insertion order.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// DueCards returns the cards due as of the given time, sorted by
// ascending due date with insertion order breaking ties.
func (d *Deck) DueCards(asOf time.Time) []Card {
	due := make([]Card, 0)
	for _, card := range d.cards {
		if sm2.IsDue(card.SM2, asOf) {
			due = append(due, card)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].SM2.Due.Before(due[j].SM2.Due)
	})
	return due
}

// NewCards returns the cards that have never been reviewed.
func (d *Deck) NewCards() []Card {
	fresh := make([]Card, 0)
	for _, card := range d.cards {
		if card.SM2.Repetitions == 0 && card.SM2.LastReview.IsZero() {
			fresh = append(fresh, card)
		}
	}
	return fresh
}

// ReviewedToday counts cards whose last review falls on the same
// calendar day as asOf.
func (d *Deck) ReviewedToday(asOf time.Time) int {
	count := 0
	for _, card := range d.cards {
		if card.SM2.LastReview.IsZero() {
			continue
		}
		if sameDay(card.SM2.LastReview, asOf) {
			count++
		}
	}
	return count
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
