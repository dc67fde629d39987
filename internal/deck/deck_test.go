package deck

import (
	"errors"
	"testing"
	"time"

	"github.com/czaku/wickit/internal/sm2"
)

func newTestCard(id string, due time.Time) Card {
	return Card{
		ID:        id,
		Front:     "front " + id,
		Back:      "back " + id,
		CreatedAt: due.AddDate(0, 0, -7),
		SM2: sm2.Card{
			EaseFactor: sm2.DefaultEaseFactor,
			Due:        due,
		},
	}
}

func TestAddCardDuplicate(t *testing.T) {
	d := New("biology")
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := d.AddCard(newTestCard("a", now)); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}
	if err := d.AddCard(newTestCard("a", now)); !errors.Is(err, ErrDuplicateCard) {
		t.Errorf("Expected ErrDuplicateCard, got %v", err)
	}
	if d.Len() != 1 {
		t.Errorf("Expected 1 card, got %d", d.Len())
	}
}

func TestRemoveCard(t *testing.T) {
	d := New("biology")
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b", "c"} {
		if err := d.AddCard(newTestCard(id, now)); err != nil {
			t.Fatalf("AddCard failed: %v", err)
		}
	}

	if err := d.RemoveCard("b"); err != nil {
		t.Fatalf("RemoveCard failed: %v", err)
	}
	if err := d.RemoveCard("b"); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound, got %v", err)
	}

	// Remaining cards are still reachable after index reshuffle.
	if _, err := d.Card("a"); err != nil {
		t.Errorf("Card a should still exist: %v", err)
	}
	card, err := d.Card("c")
	if err != nil {
		t.Fatalf("Card c should still exist: %v", err)
	}
	if card.ID != "c" {
		t.Errorf("Expected card c, got %s", card.ID)
	}
}

func TestUpdateCard(t *testing.T) {
	d := New("biology")
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := d.AddCard(newTestCard("a", now)); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}

	card, _ := d.Card("a")
	card.SM2.Repetitions = 3
	if err := d.UpdateCard(card); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}
	got, _ := d.Card("a")
	if got.SM2.Repetitions != 3 {
		t.Errorf("Expected repetitions 3, got %d", got.SM2.Repetitions)
	}

	missing := newTestCard("nope", now)
	if err := d.UpdateCard(missing); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound, got %v", err)
	}
}

func TestDueCardsOrdering(t *testing.T) {
	d := New("biology")
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	// Inserted out of due order; "b" and "c" share a due date so their
	// insertion order must be preserved.
	cards := []Card{
		newTestCard("a", now.AddDate(0, 0, -1)),
		newTestCard("b", now.AddDate(0, 0, -3)),
		newTestCard("c", now.AddDate(0, 0, -3)),
		newTestCard("future", now.AddDate(0, 0, 2)),
	}
	for _, c := range cards {
		if err := d.AddCard(c); err != nil {
			t.Fatalf("AddCard failed: %v", err)
		}
	}

	due := d.DueCards(now)
	if len(due) != 3 {
		t.Fatalf("Expected 3 due cards, got %d", len(due))
	}
	wantOrder := []string{"b", "c", "a"}
	for i, want := range wantOrder {
		if due[i].ID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, due[i].ID)
		}
	}
}

func TestDueCardsBoundary(t *testing.T) {
	d := New("biology")
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	if err := d.AddCard(newTestCard("exact", now)); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}

	if got := d.DueCards(now); len(got) != 1 {
		t.Errorf("Card due exactly now should be returned, got %d cards", len(got))
	}
	if got := d.DueCards(now.Add(-time.Second)); len(got) != 0 {
		t.Errorf("Card should not be due before its due date, got %d cards", len(got))
	}
}

func TestNewCards(t *testing.T) {
	d := New("biology")
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	fresh := newTestCard("fresh", now)
	seen := newTestCard("seen", now)
	seen.SM2.Repetitions = 1
	seen.SM2.LastReview = now.AddDate(0, 0, -1)

	// A lapsed card has zero repetitions but a review history; it does
	// not count as new.
	lapsed := newTestCard("lapsed", now)
	lapsed.SM2.LastReview = now.AddDate(0, 0, -2)

	for _, c := range []Card{fresh, seen, lapsed} {
		if err := d.AddCard(c); err != nil {
			t.Fatalf("AddCard failed: %v", err)
		}
	}

	got := d.NewCards()
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("Expected only the fresh card, got %v", got)
	}
}

func TestReviewedToday(t *testing.T) {
	d := New("biology")
	now := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)

	today := newTestCard("today", now)
	today.SM2.LastReview = time.Date(2024, 3, 10, 0, 15, 0, 0, time.UTC)
	yesterday := newTestCard("yesterday", now)
	yesterday.SM2.LastReview = time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	never := newTestCard("never", now)

	for _, c := range []Card{today, yesterday, never} {
		if err := d.AddCard(c); err != nil {
			t.Fatalf("AddCard failed: %v", err)
		}
	}

	if got := d.ReviewedToday(now); got != 1 {
		t.Errorf("Expected 1 card reviewed today, got %d", got)
	}
}

func TestCardsReturnsCopy(t *testing.T) {
	d := New("biology")
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	if err := d.AddCard(newTestCard("a", now)); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}

	cards := d.Cards()
	cards[0].Front = "mutated"
	got, _ := d.Card("a")
	if got.Front == "mutated" {
		t.Error("Cards() should return a copy, not the backing slice")
	}
}
