package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/czaku/wickit/internal/deck"
	"github.com/czaku/wickit/internal/sm2"
)

// tempStorePath returns a file path inside a fresh temp directory.
func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "wickit-test.json")
}

func TestFileStorageCreateCard(t *testing.T) {
	fs := NewFileStorage(tempStorePath(t))

	card, err := fs.CreateCard("Front", "Back", []string{"tag1", "tag2"})
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	if card.ID == "" {
		t.Error("Expected card to have an ID")
	}
	if card.Front != "Front" || card.Back != "Back" {
		t.Errorf("Unexpected card content: %+v", card)
	}
	if len(card.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %v", card.Tags)
	}
	if card.SM2.EaseFactor != sm2.DefaultEaseFactor {
		t.Errorf("Expected default ease factor, got %v", card.SM2.EaseFactor)
	}
	if card.SM2.Interval != 0 || card.SM2.Repetitions != 0 {
		t.Errorf("Expected zeroed scheduling state, got %+v", card.SM2)
	}
}

func TestFileStorageGetCard(t *testing.T) {
	fs := NewFileStorage(tempStorePath(t))

	created, err := fs.CreateCard("Front", "Back", nil)
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	got, err := fs.GetCard(created.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("Card mismatch (-created +got):\n%s", diff)
	}

	if _, err := fs.GetCard("missing"); !errors.Is(err, deck.ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound, got %v", err)
	}
}

func TestFileStorageUpdateCard(t *testing.T) {
	fs := NewFileStorage(tempStorePath(t))

	card, err := fs.CreateCard("Front", "Back", nil)
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	card.Front = "Updated"
	card.SM2.Repetitions = 2
	if err := fs.UpdateCard(card); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}

	got, err := fs.GetCard(card.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if got.Front != "Updated" || got.SM2.Repetitions != 2 {
		t.Errorf("Update not applied: %+v", got)
	}

	missing := card
	missing.ID = "missing"
	if err := fs.UpdateCard(missing); !errors.Is(err, deck.ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound, got %v", err)
	}
}

func TestFileStorageDeleteCardKeepsReviews(t *testing.T) {
	fs := NewFileStorage(tempStorePath(t))

	card, err := fs.CreateCard("Front", "Back", nil)
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if _, err := fs.AddReview(card.ID, sm2.QualityGood, time.Now()); err != nil {
		t.Fatalf("AddReview failed: %v", err)
	}

	if err := fs.DeleteCard(card.ID); err != nil {
		t.Fatalf("DeleteCard failed: %v", err)
	}
	if err := fs.DeleteCard(card.ID); !errors.Is(err, deck.ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound on second delete, got %v", err)
	}

	// The event log is append-only; deleting the card keeps its history.
	events, err := fs.AllReviews()
	if err != nil {
		t.Fatalf("AllReviews failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("Expected review history to survive card deletion, got %d events", len(events))
	}
}

func TestFileStorageListCardsTagFilter(t *testing.T) {
	fs := NewFileStorage(tempStorePath(t))

	if _, err := fs.CreateCard("a", "1", []string{"bio"}); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if _, err := fs.CreateCard("b", "2", []string{"chem", "exam"}); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if _, err := fs.CreateCard("c", "3", nil); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	all, err := fs.ListCards(nil)
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 cards, got %d", len(all))
	}

	// Any-tag (OR) filter.
	filtered, err := fs.ListCards([]string{"bio", "exam"})
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("Expected 2 cards matching tags, got %d", len(filtered))
	}
}

func TestFileStorageReviews(t *testing.T) {
	fs := NewFileStorage(tempStorePath(t))

	card, err := fs.CreateCard("Front", "Back", nil)
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	other, err := fs.CreateCard("Other", "Card", nil)
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	qualities := []sm2.Quality{sm2.QualityGood, sm2.QualityWrong, sm2.QualityPerfect}
	for i, q := range qualities {
		if _, err := fs.AddReview(card.ID, q, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("AddReview failed: %v", err)
		}
	}
	if _, err := fs.AddReview(other.ID, sm2.QualityHard, base); err != nil {
		t.Fatalf("AddReview failed: %v", err)
	}

	reviews, err := fs.ListReviews(card.ID)
	if err != nil {
		t.Fatalf("ListReviews failed: %v", err)
	}
	if len(reviews) != 3 {
		t.Fatalf("Expected 3 reviews, got %d", len(reviews))
	}
	for i, q := range qualities {
		if reviews[i].Quality != q {
			t.Errorf("Review %d: expected quality %d, got %d", i, q, reviews[i].Quality)
		}
	}

	all, err := fs.AllReviews()
	if err != nil {
		t.Fatalf("AllReviews failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 total reviews, got %d", len(all))
	}

	if _, err := fs.AddReview("missing", sm2.QualityGood, base); !errors.Is(err, deck.ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound, got %v", err)
	}
	if _, err := fs.ListReviews("missing"); !errors.Is(err, deck.ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound, got %v", err)
	}
}

func TestFileStorageSaveLoadRoundTrip(t *testing.T) {
	path := tempStorePath(t)
	fs := NewFileStorage(path)

	card, err := fs.CreateCard("Front", "Back", []string{"bio"})
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if _, err := fs.AddReview(card.ID, sm2.QualityGood, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("AddReview failed: %v", err)
	}
	if err := fs.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := NewFileStorage(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	gotCards, err := reloaded.ListCards(nil)
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(gotCards) != 1 {
		t.Fatalf("Expected 1 card after reload, got %d", len(gotCards))
	}
	if gotCards[0].ID != card.ID || gotCards[0].Front != card.Front {
		t.Errorf("Reloaded card mismatch: %+v", gotCards[0])
	}

	gotReviews, err := reloaded.AllReviews()
	if err != nil {
		t.Fatalf("AllReviews failed: %v", err)
	}
	if len(gotReviews) != 1 || gotReviews[0].CardID != card.ID {
		t.Errorf("Reloaded reviews mismatch: %+v", gotReviews)
	}
}

func TestFileStorageLoadMissingFile(t *testing.T) {
	path := tempStorePath(t)
	fs := NewFileStorage(path)

	if err := fs.Load(); err != nil {
		t.Fatalf("Load of missing file should initialize an empty store: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected store file to be created on first load: %v", err)
	}

	cards, err := fs.ListCards(nil)
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("Expected empty store, got %d cards", len(cards))
	}
}
