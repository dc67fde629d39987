package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/czaku/wickit/internal/deck"
	"github.com/czaku/wickit/internal/sm2"
)

func openTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "wickit-test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return db
}

func TestSQLiteCardRoundTrip(t *testing.T) {
	db := openTestDB(t)

	created, err := db.CreateCard("Front", "Back", []string{"bio", "exam"})
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	got, err := db.GetCard(created.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if got.Front != "Front" || got.Back != "Back" {
		t.Errorf("Unexpected content: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "bio" || got.Tags[1] != "exam" {
		t.Errorf("Tags not preserved: %v", got.Tags)
	}
	if got.SM2.EaseFactor != sm2.DefaultEaseFactor {
		t.Errorf("Expected default ease factor, got %v", got.SM2.EaseFactor)
	}
	if !got.SM2.LastReview.IsZero() {
		t.Errorf("Expected zero last review, got %v", got.SM2.LastReview)
	}

	if _, err := db.GetCard("missing"); !errors.Is(err, deck.ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound, got %v", err)
	}
}

func TestSQLiteUpdateCard(t *testing.T) {
	db := openTestDB(t)

	card, err := db.CreateCard("Front", "Back", nil)
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	card.Front = "Updated"
	card.SM2.EaseFactor = 2.36
	card.SM2.Interval = 6
	card.SM2.Repetitions = 2
	card.SM2.Due = now.AddDate(0, 0, 6)
	card.SM2.LastReview = now

	if err := db.UpdateCard(card); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}

	got, err := db.GetCard(card.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if got.Front != "Updated" {
		t.Errorf("Expected updated front, got %q", got.Front)
	}
	if got.SM2.EaseFactor != 2.36 || got.SM2.Interval != 6 || got.SM2.Repetitions != 2 {
		t.Errorf("Scheduling state not persisted: %+v", got.SM2)
	}
	if !got.SM2.Due.Equal(card.SM2.Due) {
		t.Errorf("Expected due %v, got %v", card.SM2.Due, got.SM2.Due)
	}
	if !got.SM2.LastReview.Equal(now) {
		t.Errorf("Expected last review %v, got %v", now, got.SM2.LastReview)
	}

	missing := card
	missing.ID = "missing"
	if err := db.UpdateCard(missing); !errors.Is(err, deck.ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound, got %v", err)
	}
}

func TestSQLiteDeleteCard(t *testing.T) {
	db := openTestDB(t)

	card, err := db.CreateCard("Front", "Back", nil)
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	if err := db.DeleteCard(card.ID); err != nil {
		t.Fatalf("DeleteCard failed: %v", err)
	}
	if err := db.DeleteCard(card.ID); !errors.Is(err, deck.ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound, got %v", err)
	}
}

func TestSQLiteListCards(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.CreateCard("a", "1", []string{"bio"}); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if _, err := db.CreateCard("b", "2", []string{"chem"}); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if _, err := db.CreateCard("c", "3", nil); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	all, err := db.ListCards(nil)
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 cards, got %d", len(all))
	}
	// Creation order is preserved.
	if all[0].Front != "a" || all[2].Front != "c" {
		t.Errorf("Unexpected order: %v, %v, %v", all[0].Front, all[1].Front, all[2].Front)
	}

	filtered, err := db.ListCards([]string{"bio"})
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Front != "a" {
		t.Errorf("Expected only the bio card, got %+v", filtered)
	}
}

func TestSQLiteReviewsAppendOrder(t *testing.T) {
	db := openTestDB(t)

	card, err := db.CreateCard("Front", "Back", nil)
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	qualities := []sm2.Quality{sm2.QualityWrong, sm2.QualityHard, sm2.QualityPerfect}
	for i, q := range qualities {
		if _, err := db.AddReview(card.ID, q, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("AddReview failed: %v", err)
		}
	}

	reviews, err := db.ListReviews(card.ID)
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

	all, err := db.AllReviews()
	if err != nil {
		t.Fatalf("AllReviews failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 total reviews, got %d", len(all))
	}

	if _, err := db.AddReview("missing", sm2.QualityGood, base); !errors.Is(err, deck.ErrCardNotFound) {
		t.Errorf("Expected ErrCardNotFound, got %v", err)
	}
}
