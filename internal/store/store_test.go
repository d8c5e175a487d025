package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mkaravas/melete/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func dogLines() []model.CardLine {
	return []model.CardLine{
		{Kind: model.LinePartOfSpeech, Text: "noun"},
		{Kind: model.LineMeaning, Language: model.LanguageEnglish, Text: "the dog"},
		{Kind: model.LineMeaning, Language: model.LanguageEnglish, Text: "the hound"},
		{Kind: model.LineMeaning, Language: model.LanguageGreek, Text: "ο σκύλος"},
		{Kind: model.LineComment, Text: "from lesson 3"},
	}
}

func TestCardRoundTrip(t *testing.T) {
	s := newTestStore(t)

	ids, err := s.ListCardIDs()
	if err != nil {
		t.Fatalf("ListCardIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty store, got %d cards", len(ids))
	}

	id := uuid.New()
	if err := s.UpsertCard(id, "lesson3.cards", 12, dogLines()); err != nil {
		t.Fatalf("UpsertCard: %v", err)
	}

	ids, err = s.ListCardIDs()
	if err != nil {
		t.Fatalf("ListCardIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("ListCardIDs = %v, want [%s]", ids, id)
	}

	lines, err := s.CardLines(id)
	if err != nil {
		t.Fatalf("CardLines: %v", err)
	}
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if lines[1].Text != "the dog" || lines[1].Language != model.LanguageEnglish {
		t.Errorf("line 1 = %+v", lines[1])
	}

	card, err := model.NewCard(id, lines)
	if err != nil {
		t.Fatalf("NewCard: %v", err)
	}
	got := card.MeaningsIn(model.LanguageEnglish)
	if len(got) != 2 || got[0] != "the dog" || got[1] != "the hound" {
		t.Errorf("MeaningsIn(en) = %v", got)
	}
	if card.PartOfSpeech != "noun" {
		t.Errorf("PartOfSpeech = %q", card.PartOfSpeech)
	}
}

func TestUpsertReplacesLines(t *testing.T) {
	s := newTestStore(t)
	id := uuid.New()

	if err := s.UpsertCard(id, "a.cards", 1, dogLines()); err != nil {
		t.Fatalf("UpsertCard: %v", err)
	}
	replacement := []model.CardLine{
		{Kind: model.LineMeaning, Language: model.LanguageEnglish, Text: "the cat"},
	}
	if err := s.UpsertCard(id, "a.cards", 1, replacement); err != nil {
		t.Fatalf("UpsertCard (replace): %v", err)
	}

	lines, err := s.CardLines(id)
	if err != nil {
		t.Fatalf("CardLines: %v", err)
	}
	if len(lines) != 1 || lines[0].Text != "the cat" {
		t.Errorf("lines after replace = %+v", lines)
	}
}

func TestCardNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CardLines(uuid.New())
	if !errors.Is(err, ErrCardNotFound) {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}
}

func TestRecords(t *testing.T) {
	s := newTestStore(t)
	id := uuid.New()
	if err := s.UpsertCard(id, "a.cards", 1, dogLines()); err != nil {
		t.Fatalf("UpsertCard: %v", err)
	}

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	asks := []struct {
		at     time.Time
		result model.Verdict
	}{
		{base, model.VerdictNo},
		{base.Add(24 * time.Hour), model.VerdictYes},
		{base.Add(72 * time.Hour), model.VerdictYes},
	}
	for _, a := range asks {
		if err := s.RecordAnswer(id, model.LanguageEnglish, model.LanguageGreek, a.result, a.at); err != nil {
			t.Fatalf("RecordAnswer: %v", err)
		}
	}
	// A record for the other direction must not leak in.
	if err := s.RecordAnswer(id, model.LanguageGreek, model.LanguageEnglish, model.VerdictAlmost, base); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	records, err := s.Records(id, model.LanguageEnglish, model.LanguageGreek)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Date.Before(records[i-1].Date) {
			t.Errorf("records out of order: %v before %v", records[i].Date, records[i-1].Date)
		}
	}
	if records[0].Result != model.VerdictNo || records[2].Result != model.VerdictYes {
		t.Errorf("unexpected results: %+v", records)
	}
}

func TestFileStoreUsesWAL(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "melete.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	var mode string
	if err := s.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	if err := s.UpsertCard(uuid.New(), "a.cards", 1, dogLines()); err != nil {
		t.Fatalf("UpsertCard: %v", err)
	}
	if err := s.Checkpoint(); err != nil {
		t.Errorf("Checkpoint: %v", err)
	}
}
