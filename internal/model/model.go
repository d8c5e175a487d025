package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Language identifies a language by its short code.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageGreek   Language = "gr"
)

// ParseLanguage accepts a language code or full name.
func ParseLanguage(s string) (Language, error) {
	switch s {
	case "en", "english", "English":
		return LanguageEnglish, nil
	case "gr", "greek", "Greek":
		return LanguageGreek, nil
	}
	return "", fmt.Errorf("unrecognized language %q", s)
}

// FullName returns the language's name in that language.
func (l Language) FullName() string {
	switch l {
	case LanguageEnglish:
		return "English"
	case LanguageGreek:
		return "Ελληνικά"
	}
	return string(l)
}

// Verdict is the user's self-assessment of a question: did they know it?
type Verdict string

const (
	VerdictYes    Verdict = "yes"
	VerdictNo     Verdict = "no"
	VerdictAlmost Verdict = "almost"
)

// ParseVerdict validates a verdict string from a flag or URL segment.
func ParseVerdict(s string) (Verdict, error) {
	switch Verdict(s) {
	case VerdictYes, VerdictNo, VerdictAlmost:
		return Verdict(s), nil
	}
	return "", fmt.Errorf("unrecognized verdict %q", s)
}

// LineKind classifies a single line of a card record.
type LineKind string

const (
	LinePartOfSpeech LineKind = "PartOfSpeech"
	LineComment      LineKind = "Comment"
	LineAoristos     LineKind = "Aoristos"
	LineMeaning      LineKind = "Meaning"
)

// CardLine is one classified line of a card record. Language is set
// only for LineMeaning.
type CardLine struct {
	Kind     LineKind
	Language Language
	Text     string
}

// Card is a single vocabulary entry. Immutable once built.
type Card struct {
	UUID         uuid.UUID
	Meanings     []CardLine // LineMeaning lines, in record order
	Conjugations []CardLine // conjugation lines, in record order
	PartOfSpeech string
}

// MalformedRecordError reports a card record line whose kind could not
// be classified.
type MalformedRecordError struct {
	CardID uuid.UUID
	Line   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("card %s: unrecognized line %q", e.CardID, e.Line)
}

// NewCard builds a Card from its record lines. Every line must
// classify as part-of-speech, meaning, comment or conjugation;
// anything else fails the whole card.
func NewCard(id uuid.UUID, lines []CardLine) (*Card, error) {
	c := &Card{UUID: id}
	for _, line := range lines {
		switch line.Kind {
		case LinePartOfSpeech:
			c.PartOfSpeech = line.Text
		case LineMeaning:
			c.Meanings = append(c.Meanings, line)
		case LineComment:
			// kept in the record, nothing to show
		case LineAoristos:
			c.Conjugations = append(c.Conjugations, line)
		default:
			return nil, &MalformedRecordError{
				CardID: id,
				Line:   fmt.Sprintf("%s %s", line.Kind, line.Text),
			}
		}
	}
	return c, nil
}

// MeaningsIn returns the card's meanings in the given language, in
// record order. Duplicates are preserved.
func (c *Card) MeaningsIn(lang Language) []string {
	var out []string
	for _, m := range c.Meanings {
		if m.Language == lang {
			out = append(out, m.Text)
		}
	}
	return out
}

// QuestionRecord is one historical answer to a question about a card.
type QuestionRecord struct {
	Date   time.Time
	Kind   QuestionKind
	Result Verdict
}
