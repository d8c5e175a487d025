package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// QuestionKind is one way of asking about a card. Translate is the
// only kind today; the quiz machinery goes through this interface so
// new kinds slot in without touching it.
type QuestionKind interface {
	// Prompts returns the lines shown to the user when asking.
	Prompts(c *Card) []string
	// ExpectedAnswers returns the answers the user must produce.
	// Order is significant: it defines the slots answers match into.
	ExpectedAnswers(c *Card) []string
	// InputLanguage is the language the answer is typed in.
	InputLanguage() Language
	// String describes the kind for logs.
	String() string
}

// Translate asks for a card's meanings in another language.
type Translate struct {
	From Language `json:"from"`
	To   Language `json:"to"`
}

func (t Translate) Prompts(c *Card) []string         { return c.MeaningsIn(t.From) }
func (t Translate) ExpectedAnswers(c *Card) []string { return c.MeaningsIn(t.To) }
func (t Translate) InputLanguage() Language          { return t.To }

func (t Translate) String() string {
	return fmt.Sprintf("translate %s to %s", t.From, t.To)
}

// MarshalJSON encodes the kind in tagged form: {"Translate":{...}}.
func (t Translate) MarshalJSON() ([]byte, error) {
	type body Translate
	return json.Marshal(map[string]body{"Translate": body(t)})
}

// DecodeQuestionKind decodes a tagged question-kind value. Unknown
// tags are an error, never silently skipped.
func DecodeQuestionKind(raw json.RawMessage) (QuestionKind, error) {
	var tagged struct {
		Translate *Translate `json:"Translate"`
	}
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, fmt.Errorf("decode question kind: %w", err)
	}
	if tagged.Translate == nil {
		return nil, fmt.Errorf("unrecognized question kind %s", string(raw))
	}
	return *tagged.Translate, nil
}

// Question pairs a card with the kind of question to ask about it.
type Question struct {
	UUID uuid.UUID
	Kind QuestionKind
}

// On the wire a question is a [uuid, kind] pair.
func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{q.UUID, q.Kind})
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("question: expected [uuid, kind] pair, got %d elements", len(parts))
	}
	if err := json.Unmarshal(parts[0], &q.UUID); err != nil {
		return fmt.Errorf("question uuid: %w", err)
	}
	kind, err := DecodeQuestionKind(parts[1])
	if err != nil {
		return err
	}
	q.Kind = kind
	return nil
}
