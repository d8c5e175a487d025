package quiz

import (
	"context"
	"log/slog"
)

// NoSlot marks an answer that matched none of the expected answers.
const NoSlot = -1

// Answer is one recorded submission: the text the user gave and the
// index of the expected answer it filled, or NoSlot.
type Answer struct {
	Text string
	Slot int
}

// AnswerChecker is the fuzzy-equality oracle consulted once per
// candidate expected answer.
type AnswerChecker interface {
	CheckAnswer(ctx context.Context, expected, submitted string) (bool, error)
}

// Matcher grades a submission against the expected answers for the
// current question.
type Matcher struct {
	checker AnswerChecker
}

func NewMatcher(checker AnswerChecker) *Matcher {
	return &Matcher{checker: checker}
}

// MatchSlot returns the lowest index in expected the oracle accepts
// for submitted, or NoSlot. The lowest matching index always wins,
// even when several would match. An oracle failure on one candidate
// counts as a non-match for that candidate only.
func (m *Matcher) MatchSlot(ctx context.Context, expected []string, submitted string) int {
	for i, candidate := range expected {
		ok, err := m.checker.CheckAnswer(ctx, candidate, submitted)
		if err != nil {
			slog.Debug("answer check failed, treating as non-match",
				"candidate", candidate, "error", err)
			continue
		}
		if ok {
			return i
		}
	}
	return NoSlot
}

// IsDuplicate reports whether a submission repeats a recorded answer:
// same text as any earlier submission, or a match into a slot that is
// already filled. Duplicates are discarded, not recorded.
func IsDuplicate(answers []Answer, submitted string, slot int) bool {
	for _, a := range answers {
		if a.Text == submitted {
			return true
		}
		if a.Slot != NoSlot && a.Slot == slot {
			return true
		}
	}
	return false
}

// MissingAnswers returns the expected answers whose slot no recorded
// answer filled, preserving the expected order.
func MissingAnswers(expected []string, answers []Answer) []string {
	filled := make([]bool, len(expected))
	for _, a := range answers {
		if a.Slot != NoSlot && a.Slot < len(filled) {
			filled[a.Slot] = true
		}
	}
	var missing []string
	for i, e := range expected {
		if !filled[i] {
			missing = append(missing, e)
		}
	}
	return missing
}
