// Package quiz implements the quiz session: the state machine that
// sequences questions, the answer matcher, and the coordinator for
// live transliteration lookups.
package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkaravas/melete/internal/model"
)

// State identifies where a session is in its lifecycle.
type State int

const (
	StateLoadingQuestions State = iota
	StateLoadingCard
	StateAnswering
	StateGrading
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateLoadingQuestions:
		return "loading-questions"
	case StateLoadingCard:
		return "loading-card"
	case StateAnswering:
		return "answering"
	case StateGrading:
		return "grading"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// Outcome tells the caller what a submission or verdict did.
type Outcome int

const (
	// OutcomeMoreAnswers: the answer was recorded, more are expected.
	OutcomeMoreAnswers Outcome = iota
	// OutcomeDuplicate: the submission repeated an earlier answer and
	// was discarded.
	OutcomeDuplicate
	// OutcomeNeedVerdict: answers are missing; the user must say
	// whether they knew it (yes/no/almost).
	OutcomeNeedVerdict
	// OutcomeNextQuestion: the question resolved and a fresh card is
	// loaded.
	OutcomeNextQuestion
	// OutcomeComplete: the quiz is over.
	OutcomeComplete
)

// Backend is everything a session needs from the remote service.
type Backend interface {
	QuizCards(ctx context.Context, lang model.Language) ([]model.Question, error)
	FetchCard(ctx context.Context, id uuid.UUID) (*model.Card, error)
	CheckAnswer(ctx context.Context, expected, submitted string) (bool, error)
	ReportVerdict(ctx context.Context, q model.Question, v model.Verdict) error
	WriteDB(ctx context.Context) error
}

// Session owns all mutable quiz state. Callers drive it through
// Start, Submit and Grade; state changes happen nowhere else.
type Session struct {
	backend Backend
	matcher *Matcher
	lang    model.Language
	budget  time.Duration
	now     func() time.Time

	state     State
	questions []model.Question
	index     int
	card      *model.Card
	answers   []Answer
	missing   []string
	startTime time.Time
}

// NewSession creates a session quizzing the given language under a
// total duration budget. The budget is checked only between
// questions; an answer in progress is never interrupted.
func NewSession(backend Backend, lang model.Language, budget time.Duration) *Session {
	return &Session{
		backend: backend,
		matcher: NewMatcher(backend),
		lang:    lang,
		budget:  budget,
		now:     time.Now,
	}
}

func (s *Session) State() State      { return s.state }
func (s *Session) Index() int        { return s.index }
func (s *Session) Total() int        { return len(s.questions) }
func (s *Session) Card() *model.Card { return s.card }
func (s *Session) Answers() []Answer { return s.answers }
func (s *Session) Missing() []string { return s.missing }

// Question returns the current question. Only valid while the session
// is not complete.
func (s *Session) Question() model.Question {
	return s.questions[s.index]
}

// Elapsed is the time since the question set was loaded.
func (s *Session) Elapsed() time.Duration {
	return s.now().Sub(s.startTime)
}

// Start fetches the question set and loads the first card. A failure
// here is fatal for the session: there is no retry.
func (s *Session) Start(ctx context.Context) error {
	if s.state != StateLoadingQuestions {
		return fmt.Errorf("session already started (state %s)", s.state)
	}
	questions, err := s.backend.QuizCards(ctx, s.lang)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	s.questions = questions
	s.startTime = s.now()
	s.index = 0
	slog.Debug("quiz started", "language", s.lang, "questions", len(questions))

	if len(s.questions) == 0 {
		return s.complete(ctx)
	}
	return s.loadCard(ctx)
}

func (s *Session) loadCard(ctx context.Context) error {
	s.state = StateLoadingCard
	card, err := s.backend.FetchCard(ctx, s.Question().UUID)
	if err != nil {
		return fmt.Errorf("load card %s: %w", s.Question().UUID, err)
	}
	s.card = card
	s.state = StateAnswering
	return nil
}

// Submit processes one answer. An empty submission means the user is
// done with this question. Requires StateAnswering.
func (s *Session) Submit(ctx context.Context, text string) (Outcome, error) {
	if s.state != StateAnswering {
		return 0, fmt.Errorf("cannot submit in state %s", s.state)
	}
	expected := s.Question().Kind.ExpectedAnswers(s.card)

	if text == "" {
		return s.finishAnswering(ctx, expected)
	}

	slot := s.matcher.MatchSlot(ctx, expected, text)
	if IsDuplicate(s.answers, text, slot) {
		slog.Debug("duplicate answer discarded", "text", text, "slot", slot)
		return OutcomeDuplicate, nil
	}
	s.answers = append(s.answers, Answer{Text: text, Slot: slot})

	if len(s.answers) < len(expected) {
		return OutcomeMoreAnswers, nil
	}
	return s.finishAnswering(ctx, expected)
}

// finishAnswering computes the missing answers and either auto-grades
// a flawless question or hands the verdict to the user.
func (s *Session) finishAnswering(ctx context.Context, expected []string) (Outcome, error) {
	s.missing = MissingAnswers(expected, s.answers)
	s.state = StateGrading
	if len(s.missing) == 0 {
		return s.Grade(ctx, model.VerdictYes)
	}
	return OutcomeNeedVerdict, nil
}

// Grade reports the verdict for the current question and advances.
// A report failure leaves the session exactly where it was, so
// re-invoking with the same verdict is a safe retry. Local state
// mutates only after the report lands.
func (s *Session) Grade(ctx context.Context, v model.Verdict) (Outcome, error) {
	if s.state != StateGrading {
		return 0, fmt.Errorf("cannot grade in state %s", s.state)
	}
	if err := s.backend.ReportVerdict(ctx, s.Question(), v); err != nil {
		return 0, fmt.Errorf("report verdict: %w", err)
	}
	slog.Debug("verdict reported", "card", s.Question().UUID, "verdict", v)
	return s.advance(ctx)
}

// advance resets per-question state and moves to the next card, or
// ends the quiz when the questions or the time budget run out.
func (s *Session) advance(ctx context.Context) (Outcome, error) {
	s.answers = nil
	s.missing = nil
	s.card = nil

	if s.budget > 0 && s.Elapsed() > s.budget {
		slog.Info("quiz duration exceeded", "elapsed", s.Elapsed(), "budget", s.budget)
		s.index = len(s.questions)
	} else {
		s.index++
	}

	if s.index >= len(s.questions) {
		return OutcomeComplete, s.complete(ctx)
	}
	if err := s.loadCard(ctx); err != nil {
		return 0, err
	}
	return OutcomeNextQuestion, nil
}

// complete is terminal; it fires the single end-of-quiz persist call.
func (s *Session) complete(ctx context.Context) error {
	s.state = StateComplete
	s.index = len(s.questions)
	if err := s.backend.WriteDB(ctx); err != nil {
		return fmt.Errorf("write database: %w", err)
	}
	return nil
}
