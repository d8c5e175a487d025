package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mkaravas/melete/internal/model"
)

type reportedVerdict struct {
	card    uuid.UUID
	verdict model.Verdict
}

// fakeBackend serves a canned question set and records every report.
type fakeBackend struct {
	questions   []model.Question
	cards       map[uuid.UUID]*model.Card
	check       func(expected, submitted string) (bool, error)
	failReports int // fail this many ReportVerdict calls, then succeed
	reports     []reportedVerdict
	writes      int
	fetches     int
}

func (f *fakeBackend) QuizCards(_ context.Context, _ model.Language) ([]model.Question, error) {
	return f.questions, nil
}

func (f *fakeBackend) FetchCard(_ context.Context, id uuid.UUID) (*model.Card, error) {
	f.fetches++
	card, ok := f.cards[id]
	if !ok {
		return nil, fmt.Errorf("no card %s", id)
	}
	return card, nil
}

func (f *fakeBackend) CheckAnswer(_ context.Context, expected, submitted string) (bool, error) {
	if f.check != nil {
		return f.check(expected, submitted)
	}
	return expected == submitted, nil
}

func (f *fakeBackend) ReportVerdict(_ context.Context, q model.Question, v model.Verdict) error {
	if f.failReports > 0 {
		f.failReports--
		return errors.New("mark_answer unavailable")
	}
	f.reports = append(f.reports, reportedVerdict{card: q.UUID, verdict: v})
	return nil
}

func (f *fakeBackend) WriteDB(_ context.Context) error {
	f.writes++
	return nil
}

var enToGr = model.Translate{From: model.LanguageEnglish, To: model.LanguageGreek}

// newQuizBackend builds a backend with one card per meanings list.
func newQuizBackend(t *testing.T, meanings ...[]string) *fakeBackend {
	t.Helper()
	f := &fakeBackend{cards: make(map[uuid.UUID]*model.Card)}
	for i, ms := range meanings {
		id := uuid.New()
		lines := []model.CardLine{
			{Kind: model.LineMeaning, Language: model.LanguageEnglish, Text: fmt.Sprintf("prompt %d", i)},
		}
		for _, m := range ms {
			lines = append(lines, model.CardLine{
				Kind: model.LineMeaning, Language: model.LanguageGreek, Text: m,
			})
		}
		card, err := model.NewCard(id, lines)
		if err != nil {
			t.Fatalf("NewCard: %v", err)
		}
		f.cards[id] = card
		f.questions = append(f.questions, model.Question{UUID: id, Kind: enToGr})
	}
	return f
}

func startedSession(t *testing.T, f *fakeBackend, budget time.Duration) *Session {
	t.Helper()
	s := NewSession(f, model.LanguageGreek, budget)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestOutOfOrderAnswersAutoGradeYes(t *testing.T) {
	ctx := context.Background()
	f := newQuizBackend(t, []string{"dog", "hound"})
	s := startedSession(t, f, time.Hour)

	out, err := s.Submit(ctx, "hound")
	if err != nil {
		t.Fatalf("Submit(hound): %v", err)
	}
	if out != OutcomeMoreAnswers {
		t.Fatalf("outcome = %v, want OutcomeMoreAnswers", out)
	}
	if got := s.Answers(); len(got) != 1 || got[0].Slot != 1 {
		t.Fatalf("answers = %+v, want hound in slot 1", got)
	}

	out, err = s.Submit(ctx, "dog")
	if err != nil {
		t.Fatalf("Submit(dog): %v", err)
	}
	if out != OutcomeComplete {
		t.Fatalf("outcome = %v, want OutcomeComplete", out)
	}
	if s.State() != StateComplete {
		t.Errorf("state = %s, want complete", s.State())
	}
	if len(f.reports) != 1 || f.reports[0].verdict != model.VerdictYes {
		t.Errorf("reports = %+v, want one auto-yes", f.reports)
	}
	if f.writes != 1 {
		t.Errorf("writes = %d, want 1", f.writes)
	}
}

func TestEmptySubmissionPromptsVerdict(t *testing.T) {
	ctx := context.Background()
	f := newQuizBackend(t, []string{"dog"})
	s := startedSession(t, f, time.Hour)

	out, err := s.Submit(ctx, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out != OutcomeNeedVerdict {
		t.Fatalf("outcome = %v, want OutcomeNeedVerdict", out)
	}
	if missing := s.Missing(); len(missing) != 1 || missing[0] != "dog" {
		t.Fatalf("missing = %v, want [dog]", missing)
	}

	out, err = s.Grade(ctx, model.VerdictNo)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if out != OutcomeComplete {
		t.Fatalf("outcome = %v, want OutcomeComplete", out)
	}
	if len(f.reports) != 1 || f.reports[0].verdict != model.VerdictNo {
		t.Errorf("reports = %+v, want one 'no'", f.reports)
	}
}

func TestValueDuplicateWithIdenticalExpectedStrings(t *testing.T) {
	// E = ["dog", "dog"]: the second identical submission is a value
	// duplicate of the first answer and is discarded, leaving slot 1
	// unfilled. Deliberate policy, matching duplicate reconciliation.
	ctx := context.Background()
	f := newQuizBackend(t, []string{"dog", "dog"})
	s := startedSession(t, f, time.Hour)

	if out, _ := s.Submit(ctx, "dog"); out != OutcomeMoreAnswers {
		t.Fatalf("first submission: outcome %v", out)
	}
	out, err := s.Submit(ctx, "dog")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out != OutcomeDuplicate {
		t.Fatalf("outcome = %v, want OutcomeDuplicate", out)
	}
	if len(s.Answers()) != 1 {
		t.Fatalf("record count changed on duplicate: %+v", s.Answers())
	}

	if out, _ = s.Submit(ctx, ""); out != OutcomeNeedVerdict {
		t.Fatalf("outcome = %v, want OutcomeNeedVerdict", out)
	}
	if missing := s.Missing(); len(missing) != 1 || missing[0] != "dog" {
		t.Errorf("missing = %v, want [dog]", missing)
	}
}

func TestIndexAdvancesByOneUntilTerminal(t *testing.T) {
	ctx := context.Background()
	f := newQuizBackend(t, []string{"ένα"}, []string{"δύο"}, []string{"τρία"})
	s := startedSession(t, f, time.Hour)

	answers := []string{"ένα", "δύο", "τρία"}
	for i, answer := range answers {
		if s.Index() != i {
			t.Fatalf("index = %d, want %d", s.Index(), i)
		}
		out, err := s.Submit(ctx, answer)
		if err != nil {
			t.Fatalf("Submit(%q): %v", answer, err)
		}
		if i < len(answers)-1 && out != OutcomeNextQuestion {
			t.Fatalf("outcome = %v, want OutcomeNextQuestion", out)
		}
	}

	if s.State() != StateComplete || s.Index() != 3 {
		t.Errorf("state = %s index = %d, want complete/3", s.State(), s.Index())
	}
	// One fetch per question: cards are never cached.
	if f.fetches != 3 {
		t.Errorf("fetches = %d, want 3", f.fetches)
	}
}

func TestDurationBudgetForcesTermination(t *testing.T) {
	ctx := context.Background()
	f := newQuizBackend(t, []string{"ένα"}, []string{"δύο"})
	s := startedSession(t, f, 10*time.Minute)

	// The clock jumps past the budget mid-question; the in-progress
	// answer is not interrupted, but the next advance terminates.
	base := s.startTime
	s.now = func() time.Time { return base.Add(11 * time.Minute) }

	out, err := s.Submit(ctx, "ένα")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out != OutcomeComplete {
		t.Fatalf("outcome = %v, want OutcomeComplete despite remaining questions", out)
	}
	if s.State() != StateComplete {
		t.Errorf("state = %s, want complete", s.State())
	}
	if f.writes != 1 {
		t.Errorf("writes = %d, want 1", f.writes)
	}
}

func TestReportFailureLeavesGradingRetryable(t *testing.T) {
	ctx := context.Background()
	f := newQuizBackend(t, []string{"dog"})
	f.failReports = 1
	s := startedSession(t, f, time.Hour)

	if out, _ := s.Submit(ctx, ""); out != OutcomeNeedVerdict {
		t.Fatal("expected verdict prompt")
	}

	_, err := s.Grade(ctx, model.VerdictAlmost)
	if err == nil {
		t.Fatal("expected report failure")
	}
	if s.State() != StateGrading {
		t.Fatalf("state after failure = %s, want grading", s.State())
	}
	if missing := s.Missing(); len(missing) != 1 || missing[0] != "dog" {
		t.Fatalf("missing changed across failed report: %v", missing)
	}

	// Same user action again; this time it lands and the quiz moves on.
	out, err := s.Grade(ctx, model.VerdictAlmost)
	if err != nil {
		t.Fatalf("Grade retry: %v", err)
	}
	if out != OutcomeComplete {
		t.Fatalf("outcome = %v, want OutcomeComplete", out)
	}
	if len(f.reports) != 1 || f.reports[0].verdict != model.VerdictAlmost {
		t.Errorf("reports = %+v", f.reports)
	}
}

func TestCardFetchFailureIsFatal(t *testing.T) {
	f := newQuizBackend(t, []string{"dog"})
	f.questions = append(f.questions, model.Question{UUID: uuid.New(), Kind: enToGr})
	s := NewSession(f, model.LanguageGreek, time.Hour)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Submit(ctx, "dog"); err == nil {
		t.Fatal("expected fatal error advancing onto a missing card")
	}
	if s.State() != StateLoadingCard {
		t.Errorf("state = %s, want loading-card", s.State())
	}
}

func TestEmptyQuestionSetCompletesImmediately(t *testing.T) {
	f := &fakeBackend{}
	s := NewSession(f, model.LanguageGreek, time.Hour)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != StateComplete {
		t.Errorf("state = %s, want complete", s.State())
	}
	if f.writes != 1 {
		t.Errorf("writes = %d, want 1", f.writes)
	}
}

func TestStartTwiceRejected(t *testing.T) {
	f := newQuizBackend(t, []string{"dog"})
	s := startedSession(t, f, time.Hour)
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
}
