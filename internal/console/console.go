// Package console renders a quiz session on an interactive terminal:
// raw-mode keystroke input, live transliteration of the answer field,
// and single-key verdict grading.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/mkaravas/melete/internal/i18n"
	"github.com/mkaravas/melete/internal/model"
	"github.com/mkaravas/melete/internal/quiz"
)

// ErrInterrupted is returned when the user aborts the quiz with
// Ctrl+C.
var ErrInterrupted = errors.New("interrupted")

const (
	keyCtrlC     = 0x03
	keyCtrlD     = 0x04
	keyBackspace = 0x7f
	keyDelete    = 0x08
)

// Console drives one quiz session on a terminal. Input is read in raw
// mode when stdin is a terminal, so each keystroke can update the
// transliterated answer field in place.
type Console struct {
	backend  quiz.Backend
	translit quiz.Transliterator
	loc      *i18n.Localizer
	lang     model.Language
	budget   time.Duration

	in  io.Reader
	out io.Writer
	br  *bufio.Reader

	// mu serializes terminal writes between the input loop and the
	// transliteration update hook.
	mu sync.Mutex
}

// New creates a console quizzing the given language within the
// duration budget. A zero budget means unlimited.
func New(backend quiz.Backend, translit quiz.Transliterator, loc *i18n.Localizer, lang model.Language, budget time.Duration) *Console {
	c := &Console{
		backend:  backend,
		translit: translit,
		loc:      loc,
		lang:     lang,
		budget:   budget,
		in:       os.Stdin,
		out:      os.Stdout,
	}
	c.br = bufio.NewReader(c.in)
	return c
}

// SetIO redirects input and output, mainly for tests.
func (c *Console) SetIO(in io.Reader, out io.Writer) {
	c.in = in
	c.out = out
	c.br = bufio.NewReader(in)
}

// Run executes the whole quiz: load questions, ask each card, grade,
// and print the closing summary. Returns ErrInterrupted on Ctrl+C.
func (c *Console) Run(ctx context.Context) error {
	session := quiz.NewSession(c.backend, c.lang, c.budget)

	c.println(c.loc.T("LoadingQuestions"))
	if err := session.Start(ctx); err != nil {
		return err
	}
	if session.State() == quiz.StateComplete {
		c.println(c.loc.T("NoCardsDue"))
		return nil
	}

	for session.State() != quiz.StateComplete {
		if err := c.askQuestion(ctx, session); err != nil {
			return err
		}
	}

	c.println("")
	c.println(c.loc.T("QuizComplete"))
	return nil
}

// askQuestion runs one card from prompt to verdict.
func (c *Console) askQuestion(ctx context.Context, session *quiz.Session) error {
	c.renderPrompt(session)

	coord := quiz.NewCoordinator(c.translit, session.Question().Kind.InputLanguage())
	coord.OnUpdate(func(v string) {
		c.mu.Lock()
		fmt.Fprintf(c.out, "\r\x1b[K> %s", v)
		c.mu.Unlock()
	})

	for session.State() == quiz.StateAnswering {
		text, err := c.readAnswer(ctx, coord)
		if err != nil {
			return err
		}
		outcome, err := session.Submit(ctx, text)
		coord.Reset(ctx)
		if err != nil {
			// An auto-graded answer reports its verdict inside Submit;
			// if that report failed the session is still grading and
			// the verdict can be retried.
			if session.State() != quiz.StateGrading {
				return err
			}
			slog.Warn("verdict report failed", "error", err)
			c.println(c.loc.T("ReportFailed"))
			return c.grade(ctx, session)
		}

		switch outcome {
		case quiz.OutcomeMoreAnswers, quiz.OutcomeDuplicate:
			c.renderAnswers(session)
		case quiz.OutcomeNeedVerdict:
			return c.grade(ctx, session)
		case quiz.OutcomeNextQuestion, quiz.OutcomeComplete:
			return nil
		}
	}
	return nil
}

// renderPrompt prints the question header and the card's prompt
// lines.
func (c *Console) renderPrompt(session *quiz.Session) {
	q := session.Question()
	card := session.Card()

	c.println("")
	c.println(c.loc.Td("QuestionProgress", map[string]any{
		"Number": session.Index() + 1,
		"Total":  session.Total(),
	}))
	c.println(c.loc.Td("TranslateTo", map[string]any{
		"Language": q.Kind.InputLanguage().FullName(),
	}))
	for _, prompt := range q.Kind.Prompts(card) {
		c.println("  " + prompt)
	}
	if card.PartOfSpeech != "" {
		c.println("  (" + card.PartOfSpeech + ")")
	}
}

// renderAnswers lists what the user has produced so far. A matched
// answer gets a heart, an unmatched one a thinking face.
func (c *Console) renderAnswers(session *quiz.Session) {
	answers := session.Answers()
	if len(answers) == 0 {
		return
	}
	c.println(c.loc.T("AnswersSoFar"))
	for _, a := range answers {
		marker := "🤔"
		if a.Slot != quiz.NoSlot {
			marker = "❤️"
		}
		c.println("  " + marker + " " + a.Text)
	}
}

// grade shows the missing answers, asks for a verdict, and retries the
// report until it lands or the user bails out.
func (c *Console) grade(ctx context.Context, session *quiz.Session) error {
	c.renderAnswers(session)
	if missing := session.Missing(); len(missing) > 0 {
		c.println(c.loc.T("MissingAnswers"))
		for _, m := range missing {
			c.println("  " + m)
		}
	}

	for session.State() == quiz.StateGrading {
		c.println(c.loc.T("DidYouKnowIt"))
		verdict, err := c.readVerdict()
		if err != nil {
			return err
		}
		if _, err := session.Grade(ctx, verdict); err != nil {
			slog.Warn("verdict report failed", "error", err)
			c.println(c.loc.T("ReportFailed"))
		}
	}
	return nil
}

// readAnswer reads one line of answer input. In raw mode each
// keystroke is routed through the coordinator so the field shows the
// transliterated text as it arrives.
func (c *Console) readAnswer(ctx context.Context, coord *quiz.Coordinator) (string, error) {
	c.print("> ")

	restore, raw, err := c.makeRaw()
	if err != nil {
		return "", err
	}
	defer restore()

	if !raw {
		line, err := c.br.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return "", nil
			}
			return "", err
		}
		coord.SetValue(ctx, strings.TrimRight(line, "\r\n"))
		return coord.Submit(), nil
	}

	for {
		r, _, err := c.br.ReadRune()
		if err != nil {
			return "", err
		}
		switch {
		case r == '\r' || r == '\n' || r == keyCtrlD:
			c.print("\r\n")
			return coord.Submit(), nil
		case r == keyCtrlC:
			c.print("\r\n")
			return "", ErrInterrupted
		case r == keyBackspace || r == keyDelete:
			c.redraw(coord.Edit(ctx, dropLastRune))
		case unicode.IsPrint(r):
			c.redraw(coord.Edit(ctx, func(v string) string { return v + string(r) }))
		}
	}
}

// readVerdict reads a y/n/a key, looping until it gets one. In line
// mode the whole line is consumed so leftover input never bleeds into
// the next question's answer.
func (c *Console) readVerdict() (model.Verdict, error) {
	restore, raw, err := c.makeRaw()
	if err != nil {
		return "", err
	}
	defer restore()

	if !raw {
		for {
			line, err := c.br.ReadString('\n')
			if s := strings.TrimSpace(line); s != "" {
				r, _ := utf8.DecodeRuneInString(s)
				if v, ok := verdictForKey(r); ok {
					return v, nil
				}
			}
			if err != nil {
				return "", err
			}
		}
	}

	for {
		r, _, err := c.br.ReadRune()
		if err != nil {
			return "", err
		}
		if r == keyCtrlC {
			return "", ErrInterrupted
		}
		if v, ok := verdictForKey(r); ok {
			return v, nil
		}
	}
}

func verdictForKey(r rune) (model.Verdict, bool) {
	switch unicode.ToLower(r) {
	case 'y':
		return model.VerdictYes, true
	case 'n':
		return model.VerdictNo, true
	case 'a':
		return model.VerdictAlmost, true
	}
	return "", false
}

func (c *Console) redraw(value string) {
	c.mu.Lock()
	fmt.Fprintf(c.out, "\r\x1b[K> %s", value)
	c.mu.Unlock()
}

func (c *Console) print(s string) {
	c.mu.Lock()
	fmt.Fprint(c.out, s)
	c.mu.Unlock()
}

func (c *Console) println(s string) {
	c.mu.Lock()
	fmt.Fprintln(c.out, s)
	c.mu.Unlock()
}

// makeRaw switches the terminal to raw mode when stdin really is one.
// The returned restore func is always safe to call.
func (c *Console) makeRaw() (func(), bool, error) {
	f, ok := c.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}, false, nil
	}
	state, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		return nil, false, fmt.Errorf("enter raw mode: %w", err)
	}
	return func() { term.Restore(int(f.Fd()), state) }, true, nil
}

func dropLastRune(v string) string {
	if v == "" {
		return v
	}
	_, size := utf8.DecodeLastRuneInString(v)
	return v[:len(v)-size]
}
