// Package api is the HTTP client for the quiz backend.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkaravas/melete/internal/model"
)

// Client talks to a melete backend. All path segments built from
// user or card text are percent-encoded.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL (no trailing slash
// required).
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// endpoint joins percent-encoded path segments onto the base URL.
func (c *Client) endpoint(segments ...string) string {
	var sb strings.Builder
	sb.WriteString(c.baseURL)
	for _, seg := range segments {
		sb.WriteString("/")
		sb.WriteString(url.PathEscape(seg))
	}
	return sb.String()
}

func (c *Client) getJSON(ctx context.Context, out any, segments ...string) error {
	return c.do(ctx, http.MethodGet, out, segments)
}

func (c *Client) post(ctx context.Context, segments ...string) error {
	return c.do(ctx, http.MethodPost, nil, segments)
}

func (c *Client) do(ctx context.Context, method string, out any, segments []string) error {
	u := c.endpoint(segments...)
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()
	slog.Debug("backend call", "method", method, "url", u,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s", method, u, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, u, err)
	}
	return nil
}

// ListCards returns the uuids of every card the backend knows.
func (c *Client) ListCards(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := c.getJSON(ctx, &ids, "cards"); err != nil {
		return nil, err
	}
	return ids, nil
}

// FetchCard resolves a card uuid to its full content. A record line
// that does not classify fails the whole card with a
// model.MalformedRecordError.
func (c *Client) FetchCard(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	var payload struct {
		Lines []json.RawMessage `json:"lines"`
	}
	if err := c.getJSON(ctx, &payload, "card", id.String()); err != nil {
		return nil, err
	}

	lines := make([]model.CardLine, 0, len(payload.Lines))
	for _, raw := range payload.Lines {
		var line model.CardLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, &model.MalformedRecordError{CardID: id, Line: string(raw)}
		}
		lines = append(lines, line)
	}
	return model.NewCard(id, lines)
}

// QuizCards fetches the ordered question set for a quiz in the given
// language.
func (c *Client) QuizCards(ctx context.Context, lang model.Language) ([]model.Question, error) {
	var questions []model.Question
	if err := c.getJSON(ctx, &questions, "quiz_cards", string(lang)); err != nil {
		return nil, err
	}
	return questions, nil
}

// Transliterate converts Latin-keyboard text into the language's
// script.
func (c *Client) Transliterate(ctx context.Context, lang model.Language, text string) (string, error) {
	var out string
	if err := c.getJSON(ctx, &out, "transliterate", string(lang), text); err != nil {
		return "", err
	}
	return out, nil
}

// CheckAnswer asks the fuzzy-equality oracle whether submitted is an
// acceptable rendering of expected.
func (c *Client) CheckAnswer(ctx context.Context, expected, submitted string) (bool, error) {
	var ok bool
	if err := c.getJSON(ctx, &ok, "check_answer", expected, submitted); err != nil {
		return false, err
	}
	return ok, nil
}

// ReportVerdict records the user's verdict for one question. The
// backend applies it at-least-once; retried reports are tolerated.
func (c *Client) ReportVerdict(ctx context.Context, q model.Question, v model.Verdict) error {
	switch kind := q.Kind.(type) {
	case model.Translate:
		return c.post(ctx, "mark_answer", q.UUID.String(), "translate",
			string(kind.From), string(kind.To), string(v))
	default:
		return fmt.Errorf("cannot report verdict for question kind %s", q.Kind)
	}
}

// WriteDB asks the backend to persist end-of-quiz state.
func (c *Client) WriteDB(ctx context.Context) error {
	return c.post(ctx, "write_db")
}
