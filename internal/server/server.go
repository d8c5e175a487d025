// Package server implements the HTTP contract the quiz client
// consumes: cards, quiz question sets, transliteration, the
// answer-check oracle and answer marking.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkaravas/melete/internal/model"
	"github.com/mkaravas/melete/internal/selection"
	"github.com/mkaravas/melete/internal/store"
	"github.com/mkaravas/melete/internal/translit"
)

// suitableKinds lists the question kinds a quiz in a language draws
// from. Only Greek quizzes exist today.
func suitableKinds(lang model.Language) []model.QuestionKind {
	if lang != model.LanguageGreek {
		return nil
	}
	return []model.QuestionKind{
		model.Translate{From: model.LanguageEnglish, To: model.LanguageGreek},
		model.Translate{From: model.LanguageGreek, To: model.LanguageEnglish},
	}
}

// Handler holds shared dependencies for the backend endpoints.
type Handler struct {
	store *store.Store
	now   func() time.Time
}

// New creates a Handler over the given store.
func New(s *store.Store) *Handler {
	return &Handler{store: s, now: time.Now}
}

// Routes registers all backend routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/cards", h.handleListCards)
	r.Get("/card/{uuid}", h.handleCard)
	r.Get("/quiz_cards/{language}", h.handleQuizCards)
	r.Get("/transliterate/{language}/{text}", h.handleTransliterate)
	r.Get("/check_answer/{expected}/{submitted}", h.handleCheckAnswer)
	r.Post("/mark_answer/{uuid}/translate/{from}/{to}/{result}", h.handleMarkAnswer)
	r.Post("/write_db", h.handleWriteDB)
}

// param returns a percent-decoded path parameter.
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func (h *Handler) handleListCards(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ListCardIDs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	writeJSON(w, ids)
}

func (h *Handler) handleCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(param(r, "uuid"))
	if err != nil {
		http.Error(w, "bad card uuid", http.StatusBadRequest)
		return
	}
	lines, err := h.store.CardLines(id)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			http.Error(w, "card not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if lines == nil {
		lines = []model.CardLine{}
	}
	writeJSON(w, struct {
		Lines []model.CardLine `json:"lines"`
	}{lines})
}

func (h *Handler) handleQuizCards(w http.ResponseWriter, r *http.Request) {
	lang, err := model.ParseLanguage(param(r, "language"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	kinds := suitableKinds(lang)
	if kinds == nil {
		http.Error(w, "don't know how to quiz "+lang.FullName(), http.StatusBadRequest)
		return
	}

	ids, err := h.store.ListCardIDs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	now := h.now()
	questions := []model.Question{}
	for _, id := range ids {
		for _, kind := range kinds {
			translate, ok := kind.(model.Translate)
			if !ok {
				continue
			}
			records, err := h.store.Records(id, translate.From, translate.To)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if selection.Due(now, records) {
				questions = append(questions, model.Question{UUID: id, Kind: kind})
			}
		}
	}

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	slog.Debug("quiz cards selected", "language", lang, "due", len(questions))
	writeJSON(w, questions)
}

func (h *Handler) handleTransliterate(w http.ResponseWriter, r *http.Request) {
	lang, err := model.ParseLanguage(param(r, "language"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, translit.Transliterate(lang, param(r, "text")))
}

// parentheticals strips "(...)" and "[...]" asides so that "the dog
// (animal)" accepts "the dog".
var parentheticals = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)

// answersEqual is the fuzzy-equality oracle behind check_answer.
func answersEqual(expected, submitted string) bool {
	normalize := func(s string) string {
		s = parentheticals.ReplaceAllString(s, "")
		return strings.Join(strings.Fields(s), " ")
	}
	return normalize(expected) == normalize(submitted)
}

func (h *Handler) handleCheckAnswer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, answersEqual(param(r, "expected"), param(r, "submitted")))
}

func (h *Handler) handleMarkAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(param(r, "uuid"))
	if err != nil {
		http.Error(w, "bad card uuid", http.StatusBadRequest)
		return
	}
	from, err := model.ParseLanguage(param(r, "from"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := model.ParseLanguage(param(r, "to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	verdict, err := model.ParseVerdict(param(r, "result"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.store.CardLines(id); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			http.Error(w, "card not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.store.RecordAnswer(id, from, to, verdict, h.now()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("answer marked", "card", id, "from", from, "to", to, "result", verdict)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleWriteDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Checkpoint(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
