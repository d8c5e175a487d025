// Package store persists cards and question records in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mkaravas/melete/internal/model"
)

// ErrCardNotFound is returned when a card uuid has no row.
var ErrCardNotFound = errors.New("card not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cards (
		uuid TEXT PRIMARY KEY,
		source_file TEXT NOT NULL DEFAULT '',
		start_line INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS card_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		card_uuid TEXT NOT NULL,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		FOREIGN KEY (card_uuid) REFERENCES cards(uuid)
	);

	CREATE TABLE IF NOT EXISTS question_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		card_uuid TEXT NOT NULL,
		from_language TEXT NOT NULL,
		to_language TEXT NOT NULL,
		result TEXT NOT NULL,
		asked_at DATETIME NOT NULL,
		FOREIGN KEY (card_uuid) REFERENCES cards(uuid)
	);

	CREATE INDEX IF NOT EXISTS idx_card_lines_card ON card_lines(card_uuid, position);
	CREATE INDEX IF NOT EXISTS idx_records_card ON question_records(card_uuid, from_language, to_language, asked_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertCard stores a card and its record lines, replacing any
// previous lines for the same uuid. Question records are kept.
func (s *Store) UpsertCard(id uuid.UUID, sourceFile string, startLine int, lines []model.CardLine) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO cards (uuid, source_file, start_line) VALUES (?, ?, ?)
		 ON CONFLICT(uuid) DO UPDATE SET source_file = excluded.source_file, start_line = excluded.start_line`,
		id.String(), sourceFile, startLine,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM card_lines WHERE card_uuid = ?`, id.String()); err != nil {
		return err
	}
	for i, line := range lines {
		if _, err := tx.Exec(
			`INSERT INTO card_lines (card_uuid, position, kind, language, text) VALUES (?, ?, ?, ?, ?)`,
			id.String(), i, string(line.Kind), string(line.Language), line.Text,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListCardIDs returns every stored card uuid, ordered by source file
// and position within it.
func (s *Store) ListCardIDs() ([]uuid.UUID, error) {
	rows, err := s.db.Query(`SELECT uuid FROM cards ORDER BY source_file, start_line`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("stored uuid %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CardLines returns a card's record lines in position order.
func (s *Store) CardLines(id uuid.UUID) ([]model.CardLine, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM cards WHERE uuid = ?`, id.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT kind, language, text FROM card_lines WHERE card_uuid = ? ORDER BY position`,
		id.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []model.CardLine
	for rows.Next() {
		var kind, lang, text string
		if err := rows.Scan(&kind, &lang, &text); err != nil {
			return nil, err
		}
		lines = append(lines, model.CardLine{
			Kind:     model.LineKind(kind),
			Language: model.Language(lang),
			Text:     text,
		})
	}
	return lines, rows.Err()
}

// RecordAnswer appends one question record for a card.
func (s *Store) RecordAnswer(id uuid.UUID, from, to model.Language, result model.Verdict, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO question_records (card_uuid, from_language, to_language, result, asked_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id.String(), string(from), string(to), string(result), at.UTC(),
	)
	return err
}

// Records returns a card's question records for one translate
// direction, oldest first.
func (s *Store) Records(id uuid.UUID, from, to model.Language) ([]model.QuestionRecord, error) {
	rows, err := s.db.Query(
		`SELECT result, asked_at FROM question_records
		 WHERE card_uuid = ? AND from_language = ? AND to_language = ?
		 ORDER BY asked_at`,
		id.String(), string(from), string(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	kind := model.Translate{From: from, To: to}
	var records []model.QuestionRecord
	for rows.Next() {
		var result string
		var at time.Time
		if err := rows.Scan(&result, &at); err != nil {
			return nil, err
		}
		records = append(records, model.QuestionRecord{
			Date:   at,
			Kind:   kind,
			Result: model.Verdict(result),
		})
	}
	return records, rows.Err()
}

// Checkpoint flushes the WAL to the main database file. Backs the
// write_db endpoint; record inserts are already durable on their own.
func (s *Store) Checkpoint() error {
	_, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
	return err
}
