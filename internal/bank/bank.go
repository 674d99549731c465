// internal/bank/bank.go
//
// Provides question bank management for the puzzle generator.
//
// Responsibilities:
//   - Load question pools from an environment-provided file or fall back to embedded defaults.
//   - Group questions by difficulty tier for quick lookups.
//   - Serve questions out of SQLite when a database is available, seeding the
//     questions table from the embedded pool on first run.
//
// Question pools:
//   - Each question carries an id, clue text, answer, difficulty tier, and category.
//   - Answers are normalized to uppercase A-Z0-9 at load time.
//
// Initialization behavior (Load):
//   1. If QUESTIONS_FILE is set, load the pool from that JSON file.
//   2. Otherwise fall back to the embedded defaults in `seed_questions.json`.
//
// Environment variables:
//   QUESTIONS_FILE=/path/to/questions.json
//
// Constraints:
//   • Questions with empty answers or unknown difficulties are dropped.
//   • Loading the static pool happens once (sync.Once).

package bank

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mattbraddock/crossword-challenge/internal/puzzle"
	"github.com/mattbraddock/crossword-challenge/internal/scoring"
)

//go:embed seed_questions.json
var embeddedQuestions []byte

var (
	loadOnce sync.Once
	pool     map[puzzle.Difficulty][]puzzle.Question
	loadErr  error
)

// questionRow mirrors the on-disk JSON shape of one question.
type questionRow struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
	Category   string `json:"category"`
}

// Load parses the question pool exactly once.
// Returns an error if any tier ends up empty.
func Load() (map[puzzle.Difficulty][]puzzle.Question, error) {
	loadOnce.Do(func() {
		raw := embeddedQuestions
		if path := os.Getenv("QUESTIONS_FILE"); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				loadErr = err
				return
			}
			raw = b
		}
		pool, loadErr = parsePool(raw)
	})
	return pool, loadErr
}

// parsePool decodes a JSON question list and groups it by difficulty,
// dropping rows with empty answers or unknown tiers.
func parsePool(raw []byte) (map[puzzle.Difficulty][]puzzle.Question, error) {
	var rows []questionRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("bank: parse questions: %w", err)
	}
	byTier := make(map[puzzle.Difficulty][]puzzle.Question)
	for _, r := range rows {
		d := puzzle.Difficulty(r.Difficulty)
		answer := scoring.Normalize(r.Answer)
		if !d.Valid() || answer == "" {
			continue
		}
		byTier[d] = append(byTier[d], puzzle.Question{
			ID:         r.ID,
			Text:       r.Text,
			Answer:     answer,
			Difficulty: d,
			Category:   r.Category,
		})
	}
	for _, d := range puzzle.Tiers {
		if len(byTier[d]) == 0 {
			return nil, fmt.Errorf("bank: no questions for difficulty %q", d)
		}
	}
	return byTier, nil
}

// Static serves questions from the loaded in-memory pool.
type Static struct{}

// Questions returns the pool for one difficulty tier.
func (Static) Questions(_ context.Context, d puzzle.Difficulty) ([]puzzle.Question, error) {
	p, err := Load()
	if err != nil {
		return nil, err
	}
	qs := p[d]
	if len(qs) == 0 {
		return nil, fmt.Errorf("bank: no questions for difficulty %q", d)
	}
	// Copy so callers can shuffle freely.
	out := make([]puzzle.Question, len(qs))
	copy(out, qs)
	return out, nil
}

// SQL serves questions from the questions table.
type SQL struct {
	db *sql.DB
}

// NewSQL wraps an open database handle.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

// Questions returns all active questions for one difficulty tier,
// in stable seed order.
func (b *SQL) Questions(ctx context.Context, d puzzle.Difficulty) ([]puzzle.Question, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, question_text, answer, difficulty, category
		FROM questions
		WHERE difficulty = ? AND active = 1
		ORDER BY rowid`, string(d))
	if err != nil {
		return nil, fmt.Errorf("bank: query questions: %w", err)
	}
	defer rows.Close()

	var out []puzzle.Question
	for rows.Next() {
		var q puzzle.Question
		var diff string
		if err := rows.Scan(&q.ID, &q.Text, &q.Answer, &diff, &q.Category); err != nil {
			return nil, fmt.Errorf("bank: scan question: %w", err)
		}
		q.Difficulty = puzzle.Difficulty(diff)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bank: read questions: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bank: no questions for difficulty %q", d)
	}
	return out, nil
}

// Seed inserts the loaded question pool into an empty questions table.
// A table that already has rows is left alone.
func Seed(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return fmt.Errorf("bank: count questions: %w", err)
	}
	if n > 0 {
		return nil
	}

	p, err := Load()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bank: begin seed tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (id, question_text, answer, difficulty, category, active)
		VALUES (?, ?, ?, ?, ?, 1)`)
	if err != nil {
		return fmt.Errorf("bank: prepare seed: %w", err)
	}
	defer stmt.Close()

	for _, d := range puzzle.Tiers {
		for _, q := range p[d] {
			if _, err := stmt.ExecContext(ctx, q.ID, q.Text, q.Answer, string(q.Difficulty), q.Category); err != nil {
				return fmt.Errorf("bank: seed question %s: %w", q.ID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bank: commit seed: %w", err)
	}
	return nil
}

// ErrEmptyPool is returned by Stats when nothing has been loaded.
var ErrEmptyPool = errors.New("bank: question pool is empty")

// Stats returns the per-tier question counts of the static pool.
func Stats() (map[puzzle.Difficulty]int, error) {
	p, err := Load()
	if err != nil {
		return nil, err
	}
	if len(p) == 0 {
		return nil, ErrEmptyPool
	}
	counts := make(map[puzzle.Difficulty]int, len(p))
	for d, qs := range p {
		counts[d] = len(qs)
	}
	return counts, nil
}
