// internal/store/sqlite.go
//
// SQLite-backed Store implementation.
// Responsibilities:
//   - CRUD over game_sessions / game_players / game_moves.
//   - Duplicate-player guard on (session, name, order) at insert.
//   - Strictly increasing move numbers assigned inside a transaction.
//   - Leaderboard query (score desc, correct answers desc).
//
// Timestamps are stored as RFC3339 TEXT. Driver-level failures are
// wrapped with ErrTransient so callers can retry with backoff.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLite implements Store on a *sql.DB opened with the sqlite3 driver.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an open database handle.
func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

// transient wraps driver errors for the retry helper. Not-found and
// duplicate conditions pass through untouched.
func transient(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicatePlayer) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
}

// ------------------------------ sessions -----------------------------------

func (s *SQLite) CreateSession(ctx context.Context, rec *SessionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO game_sessions
            (id, session_name, difficulty, num_players, questions_per_player,
             status, current_player_turn, created_by, grid_data, created_at)
        VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Name, rec.Difficulty, rec.NumPlayers, rec.QuestionsPerPlayer,
		rec.Status, rec.CurrentPlayerTurn, rec.CreatedBy, rec.GridData,
		rec.CreatedAt.Format(time.RFC3339))
	return transient("insert session", err)
}

func (s *SQLite) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, session_name, difficulty, num_players, questions_per_player,
               status, current_player_turn, created_by, grid_data, created_at
        FROM game_sessions WHERE id=?`, id)
	var rec SessionRecord
	var created string
	err := row.Scan(&rec.ID, &rec.Name, &rec.Difficulty, &rec.NumPlayers,
		&rec.QuestionsPerPlayer, &rec.Status, &rec.CurrentPlayerTurn,
		&rec.CreatedBy, &rec.GridData, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, transient("get session", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &rec, nil
}

func (s *SQLite) UpdateSession(ctx context.Context, rec *SessionRecord) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE game_sessions
        SET session_name=?, difficulty=?, status=?, current_player_turn=?, grid_data=?
        WHERE id=?`,
		rec.Name, rec.Difficulty, rec.Status, rec.CurrentPlayerTurn, rec.GridData, rec.ID)
	if err != nil {
		return transient("update session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", rec.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLite) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM game_sessions WHERE id=?`, id)
	return transient("delete session", err)
}

// ------------------------------- players -----------------------------------

func (s *SQLite) CreatePlayer(ctx context.Context, p *PlayerRecord) error {
	// Same name + order in one session is a duplicate (mirrors the
	// write-guard the platform enforced around player inserts).
	var exists int
	err := s.db.QueryRowContext(ctx, `
        SELECT 1 FROM game_players WHERE session_id=? AND player_name=? AND player_order=?`,
		p.SessionID, p.Name, p.OrderIndex).Scan(&exists)
	if err == nil {
		return ErrDuplicatePlayer
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return transient("check duplicate player", err)
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO game_players
            (id, session_id, player_name, avatar, avatar_icon, player_order,
             score, level, experience_points, coins, current_streak, best_streak,
             correct_answers, incorrect_answers)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.SessionID, p.Name, p.Avatar, p.AvatarIcon, p.OrderIndex,
		p.Score, p.Level, p.ExperienceTotal, p.Coins, p.CurrentStreak,
		p.BestStreak, p.CorrectCount, p.IncorrectCount)
	return transient("insert player", err)
}

const playerColumns = `id, session_id, player_name, avatar, avatar_icon, player_order,
       score, level, experience_points, coins, current_streak, best_streak,
       correct_answers, incorrect_answers`

func scanPlayer(row interface{ Scan(...any) error }) (*PlayerRecord, error) {
	var p PlayerRecord
	err := row.Scan(&p.ID, &p.SessionID, &p.Name, &p.Avatar, &p.AvatarIcon,
		&p.OrderIndex, &p.Score, &p.Level, &p.ExperienceTotal, &p.Coins,
		&p.CurrentStreak, &p.BestStreak, &p.CorrectCount, &p.IncorrectCount)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLite) GetPlayer(ctx context.Context, id string) (*PlayerRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM game_players WHERE id=?`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, transient("get player", err)
	}
	return p, nil
}

func (s *SQLite) GetPlayers(ctx context.Context, sessionID string) ([]PlayerRecord, error) {
	return s.queryPlayers(ctx,
		`SELECT `+playerColumns+` FROM game_players WHERE session_id=? ORDER BY player_order ASC`,
		sessionID)
}

func (s *SQLite) UpdatePlayer(ctx context.Context, p *PlayerRecord) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE game_players
        SET score=?, level=?, experience_points=?, coins=?, current_streak=?,
            best_streak=?, correct_answers=?, incorrect_answers=?
        WHERE id=?`,
		p.Score, p.Level, p.ExperienceTotal, p.Coins, p.CurrentStreak,
		p.BestStreak, p.CorrectCount, p.IncorrectCount, p.ID)
	if err != nil {
		return transient("update player", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("player %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLite) Leaderboard(ctx context.Context, sessionID string) ([]PlayerRecord, error) {
	return s.queryPlayers(ctx,
		`SELECT `+playerColumns+` FROM game_players WHERE session_id=?
         ORDER BY score DESC, correct_answers DESC`,
		sessionID)
}

func (s *SQLite) queryPlayers(ctx context.Context, query, sessionID string) ([]PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, transient("query players", err)
	}
	defer rows.Close()

	out := []PlayerRecord{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, transient("scan player", err)
		}
		out = append(out, *p)
	}
	return out, transient("iterate players", rows.Err())
}

// -------------------------------- moves ------------------------------------

// AppendMove assigns the next move number for the session inside a
// transaction, keeping numbers strictly increasing per session.
func (s *SQLite) AppendMove(ctx context.Context, m *MoveRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return transient("begin move tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(move_number), 0) + 1 FROM game_moves WHERE session_id=?`,
		m.SessionID).Scan(&m.MoveNumber); err != nil {
		return transient("next move number", err)
	}
	if m.SubmittedAt.IsZero() {
		m.SubmittedAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO game_moves
            (id, session_id, player_id, clue_number, direction, submitted_answer,
             is_correct, points_earned, coins_earned, experience_earned,
             move_number, time_taken_seconds, submitted_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.SessionID, m.PlayerID, m.ClueNumber, m.Direction,
		m.SubmittedAnswer, m.IsCorrect, m.PointsEarned, m.CoinsEarned,
		m.XPEarned, m.MoveNumber, m.TimeTakenSeconds,
		m.SubmittedAt.Format(time.RFC3339)); err != nil {
		return transient("insert move", err)
	}
	return transient("commit move", tx.Commit())
}

func (s *SQLite) GetMoves(ctx context.Context, sessionID string) ([]MoveRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, session_id, player_id, clue_number, direction, submitted_answer,
               is_correct, points_earned, coins_earned, experience_earned,
               move_number, time_taken_seconds, submitted_at
        FROM game_moves WHERE session_id=? ORDER BY move_number ASC`, sessionID)
	if err != nil {
		return nil, transient("query moves", err)
	}
	defer rows.Close()

	out := []MoveRecord{}
	for rows.Next() {
		var m MoveRecord
		var submitted string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.PlayerID, &m.ClueNumber,
			&m.Direction, &m.SubmittedAnswer, &m.IsCorrect, &m.PointsEarned,
			&m.CoinsEarned, &m.XPEarned, &m.MoveNumber, &m.TimeTakenSeconds,
			&submitted); err != nil {
			return nil, transient("scan move", err)
		}
		m.SubmittedAt, _ = time.Parse(time.RFC3339, submitted)
		out = append(out, m)
	}
	return out, transient("iterate moves", rows.Err())
}
