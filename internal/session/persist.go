// internal/session/persist.go
//
// Save and restore for the session aggregate.
//
// Responsibilities:
//   - Serialize the puzzle grid to JSON for the session record's
//     grid_data column, and decode it back with corruption detection.
//   - First save creates session and player records; later saves
//     update them. Store failures are retried with bounded backoff and
//     then surfaced without touching in-memory state.
//   - Resume loads session, players and moves, replays the moves to
//     rebuild the submitted answer set, and hands back a live session.
//   - Corrupt grid data falls back to a fresh puzzle at the last-known
//     level instead of failing the restore.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mattbraddock/crossword-challenge/internal/puzzle"
	"github.com/mattbraddock/crossword-challenge/internal/store"
)

// ErrCorruptData reports saved grid data that no longer deserializes.
var ErrCorruptData = errors.New("saved grid data is corrupt")

// EncodeGrid serializes a puzzle for the grid_data column.
func EncodeGrid(p *puzzle.Puzzle) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode grid: %w", err)
	}
	return string(b), nil
}

// DecodeGrid deserializes grid_data. Anything that does not come back
// as a plausible puzzle is reported as ErrCorruptData.
func DecodeGrid(data string) (*puzzle.Puzzle, error) {
	var p puzzle.Puzzle
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	if p.GridSize <= 0 || len(p.Cells) != p.GridSize {
		return nil, fmt.Errorf("%w: grid size %d does not match %d rows", ErrCorruptData, p.GridSize, len(p.Cells))
	}
	for _, row := range p.Cells {
		if len(row) != p.GridSize {
			return nil, fmt.Errorf("%w: ragged grid row", ErrCorruptData)
		}
	}
	for _, c := range p.AllClues() {
		if c.Length != len(c.Answer) {
			return nil, fmt.Errorf("%w: clue %s length mismatch", ErrCorruptData, c.Key())
		}
	}
	return &p, nil
}

func playerRecord(sessionID string, p *Player) *store.PlayerRecord {
	return &store.PlayerRecord{
		ID:              p.ID,
		SessionID:       sessionID,
		Name:            p.Name,
		Avatar:          p.Avatar,
		AvatarIcon:      p.AvatarIcon,
		OrderIndex:      p.OrderIndex,
		Score:           p.Score,
		Level:           p.Level,
		ExperienceTotal: p.ExperienceTotal,
		Coins:           p.Coins,
		CurrentStreak:   p.CurrentStreak,
		BestStreak:      p.BestStreak,
		CorrectCount:    p.CorrectCount,
		IncorrectCount:  p.IncorrectCount,
	}
}

func playerFromRecord(r store.PlayerRecord) *Player {
	return &Player{
		ID:              r.ID,
		Name:            r.Name,
		Avatar:          r.Avatar,
		AvatarIcon:      r.AvatarIcon,
		OrderIndex:      r.OrderIndex,
		Score:           r.Score,
		Level:           r.Level,
		ExperienceTotal: r.ExperienceTotal,
		Coins:           r.Coins,
		CurrentStreak:   r.CurrentStreak,
		BestStreak:      r.BestStreak,
		CorrectCount:    r.CorrectCount,
		IncorrectCount:  r.IncorrectCount,
	}
}

// record builds the session row from current state. Caller holds the
// lock.
func (s *Session) record() (*store.SessionRecord, error) {
	grid, err := EncodeGrid(s.puzzle)
	if err != nil {
		return nil, err
	}
	status := store.StatusActive
	switch s.state {
	case StateComplete:
		status = store.StatusCompleted
	case StateCancelled:
		status = store.StatusCancelled
	}
	return &store.SessionRecord{
		ID:                 s.id,
		Name:               s.cfg.Name,
		Difficulty:         string(s.puzzle.Difficulty),
		NumPlayers:         len(s.players),
		QuestionsPerPlayer: s.cfg.QuestionsPerPlayer,
		Status:             status,
		CurrentPlayerTurn:  s.turn,
		CreatedBy:          s.cfg.CreatedBy,
		GridData:           grid,
		CreatedAt:          s.createdAt,
	}, nil
}

// Save persists the session and its players. Legal in Active or
// Complete. The first save creates the records; later saves update
// them. On failure the in-memory state is untouched and the error is
// returned for the caller to retry.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive && s.state != StateComplete {
		return ErrNotActive
	}
	if s.st == nil {
		return errors.New("session has no store")
	}
	rec, err := s.record()
	if err != nil {
		return err
	}

	if !s.persisted {
		err = store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
			return s.st.CreateSession(ctx, rec)
		})
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		for _, p := range s.players {
			pr := playerRecord(s.id, p)
			err = store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
				return s.st.CreatePlayer(ctx, pr)
			})
			if err != nil {
				return fmt.Errorf("save player %s: %w", p.Name, err)
			}
		}
		s.persisted = true
		log.Info().Str("session", s.id).Int("players", len(s.players)).Msg("session saved")
		return nil
	}

	err = store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
		return s.st.UpdateSession(ctx, rec)
	})
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	for _, p := range s.players {
		pr := playerRecord(s.id, p)
		err = store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
			return s.st.UpdatePlayer(ctx, pr)
		})
		if err != nil {
			return fmt.Errorf("update player %s: %w", p.Name, err)
		}
	}
	return nil
}

// Resume loads a saved session and rebuilds the live state machine.
// Moves are replayed in move-number order to reconstruct the submitted
// answer set. Corrupt grid data regenerates a puzzle at the highest
// player level and logs the fallback.
func Resume(ctx context.Context, id string, deps Deps) (*Session, error) {
	if deps.Store == nil {
		return nil, errors.New("resume requires a store")
	}
	var rec *store.SessionRecord
	err := store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
		var e error
		rec, e = deps.Store.GetSession(ctx, id)
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var recs []store.PlayerRecord
	err = store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
		var e error
		recs, e = deps.Store.GetPlayers(ctx, id)
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("load players: %w", store.ErrNotFound)
	}

	var moves []store.MoveRecord
	err = store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
		var e error
		moves, e = deps.Store.GetMoves(ctx, id)
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("load moves: %w", err)
	}

	s := &Session{
		id:      rec.ID,
		state:   StateLoading,
		answers: newAnswerState(),
		cfg: Config{
			Name:               rec.Name,
			QuestionsPerPlayer: rec.QuestionsPerPlayer,
			CreatedBy:          rec.CreatedBy,
		},
		createdAt:   rec.CreatedAt,
		turn:        rec.CurrentPlayerTurn,
		turnStarted: time.Now(),
		rules:       deps.Rules,
		table:       deps.Table,
		gen:         deps.Generator,
		src:         deps.Source,
		st:          deps.Store,
		sched:       deps.Scheduler,
		rng:         deps.Rand,
		persisted:   true,
	}
	if s.sched == nil {
		s.sched = NewScheduler()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for _, r := range recs {
		s.players = append(s.players, playerFromRecord(r))
	}
	if s.turn < 0 || s.turn >= len(s.players) {
		s.turn = 0
	}

	p, err := DecodeGrid(rec.GridData)
	if errors.Is(err, ErrCorruptData) {
		level := 1
		for _, pl := range s.players {
			if pl.Level > level {
				level = pl.Level
			}
		}
		log.Warn().Err(err).Str("session", s.id).Int("level", level).
			Msg("grid data corrupt, regenerating puzzle")
		p, err = s.gen.Generate(ctx, level)
	}
	if err != nil {
		return nil, err
	}
	s.puzzle = p

	// Replay the audit log. Only moves referencing clues of the
	// current puzzle contribute; a regenerated puzzle starts clean.
	for _, m := range moves {
		c, ok := p.Clue(m.ClueNumber, puzzle.Direction(m.Direction))
		if !ok {
			continue
		}
		key := c.Key()
		if m.IsCorrect {
			s.answers.Submitted[key] = m.SubmittedAnswer
		} else {
			s.answers.Submitted[key] = c.Answer
		}
		s.moveCount = m.MoveNumber
	}

	if rec.Status == store.StatusCancelled {
		s.state = StateCancelled
		return s, nil
	}
	s.state = StateActive
	s.checkComplete()
	return s, nil
}

// Leaderboard returns this session's persisted ranking. An unsaved
// session ranks its in-memory players the same way.
func (s *Session) Leaderboard(ctx context.Context) ([]store.PlayerRecord, error) {
	s.mu.Lock()
	persisted := s.persisted && s.st != nil
	s.mu.Unlock()

	if persisted {
		var out []store.PlayerRecord
		err := store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
			var e error
			out, e = s.st.Leaderboard(ctx, s.id)
			return e
		})
		if err != nil {
			return nil, fmt.Errorf("leaderboard: %w", err)
		}
		return out, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.PlayerRecord, len(s.players))
	for i, p := range s.players {
		out[i] = *playerRecord(s.id, p)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j-1], out[j]
			if b.Score > a.Score || (b.Score == a.Score && b.CorrectCount > a.CorrectCount) {
				out[j-1], out[j] = b, a
			} else {
				break
			}
		}
	}
	return out, nil
}
