// internal/store/store.go
//
// Persistence contract for game sessions, players and moves.
// Responsibilities:
//   - Typed record shapes matching the session/player/move tables.
//   - The Store interface implemented by SQLite (production) and an
//     in-memory map (tests, durability-free play).
//   - Sentinel errors the HTTP layer maps onto status codes.
//
// Records are strictly typed at this boundary: no polymorphic field
// shapes leak past the store.

package store

import (
	"context"
	"errors"
	"time"
)

// Session status values.
const (
	StatusSetup     = "setup"
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var (
	// ErrNotFound reports that a record id did not resolve.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicatePlayer reports a player with the same session, name
	// and order already exists.
	ErrDuplicatePlayer = errors.New("player with this name and order already exists in session")
)

// SessionRecord is the persisted aggregate for save/continue.
type SessionRecord struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Difficulty         string    `json:"difficulty"`
	NumPlayers         int       `json:"numPlayers"`
	QuestionsPerPlayer int       `json:"questionsPerPlayer"`
	Status             string    `json:"status"`
	CurrentPlayerTurn  int       `json:"currentPlayerTurn"`
	CreatedBy          string    `json:"createdBy"`
	GridData           string    `json:"gridData"` // serialized puzzle
	CreatedAt          time.Time `json:"createdAt"`
}

// PlayerRecord is one player's persisted stats within a session.
type PlayerRecord struct {
	ID              string `json:"id"`
	SessionID       string `json:"sessionId"`
	Name            string `json:"name"`
	Avatar          string `json:"avatar"`
	AvatarIcon      string `json:"avatarIcon"`
	OrderIndex      int    `json:"orderIndex"`
	Score           int    `json:"score"`
	Level           int    `json:"level"`
	ExperienceTotal int    `json:"experienceTotal"`
	Coins           int    `json:"coins"`
	CurrentStreak   int    `json:"currentStreak"`
	BestStreak      int    `json:"bestStreak"`
	CorrectCount    int    `json:"correctCount"`
	IncorrectCount  int    `json:"incorrectCount"`
}

// MoveRecord is one append-only audit entry for an answer submission.
// Replaying a session's moves in move-number order reconstructs the
// submitted answer state.
type MoveRecord struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"sessionId"`
	PlayerID         string    `json:"playerId"`
	ClueNumber       int       `json:"clueNumber"`
	Direction        string    `json:"direction"`
	SubmittedAnswer  string    `json:"submittedAnswer"`
	IsCorrect        bool      `json:"isCorrect"`
	PointsEarned     int       `json:"pointsEarned"`
	CoinsEarned      int       `json:"coinsEarned"`
	XPEarned         int       `json:"xpEarned"`
	MoveNumber       int       `json:"moveNumber"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

// Store is the persistence interface for the session aggregate.
// Implementations provide per-record atomic updates only; the
// session+players+moves triple is not written atomically.
type Store interface {
	CreateSession(ctx context.Context, s *SessionRecord) error
	GetSession(ctx context.Context, id string) (*SessionRecord, error)
	UpdateSession(ctx context.Context, s *SessionRecord) error
	DeleteSession(ctx context.Context, id string) error

	CreatePlayer(ctx context.Context, p *PlayerRecord) error
	GetPlayer(ctx context.Context, id string) (*PlayerRecord, error)
	GetPlayers(ctx context.Context, sessionID string) ([]PlayerRecord, error)
	UpdatePlayer(ctx context.Context, p *PlayerRecord) error

	// AppendMove assigns the next strictly-increasing move number for
	// the session and persists the move.
	AppendMove(ctx context.Context, m *MoveRecord) error
	GetMoves(ctx context.Context, sessionID string) ([]MoveRecord, error)

	// Leaderboard returns a session's players ordered by score then
	// correct answers, both descending.
	Leaderboard(ctx context.Context, sessionID string) ([]PlayerRecord, error)
}
