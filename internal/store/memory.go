// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for ephemeral game
// sessions, primarily in development/testing, or when durability is
// not required.
//
// Characteristics:
//   - Records keyed by ID in maps, guarded by an RWMutex.
//   - State is lost when the process restarts.
//   - Same duplicate-player and move-numbering semantics as SQLite.

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is a map-backed Store.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]SessionRecord
	players  map[string]PlayerRecord
	moves    map[string][]MoveRecord // keyed by session id, ordered
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]SessionRecord),
		players:  make(map[string]PlayerRecord),
		moves:    make(map[string][]MoveRecord),
	}
}

func (m *Memory) CreateSession(ctx context.Context, rec *SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.sessions[rec.ID] = *rec
	return nil
}

func (m *Memory) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.sessions[id]; ok {
		cp := rec
		return &cp, nil
	}
	return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
}

func (m *Memory) UpdateSession(ctx context.Context, rec *SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[rec.ID]; !ok {
		return fmt.Errorf("session %s: %w", rec.ID, ErrNotFound)
	}
	m.sessions[rec.ID] = *rec
	return nil
}

func (m *Memory) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.moves, id)
	for pid, p := range m.players {
		if p.SessionID == id {
			delete(m.players, pid)
		}
	}
	return nil
}

func (m *Memory) CreatePlayer(ctx context.Context, p *PlayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.players {
		if existing.SessionID == p.SessionID && existing.Name == p.Name && existing.OrderIndex == p.OrderIndex {
			return ErrDuplicatePlayer
		}
	}
	m.players[p.ID] = *p
	return nil
}

func (m *Memory) GetPlayer(ctx context.Context, id string) (*PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.players[id]; ok {
		cp := p
		return &cp, nil
	}
	return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
}

func (m *Memory) GetPlayers(ctx context.Context, sessionID string) ([]PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.sessionPlayers(sessionID)
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (m *Memory) UpdatePlayer(ctx context.Context, p *PlayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[p.ID]; !ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrNotFound)
	}
	m.players[p.ID] = *p
	return nil
}

func (m *Memory) Leaderboard(ctx context.Context, sessionID string) ([]PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.sessionPlayers(sessionID)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CorrectCount > out[j].CorrectCount
	})
	return out, nil
}

func (m *Memory) sessionPlayers(sessionID string) []PlayerRecord {
	out := []PlayerRecord{}
	for _, p := range m.players {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out
}

func (m *Memory) AppendMove(ctx context.Context, mv *MoveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv.MoveNumber = len(m.moves[mv.SessionID]) + 1
	if mv.SubmittedAt.IsZero() {
		mv.SubmittedAt = time.Now().UTC()
	}
	m.moves[mv.SessionID] = append(m.moves[mv.SessionID], *mv)
	return nil
}

func (m *Memory) GetMoves(ctx context.Context, sessionID string) ([]MoveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MoveRecord, len(m.moves[sessionID]))
	copy(out, m.moves[sessionID])
	return out, nil
}
