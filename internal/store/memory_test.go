package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, m *Memory) *SessionRecord {
	t.Helper()
	rec := &SessionRecord{
		ID:                 "s1",
		Name:               "friday night",
		Difficulty:         "easy",
		NumPlayers:         2,
		QuestionsPerPlayer: 5,
		Status:             StatusActive,
		CreatedBy:          "guest_user_1",
	}
	require.NoError(t, m.CreateSession(context.Background(), rec))
	return rec
}

func TestMemorySessions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := seedSession(t, m)

	t.Run("round trip", func(t *testing.T) {
		got, err := m.GetSession(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.Name, got.Name)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := m.GetSession(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		rec.Status = StatusCompleted
		require.NoError(t, m.UpdateSession(ctx, rec))
		got, err := m.GetSession(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
	})

	t.Run("update missing", func(t *testing.T) {
		assert.ErrorIs(t, m.UpdateSession(ctx, &SessionRecord{ID: "nope"}), ErrNotFound)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, m.CreatePlayer(ctx, &PlayerRecord{ID: "p9", SessionID: rec.ID, Name: "Ada", OrderIndex: 0}))
		require.NoError(t, m.DeleteSession(ctx, rec.ID))
		_, err := m.GetSession(ctx, rec.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		ps, err := m.GetPlayers(ctx, rec.ID)
		require.NoError(t, err)
		assert.Empty(t, ps)
	})
}

func TestMemoryPlayers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := seedSession(t, m)

	require.NoError(t, m.CreatePlayer(ctx, &PlayerRecord{ID: "p1", SessionID: rec.ID, Name: "Ada", OrderIndex: 0, Coins: 100, Level: 1}))
	require.NoError(t, m.CreatePlayer(ctx, &PlayerRecord{ID: "p2", SessionID: rec.ID, Name: "Grace", OrderIndex: 1, Coins: 100, Level: 1}))

	t.Run("duplicate name and order rejected", func(t *testing.T) {
		err := m.CreatePlayer(ctx, &PlayerRecord{ID: "p3", SessionID: rec.ID, Name: "Ada", OrderIndex: 0})
		assert.ErrorIs(t, err, ErrDuplicatePlayer)
	})

	t.Run("same name different order allowed", func(t *testing.T) {
		err := m.CreatePlayer(ctx, &PlayerRecord{ID: "p4", SessionID: rec.ID, Name: "Ada", OrderIndex: 2})
		assert.NoError(t, err)
	})

	t.Run("players ordered by player order", func(t *testing.T) {
		ps, err := m.GetPlayers(ctx, rec.ID)
		require.NoError(t, err)
		require.Len(t, ps, 3)
		assert.Equal(t, "p1", ps[0].ID)
		assert.Equal(t, "p2", ps[1].ID)
		assert.Equal(t, "p4", ps[2].ID)
	})

	t.Run("update", func(t *testing.T) {
		p, err := m.GetPlayer(ctx, "p1")
		require.NoError(t, err)
		p.Score = 50
		require.NoError(t, m.UpdatePlayer(ctx, p))
		got, err := m.GetPlayer(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 50, got.Score)
	})
}

func TestMemoryMoves(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := seedSession(t, m)

	for i := 0; i < 3; i++ {
		mv := &MoveRecord{ID: string(rune('a' + i)), SessionID: rec.ID, PlayerID: "p1", ClueNumber: i + 1, Direction: "across"}
		require.NoError(t, m.AppendMove(ctx, mv))
	}

	t.Run("move numbers strictly increase", func(t *testing.T) {
		moves, err := m.GetMoves(ctx, rec.ID)
		require.NoError(t, err)
		require.Len(t, moves, 3)
		for i, mv := range moves {
			assert.Equal(t, i+1, mv.MoveNumber)
		}
	})
}

func TestMemoryLeaderboard(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := seedSession(t, m)

	require.NoError(t, m.CreatePlayer(ctx, &PlayerRecord{ID: "p1", SessionID: rec.ID, Name: "Ada", OrderIndex: 0, Score: 40, CorrectCount: 4}))
	require.NoError(t, m.CreatePlayer(ctx, &PlayerRecord{ID: "p2", SessionID: rec.ID, Name: "Grace", OrderIndex: 1, Score: 70, CorrectCount: 2}))
	require.NoError(t, m.CreatePlayer(ctx, &PlayerRecord{ID: "p3", SessionID: rec.ID, Name: "Alan", OrderIndex: 2, Score: 40, CorrectCount: 6}))

	board, err := m.Leaderboard(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, board, 3)
	// Score desc, then correct answers desc.
	assert.Equal(t, "p2", board[0].ID)
	assert.Equal(t, "p3", board[1].ID)
	assert.Equal(t, "p1", board[2].ID)
}
