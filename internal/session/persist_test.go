package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattbraddock/crossword-challenge/internal/progression"
	"github.com/mattbraddock/crossword-challenge/internal/puzzle"
	"github.com/mattbraddock/crossword-challenge/internal/store"
)

func TestGridCodec(t *testing.T) {
	s, _ := newTestSession(t)

	t.Run("round trip", func(t *testing.T) {
		data, err := EncodeGrid(s.Puzzle())
		require.NoError(t, err)
		got, err := DecodeGrid(data)
		require.NoError(t, err)
		assert.Equal(t, s.Puzzle(), got)
	})

	corrupt := []struct {
		name string
		data string
	}{
		{"not json", `{"gridSize": 6,`},
		{"zero grid size", `{"gridSize":0,"grid":[],"clues":{"across":[],"down":[]}}`},
		{"missing rows", `{"gridSize":3,"grid":[["_","_","_"]],"clues":{"across":[],"down":[]}}`},
		{"ragged row", `{"gridSize":2,"grid":[["_","_"],["_"]],"clues":{"across":[],"down":[]}}`},
		{"clue length mismatch", `{"gridSize":2,"grid":[["_","_"],["",""]],"clues":{"across":[{"number":1,"answer":"AB","length":3,"direction":"across"}],"down":[]}}`},
	}
	for _, tc := range corrupt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeGrid(tc.data)
			assert.ErrorIs(t, err, ErrCorruptData)
		})
	}
}

func TestSaveAndResume(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	deps, _ := testDeps(st, progression.DefaultTable())
	s, err := New(ctx, testConfig(), deps)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx))

	// A correct and an incorrect submission, both after the first save
	// so they land in the move log.
	clues := s.Puzzle().AllClues()
	require.Len(t, clues, 2)
	first, second := clues[0], clues[1]
	res, err := s.SubmitAnswer(ctx, first.Number, first.Direction, first.Answer)
	require.NoError(t, err)
	require.True(t, res.IsCorrect)
	require.NotEmpty(t, res.MoveID)
	res, err = s.SubmitAnswer(ctx, second.Number, second.Direction, "ZZZZZZ"[:second.Length])
	require.NoError(t, err)
	require.False(t, res.IsCorrect)

	require.NoError(t, s.Save(ctx))

	got, err := Resume(ctx, s.ID(), deps)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), got.ID())
	assert.Equal(t, StateComplete, got.State(), "both clues locked means complete")

	players := got.Players()
	require.Len(t, players, 2)
	assert.Equal(t, "Ada", players[0].Name)
	assert.Equal(t, "Grace", players[1].Name)
	assert.Equal(t, s.Players()[0].Score, players[0].Score)
	assert.Equal(t, s.Players()[1].IncorrectCount, players[1].IncorrectCount)

	sub := got.Answers().Submitted
	assert.Equal(t, first.Answer, sub[first.Key()])
	assert.Equal(t, second.Answer, sub[second.Key()], "wrong move replays as the correct answer")
}

func TestMoveRecordsTimeTaken(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	deps, _ := testDeps(st, progression.DefaultTable())
	s, err := New(ctx, testConfig(), deps)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	// Backdate the turn start so the move sees time on the clock.
	s.turnStarted = time.Now().Add(-5 * time.Second)
	clue := s.Puzzle().AllClues()[0]
	_, err = s.SubmitAnswer(ctx, clue.Number, clue.Direction, clue.Answer)
	require.NoError(t, err)

	moves, err := st.GetMoves(ctx, s.ID())
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.GreaterOrEqual(t, moves[0].TimeTakenSeconds, 5)
	assert.Less(t, moves[0].TimeTakenSeconds, 10)
}

func TestResumeCorruptGridRegenerates(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	deps, _ := testDeps(st, progression.DefaultTable())
	s, err := New(ctx, testConfig(), deps)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	rec, err := st.GetSession(ctx, s.ID())
	require.NoError(t, err)
	rec.GridData = `{"gridSize": 6,`
	require.NoError(t, st.UpdateSession(ctx, rec))

	got, err := Resume(ctx, s.ID(), deps)
	require.NoError(t, err)
	require.NotNil(t, got.Puzzle())
	assert.Equal(t, StateActive, got.State())
	assert.Len(t, got.Puzzle().AllClues(), 2)
}

func TestCancelPersistsAndResumes(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	deps, _ := testDeps(st, progression.DefaultTable())
	s, err := New(ctx, testConfig(), deps)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	require.NoError(t, s.Cancel(ctx))
	rec, err := st.GetSession(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, store.StatusCancelled, rec.Status)

	got, err := Resume(ctx, s.ID(), deps)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, got.State())
	_, err = got.SubmitAnswer(ctx, 1, puzzle.Across, "TASK")
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestResumeMissingSession(t *testing.T) {
	deps, _ := testDeps(store.NewMemory(), progression.DefaultTable())
	_, err := Resume(context.Background(), "nope", deps)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLeaderboardUnpersisted(t *testing.T) {
	s, _ := newTestSession(t)
	s.players[0].Score = 10
	s.players[1].Score = 30

	rows, err := s.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Grace", rows[0].Name)
	assert.Equal(t, "Ada", rows[1].Name)
}
