package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLite(db), mock
}

func TestSQLiteCreateSession(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO game_sessions").
		WithArgs("s1", "friday night", "easy", 2, 5, StatusActive, 0, "guest_user_1",
			"{}", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := st.CreateSession(context.Background(), &SessionRecord{
		ID: "s1", Name: "friday night", Difficulty: "easy", NumPlayers: 2,
		QuestionsPerPlayer: 5, Status: StatusActive, CreatedBy: "guest_user_1",
		GridData: "{}",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteGetSession(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		st, mock := newMockStore(t)
		cols := []string{"id", "session_name", "difficulty", "num_players",
			"questions_per_player", "status", "current_player_turn",
			"created_by", "grid_data", "created_at"}
		mock.ExpectQuery("SELECT (.+) FROM game_sessions WHERE id=").
			WithArgs("s1").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("s1", "friday night", "easy", 2, 5, StatusActive, 1,
					"guest_user_1", "{}", "2026-08-30T12:00:00Z"))

		rec, err := st.GetSession(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, "friday night", rec.Name)
		assert.Equal(t, 1, rec.CurrentPlayerTurn)
		assert.Equal(t, 2026, rec.CreatedAt.Year())
	})

	t.Run("missing maps to not found", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectQuery("SELECT (.+) FROM game_sessions WHERE id=").
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := st.GetSession(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("driver failure is transient", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectQuery("SELECT (.+) FROM game_sessions WHERE id=").
			WithArgs("s1").
			WillReturnError(errors.New("database is locked"))

		_, err := st.GetSession(context.Background(), "s1")
		assert.ErrorIs(t, err, ErrTransient)
	})
}

func TestSQLiteCreatePlayerDuplicate(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery("SELECT 1 FROM game_players").
		WithArgs("s1", "Ada", 0).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := st.CreatePlayer(context.Background(), &PlayerRecord{
		ID: "p1", SessionID: "s1", Name: "Ada", OrderIndex: 0,
	})
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
}

func TestSQLiteAppendMove(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(move_number\), 0\) \+ 1`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))
	mock.ExpectExec("INSERT INTO game_moves").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	m := &MoveRecord{ID: "m1", SessionID: "s1", PlayerID: "p1", ClueNumber: 3,
		Direction: "across", SubmittedAnswer: "TASK", IsCorrect: true,
		SubmittedAt: time.Now().UTC()}
	require.NoError(t, st.AppendMove(context.Background(), m))
	assert.Equal(t, 4, m.MoveNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteLeaderboardOrdering(t *testing.T) {
	st, mock := newMockStore(t)
	cols := []string{"id", "session_id", "player_name", "avatar", "avatar_icon",
		"player_order", "score", "level", "experience_points", "coins",
		"current_streak", "best_streak", "correct_answers", "incorrect_answers"}
	mock.ExpectQuery("ORDER BY score DESC, correct_answers DESC").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p2", "s1", "Grace", "", "", 1, 70, 2, 20, 120, 1, 3, 2, 1).
			AddRow("p1", "s1", "Ada", "", "", 0, 40, 1, 8, 110, 0, 2, 4, 2))

	board, err := st.Leaderboard(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "p2", board[0].ID)
	assert.Equal(t, "p1", board[1].ID)
}
