package httpserver

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mattbraddock/crossword-challenge/internal/store"
)

func newAuthServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := store.NewMemory()
	deps := testDeps(st)
	srv := New(st, db, deps)
	return srv, mock
}

func userColumns() []string {
	return []string{"id", "username", "password_hash", "created_at"}
}

func TestSignup(t *testing.T) {
	t.Run("creates user and sets cookie", func(t *testing.T) {
		srv, mock := newAuthServer(t)
		mock.ExpectQuery("SELECT 1 FROM users").
			WithArgs("ada").
			WillReturnRows(sqlmock.NewRows([]string{"1"}))
		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := doJSON(t, srv.Router(), http.MethodPost, "/auth/signup",
			map[string]string{"username": "ada", "password": "correcthorse"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"ada"`)

		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, "crossword_token", cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("taken username conflicts", func(t *testing.T) {
		srv, mock := newAuthServer(t)
		mock.ExpectQuery("SELECT 1 FROM users").
			WithArgs("ada").
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		w := doJSON(t, srv.Router(), http.MethodPost, "/auth/signup",
			map[string]string{"username": "ada", "password": "correcthorse"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("weak input is rejected before any query", func(t *testing.T) {
		srv, _ := newAuthServer(t)
		cases := []map[string]string{
			{"username": "ab", "password": "correcthorse"},
			{"username": "ada", "password": "short"},
			{"username": "ada!", "password": "correcthorse"},
		}
		for _, body := range cases {
			w := doJSON(t, srv.Router(), http.MethodPost, "/auth/signup", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	})
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.MinCost)
	require.NoError(t, err)
	created := time.Now().UTC().Format(time.RFC3339)

	t.Run("valid credentials", func(t *testing.T) {
		srv, mock := newAuthServer(t)
		mock.ExpectQuery("SELECT id, username, password_hash, created_at").
			WithArgs("ada").
			WillReturnRows(sqlmock.NewRows(userColumns()).AddRow("u1", "ada", string(hash), created))

		w := doJSON(t, srv.Router(), http.MethodPost, "/auth/login",
			map[string]string{"username": "ada", "password": "correcthorse"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"id":"u1"`)
		require.NotEmpty(t, w.Result().Cookies())
	})

	t.Run("wrong password", func(t *testing.T) {
		srv, mock := newAuthServer(t)
		mock.ExpectQuery("SELECT id, username, password_hash, created_at").
			WithArgs("ada").
			WillReturnRows(sqlmock.NewRows(userColumns()).AddRow("u1", "ada", string(hash), created))

		w := doJSON(t, srv.Router(), http.MethodPost, "/auth/login",
			map[string]string{"username": "ada", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		srv, mock := newAuthServer(t)
		mock.ExpectQuery("SELECT id, username, password_hash, created_at").
			WithArgs("nobody").
			WillReturnError(sql.ErrNoRows)

		w := doJSON(t, srv.Router(), http.MethodPost, "/auth/login",
			map[string]string{"username": "nobody", "password": "correcthorse"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthMe(t *testing.T) {
	t.Run("bearer token resolves the profile", func(t *testing.T) {
		srv, mock := newAuthServer(t)
		tok, _, err := srv.signJWT("u1", "ada")
		require.NoError(t, err)
		mock.ExpectQuery("SELECT id, username, password_hash, created_at").
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(userColumns()).AddRow("u1", "ada", "x", time.Now().UTC().Format(time.RFC3339)))

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"u1","username":"ada"}`, w.Body.String())
	})

	t.Run("no token is unauthorized", func(t *testing.T) {
		srv, _ := newAuthServer(t)
		w := doJSON(t, srv.Router(), http.MethodGet, "/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		srv, _ := newAuthServer(t)
		w := doJSON(t, srv.Router(), http.MethodPost, "/auth/logout", nil)
		require.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Empty(t, cookies[0].Value)
	})
}
