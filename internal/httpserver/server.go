// internal/httpserver/server.go
//
// HTTP server wiring for the crossword backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): session creation, answer
//     validation, turns, power-ups, status, leaderboard, save/continue.
//   - Room-code endpoints for joining a session by short code.
//   - Auth endpoints (/auth/*).
//   - Registry of live in-memory sessions keyed by id.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid
//     token is present; routes still run for guests.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mattbraddock/crossword-challenge/internal/bank"
	"github.com/mattbraddock/crossword-challenge/internal/session"
	"github.com/mattbraddock/crossword-challenge/internal/store"
)

// Server bundles router, live session registry, record store, and DB
// handle.
type Server struct {
	r    *chi.Mux
	st   store.Store
	db   *sql.DB
	deps session.Deps

	mu       sync.RWMutex
	sessions map[string]*session.Session
	rooms    RoomRegistry
}

// New constructs a Server, installs middleware, and registers routes.
// deps carries the generator, question source, rules and tables every
// session runs against; deps.Store is used for save/continue.
func New(st store.Store, db *sql.DB, deps session.Deps) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		st:       st,
		db:       db,
		deps:     deps,
		sessions: make(map[string]*session.Session),
		rooms:    NewMemoryRooms(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"crossword-challenge","endpoints":["/health","POST /game/new","POST /game/validate-answer","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Game endpoints — OPTIONAL AUTH (guests can play)
	s.mountGameRoutes(s.r.With(s.withOptionalAuth()))

	// Auth endpoints
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	// Debug: question pool counts per tier
	s.r.Get("/debug/questions", func(w http.ResponseWriter, r *http.Request) {
		counts, err := bank.Stats()
		if err != nil {
			http.Error(w, `{"error":"bank_unavailable"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(counts)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --------------------------- session registry ------------------------------

// getSession returns a live session, loading it from the record store
// on a cold hit.
func (s *Server) getSession(r *http.Request, id string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}
	sess, err := session.Resume(r.Context(), id, s.deps)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	s.sessions[id] = sess
	return sess, nil
}

func (s *Server) putSession(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
}
