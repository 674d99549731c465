// internal/httpserver/routes_game.go
//
// Game endpoints over the session state machine.
// Responsibilities:
//   - Session creation and room codes.
//   - The play loop: validate-answer, end-turn, use-powerup,
//     update-score, select-clue, next-puzzle.
//   - Read endpoints: session-status, leaderboard, next-questions.
//   - Save and continue against the record store.
//   - Mapping session/store errors onto HTTP status codes.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mattbraddock/crossword-challenge/internal/puzzle"
	"github.com/mattbraddock/crossword-challenge/internal/session"
	"github.com/mattbraddock/crossword-challenge/internal/store"
)

// mountGameRoutes registers the play endpoints on an optional-auth
// router group.
func (s *Server) mountGameRoutes(r chi.Router) {
	r.Post("/game/new", s.handleNewSession)
	r.Post("/game/validate-answer", s.handleValidateAnswer)
	r.Post("/game/end-turn", s.handleEndTurn)
	r.Post("/game/use-powerup", s.handleUsePowerUp)
	r.Post("/game/select-clue", s.handleSelectClue)
	r.Post("/game/next-puzzle", s.handleNextPuzzle)
	r.Patch("/game/update-score", s.handleUpdateScore)
	r.Get("/game/session-status", s.handleSessionStatus)
	r.Get("/game/leaderboard", s.handleLeaderboard)
	r.Get("/game/next-questions", s.handleNextQuestions)
	r.Post("/game/save", s.handleSave)
	r.Post("/game/continue", s.handleContinue)
	r.Post("/game/cancel", s.handleCancel)

	r.Post("/rooms", s.handleCreateRoom)
	r.Get("/rooms/{code}", s.handleLookupRoom)
}

// clueView is a clue as sent to clients. Answers never leave the
// server.
type clueView struct {
	Number    int              `json:"number"`
	Text      string           `json:"text"`
	Direction puzzle.Direction `json:"direction"`
	Length    int              `json:"length"`
	StartRow  int              `json:"startRow"`
	StartCol  int              `json:"startCol"`
}

type puzzleView struct {
	GridSize   int        `json:"gridSize"`
	Cells      [][]string `json:"grid"`
	Across     []clueView `json:"across"`
	Down       []clueView `json:"down"`
	Difficulty string     `json:"difficulty"`
	Level      int        `json:"level"`
}

func viewPuzzle(p *puzzle.Puzzle) puzzleView {
	v := puzzleView{
		GridSize:   p.GridSize,
		Cells:      p.Cells,
		Difficulty: string(p.Difficulty),
		Level:      p.Level,
	}
	for _, c := range p.Clues.Across {
		v.Across = append(v.Across, stripAnswer(c))
	}
	for _, c := range p.Clues.Down {
		v.Down = append(v.Down, stripAnswer(c))
	}
	return v
}

func stripAnswer(c puzzle.Clue) clueView {
	return clueView{
		Number:    c.Number,
		Text:      c.Text,
		Direction: c.Direction,
		Length:    c.Length,
		StartRow:  c.StartRow,
		StartCol:  c.StartCol,
	}
}

// writeError maps domain errors onto JSON error responses.
func writeError(w http.ResponseWriter, err error) {
	var ve *session.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, `{"error":"validation","message":`+jsonString(ve.Msg)+`}`, http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	case errors.Is(err, session.ErrAlreadySubmitted):
		http.Error(w, `{"error":"already_submitted"}`, http.StatusConflict)
	case errors.Is(err, session.ErrInsufficientCoins):
		http.Error(w, `{"error":"insufficient_coins"}`, http.StatusPaymentRequired)
	case errors.Is(err, session.ErrNotActive), errors.Is(err, session.ErrNotComplete):
		http.Error(w, `{"error":"wrong_state"}`, http.StatusConflict)
	case errors.Is(err, session.ErrEmptyAnswer),
		errors.Is(err, session.ErrNoSelection),
		errors.Is(err, session.ErrUnknownPowerUp):
		http.Error(w, `{"error":"invalid_request","message":`+jsonString(err.Error())+`}`, http.StatusBadRequest)
	case errors.Is(err, store.ErrDuplicatePlayer):
		http.Error(w, `{"error":"duplicate_player"}`, http.StatusConflict)
	case errors.Is(err, store.ErrTransient):
		http.Error(w, `{"error":"store_unavailable"}`, http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Msg("request failed")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// ------------------------------- handlers ----------------------------------

type newSessionReq struct {
	Name               string                `json:"name"`
	QuestionsPerPlayer int                   `json:"questionsPerPlayer"`
	Players            []session.PlayerSetup `json:"players"`
}

type newSessionRes struct {
	SessionID string           `json:"sessionId"`
	Snapshot  session.Snapshot `json:"session"`
	Puzzle    puzzleView       `json:"puzzle"`
}

// handleNewSession validates setup, builds a live session, and
// registers it. created_by is the authenticated user or a guest id.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	var req newSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	cfg := session.Config{
		Name:               req.Name,
		QuestionsPerPlayer: req.QuestionsPerPlayer,
		Players:            req.Players,
		CreatedBy:          currentUserID(r),
	}
	sess, err := session.New(r.Context(), cfg, s.deps)
	if err != nil {
		writeError(w, err)
		return
	}
	s.putSession(sess)
	log.Info().Str("session", sess.ID()).Int("players", len(req.Players)).Msg("session created")
	_ = json.NewEncoder(w).Encode(newSessionRes{
		SessionID: sess.ID(),
		Snapshot:  sess.Status(),
		Puzzle:    viewPuzzle(sess.Puzzle()),
	})
}

type answerReq struct {
	SessionID  string           `json:"sessionId"`
	ClueNumber int              `json:"clueNumber"`
	Direction  puzzle.Direction `json:"direction"`
	Answer     string           `json:"answer"`
}

// handleValidateAnswer submits one answer for the current player and
// returns the scored result.
func (s *Server) handleValidateAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.getSession(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := sess.SubmitAnswer(r.Context(), req.ClueNumber, req.Direction, req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

type sessionOnlyReq struct {
	SessionID string `json:"sessionId"`
}

// handleEndTurn passes the turn without a submission.
func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	var req sessionOnlyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.getSession(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.EndTurn(); err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]int{"currentPlayerTurn": sess.Turn()})
}

type powerUpReq struct {
	SessionID string          `json:"sessionId"`
	PowerUp   session.PowerUp `json:"powerUp"`
}

// handleUsePowerUp spends the current player's coins on a power-up.
func (s *Server) handleUsePowerUp(w http.ResponseWriter, r *http.Request) {
	var req powerUpReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.getSession(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := sess.UsePowerUp(r.Context(), req.PowerUp)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

type selectClueReq struct {
	SessionID  string           `json:"sessionId"`
	ClueNumber int              `json:"clueNumber"`
	Direction  puzzle.Direction `json:"direction"`
}

// handleSelectClue moves the cursor so a later power-up targets the
// right word.
func (s *Server) handleSelectClue(w http.ResponseWriter, r *http.Request) {
	var req selectClueReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.getSession(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SelectClue(req.ClueNumber, req.Direction); err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleNextPuzzle starts the next board after a completed one.
func (s *Server) handleNextPuzzle(w http.ResponseWriter, r *http.Request) {
	var req sessionOnlyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.getSession(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.ContinueNextPuzzle(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(newSessionRes{
		SessionID: sess.ID(),
		Snapshot:  sess.Status(),
		Puzzle:    viewPuzzle(sess.Puzzle()),
	})
}

type updateScoreReq struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	Score     int    `json:"score"`
}

// handleUpdateScore sets one player's score directly.
func (s *Server) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	var req updateScoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.getSession(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.UpdateScore(r.Context(), req.PlayerID, req.Score); err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleSessionStatus reports the session snapshot.
func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := s.getSession(r, r.URL.Query().Get("sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(sess.Status())
}

// handleLeaderboard returns players ranked by score then correct
// answers.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.getSession(r, r.URL.Query().Get("sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	board, err := sess.Leaderboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(board)
}

// handleNextQuestions lists the clues still open for answers.
func (s *Server) handleNextQuestions(w http.ResponseWriter, r *http.Request) {
	sess, err := s.getSession(r, r.URL.Query().Get("sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	qs := sess.NextQuestions()
	if qs == nil {
		qs = []session.NextQuestion{}
	}
	_ = json.NewEncoder(w).Encode(qs)
}

// handleSave persists the session aggregate.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req sessionOnlyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.getSession(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Save(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleContinue loads a saved session into the live registry and
// returns its state.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	var req sessionOnlyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.getSession(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(newSessionRes{
		SessionID: sess.ID(),
		Snapshot:  sess.Status(),
		Puzzle:    viewPuzzle(sess.Puzzle()),
	})
}

// handleCancel abandons a session; the persisted record is marked
// cancelled.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req sessionOnlyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.getSession(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Cancel(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleCreateRoom issues a short join code for a live session.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req sessionOnlyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if _, err := s.getSession(r, req.SessionID); err != nil {
		writeError(w, err)
		return
	}
	code := s.rooms.Create(req.SessionID)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code})
}

// handleLookupRoom resolves a join code back to its session.
func (s *Server) handleLookupRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	id, ok := s.rooms.Lookup(code)
	if !ok {
		writeError(w, store.ErrNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"sessionId": id})
}
