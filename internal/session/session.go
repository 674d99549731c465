// internal/session/session.go
//
// The session state machine: owns the active puzzle, per-player state
// and answer state, and drives every transition of a running game.
//
// Responsibilities:
//   - States Loading, Active, LevelUpTransition and Complete, with the
//     transition rules between them.
//   - Answer submission: validate, score, mutate the current player,
//     append a move, mark the clue submitted, then run the level-up or
//     completion checks and advance the turn.
//   - Wrong-answer auto-reveal and the level-up dwell, both run as
//     delayed continuations on the injected Scheduler.
//   - Cursor operations (select, type, backspace) that never touch a
//     submitted clue.
//   - Power-ups paid for in coins.
//
// All exported methods lock the session; scheduled continuations
// re-enter through the same lock.

package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mattbraddock/crossword-challenge/internal/progression"
	"github.com/mattbraddock/crossword-challenge/internal/puzzle"
	"github.com/mattbraddock/crossword-challenge/internal/scoring"
	"github.com/mattbraddock/crossword-challenge/internal/store"
)

// State is the lifecycle stage of a session.
type State string

const (
	StateLoading           State = "loading"
	StateActive            State = "active"
	StateLevelUpTransition State = "level_up"
	StateComplete          State = "complete"
	StateCancelled         State = "cancelled"
)

// Timing for scheduled continuations.
const (
	RevealLetterDelay = 400 * time.Millisecond
	LevelUpDwell      = 3 * time.Second
)

// Setup limits.
const (
	MinPlayers          = 1
	MaxPlayers          = 8
	MinQuestionsPerUser = 3
	MaxQuestionsPerUser = 20
)

var (
	ErrNotActive        = errors.New("session is not active")
	ErrNoSelection      = errors.New("no clue selected")
	ErrAlreadySubmitted = errors.New("clue already submitted")
	ErrEmptyAnswer      = errors.New("answer is empty")
	ErrNotComplete      = errors.New("puzzle is not complete")
	// ErrInsufficientCoins rejects a power-up the player cannot afford.
	ErrInsufficientCoins = errors.New("not enough coins")
	ErrUnknownPowerUp    = errors.New("unknown power-up")
)

// ValidationError reports invalid setup or request input. Nothing is
// mutated when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PlayerSetup is one player's configuration at session creation.
type PlayerSetup struct {
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	AvatarIcon string `json:"avatarIcon"`
}

// Config is the validated input to New.
type Config struct {
	Name               string        `json:"name"`
	QuestionsPerPlayer int           `json:"questionsPerPlayer"`
	Players            []PlayerSetup `json:"players"`
	CreatedBy          string        `json:"createdBy"`
}

// Validate checks setup limits before any state is allocated.
func (c Config) Validate() error {
	if n := len(c.Players); n < MinPlayers || n > MaxPlayers {
		return validationf("player count must be between %d and %d, got %d", MinPlayers, MaxPlayers, n)
	}
	if q := c.QuestionsPerPlayer; q < MinQuestionsPerUser || q > MaxQuestionsPerUser {
		return validationf("questions per player must be between %d and %d, got %d", MinQuestionsPerUser, MaxQuestionsPerUser, q)
	}
	seen := make(map[string]struct{}, len(c.Players))
	for i, p := range c.Players {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return validationf("player %d has an empty name", i+1)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return validationf("duplicate player name %q", name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Player is one participant's in-memory state.
type Player struct {
	ID              string `json:"id"`
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

// StartingCoins is every new player's coin balance.
const StartingCoins = 100

// AnswerState tracks in-progress text per clue key plus the locked set
// of submitted answers. Submitted entries are never edited.
type AnswerState struct {
	InProgress map[string]string `json:"inProgress"`
	Submitted  map[string]string `json:"submitted"`
}

func newAnswerState() AnswerState {
	return AnswerState{
		InProgress: make(map[string]string),
		Submitted:  make(map[string]string),
	}
}

// Deps are the collaborators a Session runs against. Store may be nil
// for unpersisted play; Scheduler and Rand default when nil.
type Deps struct {
	Generator *puzzle.Generator
	Source    puzzle.QuestionSource
	Rules     scoring.Rules
	Table     progression.Table
	Store     store.Store
	Scheduler Scheduler
	Rand      *rand.Rand
}

// Result is the outcome of one answer submission.
type Result struct {
	IsCorrect     bool   `json:"isCorrect"`
	Points        int    `json:"points"`
	Coins         int    `json:"coins"`
	Experience    int    `json:"experience"`
	CorrectAnswer string `json:"correctAnswer"`
	MoveID        string `json:"moveId"`
	LeveledUp     bool   `json:"leveledUp"`
	NewLevel      int    `json:"newLevel,omitempty"`
}

// Session is the live aggregate for one running game.
type Session struct {
	mu sync.Mutex

	id        string
	cfg       Config
	state     State
	puzzle    *puzzle.Puzzle
	players   []*Player
	turn      int
	answers   AnswerState
	selected  *puzzle.Clue
	createdAt time.Time

	// turnStarted stamps when the current turn holder got the turn;
	// each move records the elapsed seconds.
	turnStarted time.Time

	rules scoring.Rules
	table progression.Table
	gen   *puzzle.Generator
	src   puzzle.QuestionSource
	st    store.Store
	sched Scheduler
	rng   *rand.Rand

	persisted bool
	moveCount int

	// pendingLevel holds the level to apply when the dwell elapses.
	pendingLevel  int
	cancelDwell   func()
	revealing     bool
	cancelReveals []func()
}

// New validates cfg, builds the players, and generates the opening
// puzzle at level 1. The session comes back in StateActive.
func New(ctx context.Context, cfg Config, deps Deps) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		state:     StateLoading,
		answers:   newAnswerState(),
		createdAt: time.Now().UTC(),
		rules:     deps.Rules,
		table:     deps.Table,
		gen:       deps.Generator,
		src:       deps.Source,
		st:        deps.Store,
		sched:     deps.Scheduler,
		rng:       deps.Rand,
	}
	if s.sched == nil {
		s.sched = NewScheduler()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for i, ps := range cfg.Players {
		s.players = append(s.players, &Player{
			ID:         uuid.NewString(),
			Name:       strings.TrimSpace(ps.Name),
			Avatar:     ps.Avatar,
			AvatarIcon: ps.AvatarIcon,
			OrderIndex: i,
			Level:      1,
			Coins:      StartingCoins,
		})
	}
	p, err := s.gen.Generate(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("generate opening puzzle: %w", err)
	}
	s.puzzle = p
	s.state = StateActive
	s.turnStarted = time.Now()
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Puzzle returns the active puzzle.
func (s *Session) Puzzle() *puzzle.Puzzle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puzzle
}

// CurrentPlayer returns a copy of the turn holder. The second return
// is false when the session has no players (never in practice).
func (s *Session) CurrentPlayer() (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.players) == 0 {
		return Player{}, false
	}
	return *s.players[s.turn], true
}

// Players returns copies of all players in order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Player, len(s.players))
	for i, p := range s.players {
		out[i] = *p
	}
	return out
}

// Answers returns a copy of the answer state.
func (s *Session) Answers() AnswerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := newAnswerState()
	for k, v := range s.answers.InProgress {
		cp.InProgress[k] = v
	}
	for k, v := range s.answers.Submitted {
		cp.Submitted[k] = v
	}
	return cp
}

// SelectCell moves the selection to the word covering (row, col),
// preferring across and toggling direction on a re-click of the
// selected word. Clicking outside any word clears nothing.
func (s *Session) SelectCell(row, col int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	if c := s.puzzle.SelectAt(row, col, s.selected); c != nil {
		s.selected = c
	}
	return nil
}

// SelectClue moves the selection to the clue identified by (number,
// direction).
func (s *Session) SelectClue(number int, dir puzzle.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	c, ok := s.puzzle.Clue(number, dir)
	if !ok {
		return store.ErrNotFound
	}
	s.selected = &c
	return nil
}

// Selected returns the selected clue, if any.
func (s *Session) Selected() (puzzle.Clue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return puzzle.Clue{}, false
	}
	return *s.selected, true
}

// Type appends one letter to the selected clue's in-progress text,
// capped at the clue length. Submitted clues are untouchable.
func (s *Session) Type(letter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	if s.selected == nil {
		return ErrNoSelection
	}
	key := s.selected.Key()
	if _, done := s.answers.Submitted[key]; done {
		return ErrAlreadySubmitted
	}
	cur := s.answers.InProgress[key]
	if len(cur) >= s.selected.Length {
		return nil
	}
	add := scoring.Normalize(letter)
	if add == "" {
		return nil
	}
	if len(cur)+len(add) > s.selected.Length {
		add = add[:s.selected.Length-len(cur)]
	}
	s.answers.InProgress[key] = cur + add
	return nil
}

// Backspace removes the last letter of the selected clue's in-progress
// text.
func (s *Session) Backspace() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	if s.selected == nil {
		return ErrNoSelection
	}
	key := s.selected.Key()
	if _, done := s.answers.Submitted[key]; done {
		return ErrAlreadySubmitted
	}
	if cur := s.answers.InProgress[key]; cur != "" {
		s.answers.InProgress[key] = cur[:len(cur)-1]
	}
	return nil
}

// Submit locks in the selected clue's in-progress text as the current
// player's answer. Player stats, the submitted set and the move log
// are updated together before any persistence is attempted, so a
// store failure never leaves them out of step.
func (s *Session) Submit(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return nil, ErrNotActive
	}
	if s.selected == nil {
		return nil, ErrNoSelection
	}
	clue := *s.selected
	key := clue.Key()
	if _, done := s.answers.Submitted[key]; done {
		return nil, ErrAlreadySubmitted
	}
	input := s.answers.InProgress[key]
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyAnswer
	}
	return s.applyAnswer(ctx, clue, input, false)
}

// SubmitAnswer selects the clue, replaces its in-progress text with
// answer, and submits in one step. This is the transport-facing
// variant of Submit.
func (s *Session) SubmitAnswer(ctx context.Context, number int, dir puzzle.Direction, answer string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return nil, ErrNotActive
	}
	clue, ok := s.puzzle.Clue(number, dir)
	if !ok {
		return nil, store.ErrNotFound
	}
	key := clue.Key()
	if _, done := s.answers.Submitted[key]; done {
		return nil, ErrAlreadySubmitted
	}
	norm := scoring.Normalize(answer)
	if norm == "" {
		return nil, ErrEmptyAnswer
	}
	s.selected = &clue
	s.answers.InProgress[key] = norm
	return s.applyAnswer(ctx, clue, norm, false)
}

// applyAnswer runs the shared submit pipeline. skipped answers come
// from the skip_question power-up and earn nothing. Caller holds the
// lock.
func (s *Session) applyAnswer(ctx context.Context, clue puzzle.Clue, input string, skipped bool) (*Result, error) {
	player := s.players[s.turn]
	key := clue.Key()

	correct := !skipped && scoring.Validate(input, clue.Answer)
	points := s.rules.Points(clue.Difficulty, correct)
	xp := s.rules.XP(correct, clue.Difficulty)

	if correct {
		player.CurrentStreak++
		if player.CurrentStreak > player.BestStreak {
			player.BestStreak = player.CurrentStreak
		}
		player.CorrectCount++
	} else {
		player.CurrentStreak = 0
		if !skipped {
			player.IncorrectCount++
		}
	}
	coins := s.rules.Coins(points, player.CurrentStreak)
	player.Score += points
	player.ExperienceTotal += xp
	player.Coins += coins

	// Lock the answer before any remote write.
	stored := clue.Answer
	if correct {
		stored = scoring.Normalize(input)
	}
	delete(s.answers.InProgress, key)
	if correct || skipped {
		s.answers.Submitted[key] = stored
	}

	res := &Result{
		IsCorrect:     correct,
		Points:        points,
		Coins:         coins,
		Experience:    xp,
		CorrectAnswer: clue.Answer,
	}

	s.moveCount++
	if s.persisted && s.st != nil {
		move := &store.MoveRecord{
			ID:               uuid.NewString(),
			SessionID:        s.id,
			PlayerID:         player.ID,
			ClueNumber:       clue.Number,
			Direction:        string(clue.Direction),
			SubmittedAnswer:  scoring.Normalize(input),
			IsCorrect:        correct,
			PointsEarned:     points,
			CoinsEarned:      coins,
			XPEarned:         xp,
			TimeTakenSeconds: int(time.Since(s.turnStarted) / time.Second),
			SubmittedAt:      time.Now().UTC(),
		}
		err := store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
			return s.st.AppendMove(ctx, move)
		})
		if err != nil {
			log.Warn().Err(err).Str("session", s.id).Msg("move not persisted")
		} else {
			res.MoveID = move.ID
		}
	}

	if correct {
		if newLevel, up := s.table.LeveledUp(player.Level, player.ExperienceTotal); up {
			res.LeveledUp = true
			res.NewLevel = newLevel
			s.beginLevelUp(newLevel)
		}
		s.checkComplete()
		s.advanceTurn()
		return res, nil
	}

	if skipped {
		s.checkComplete()
		s.advanceTurn()
		return res, nil
	}

	// Wrong answer: reveal the correct word letter by letter, then
	// advance the turn and re-check completion. The key is locked
	// immediately so nothing double-applies while the reveal runs.
	s.answers.Submitted[key] = clue.Answer
	s.beginReveal(clue)
	return res, nil
}

// beginReveal schedules one continuation per letter of the correct
// answer. The final tick advances the turn and runs the completion
// check. Caller holds the lock.
func (s *Session) beginReveal(clue puzzle.Clue) {
	s.revealing = true
	key := clue.Key()
	for i := 1; i <= len(clue.Answer); i++ {
		i := i
		cancel := s.sched.After(time.Duration(i)*RevealLetterDelay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.answers.InProgress[key] = clue.Answer[:i]
			if i == len(clue.Answer) {
				delete(s.answers.InProgress, key)
				s.revealing = false
				s.cancelReveals = nil
				s.checkComplete()
				s.advanceTurn()
			}
		})
		s.cancelReveals = append(s.cancelReveals, cancel)
	}
}

// beginLevelUp parks the session in LevelUpTransition; the dwell
// continuation applies the level and the bonus coins. Caller holds the
// lock.
func (s *Session) beginLevelUp(newLevel int) {
	if s.state != StateActive {
		return
	}
	s.state = StateLevelUpTransition
	s.pendingLevel = newLevel
	player := s.players[s.turn]
	s.cancelDwell = s.sched.After(LevelUpDwell, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state != StateLevelUpTransition {
			return
		}
		player.Level = s.pendingLevel
		player.Coins += s.rules.LevelUpCoins
		s.pendingLevel = 0
		s.cancelDwell = nil
		s.state = StateActive
		s.checkComplete()
	})
}

// checkComplete moves the session to Complete when every clue has a
// correct submitted answer. Caller holds the lock.
func (s *Session) checkComplete() {
	if s.state != StateActive {
		return
	}
	if scoring.IsComplete(s.answers.Submitted, s.puzzle) {
		s.state = StateComplete
		s.selected = nil
	}
}

// advanceTurn hands the turn to the next player. Caller holds the
// lock.
func (s *Session) advanceTurn() {
	s.turn = (s.turn + 1) % len(s.players)
	s.turnStarted = time.Now()
}

// EndTurn passes the turn without submitting. Legal only in Active.
func (s *Session) EndTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	s.advanceTurn()
	return nil
}

// Turn returns the index of the player who submits next.
func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// ContinueNextPuzzle generates a fresh puzzle at the current player's
// level, resets the answer state and turn, and resumes play. Legal
// only in Complete.
func (s *Session) ContinueNextPuzzle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateComplete {
		return ErrNotComplete
	}
	level := 1
	for _, p := range s.players {
		if p.Level > level {
			level = p.Level
		}
	}
	p, err := s.gen.Generate(ctx, level)
	if err != nil {
		return fmt.Errorf("generate next puzzle: %w", err)
	}
	s.puzzle = p
	s.answers = newAnswerState()
	s.selected = nil
	s.turn = 0
	s.turnStarted = time.Now()
	s.state = StateActive
	return nil
}

// Cancel abandons the game: pending reveal and level-up continuations
// are stopped, the pending level is discarded, and the persisted
// record, if any, is marked cancelled. Legal in any state but Complete
// or Cancelled.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateComplete || s.state == StateCancelled {
		return ErrNotActive
	}
	if s.cancelDwell != nil {
		s.cancelDwell()
		s.cancelDwell = nil
	}
	for _, cancel := range s.cancelReveals {
		cancel()
	}
	s.cancelReveals = nil
	s.revealing = false
	s.pendingLevel = 0
	s.selected = nil
	s.state = StateCancelled

	if s.persisted && s.st != nil {
		rec, err := s.record()
		if err != nil {
			return err
		}
		err = store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
			return s.st.UpdateSession(ctx, rec)
		})
		if err != nil {
			return fmt.Errorf("cancel session: %w", err)
		}
	}
	return nil
}

// UpdateScore sets one player's score directly and persists the change
// when the session is saved.
func (s *Session) UpdateScore(ctx context.Context, playerID string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if score < 0 {
		return validationf("score must not be negative, got %d", score)
	}
	for _, p := range s.players {
		if p.ID != playerID {
			continue
		}
		p.Score = score
		if s.persisted && s.st != nil {
			rec := playerRecord(s.id, p)
			err := store.WithRetry(ctx, store.DefaultAttempts, store.DefaultBackoff, func() error {
				return s.st.UpdatePlayer(ctx, rec)
			})
			if err != nil {
				log.Warn().Err(err).Str("player", p.ID).Msg("score not persisted")
			}
		}
		return nil
	}
	return store.ErrNotFound
}

// Snapshot is the read-only session view served to clients.
type Snapshot struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	State          State     `json:"state"`
	Status         string    `json:"status"`
	Level          int       `json:"level"`
	Difficulty     string    `json:"difficulty"`
	GridSize       int       `json:"gridSize"`
	Turn           int       `json:"currentPlayerTurn"`
	Players        []Player  `json:"players"`
	SubmittedClues int       `json:"submittedClues"`
	TotalClues     int       `json:"totalClues"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Status summarizes the session for the status endpoint.
func (s *Session) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := store.StatusActive
	switch s.state {
	case StateComplete:
		status = store.StatusCompleted
	case StateCancelled:
		status = store.StatusCancelled
	}
	players := make([]Player, len(s.players))
	for i, p := range s.players {
		players[i] = *p
	}
	return Snapshot{
		ID:             s.id,
		Name:           s.cfg.Name,
		State:          s.state,
		Status:         status,
		Level:          s.puzzle.Level,
		Difficulty:     string(s.puzzle.Difficulty),
		GridSize:       s.puzzle.GridSize,
		Turn:           s.turn,
		Players:        players,
		SubmittedClues: len(s.answers.Submitted),
		TotalClues:     len(s.puzzle.AllClues()),
		CreatedBy:      s.cfg.CreatedBy,
		CreatedAt:      s.createdAt,
	}
}

// NextQuestion is one unanswered clue, as surfaced to clients.
type NextQuestion struct {
	Number    int              `json:"number"`
	Direction puzzle.Direction `json:"direction"`
	Text      string           `json:"text"`
	Length    int              `json:"length"`
}

// NextQuestions lists the clues that still need answers, across first,
// each direction ordered by clue number.
func (s *Session) NextQuestions() []NextQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []NextQuestion
	for _, c := range s.puzzle.AllClues() {
		if _, done := s.answers.Submitted[c.Key()]; done {
			continue
		}
		out = append(out, NextQuestion{
			Number:    c.Number,
			Direction: c.Direction,
			Text:      c.Text,
			Length:    c.Length,
		})
	}
	return out
}
