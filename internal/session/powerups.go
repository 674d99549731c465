// internal/session/powerups.go
//
// Coin-funded power-ups for the current player.
//
// Responsibilities:
//   - The power-up catalogue and its coin costs.
//   - Eligibility checks (active state, a selected unsubmitted clue,
//     enough coins) before any coins move.
//   - The effect of each power-up on the answer state or puzzle.

package session

import (
	"context"
	"fmt"

	"github.com/mattbraddock/crossword-challenge/internal/puzzle"
	"github.com/mattbraddock/crossword-challenge/internal/scoring"
)

// PowerUp identifies one purchasable ability.
type PowerUp string

const (
	// PowerHint fills in the next correct letter of the selected clue.
	PowerHint PowerUp = "hint"
	// PowerChangeQuestion swaps the selected clue for a different
	// question of the same difficulty and length.
	PowerChangeQuestion PowerUp = "change_question"
	// PowerRetry wipes the selected clue's in-progress text for a
	// fresh attempt.
	PowerRetry PowerUp = "retry"
	// PowerRevealLetter reveals one letter of the selected clue
	// without altering the player's input.
	PowerRevealLetter PowerUp = "reveal_letter"
	// PowerSkipQuestion locks the selected clue with its correct
	// answer, awards nothing, and passes the turn.
	PowerSkipQuestion PowerUp = "skip_question"
)

// Costs in coins.
var powerUpCost = map[PowerUp]int{
	PowerHint:           20,
	PowerChangeQuestion: 30,
	PowerRetry:          40,
	PowerRevealLetter:   25,
	PowerSkipQuestion:   35,
}

// Cost returns the coin price of a power-up, or false for an unknown
// one.
func Cost(p PowerUp) (int, bool) {
	c, ok := powerUpCost[p]
	return c, ok
}

// PowerUpResult reports what a power-up did.
type PowerUpResult struct {
	PowerUp        PowerUp       `json:"powerUp"`
	CoinsSpent     int           `json:"coinsSpent"`
	CoinsRemaining int           `json:"coinsRemaining"`
	Letter         string        `json:"letter,omitempty"`
	Position       int           `json:"position,omitempty"`
	NewQuestion    *NextQuestion `json:"newQuestion,omitempty"`
	Skip           *Result       `json:"skip,omitempty"`
}

// UsePowerUp spends the current player's coins on one power-up applied
// to the selected clue. Coins move only after the effect is known to
// be applicable.
func (s *Session) UsePowerUp(ctx context.Context, kind PowerUp) (*PowerUpResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return nil, ErrNotActive
	}
	cost, ok := powerUpCost[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPowerUp, kind)
	}
	if s.selected == nil {
		return nil, ErrNoSelection
	}
	clue := *s.selected
	key := clue.Key()
	if _, done := s.answers.Submitted[key]; done {
		return nil, ErrAlreadySubmitted
	}
	player := s.players[s.turn]
	if player.Coins < cost {
		return nil, ErrInsufficientCoins
	}

	res := &PowerUpResult{PowerUp: kind, CoinsSpent: cost}
	switch kind {
	case PowerHint:
		cur := s.answers.InProgress[key]
		if len(cur) >= clue.Length {
			cur = cur[:clue.Length-1]
		}
		// Replace any wrong prefix with the correct one, extended by
		// one letter.
		next := clue.Answer[:len(cur)+1]
		s.answers.InProgress[key] = next
		res.Letter = string(clue.Answer[len(cur)])
		res.Position = len(cur)

	case PowerRevealLetter:
		pos := revealPosition(s.answers.InProgress[key], clue.Answer)
		res.Letter = string(clue.Answer[pos])
		res.Position = pos

	case PowerRetry:
		delete(s.answers.InProgress, key)

	case PowerChangeQuestion:
		nq, err := s.swapQuestion(ctx, clue)
		if err != nil {
			return nil, err
		}
		delete(s.answers.InProgress, key)
		res.NewQuestion = nq

	case PowerSkipQuestion:
		player.Coins -= cost
		res.CoinsRemaining = player.Coins
		skip, err := s.applyAnswer(ctx, clue, clue.Answer, true)
		if err != nil {
			player.Coins += cost
			res.CoinsRemaining = player.Coins
			return nil, err
		}
		res.Skip = skip
		return res, nil
	}

	player.Coins -= cost
	res.CoinsRemaining = player.Coins
	return res, nil
}

// revealPosition picks the first index where the player's input is
// missing or wrong.
func revealPosition(input, answer string) int {
	for i := 0; i < len(answer); i++ {
		if i >= len(input) || input[i] != answer[i] {
			return i
		}
	}
	return len(answer) - 1
}

// swapQuestion replaces a clue's question with a different one of the
// same difficulty whose answer fits the same span. Caller holds the
// lock.
func (s *Session) swapQuestion(ctx context.Context, clue puzzle.Clue) (*NextQuestion, error) {
	pool, err := s.src.Questions(ctx, clue.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("load replacement questions: %w", err)
	}
	var candidates []puzzle.Question
	for _, q := range pool {
		a := scoring.Normalize(q.Answer)
		if len(a) == clue.Length && a != clue.Answer {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no replacement question of length %d at difficulty %q", clue.Length, clue.Difficulty)
	}
	pick := candidates[s.rng.Intn(len(candidates))]

	clues := s.puzzle.Clues.Across
	if clue.Direction == puzzle.Down {
		clues = s.puzzle.Clues.Down
	}
	for i := range clues {
		if clues[i].Number == clue.Number {
			clues[i].Text = pick.Text
			clues[i].Answer = scoring.Normalize(pick.Answer)
			s.selected = &clues[i]
			break
		}
	}
	return &NextQuestion{
		Number:    clue.Number,
		Direction: clue.Direction,
		Text:      pick.Text,
		Length:    clue.Length,
	}, nil
}
