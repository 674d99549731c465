// internal/scoring/scoring.go
//
// Answer validation and reward computation.
// Responsibilities:
//   - Normalize and compare submitted answers against the canonical one.
//   - Compute points, XP and coin rewards per difficulty tier and streak.
//   - Detect puzzle completion from the submitted answer map.
//
// Numeric tables are carried on a Rules value rather than hard-coded so
// tuning can change without touching game logic. DefaultRules matches
// the shipped tables.

package scoring

import (
	"strings"

	"github.com/mattbraddock/crossword-challenge/internal/puzzle"
)

// Rules bundles the reward tuning tables.
type Rules struct {
	PointsTable   map[puzzle.Difficulty]int
	XPTable       map[puzzle.Difficulty]int
	CoinPer10Pts  int // coins granted per 10 points earned
	StreakBonuses []StreakBonus
	LevelUpCoins  int // one-time bonus granted on a level transition
}

// StreakBonus grants Coins once the current streak reaches Threshold.
// Bonuses stack: a streak of 10 collects every threshold at or below it.
type StreakBonus struct {
	Threshold int
	Coins     int
}

// DefaultRules returns the standard reward tables.
func DefaultRules() Rules {
	return Rules{
		PointsTable: map[puzzle.Difficulty]int{
			puzzle.Easy: 10, puzzle.Normal: 20, puzzle.Hard: 35, puzzle.Legend: 50, puzzle.Mythical: 75,
		},
		XPTable: map[puzzle.Difficulty]int{
			puzzle.Easy: 2, puzzle.Normal: 3, puzzle.Hard: 5, puzzle.Legend: 7, puzzle.Mythical: 10,
		},
		CoinPer10Pts: 5,
		StreakBonuses: []StreakBonus{
			{Threshold: 3, Coins: 5},
			{Threshold: 5, Coins: 10},
			{Threshold: 10, Coins: 20},
		},
		LevelUpCoins: 100,
	}
}

// Normalize uppercases an answer and strips everything that is not an
// ASCII letter or digit.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate reports whether a submitted answer matches the correct one.
// Comparison is case-insensitive and ignores spaces and punctuation.
// Empty input on either side is always invalid.
func Validate(userAnswer, correctAnswer string) bool {
	if userAnswer == "" || correctAnswer == "" {
		return false
	}
	u, c := Normalize(userAnswer), Normalize(correctAnswer)
	if u == "" || c == "" {
		return false
	}
	return u == c
}

// Points returns the point reward for a correct answer at a tier, or 0
// when incorrect. Unknown tiers fall back to the easy value.
func (r Rules) Points(d puzzle.Difficulty, isCorrect bool) int {
	if !isCorrect {
		return 0
	}
	if p, ok := r.PointsTable[d]; ok {
		return p
	}
	return r.PointsTable[puzzle.Easy]
}

// XP returns the experience reward for a correct answer at a tier, or 0
// when incorrect.
func (r Rules) XP(isCorrect bool, d puzzle.Difficulty) int {
	if !isCorrect {
		return 0
	}
	if x, ok := r.XPTable[d]; ok {
		return x
	}
	return r.XPTable[puzzle.Easy]
}

// Coins returns the coin reward for earned points plus any streak
// bonuses the current streak has reached.
func (r Rules) Coins(points, streak int) int {
	coins := (points / 10) * r.CoinPer10Pts
	for _, b := range r.StreakBonuses {
		if streak >= b.Threshold {
			coins += b.Coins
		}
	}
	return coins
}

// IsComplete reports whether every clue in the puzzle has a submitted
// answer that validates correct. submitted maps clue keys to stored
// answer text; clue keys absent from the map fail. A puzzle with zero
// clues is never complete; that shape signals generator failure and
// must not read as a win.
func IsComplete(submitted map[string]string, p *puzzle.Puzzle) bool {
	clues := p.AllClues()
	if len(clues) == 0 {
		return false
	}
	for _, c := range clues {
		if !Validate(submitted[c.Key()], c.Answer) {
			return false
		}
	}
	return true
}
