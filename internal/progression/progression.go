// internal/progression/progression.go
//
// Level progression from cumulative XP.
// Levels 1–10 each carry a fixed cumulative-XP threshold; the player's
// level is the highest one whose threshold has been reached, capped at
// the top of the table. The threshold table is data; callers may
// substitute their own.

package progression

import "github.com/mattbraddock/crossword-challenge/internal/puzzle"

// Requirement pairs a level's cumulative-XP threshold with its base
// question difficulty.
type Requirement struct {
	XPRequired int
	Difficulty puzzle.Difficulty
}

// Table maps level → requirement. Thresholds must be monotonically
// increasing with level.
type Table map[int]Requirement

// MaxLevel is the progression cap.
const MaxLevel = 10

// DefaultTable returns the standard ten-level progression.
func DefaultTable() Table {
	return Table{
		1:  {XPRequired: 0, Difficulty: puzzle.Easy},
		2:  {XPRequired: 15, Difficulty: puzzle.Easy},
		3:  {XPRequired: 35, Difficulty: puzzle.Normal},
		4:  {XPRequired: 60, Difficulty: puzzle.Normal},
		5:  {XPRequired: 90, Difficulty: puzzle.Hard},
		6:  {XPRequired: 125, Difficulty: puzzle.Hard},
		7:  {XPRequired: 165, Difficulty: puzzle.Legend},
		8:  {XPRequired: 210, Difficulty: puzzle.Legend},
		9:  {XPRequired: 260, Difficulty: puzzle.Mythical},
		10: {XPRequired: 320, Difficulty: puzzle.Mythical},
	}
}

// Progress describes a player's standing within the level table.
type Progress struct {
	Level          int  `json:"level"`
	CurrentXP      int  `json:"currentXP"`
	XPForNextLevel int  `json:"xpForNextLevel"`
	XPProgress     int  `json:"xpProgress"` // XP earned past the current level's threshold
	XPNeeded       int  `json:"xpNeeded"`   // threshold gap to the next level; 0 at cap
	CanLevelUp     bool `json:"canLevelUp"` // XP-implied level exceeds the applied level; set by Standing
}

// ForXP computes the level standing for a cumulative XP total. Negative
// totals clamp to zero. At MaxLevel XPNeeded is 0.
func (t Table) ForXP(totalXP int) Progress {
	if totalXP < 0 {
		totalXP = 0
	}
	level := 1
	for l := MaxLevel; l >= 1; l-- {
		if req, ok := t[l]; ok && totalXP >= req.XPRequired {
			level = l
			break
		}
	}

	cur := t[level].XPRequired
	p := Progress{
		Level:     level,
		CurrentXP: totalXP,
	}
	if next, ok := t[level+1]; ok && level < MaxLevel {
		p.XPForNextLevel = next.XPRequired
		p.XPProgress = totalXP - cur
		p.XPNeeded = next.XPRequired - cur
	} else {
		p.XPForNextLevel = cur
		p.XPProgress = totalXP - cur
		p.XPNeeded = 0
	}
	return p
}

// BaseDifficulty returns the base question tier for a level. Levels
// outside the table fall back to easy.
func (t Table) BaseDifficulty(level int) puzzle.Difficulty {
	if req, ok := t[level]; ok {
		return req.Difficulty
	}
	return puzzle.Easy
}

// Standing computes the level standing for a player whose applied
// level may lag the XP-implied one (levels apply after the level-up
// dwell). CanLevelUp reports that lag.
func (t Table) Standing(appliedLevel, totalXP int) Progress {
	p := t.ForXP(totalXP)
	p.CanLevelUp = p.Level > appliedLevel
	return p
}

// LeveledUp reports whether moving from a previously known level to the
// level implied by newTotalXP is a level-up transition.
func (t Table) LeveledUp(previousLevel, newTotalXP int) (int, bool) {
	p := t.Standing(previousLevel, newTotalXP)
	return p.Level, p.CanLevelUp
}
