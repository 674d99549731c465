package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattbraddock/crossword-challenge/internal/puzzle"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		user    string
		correct string
		want    bool
	}{
		{"exact match", "GLIDE", "GLIDE", true},
		{"case insensitive", "glide", "GLIDE", true},
		{"punctuation stripped", "g-lide", "GLIDE", true},
		{"spaces stripped", "  g l i d e ", "GLIDE", true},
		{"wrong answer", "SLIDE", "GLIDE", false},
		{"empty user", "", "GLIDE", false},
		{"empty correct", "GLIDE", "", false},
		{"punctuation only", "---", "GLIDE", false},
		{"digits compare", "route66", "ROUTE66", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Validate(tc.user, tc.correct))
		})
	}
}

func TestRewards(t *testing.T) {
	r := DefaultRules()

	t.Run("points per tier", func(t *testing.T) {
		assert.Equal(t, 10, r.Points(puzzle.Easy, true))
		assert.Equal(t, 20, r.Points(puzzle.Normal, true))
		assert.Equal(t, 35, r.Points(puzzle.Hard, true))
		assert.Equal(t, 50, r.Points(puzzle.Legend, true))
		assert.Equal(t, 75, r.Points(puzzle.Mythical, true))
		assert.Equal(t, 0, r.Points(puzzle.Mythical, false))
	})

	t.Run("xp per tier", func(t *testing.T) {
		assert.Equal(t, 2, r.XP(true, puzzle.Easy))
		assert.Equal(t, 10, r.XP(true, puzzle.Mythical))
		assert.Equal(t, 0, r.XP(false, puzzle.Hard))
	})

	t.Run("coins from points", func(t *testing.T) {
		assert.Equal(t, 5, r.Coins(10, 0))
		assert.Equal(t, 15, r.Coins(35, 0))
		assert.Equal(t, 0, r.Coins(0, 0))
	})

	t.Run("streak bonuses stack", func(t *testing.T) {
		assert.Equal(t, 5, r.Coins(10, 2))
		assert.Equal(t, 10, r.Coins(10, 3))
		assert.Equal(t, 20, r.Coins(10, 5))
		assert.Equal(t, 40, r.Coins(10, 10))
	})

	t.Run("custom tables drive the rewards", func(t *testing.T) {
		custom := Rules{
			PointsTable:  map[puzzle.Difficulty]int{puzzle.Easy: 1},
			XPTable:      map[puzzle.Difficulty]int{puzzle.Easy: 9},
			CoinPer10Pts: 1,
		}
		assert.Equal(t, 1, custom.Points(puzzle.Easy, true))
		assert.Equal(t, 9, custom.XP(true, puzzle.Easy))
		assert.Equal(t, 1, custom.Points(puzzle.Mythical, true), "unknown tiers fall back to easy")
	})
}

func TestIsComplete(t *testing.T) {
	p := &puzzle.Puzzle{
		GridSize: 12,
		Clues: puzzle.ClueSet{
			Across: []puzzle.Clue{{Number: 1, Answer: "TASK", Direction: puzzle.Across, Length: 4}},
			Down:   []puzzle.Clue{{Number: 2, Answer: "ACL", Direction: puzzle.Down, Length: 3}},
		},
	}

	t.Run("zero clues never complete", func(t *testing.T) {
		empty := &puzzle.Puzzle{GridSize: 12}
		assert.False(t, IsComplete(map[string]string{}, empty))
	})

	t.Run("missing answer", func(t *testing.T) {
		assert.False(t, IsComplete(map[string]string{"1-across": "TASK"}, p))
	})

	t.Run("wrong answer", func(t *testing.T) {
		assert.False(t, IsComplete(map[string]string{"1-across": "TASK", "2-down": "API"}, p))
	})

	t.Run("all correct", func(t *testing.T) {
		assert.True(t, IsComplete(map[string]string{"1-across": "TASK", "2-down": "ACL"}, p))
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "GLIDE", Normalize(" g-lide! "))
	assert.Equal(t, "", Normalize("***"))
	assert.Equal(t, "AB12", Normalize("ab 12"))
}
