package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattbraddock/crossword-challenge/internal/puzzle"
)

func TestForXP(t *testing.T) {
	table := DefaultTable()

	t.Run("thresholds", func(t *testing.T) {
		cases := []struct {
			xp    int
			level int
		}{
			{0, 1}, {14, 1}, {15, 2}, {34, 2}, {35, 3},
			{89, 4}, {90, 5}, {125, 6}, {165, 7}, {210, 8},
			{260, 9}, {319, 9}, {320, 10}, {9999, 10},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.level, table.ForXP(tc.xp).Level, "xp=%d", tc.xp)
		}
	})

	t.Run("monotonic non-decreasing", func(t *testing.T) {
		prev := 0
		for xp := 0; xp <= 400; xp++ {
			l := table.ForXP(xp).Level
			assert.GreaterOrEqual(t, l, prev, "xp=%d", xp)
			prev = l
		}
	})

	t.Run("capped at max level", func(t *testing.T) {
		assert.Equal(t, MaxLevel, table.ForXP(1_000_000).Level)
	})

	t.Run("xp progress stays within the gap", func(t *testing.T) {
		for xp := 0; xp <= 400; xp++ {
			p := table.ForXP(xp)
			if p.Level == MaxLevel {
				assert.Zero(t, p.XPNeeded, "xp=%d", xp)
				continue
			}
			assert.GreaterOrEqual(t, p.XPProgress, 0, "xp=%d", xp)
			assert.LessOrEqual(t, p.XPProgress, p.XPNeeded, "xp=%d", xp)
		}
	})

	t.Run("negative clamps to zero", func(t *testing.T) {
		p := table.ForXP(-50)
		assert.Equal(t, 1, p.Level)
		assert.Equal(t, 0, p.CurrentXP)
	})
}

func TestBaseDifficulty(t *testing.T) {
	table := DefaultTable()
	assert.Equal(t, puzzle.Easy, table.BaseDifficulty(1))
	assert.Equal(t, puzzle.Normal, table.BaseDifficulty(3))
	assert.Equal(t, puzzle.Hard, table.BaseDifficulty(5))
	assert.Equal(t, puzzle.Legend, table.BaseDifficulty(8))
	assert.Equal(t, puzzle.Mythical, table.BaseDifficulty(10))
	assert.Equal(t, puzzle.Easy, table.BaseDifficulty(99))
}

func TestStanding(t *testing.T) {
	table := DefaultTable()

	t.Run("lagging applied level can level up", func(t *testing.T) {
		p := table.Standing(1, 15)
		assert.True(t, p.CanLevelUp)
		assert.Equal(t, 2, p.Level)
	})

	t.Run("applied level caught up", func(t *testing.T) {
		p := table.Standing(2, 15)
		assert.False(t, p.CanLevelUp)
	})

	t.Run("short of the next threshold", func(t *testing.T) {
		assert.False(t, table.Standing(1, 14).CanLevelUp)
	})

	t.Run("never at the cap", func(t *testing.T) {
		assert.False(t, table.Standing(MaxLevel, 1_000_000).CanLevelUp)
	})
}

func TestLeveledUp(t *testing.T) {
	table := DefaultTable()

	t.Run("two easy answers stay level one", func(t *testing.T) {
		// 2 + 2 XP
		level, up := table.LeveledUp(1, 4)
		assert.False(t, up)
		assert.Equal(t, 1, level)
	})

	t.Run("eleven xp still short", func(t *testing.T) {
		level, up := table.LeveledUp(1, 11)
		assert.False(t, up)
		assert.Equal(t, 1, level)
	})

	t.Run("fifteen xp reaches level two", func(t *testing.T) {
		level, up := table.LeveledUp(1, 15)
		assert.True(t, up)
		assert.Equal(t, 2, level)
	})

	t.Run("no level down", func(t *testing.T) {
		_, up := table.LeveledUp(5, 0)
		assert.False(t, up)
	})
}
