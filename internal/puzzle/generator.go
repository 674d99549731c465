// internal/puzzle/generator.go
//
// Puzzle generation for a given player level.
// Responsibilities:
//   - Derive the target difficulty for a level, with a small random
//     chance of boosting one tier harder for variety.
//   - Select a word subset from the question bank, biased toward a mix
//     of short and longer answers.
//   - Place words at fixed, non-intersecting template coordinates on
//     the grid and build the numbered clue lists.
//
// Placement is a static template, not a constraint solver: three across
// rows and three down columns on a 12x12 grid. Template coordinates are
// validated against the grid size at construction so a word that cannot
// fit is a data problem (answer too long), not a generator bug; such
// words are skipped.
//
// All randomness flows through an injected *rand.Rand so generation is
// reproducible in tests.

package puzzle

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// QuestionSource supplies bank questions filtered by difficulty.
type QuestionSource interface {
	Questions(ctx context.Context, d Difficulty) ([]Question, error)
}

// Slot is one fixed template position for a word.
type Slot struct {
	Number    int
	Direction Direction
	Row, Col  int
}

// GenConfig carries the generator's tuning knobs.
type GenConfig struct {
	GridSize    int     // board is GridSize x GridSize
	WordCount   int     // words per puzzle
	ShortMax    int     // answers up to this length count as "short"
	ShortBias   int     // short words preferred per puzzle
	BoostChance float64 // chance to bump difficulty one tier
	Template    []Slot
}

// DefaultGenConfig returns the standard 12x12 six-word layout: across
// words on rows 2/4/6 and down words starting at row 8, columns 6/8/10.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		GridSize:    12,
		WordCount:   6,
		ShortMax:    4,
		ShortBias:   4,
		BoostChance: 0.08,
		Template: []Slot{
			{Number: 1, Direction: Across, Row: 2, Col: 1},
			{Number: 3, Direction: Across, Row: 4, Col: 1},
			{Number: 5, Direction: Across, Row: 6, Col: 1},
			{Number: 2, Direction: Down, Row: 8, Col: 6},
			{Number: 4, Direction: Down, Row: 8, Col: 8},
			{Number: 6, Direction: Down, Row: 8, Col: 10},
		},
	}
}

// Generator builds puzzles from a question source.
type Generator struct {
	cfg    GenConfig
	src    QuestionSource
	baseFn func(level int) Difficulty
	rng    *rand.Rand
}

// NewGenerator wires a generator. baseFn maps a player level to its base
// difficulty tier (supplied by the progression package). The template is
// validated against the grid: a slot whose start lies outside the board
// is a configuration error.
func NewGenerator(cfg GenConfig, src QuestionSource, baseFn func(int) Difficulty, rng *rand.Rand) (*Generator, error) {
	for _, s := range cfg.Template {
		if s.Row < 0 || s.Row >= cfg.GridSize || s.Col < 0 || s.Col >= cfg.GridSize {
			return nil, fmt.Errorf("template slot %d-%s starts outside %dx%d grid", s.Number, s.Direction, cfg.GridSize, cfg.GridSize)
		}
	}
	return &Generator{cfg: cfg, src: src, baseFn: baseFn, rng: rng}, nil
}

// DifficultyForLevel returns the tier for a level, possibly boosted one
// tier harder. Consumes one draw from the RNG.
func (g *Generator) DifficultyForLevel(level int) Difficulty {
	d := g.baseFn(level)
	if g.rng.Float64() < g.cfg.BoostChance {
		return d.Next()
	}
	return d
}

// Generate builds a new puzzle for the given player level.
//
// If the bank holds fewer than WordCount questions for the difficulty,
// the available pool is reused to pad rather than failing. A question
// whose answer cannot fit its template slot is skipped.
func (g *Generator) Generate(ctx context.Context, level int) (*Puzzle, error) {
	difficulty := g.DifficultyForLevel(level)
	pool, err := g.src.Questions(ctx, difficulty)
	if err != nil {
		return nil, fmt.Errorf("load %s questions: %w", difficulty, err)
	}
	if len(pool) == 0 {
		return nil, errors.New("question bank is empty for " + string(difficulty))
	}

	selected := g.selectWords(pool)

	p := &Puzzle{
		GridSize:   g.cfg.GridSize,
		Cells:      emptyGrid(g.cfg.GridSize),
		Difficulty: difficulty,
		Level:      level,
	}

	// Each slot takes the first unplaced question that fits it.
	// Tighter slots choose first so the low down columns get the short
	// answers before the wide across rows use them up.
	order := make([]int, len(g.cfg.Template))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return slotCapacity(g.cfg.Template[order[a]], g.cfg.GridSize) <
			slotCapacity(g.cfg.Template[order[b]], g.cfg.GridSize)
	})

	used := make([]bool, len(selected))
	for _, ti := range order {
		slot := g.cfg.Template[ti]
		pick := -1
		for i, q := range selected {
			if !used[i] && fits(slot, len(canonical(q.Answer)), g.cfg.GridSize) {
				pick = i
				break
			}
		}
		if pick < 0 {
			continue
		}
		used[pick] = true
		q := selected[pick]
		answer := canonical(q.Answer)
		clue := Clue{
			Number:     slot.Number,
			Text:       q.Text,
			Answer:     answer,
			Direction:  slot.Direction,
			Length:     len(answer),
			StartRow:   slot.Row,
			StartCol:   slot.Col,
			Difficulty: q.Difficulty,
		}
		for j := 0; j < clue.Length; j++ {
			if slot.Direction == Across {
				p.Cells[slot.Row][slot.Col+j] = "_"
			} else {
				p.Cells[slot.Row+j][slot.Col] = "_"
			}
		}
		if slot.Direction == Across {
			p.Clues.Across = append(p.Clues.Across, clue)
		} else {
			p.Clues.Down = append(p.Clues.Down, clue)
		}
	}

	sort.Slice(p.Clues.Across, func(i, j int) bool { return p.Clues.Across[i].Number < p.Clues.Across[j].Number })
	sort.Slice(p.Clues.Down, func(i, j int) bool { return p.Clues.Down[i].Number < p.Clues.Down[j].Number })
	return p, nil
}

// selectWords shuffles the pool and picks WordCount questions, filling
// ShortBias slots with short answers first and topping up with longer
// ones. A thin pool is padded by cycling what is available.
func (g *Generator) selectWords(pool []Question) []Question {
	shuffled := make([]Question, len(pool))
	copy(shuffled, pool)
	g.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var short, long []Question
	for _, q := range shuffled {
		if len(canonical(q.Answer)) <= g.cfg.ShortMax {
			short = append(short, q)
		} else {
			long = append(long, q)
		}
	}

	selected := make([]Question, 0, g.cfg.WordCount)
	selected = append(selected, take(short, g.cfg.ShortBias)...)
	selected = append(selected, take(long, g.cfg.WordCount-len(selected))...)
	for _, q := range shuffled {
		if len(selected) >= g.cfg.WordCount {
			break
		}
		if !contains(selected, q.ID) {
			selected = append(selected, q)
		}
	}
	// Pad by cycling when the pool is smaller than needed.
	for i := 0; len(selected) < g.cfg.WordCount; i++ {
		selected = append(selected, shuffled[i%len(shuffled)])
	}
	return selected[:g.cfg.WordCount]
}

// slotCapacity is the longest answer a slot can hold.
func slotCapacity(s Slot, gridSize int) int {
	if s.Direction == Across {
		return gridSize - s.Col
	}
	return gridSize - s.Row
}

func fits(s Slot, length, gridSize int) bool {
	if s.Direction == Across {
		return s.Col+length <= gridSize
	}
	return s.Row+length <= gridSize
}

func emptyGrid(n int) [][]string {
	cells := make([][]string, n)
	for i := range cells {
		cells[i] = make([]string, n)
	}
	return cells
}

// canonical uppercases and strips non-alphanumerics, matching the
// canonical answer form used by validation.
func canonical(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func take(qs []Question, n int) []Question {
	if n < 0 {
		n = 0
	}
	if n > len(qs) {
		n = len(qs)
	}
	return qs[:n]
}

func contains(qs []Question, id string) bool {
	for _, q := range qs {
		if q.ID == id {
			return true
		}
	}
	return false
}
