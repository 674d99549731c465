// internal/puzzle/types.go
//
// Core type definitions for the crossword puzzle model.
// Defines:
//   - Difficulty: ordered question/reward tier (easy → mythical).
//   - Direction: clue orientation (across | down).
//   - Question: one entry of the question bank.
//   - Clue: a placed word with position, length and number.
//   - Puzzle: the full board (cell layout plus across/down clue sets).

package puzzle

// Difficulty is an ordered tier controlling the question pool and rewards.
type Difficulty string

const (
	Easy     Difficulty = "easy"
	Normal   Difficulty = "normal"
	Hard     Difficulty = "hard"
	Legend   Difficulty = "legend"
	Mythical Difficulty = "mythical"
)

// Tiers lists all difficulties in ascending order of hardness.
var Tiers = []Difficulty{Easy, Normal, Hard, Legend, Mythical}

// Next returns the next-harder tier, clamped at the top.
func (d Difficulty) Next() Difficulty {
	for i, t := range Tiers {
		if t == d && i+1 < len(Tiers) {
			return Tiers[i+1]
		}
	}
	return Tiers[len(Tiers)-1]
}

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	for _, t := range Tiers {
		if t == d {
			return true
		}
	}
	return false
}

// Direction is the orientation of a placed clue.
type Direction string

const (
	Across Direction = "across"
	Down   Direction = "down"
)

// Question is one entry of the question bank. Immutable once loaded;
// the answer is stored canonically as uppercase alphanumerics.
type Question struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Answer     string     `json:"answer"`
	Difficulty Difficulty `json:"difficulty"`
	Category   string     `json:"category"`
}

// Clue is one placed word within a puzzle. Identity within a puzzle is
// (Number, Direction).
type Clue struct {
	Number     int        `json:"number"`
	Text       string     `json:"text"`
	Answer     string     `json:"answer"`
	Direction  Direction  `json:"direction"`
	Length     int        `json:"length"`
	StartRow   int        `json:"startRow"`
	StartCol   int        `json:"startCol"`
	Difficulty Difficulty `json:"difficulty"`
}

// Key returns the clue's identity key, e.g. "3-across".
func (c Clue) Key() string { return Key(c.Number, c.Direction) }

// ClueSet holds a puzzle's clues grouped by direction, each sorted by
// clue number ascending.
type ClueSet struct {
	Across []Clue `json:"across"`
	Down   []Clue `json:"down"`
}

// Puzzle is the full crossword board. Cells hold "" for dead cells and
// "_" for cells belonging to a word span. A Puzzle is immutable after
// generation; advancing a level regenerates it wholesale.
type Puzzle struct {
	GridSize   int        `json:"gridSize"`
	Cells      [][]string `json:"grid"`
	Clues      ClueSet    `json:"clues"`
	Difficulty Difficulty `json:"difficulty"`
	Level      int        `json:"level"`
}
