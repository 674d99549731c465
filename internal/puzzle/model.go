// internal/puzzle/model.go
//
// Pure query functions over a generated puzzle.
// Responsibilities:
//   - Clue lookup by identity key and by covered cell.
//   - Resolving the currently-known letter at a cell from an answer map.
//   - Word-cell membership and span checks used by the session layer.
//
// No function here mutates the puzzle.

package puzzle

import "fmt"

// Key builds the canonical clue identity key from number and direction.
func Key(number int, dir Direction) string {
	return fmt.Sprintf("%d-%s", number, dir)
}

// AllClues returns across clues followed by down clues.
func (p *Puzzle) AllClues() []Clue {
	out := make([]Clue, 0, len(p.Clues.Across)+len(p.Clues.Down))
	out = append(out, p.Clues.Across...)
	out = append(out, p.Clues.Down...)
	return out
}

// Clue resolves a clue by its identity key parts, or false if absent.
func (p *Puzzle) Clue(number int, dir Direction) (Clue, bool) {
	list := p.Clues.Across
	if dir == Down {
		list = p.Clues.Down
	}
	for _, c := range list {
		if c.Number == number {
			return c, true
		}
	}
	return Clue{}, false
}

// Covers reports whether the clue's span includes the cell, and the
// letter index within the answer if it does.
func (c Clue) Covers(row, col int) (int, bool) {
	if c.Direction == Across {
		if row == c.StartRow && col >= c.StartCol && col < c.StartCol+c.Length {
			return col - c.StartCol, true
		}
		return -1, false
	}
	if col == c.StartCol && row >= c.StartRow && row < c.StartRow+c.Length {
		return row - c.StartRow, true
	}
	return -1, false
}

// FindClueAt returns the across and/or down clues covering a cell.
// Either pointer may be nil when no clue in that direction covers it.
func (p *Puzzle) FindClueAt(row, col int) (across, down *Clue) {
	for i := range p.Clues.Across {
		if _, ok := p.Clues.Across[i].Covers(row, col); ok {
			across = &p.Clues.Across[i]
			break
		}
	}
	for i := range p.Clues.Down {
		if _, ok := p.Clues.Down[i].Covers(row, col); ok {
			down = &p.Clues.Down[i]
			break
		}
	}
	return across, down
}

// SelectAt picks the clue a cell click should select. Across wins when
// both directions cover the cell; clicking a cell of the already
// selected word toggles to the other direction if one exists.
func (p *Puzzle) SelectAt(row, col int, selected *Clue) *Clue {
	across, down := p.FindClueAt(row, col)
	next := across
	if next == nil {
		next = down
	}
	if selected != nil && next != nil &&
		selected.Number == next.Number && selected.Direction == next.Direction {
		if selected.Direction == Across && down != nil {
			return down
		}
		if across != nil {
			return across
		}
		return down
	}
	return next
}

// IsWordCell reports whether the cell at (row, col) belongs to a word
// span. Out-of-bounds coordinates are never word cells.
func (p *Puzzle) IsWordCell(row, col int) bool {
	if row < 0 || row >= p.GridSize || col < 0 || col >= p.GridSize {
		return false
	}
	return p.Cells[row][col] == "_"
}

// CellLetter resolves the currently-known letter at a cell by scanning
// every clue that covers it and indexing into the corresponding answer
// text from answers (keyed by clue key). Returns "" when no covering
// clue has a letter at that position yet.
func (p *Puzzle) CellLetter(row, col int, answers map[string]string) string {
	for _, c := range p.AllClues() {
		idx, ok := c.Covers(row, col)
		if !ok {
			continue
		}
		if text := answers[c.Key()]; idx < len(text) {
			return string(text[idx])
		}
	}
	return ""
}
