package mines

import "strings"

// One fixed-width symbol per cell state, digits 1-8 for revealed counts.
const (
	symbolHidden    = '.'
	symbolFlag      = 'F'
	symbolDetonated = '#'
	symbolLava      = '~'
	symbolClear     = ' ' // revealed with zero neighbors
)

// Render draws the board as one symbol per cell, optionally framed by
// row and column tick headers (indices modulo 10). Taking a snapshot
// resets the recently-touched list.
func (b *Board) Render(includeTicks bool) string {
	var sb strings.Builder
	if includeTicks {
		sb.WriteByte(' ')
		for col := 0; col < b.Cols; col++ {
			sb.WriteByte(digit(col % 10))
		}
		sb.WriteByte('\n')
	}
	for row := 0; row < b.Rows; row++ {
		if includeTicks {
			sb.WriteByte(digit(row % 10))
		}
		for col := 0; col < b.Cols; col++ {
			sb.WriteByte(b.symbol(row, col))
		}
		sb.WriteByte('\n')
	}
	b.ResetTouched()
	return sb.String()
}

func (b *Board) symbol(row, col int) byte {
	switch b.states[row][col] {
	case Hidden:
		return symbolHidden
	case Flagged:
		return symbolFlag
	case Detonated:
		return symbolDetonated
	case Lava:
		return symbolLava
	default:
		if n := b.neighbors[row][col]; n > 0 {
			return digit(n)
		}
		return symbolClear
	}
}

func digit(n int) byte {
	return byte('0' + n)
}

// RecentlyTouched lists the cells changed since the last snapshot, in the
// order they changed. Renderers use it to redraw only what moved.
func (b *Board) RecentlyTouched() []Point {
	touched := make([]Point, len(b.touched))
	copy(touched, b.touched)
	return touched
}

// ResetTouched clears the recently-touched list. Render does this
// implicitly; callers that push cell updates over the wire instead of
// rendering call it once the updates are flushed.
func (b *Board) ResetTouched() {
	b.touched = nil
}
