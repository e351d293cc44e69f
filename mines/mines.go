package mines

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// CellState is the display state of a single board cell. A cell starts
// Hidden and moves to one of the other states through Flag and Dig calls.
// Detonated and Lava are terminal: reaching either one kills the board.
type CellState byte

const (
	Hidden CellState = iota
	Flagged
	Revealed
	Detonated // dug up a mine
	Lava      // dug a cell that was no longer hidden
)

// Codes returned by Neighborhood. Revealed cells report their neighbor
// count (0-8) instead. Downstream consumers persist these values, so they
// must never change.
const (
	CodeUnknown     = -1
	CodeFlag        = -2
	CodeMine        = -3
	CodeLava        = -4
	CodeOutOfBounds = -5
)

var (
	ErrInvalidDimension = errors.New("board dimensions must be positive")
	ErrInvalidMineCount = errors.New("mine count does not fit the board")
	ErrOutOfBounds      = errors.New("position outside the board")
	ErrDeadBoard        = errors.New("a dead board cannot be dug further")
)

// Point addresses one cell as (row, col), row-major from the top left.
type Point struct {
	Row int
	Col int
}

type Board struct {
	Rows  int
	Cols  int
	Mines int

	mineAt    [][]bool
	neighbors [][]int
	states    [][]CellState

	dugCount  int
	flagCount int
	dead      bool

	// Cells changed since the last snapshot. Rendering aid only.
	touched []Point
}

// NewBoard creates a board with mineCount mines placed uniformly at random.
// The same seed always produces the same mine layout, which is what makes
// move-log replay possible. An empty seed gives a non-reproducible layout.
func NewBoard(rows, cols, mineCount int, seed string) (*Board, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, rows, cols)
	}
	if mineCount < 0 || mineCount > rows*cols {
		return nil, fmt.Errorf("%w: %d mines on %dx%d", ErrInvalidMineCount, mineCount, rows, cols)
	}
	b := &Board{
		Rows:      rows,
		Cols:      cols,
		Mines:     mineCount,
		mineAt:    make([][]bool, rows),
		neighbors: make([][]int, rows),
		states:    make([][]CellState, rows),
	}
	for r := 0; r < rows; r++ {
		b.mineAt[r] = make([]bool, cols)
		b.neighbors[r] = make([]int, cols)
		b.states[r] = make([]CellState, cols)
	}
	rng := rand.New(rand.NewSource(seedValue(seed)))
	for _, index := range rng.Perm(rows * cols)[:mineCount] {
		b.mineAt[index/cols][index%cols] = true
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if !b.mineAt[row][col] {
				continue
			}
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					if b.InBounds(row+dr, col+dc) {
						b.neighbors[row+dr][col+dc]++
					}
				}
			}
		}
	}
	return b, nil
}

// seedValue hashes an arbitrary seed string into a rand source. Seeds are
// strings because callers derive them from game ids and similar labels.
func seedValue(seed string) int64 {
	if seed == "" {
		return time.Now().UnixNano()
	}
	h := fnv.New64a()
	h.Write([]byte(seed))
	return int64(h.Sum64())
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.Rows && col >= 0 && col < b.Cols
}

// Flag marks a cell, overwriting whatever state it had. There is no unflag
// and no check against flagging a revealed cell; recorded move logs replay
// byte for byte only if it stays that way.
func (b *Board) Flag(row, col int) error {
	if !b.InBounds(row, col) {
		return fmt.Errorf("%w: flag at (%d, %d)", ErrOutOfBounds, row, col)
	}
	b.states[row][col] = Flagged
	b.flagCount++
	b.touch(row, col)
	return nil
}

// Dig reveals a cell and reports whether the board survived the move.
// Digging outside the board is a harmless no-op, digging a mine detonates
// it, and digging any cell that is no longer hidden turns it to lava and
// kills the board as well. Dying is an outcome, not an error; the only
// error is digging on a board that is already dead.
func (b *Board) Dig(row, col int) (bool, error) {
	if b.dead {
		return false, ErrDeadBoard
	}
	if !b.InBounds(row, col) {
		// No mines outside the board anyway.
		return true, nil
	}
	if b.mineAt[row][col] {
		b.states[row][col] = Detonated
		b.dead = true
		b.touch(row, col)
		return false, nil
	}
	if b.states[row][col] != Hidden {
		b.states[row][col] = Lava
		b.dead = true
		b.touch(row, col)
		return false, nil
	}
	b.states[row][col] = Revealed
	b.dugCount++
	b.touch(row, col)
	if b.neighbors[row][col] == 0 {
		b.cascade(row, col)
	}
	return true, nil
}

// cascade reveals the region of zero-neighbor cells connected to (row, col)
// together with its numbered rim. An explicit worklist keeps the stack flat
// on large boards; flagged cells are skipped, never auto-revealed.
func (b *Board) cascade(row, col int) {
	seen := make(map[Point]bool)
	work := b.hiddenNeighbors(row, col, nil)
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		if seen[p] {
			continue
		}
		seen[p] = true
		b.states[p.Row][p.Col] = Revealed
		b.dugCount++
		b.touch(p.Row, p.Col)
		if b.neighbors[p.Row][p.Col] == 0 {
			work = b.hiddenNeighbors(p.Row, p.Col, work)
		}
	}
}

func (b *Board) hiddenNeighbors(row, col int, work []Point) []Point {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			r, c := row+dr, col+dc
			if b.InBounds(r, c) && b.states[r][c] == Hidden {
				work = append(work, Point{r, c})
			}
		}
	}
	return work
}

func (b *Board) touch(row, col int) {
	b.touched = append(b.touched, Point{row, col})
}

// Dead reports whether a mine was detonated or a non-hidden cell was re-dug.
func (b *Board) Dead() bool {
	return b.dead
}

// Won reports whether every cell without a mine has been revealed. Flags
// play no part in this on purpose: flagging all mines wins nothing.
func (b *Board) Won() bool {
	return b.Rows*b.Cols-b.dugCount == b.Mines
}

func (b *Board) NumMinesTotal() int {
	return b.Mines
}

// NumUnflagged is the player's mine estimate: mines minus flags planted.
// Over-flagging drives it negative; it is not clamped.
func (b *Board) NumUnflagged() int {
	return b.Mines - b.flagCount
}

func (b *Board) NumFlagged() int {
	return b.flagCount
}

func (b *Board) DugCount() int {
	return b.dugCount
}

// State returns the display state of an in-bounds cell.
func (b *Board) State(row, col int) CellState {
	return b.states[row][col]
}

// NeighborCount returns the number of mines among the up-to-8 cells around
// an in-bounds cell. The table is precomputed at construction.
func (b *Board) NeighborCount(row, col int) int {
	return b.neighbors[row][col]
}

func (b *Board) IsMine(row, col int) bool {
	return b.mineAt[row][col]
}

// Neighborhood returns the board as seen through a square window of the
// given radius centered on (row, col), in row-major order. Revealed cells
// give their neighbor count, everything else one of the Code* sentinels.
func (b *Board) Neighborhood(row, col, radius int) []int {
	codes := make([]int, 0, (2*radius+1)*(2*radius+1))
	for r := row - radius; r <= row+radius; r++ {
		for c := col - radius; c <= col+radius; c++ {
			codes = append(codes, b.cellCode(r, c))
		}
	}
	return codes
}

func (b *Board) cellCode(row, col int) int {
	if !b.InBounds(row, col) {
		return CodeOutOfBounds
	}
	switch b.states[row][col] {
	case Hidden:
		return CodeUnknown
	case Flagged:
		return CodeFlag
	case Detonated:
		return CodeMine
	case Lava:
		return CodeLava
	default:
		return b.neighbors[row][col]
	}
}
