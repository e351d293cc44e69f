package mines_test

import (
	"errors"
	"testing"

	"github.com/digbot/minesweeper/mines"
)

func mustBoard(t *testing.T, rows, cols, mineCount int, seed string) *mines.Board {
	t.Helper()
	board, err := mines.NewBoard(rows, cols, mineCount, seed)
	if err != nil {
		t.Fatalf("Failed to create %dx%d board with %d mines: %v", rows, cols, mineCount, err)
	}
	return board
}

func mustDig(t *testing.T, board *mines.Board, row, col int) bool {
	t.Helper()
	survived, err := board.Dig(row, col)
	if err != nil {
		t.Fatalf("Dig(%d, %d) failed: %v", row, col, err)
	}
	return survived
}

func findMine(t *testing.T, board *mines.Board) (int, int) {
	t.Helper()
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			if board.IsMine(row, col) {
				return row, col
			}
		}
	}
	t.Fatalf("Board has no mines")
	return 0, 0
}

func TestInvalidBoardParams(t *testing.T) {
	cases := []struct {
		rows, cols, mineCount int
		want                  error
	}{
		{0, 5, 1, mines.ErrInvalidDimension},
		{5, 0, 1, mines.ErrInvalidDimension},
		{-1, 5, 1, mines.ErrInvalidDimension},
		{5, 5, -1, mines.ErrInvalidMineCount},
		{5, 5, 26, mines.ErrInvalidMineCount},
	}
	for _, c := range cases {
		board, err := mines.NewBoard(c.rows, c.cols, c.mineCount, "seed")
		if board != nil {
			t.Fatalf("Got a board for (%d, %d, %d)", c.rows, c.cols, c.mineCount)
		}
		if !errors.Is(err, c.want) {
			t.Fatalf("(%d, %d, %d): expected %v, got %v", c.rows, c.cols, c.mineCount, c.want, err)
		}
	}
}

func TestMinePlacement(t *testing.T) {
	cases := []struct {
		rows, cols, mineCount int
	}{
		{8, 8, 10},
		{3, 7, 0},
		{2, 2, 4},
		{1, 1, 1},
		{24, 24, 99},
	}
	for _, c := range cases {
		board := mustBoard(t, c.rows, c.cols, c.mineCount, "placement")
		count := 0
		for row := 0; row < board.Rows; row++ {
			for col := 0; col < board.Cols; col++ {
				if board.IsMine(row, col) {
					count++
				}
			}
		}
		if count != c.mineCount {
			t.Fatalf("%dx%d: expected %d mines, found %d", c.rows, c.cols, c.mineCount, count)
		}
	}
}

func TestNeighborCounts(t *testing.T) {
	board := mustBoard(t, 9, 6, 13, "neighbors")
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			want := 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					if board.InBounds(row+dr, col+dc) && board.IsMine(row+dr, col+dc) {
						want++
					}
				}
			}
			if got := board.NeighborCount(row, col); got != want {
				t.Fatalf("Cell (%d, %d): expected %d neighboring mines, got %d", row, col, want, got)
			}
		}
	}
}

func TestSeedDeterminism(t *testing.T) {
	first := mustBoard(t, 16, 16, 40, "game-7")
	second := mustBoard(t, 16, 16, 40, "game-7")
	other := mustBoard(t, 16, 16, 40, "game-8")
	identical := true
	for row := 0; row < first.Rows; row++ {
		for col := 0; col < first.Cols; col++ {
			if first.IsMine(row, col) != second.IsMine(row, col) {
				t.Fatalf("Same seed placed different mines at (%d, %d)", row, col)
			}
			if first.NeighborCount(row, col) != second.NeighborCount(row, col) {
				t.Fatalf("Same seed computed different neighbor counts at (%d, %d)", row, col)
			}
			if first.IsMine(row, col) != other.IsMine(row, col) {
				identical = false
			}
		}
	}
	if identical {
		t.Fatalf("Different seeds produced the same 16x16 layout")
	}
}

func TestDigMineDies(t *testing.T) {
	board := mustBoard(t, 8, 8, 10, "boom")
	row, col := findMine(t, board)
	if survived := mustDig(t, board, row, col); survived {
		t.Fatalf("Survived digging a mine")
	}
	if !board.Dead() {
		t.Fatalf("Board not dead after detonation")
	}
	if board.State(row, col) != mines.Detonated {
		t.Fatalf("Mine cell in state %d, expected Detonated", board.State(row, col))
	}
}

func TestOneCellMineBoard(t *testing.T) {
	board := mustBoard(t, 1, 1, 1, "tiny")
	if survived := mustDig(t, board, 0, 0); survived {
		t.Fatalf("Survived the only cell being a mine")
	}
	if !board.Dead() {
		t.Fatalf("Board not dead")
	}
}

func TestDeadBoardCannotDig(t *testing.T) {
	board := mustBoard(t, 1, 1, 1, "tiny")
	mustDig(t, board, 0, 0)
	if _, err := board.Dig(0, 0); !errors.Is(err, mines.ErrDeadBoard) {
		t.Fatalf("Expected ErrDeadBoard, got %v", err)
	}
}

func TestDigOutOfBoundsIsNoop(t *testing.T) {
	board := mustBoard(t, 4, 4, 4, "edges")
	for _, p := range []mines.Point{{Row: -1, Col: 0}, {Row: 0, Col: -1}, {Row: 4, Col: 0}, {Row: 0, Col: 4}, {Row: 100, Col: 100}} {
		if survived := mustDig(t, board, p.Row, p.Col); !survived {
			t.Fatalf("Out-of-bounds dig at %v killed the board", p)
		}
	}
	if board.DugCount() != 0 {
		t.Fatalf("Out-of-bounds digs revealed %d cells", board.DugCount())
	}
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			if board.State(row, col) != mines.Hidden {
				t.Fatalf("Cell (%d, %d) changed state", row, col)
			}
		}
	}
}

func TestFlagOutOfBoundsFails(t *testing.T) {
	board := mustBoard(t, 4, 4, 4, "edges")
	if err := board.Flag(4, 4); !errors.Is(err, mines.ErrOutOfBounds) {
		t.Fatalf("Expected ErrOutOfBounds, got %v", err)
	}
}

func TestFlagOverwrites(t *testing.T) {
	board := mustBoard(t, 2, 2, 0, "flags")
	if err := board.Flag(0, 0); err != nil {
		t.Fatalf("Flag failed: %v", err)
	}
	if err := board.Flag(0, 0); err != nil {
		t.Fatalf("Re-flag failed: %v", err)
	}
	if board.NumFlagged() != 2 {
		t.Fatalf("Expected flag count 2, got %d", board.NumFlagged())
	}
	if board.NumUnflagged() != -2 {
		t.Fatalf("Expected unflagged estimate -2, got %d", board.NumUnflagged())
	}
}

func TestFlagRevealedCellThenDigKills(t *testing.T) {
	board := mustBoard(t, 2, 2, 1, "lava")
	row, col := 0, 0
	for board.IsMine(row, col) {
		col++
		if col == board.Cols {
			row, col = row+1, 0
		}
	}
	if survived := mustDig(t, board, row, col); !survived {
		t.Fatalf("Died on a safe cell")
	}
	if err := board.Flag(row, col); err != nil {
		t.Fatalf("Flag on revealed cell failed: %v", err)
	}
	if board.State(row, col) != mines.Flagged {
		t.Fatalf("Flag did not overwrite revealed state")
	}
	if survived := mustDig(t, board, row, col); survived {
		t.Fatalf("Survived re-digging a flagged cell")
	}
	if board.State(row, col) != mines.Lava {
		t.Fatalf("Re-dug cell in state %d, expected Lava", board.State(row, col))
	}
}

func TestRedigRevealedCellKills(t *testing.T) {
	board := mustBoard(t, 8, 8, 0, "empty")
	if survived := mustDig(t, board, 0, 0); !survived {
		t.Fatalf("Died on an empty board")
	}
	// (4, 4) was auto-revealed by the flood fill; re-digging it is fatal.
	if survived := mustDig(t, board, 4, 4); survived {
		t.Fatalf("Survived re-digging a flood-filled cell")
	}
	if !board.Dead() {
		t.Fatalf("Board not dead after re-dig")
	}
	if board.State(4, 4) != mines.Lava {
		t.Fatalf("Re-dug cell in state %d, expected Lava", board.State(4, 4))
	}
}

func TestFloodFillRevealsWholeEmptyBoard(t *testing.T) {
	board := mustBoard(t, 8, 8, 0, "S")
	if survived := mustDig(t, board, 0, 0); !survived {
		t.Fatalf("Died on an empty board")
	}
	if board.DugCount() != 64 {
		t.Fatalf("Expected all 64 cells revealed, got %d", board.DugCount())
	}
	if !board.Won() {
		t.Fatalf("Fully revealed empty board not won")
	}
}

func TestFloodFillStopsAtFlags(t *testing.T) {
	board := mustBoard(t, 1, 5, 0, "corridor")
	if err := board.Flag(0, 2); err != nil {
		t.Fatalf("Flag failed: %v", err)
	}
	mustDig(t, board, 0, 0)
	wantStates := []mines.CellState{mines.Revealed, mines.Revealed, mines.Flagged, mines.Hidden, mines.Hidden}
	for col, want := range wantStates {
		if got := board.State(0, col); got != want {
			t.Fatalf("Cell (0, %d) in state %d, expected %d", col, got, want)
		}
	}
}

func TestWinIgnoresFlags(t *testing.T) {
	board := mustBoard(t, 2, 2, 1, "flags-no-win")
	mineRow, mineCol := findMine(t, board)
	if err := board.Flag(mineRow, mineCol); err != nil {
		t.Fatalf("Flag failed: %v", err)
	}
	if board.Won() {
		t.Fatalf("Won with every mine flagged but safe cells still hidden")
	}
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			if !board.IsMine(row, col) {
				mustDig(t, board, row, col)
			}
		}
	}
	if board.Dead() {
		t.Fatalf("Died digging only safe cells")
	}
	if !board.Won() {
		t.Fatalf("Not won with every safe cell revealed")
	}
}

func TestNeighborhoodCodes(t *testing.T) {
	board := mustBoard(t, 3, 3, 0, "window")
	if err := board.Flag(0, 0); err != nil {
		t.Fatalf("Flag failed: %v", err)
	}
	mustDig(t, board, 2, 2)

	got := board.Neighborhood(1, 1, 1)
	want := []int{mines.CodeFlag, 0, 0, 0, 0, 0, 0, 0, 0}
	assertCodes(t, got, want)

	got = board.Neighborhood(0, 0, 1)
	want = []int{
		mines.CodeOutOfBounds, mines.CodeOutOfBounds, mines.CodeOutOfBounds,
		mines.CodeOutOfBounds, mines.CodeFlag, 0,
		mines.CodeOutOfBounds, 0, 0,
	}
	assertCodes(t, got, want)

	if window := board.Neighborhood(1, 1, 2); len(window) != 25 {
		t.Fatalf("Radius 2 window has %d codes, expected 25", len(window))
	}
}

func TestNeighborhoodHiddenAndCounts(t *testing.T) {
	board := mustBoard(t, 2, 2, 1, "counts")
	mineRow, mineCol := findMine(t, board)
	safeRow, safeCol := 1-mineRow, 1-mineCol // diagonal opposite is never the mine
	mustDig(t, board, safeRow, safeCol)
	got := board.Neighborhood(safeRow, safeCol, 0)
	assertCodes(t, got, []int{1})
	if code := board.Neighborhood(mineRow, mineCol, 0)[0]; code != mines.CodeUnknown {
		t.Fatalf("Hidden mine cell coded %d, expected %d", code, mines.CodeUnknown)
	}
}

func TestNeighborhoodTerminalCodes(t *testing.T) {
	detonated := mustBoard(t, 1, 1, 1, "boom")
	mustDig(t, detonated, 0, 0)
	assertCodes(t, detonated.Neighborhood(0, 0, 1), []int{
		mines.CodeOutOfBounds, mines.CodeOutOfBounds, mines.CodeOutOfBounds,
		mines.CodeOutOfBounds, mines.CodeMine, mines.CodeOutOfBounds,
		mines.CodeOutOfBounds, mines.CodeOutOfBounds, mines.CodeOutOfBounds,
	})

	lava := mustBoard(t, 2, 2, 0, "lava")
	mustDig(t, lava, 0, 0)
	mustDig(t, lava, 0, 0)
	if code := lava.Neighborhood(0, 0, 0)[0]; code != mines.CodeLava {
		t.Fatalf("Lava cell coded %d, expected %d", code, mines.CodeLava)
	}
}

func assertCodes(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Got %d codes, expected %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Code %d is %d, expected %d (full window %v)", i, got[i], want[i], got)
		}
	}
}
