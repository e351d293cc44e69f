package mines

import (
	"fmt"
	"strconv"
	"strings"
)

// MoveType is the command vocabulary callers record and replay. New is a
// game-start marker consumed by the callers' own bookkeeping; the board
// treats it as a no-op.
type MoveType byte

const (
	New  MoveType = 0x00
	Dig  MoveType = 0x01
	Flag MoveType = 0x02
)

type Move struct {
	Row  int
	Col  int
	Type MoveType
}

func (move Move) String() string {
	msg := fmt.Sprintf("(%d, %d) ", move.Row, move.Col)
	switch move.Type {
	case New:
		return msg + "New"
	case Dig:
		return msg + "Dig"
	case Flag:
		return msg + "Flag"
	default:
		return msg + "UNKNOWN"
	}
}

// GameParams is the board shape callers pass around, over the wire and in
// move logs.
type GameParams struct {
	Rows  int
	Cols  int
	Mines int
}

func NewBoardFromParams(params GameParams, seed string) (*Board, error) {
	return NewBoard(params.Rows, params.Cols, params.Mines, seed)
}

// The classic difficulty presets.
var (
	BeginnerParams     = GameParams{Rows: 8, Cols: 8, Mines: 10}
	IntermediateParams = GameParams{Rows: 16, Cols: 16, Mines: 40}
	ExpertParams       = GameParams{Rows: 24, Cols: 24, Mines: 99}
)

func Beginner(seed string) (*Board, error) {
	return NewBoardFromParams(BeginnerParams, seed)
}

func Intermediate(seed string) (*Board, error) {
	return NewBoardFromParams(IntermediateParams, seed)
}

func Expert(seed string) (*Board, error) {
	return NewBoardFromParams(ExpertParams, seed)
}

// MakeMove applies a recorded move and reports whether the board survived.
func (b *Board) MakeMove(move Move) (bool, error) {
	switch move.Type {
	case New:
		return true, nil
	case Dig:
		return b.Dig(move.Row, move.Col)
	case Flag:
		if err := b.Flag(move.Row, move.Col); err != nil {
			return false, err
		}
		return !b.dead, nil
	default:
		return false, fmt.Errorf("invalid move type %x", move.Type)
	}
}

// ParseTextCommand turns a line of player input into a Move. Accepted
// forms: "new", "dig R C", "flag R C", plus the bare "R C" and "R C f"
// shorthands.
func ParseTextCommand(text string) (Move, error) {
	fields := strings.Fields(strings.ToLower(text))
	switch {
	case len(fields) == 1 && fields[0] == "new":
		return Move{Type: New}, nil
	case len(fields) == 3 && (fields[0] == "dig" || fields[0] == "flag"):
		row, col, err := parseGridpoint(fields[1], fields[2])
		if err != nil {
			return Move{}, err
		}
		moveType := Dig
		if fields[0] == "flag" {
			moveType = Flag
		}
		return Move{Row: row, Col: col, Type: moveType}, nil
	case len(fields) == 2 || (len(fields) == 3 && fields[2] == "f"):
		row, col, err := parseGridpoint(fields[0], fields[1])
		if err != nil {
			return Move{}, err
		}
		moveType := Dig
		if len(fields) == 3 {
			moveType = Flag
		}
		return Move{Row: row, Col: col, Type: moveType}, nil
	default:
		return Move{}, fmt.Errorf("cannot parse move %q", text)
	}
}

func parseGridpoint(rowText, colText string) (int, int, error) {
	row, err := strconv.Atoi(rowText)
	if err != nil {
		return 0, 0, fmt.Errorf("bad row %q", rowText)
	}
	col, err := strconv.Atoi(colText)
	if err != nil {
		return 0, 0, fmt.Errorf("bad column %q", colText)
	}
	return row, col, nil
}
