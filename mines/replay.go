package mines

import (
	"errors"
	"fmt"
)

var ErrBadMoveLog = errors.New("malformed move log")

// Replay builds a fresh board from the seed and applies a recorded move
// log in order. Because mine layout is a pure function of the seed, the
// resulting board is identical to the one the moves were first played on.
//
// A New marker is only valid as move 0. A duplicate dig in the log kills
// the board just as it did live, which is exactly how stale or repeated
// commands get rejected during replay; moves after the death are an error
// because no recorder could have produced them.
func Replay(params GameParams, seed string, moves []Move) (*Board, error) {
	board, err := NewBoardFromParams(params, seed)
	if err != nil {
		return nil, err
	}
	for i, move := range moves {
		if move.Type == New {
			if i != 0 {
				return nil, fmt.Errorf("%w: move %d is New", ErrBadMoveLog, i)
			}
			continue
		}
		if _, err := board.MakeMove(move); err != nil {
			return nil, fmt.Errorf("%w: move %d %s: %v", ErrBadMoveLog, i, move, err)
		}
	}
	return board, nil
}
