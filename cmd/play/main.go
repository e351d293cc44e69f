package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/digbot/minesweeper/mines"
)

func main() {
	board, err := mines.Beginner("")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Minesweeper %dx%d, %d mines. Moves: \"R C\" digs, \"R C f\" flags.\n",
		board.Rows, board.Cols, board.NumMinesTotal())
	fmt.Print(board.Render(true))
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		move, err := mines.ParseTextCommand(scanner.Text())
		if err != nil {
			fmt.Println(err)
			continue
		}
		if move.Type == mines.New {
			if board, err = mines.Beginner(""); err != nil {
				fmt.Println(err)
				return
			}
			fmt.Print(board.Render(true))
			continue
		}
		survived, err := board.MakeMove(move)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Print(board.Render(true))
		fmt.Printf("Mines left (by your flags): %d\n", board.NumUnflagged())
		if !survived {
			fmt.Println("KABOOM! You died.")
			return
		}
		if board.Won() {
			fmt.Println("CLEARED! You win.")
			return
		}
	}
}
