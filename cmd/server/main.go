package main

import (
	"fmt"

	"github.com/digbot/minesweeper/server"
)

func main() {
	srv, err := server.Spawn(0, "Server", 42069)
	if err != nil {
		fmt.Println("Failed to start server:", err)
		return
	}
	fmt.Printf("%s started at %d\n", srv.Name, srv.Port)
	select {}
}
