package main

import (
	"log"
	"net/http"
	"os"

	"github.com/digbot/minesweeper/mines"
	"github.com/digbot/minesweeper/web"
)

func main() {
	hub, err := web.NewHub(mines.BeginnerParams, "web")
	if err != nil {
		log.Fatalf("failed to create hub: %v", err)
	}
	http.Handle("/ws", hub)
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("listening on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
