package web_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/digbot/minesweeper/mines"
	"github.com/digbot/minesweeper/web"
)

func dialHub(t *testing.T, hub *web.Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial hub: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readState(t *testing.T, conn *websocket.Conn) web.GameState {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var state web.GameState
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("Failed to read state: %v", err)
	}
	return state
}

func TestHubPlaysAGame(t *testing.T) {
	hub, err := web.NewHub(mines.GameParams{Rows: 2, Cols: 2, Mines: 0}, "test")
	if err != nil {
		t.Fatalf("Failed to create hub: %v", err)
	}
	conn := dialHub(t, hub)

	state := readState(t, conn)
	if state.Rows != 2 || state.Cols != 2 || state.Mines != 0 {
		t.Fatalf("Initial state %+v", state)
	}
	if state.Grid != "..\n..\n" {
		t.Fatalf("Initial grid %q", state.Grid)
	}

	if err := conn.WriteJSON(web.ClientMove{Type: "dig", Row: 0, Col: 0}); err != nil {
		t.Fatalf("Failed to send move: %v", err)
	}
	state = readState(t, conn)
	if !state.Won || state.Dead {
		t.Fatalf("Expected a won game, got %+v", state)
	}
	if state.Grid != "  \n  \n" {
		t.Fatalf("Post-win grid %q", state.Grid)
	}
}

func TestHubStartsFreshGames(t *testing.T) {
	hub, err := web.NewHub(mines.GameParams{Rows: 1, Cols: 1, Mines: 1}, "test")
	if err != nil {
		t.Fatalf("Failed to create hub: %v", err)
	}
	conn := dialHub(t, hub)
	readState(t, conn)

	if err := conn.WriteJSON(web.ClientMove{Type: "dig", Row: 0, Col: 0}); err != nil {
		t.Fatalf("Failed to send move: %v", err)
	}
	state := readState(t, conn)
	if !state.Dead {
		t.Fatalf("Expected a dead game, got %+v", state)
	}

	// Digging a dead board is rejected but reported, never fatal.
	if err := conn.WriteJSON(web.ClientMove{Type: "dig", Row: 0, Col: 0}); err != nil {
		t.Fatalf("Failed to send move: %v", err)
	}
	state = readState(t, conn)
	if state.Error == "" {
		t.Fatalf("Expected an error in state, got %+v", state)
	}

	if err := conn.WriteJSON(web.ClientMove{Type: "new"}); err != nil {
		t.Fatalf("Failed to send move: %v", err)
	}
	state = readState(t, conn)
	if state.Dead || state.Game != 2 {
		t.Fatalf("Expected a fresh second game, got %+v", state)
	}
}
