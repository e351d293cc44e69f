// Package web bridges the board engine to browser collaborators over
// WebSocket, speaking the same {new, dig, flag} vocabulary as JSON.
package web

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/digbot/minesweeper/mines"
)

// ClientMove is one inbound JSON command.
type ClientMove struct {
	Type string `json:"type"` // "new", "dig" or "flag"
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

// GameState is the snapshot pushed to every client after each move.
type GameState struct {
	Game      int    `json:"game"`
	Rows      int    `json:"rows"`
	Cols      int    `json:"cols"`
	Mines     int    `json:"mines"`
	Unflagged int    `json:"unflagged"`
	Grid      string `json:"grid"`
	Dead      bool   `json:"dead"`
	Won       bool   `json:"won"`
	Error     string `json:"error,omitempty"`
}

// Hub owns one board and the set of connected sockets. All moves are
// applied under a single mutex, keeping one goroutine's hands on the
// engine at a time.
type Hub struct {
	params     mines.GameParams
	seedPrefix string
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	board   *mines.Board
	games   int
	clients map[*websocket.Conn]bool
}

// NewHub starts with one fresh board of the given shape. The seed prefix
// plus a game counter seeds each board, so any hosted game can be rebuilt.
func NewHub(params mines.GameParams, seedPrefix string) (*Hub, error) {
	hub := &Hub{
		params:   params,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]bool),
	}
	if seedPrefix == "" {
		seedPrefix = "web"
	}
	hub.seedPrefix = seedPrefix
	if err := hub.newGame(); err != nil {
		return nil, err
	}
	return hub, nil
}

func (hub *Hub) newGame() error {
	hub.games++
	board, err := mines.NewBoardFromParams(hub.params, fmt.Sprintf("%s-game-%d", hub.seedPrefix, hub.games))
	if err != nil {
		return err
	}
	hub.board = board
	return nil
}

func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	hub.mu.Lock()
	hub.clients[conn] = true
	conn.WriteJSON(hub.state(""))
	hub.mu.Unlock()

	go func() {
		defer func() {
			hub.mu.Lock()
			delete(hub.clients, conn)
			hub.mu.Unlock()
			conn.Close()
		}()
		for {
			var move ClientMove
			if err := conn.ReadJSON(&move); err != nil {
				return
			}
			hub.handleMove(move)
		}
	}()
}

func (hub *Hub) handleMove(move ClientMove) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	var moveErr error
	switch move.Type {
	case "new":
		moveErr = hub.newGame()
	case "dig":
		_, moveErr = hub.board.Dig(move.Row, move.Col)
	case "flag":
		moveErr = hub.board.Flag(move.Row, move.Col)
	default:
		moveErr = fmt.Errorf("unknown move type %q", move.Type)
	}
	if moveErr != nil && !recoverable(moveErr) {
		log.Printf("move %+v rejected: %v", move, moveErr)
	}
	hub.broadcast(hub.state(errorText(moveErr)))
}

// Dead-board digs and out-of-bounds flags are ordinary client mistakes;
// they go back to the clients as part of the state instead of the log.
func recoverable(err error) bool {
	return errors.Is(err, mines.ErrDeadBoard) || errors.Is(err, mines.ErrOutOfBounds)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// state snapshots the board for the wire. Callers hold hub.mu.
func (hub *Hub) state(errText string) GameState {
	return GameState{
		Game:      hub.games,
		Rows:      hub.board.Rows,
		Cols:      hub.board.Cols,
		Mines:     hub.board.NumMinesTotal(),
		Unflagged: hub.board.NumUnflagged(),
		Grid:      hub.board.Render(false),
		Dead:      hub.board.Dead(),
		Won:       hub.board.Won(),
		Error:     errText,
	}
}

// broadcast pushes a state to every connected socket. Callers hold hub.mu.
func (hub *Hub) broadcast(state GameState) {
	for conn := range hub.clients {
		if err := conn.WriteJSON(state); err != nil {
			delete(hub.clients, conn)
			conn.Close()
		}
	}
}
