// Package server hosts one board at a time over TCP. Clients send framed
// move commands; the server owns the board and funnels every command
// through a single channel, so the engine is only ever driven by one
// goroutine.
package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/digbot/minesweeper/mines"
	"github.com/digbot/minesweeper/protocol"
)

type Client struct {
	conn net.Conn
	id   int

	// writeMu guards both the socket writes and the connected flag;
	// the reader goroutine flips the flag while the command goroutine
	// sends.
	writeMu   sync.Mutex
	connected bool
}

func (client *Client) disconnect() {
	client.writeMu.Lock()
	client.connected = false
	client.writeMu.Unlock()
	client.conn.Close()
}

type MessageHandler func(data []byte, source int) error

type command struct {
	message []byte
	client  *Client
}

type Server struct {
	id          int
	Name        string
	listener    net.Listener
	board       *mines.Board
	params      mines.GameParams
	seed        string
	gameRunning bool
	gamesHosted int
	handlers    map[protocol.MessageType]MessageHandler
	commands    chan command
	Port        uint16
	clients     map[int]*Client
	clientsMu   sync.Mutex
}

// StartGame replaces any running game with a fresh board. When the caller
// supplies no seed, one is derived from the server id and a game counter,
// so a finished game can always be rebuilt for replay.
func (server *Server) StartGame(params mines.GameParams, seed string) error {
	if seed == "" {
		seed = fmt.Sprintf("server-%d-game-%d", server.id, server.gamesHosted+1)
	}
	board, err := mines.NewBoardFromParams(params, seed)
	if err != nil {
		return err
	}
	server.board = board
	server.params = params
	server.seed = seed
	server.gamesHosted++
	startMsg, err := protocol.EncodeStartGame(params, seed)
	if err != nil {
		return err
	}
	server.broadcast(startMsg)
	server.broadcastTextMessage(fmt.Sprintf("Starting a new game with %d mines", params.Mines))
	server.gameRunning = true
	return nil
}

func (server *Server) broadcastTextMessage(message string) {
	encoded, err := protocol.EncodeTextMessage(message)
	if err != nil {
		fmt.Println("Failed to create message")
		return
	}
	server.broadcast(encoded)
}

func (server *Server) broadcast(data []byte) {
	server.clientsMu.Lock()
	defer server.clientsMu.Unlock()
	for _, client := range server.clients {
		sendMessage(data, client)
	}
}

func sendTextMessage(msg string, client *Client) {
	encoded, err := protocol.EncodeTextMessage(msg)
	if err != nil {
		fmt.Println("Failed to create a message")
		return
	}
	sendMessage(encoded, client)
}

func sendMessage(data []byte, client *Client) {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()
	if !client.connected {
		return
	}
	client.conn.Write(data)
}

// sendGameState brings one client up to date: current parameters plus an
// update for every cell that is no longer hidden.
func (server *Server) sendGameState(client *Client) error {
	startMsg, err := protocol.EncodeStartGame(server.params, server.seed)
	if err != nil {
		return err
	}
	sendMessage(startMsg, client)
	updates, err := protocol.FullUpdates(server.board)
	if err != nil {
		return err
	}
	updateMsg, err := protocol.EncodeCellUpdates(updates)
	if err != nil {
		return err
	}
	sendMessage(updateMsg, client)
	return nil
}

func (server *Server) handleClient(client *Client) {
	reader := bufio.NewReader(client.conn)
	fmt.Printf("Client %d connected from %s\n", client.id, client.conn.RemoteAddr())
	// The board and the game flag belong to the command goroutine, so the
	// initial state sync goes through the command channel like any other
	// request instead of touching them from here.
	if reload, err := protocol.EncodeRequestReload(); err == nil {
		server.commands <- command{reload, client}
	}
	for {
		message, err := protocol.ReadMessage(reader)
		if err != nil {
			fmt.Printf("Client %d disconnected\n", client.id)
			client.disconnect()
			server.clientsMu.Lock()
			delete(server.clients, client.id)
			server.clientsMu.Unlock()
			return
		}
		server.commands <- command{message, client}
	}
}

func (server *Server) HandleMessage(data []byte, source int) error {
	if len(data) == 0 {
		return fmt.Errorf("cannot handle empty message")
	}
	msgType := protocol.MessageType(data[0])
	handler, exists := server.handlers[msgType]
	if !exists {
		return fmt.Errorf("no handler registered for message type: %d", msgType)
	}
	return handler(data, source)
}

func (server *Server) registerHandler(msgType protocol.MessageType, handler MessageHandler) {
	server.handlers[msgType] = handler
}

func (server *Server) client(id int) *Client {
	server.clientsMu.Lock()
	defer server.clientsMu.Unlock()
	return server.clients[id]
}

func (server *Server) registerHandlers() {
	server.registerHandler(protocol.StartGame, func(data []byte, source int) error {
		params, seed, err := protocol.DecodeStartGame(data)
		if err != nil {
			return err
		}
		if server.gameRunning {
			msg, err := protocol.EncodeGameEnd(protocol.Aborted)
			if err != nil {
				return err
			}
			server.broadcast(msg)
		}
		return server.StartGame(params, seed)
	})
	server.registerHandler(protocol.RequestReload, func(data []byte, source int) error {
		if err := protocol.DecodeRequestReload(data); err != nil {
			return err
		}
		if !server.gameRunning {
			return nil
		}
		if client := server.client(source); client != nil {
			return server.sendGameState(client)
		}
		return nil
	})
	server.registerHandler(protocol.MoveCommand, func(data []byte, source int) error {
		client := server.client(source)
		if !server.gameRunning {
			if client != nil {
				sendTextMessage("Game not running. Can't make moves.", client)
			}
			return nil
		}
		move, err := protocol.DecodeMove(data)
		if err != nil {
			return err
		}
		survived, err := server.board.MakeMove(*move)
		if err != nil {
			// Protocol misuse by one client must not take the host down.
			if errors.Is(err, mines.ErrDeadBoard) || errors.Is(err, mines.ErrOutOfBounds) {
				if client != nil {
					sendTextMessage(err.Error(), client)
				}
				return nil
			}
			return err
		}
		updates, err := protocol.TouchedUpdates(server.board)
		if err != nil {
			return err
		}
		server.board.ResetTouched()
		if len(updates) > 0 {
			encoded, err := protocol.EncodeCellUpdates(updates)
			if err != nil {
				return err
			}
			server.broadcast(encoded)
		}
		var endMsg []byte
		switch {
		case !survived:
			endMsg, err = protocol.EncodeGameEnd(protocol.Loss)
		case server.board.Won():
			endMsg, err = protocol.EncodeGameEnd(protocol.Win)
		}
		if err != nil {
			return err
		}
		if endMsg != nil {
			server.broadcast(endMsg)
			server.gameRunning = false
		}
		return nil
	})
}

func (server *Server) manageCommands() {
	for command := range server.commands {
		if err := server.HandleMessage(command.message, command.client.id); err != nil {
			fmt.Println(err.Error())
		}
	}
}

func (server *Server) acceptLoop() {
	defer server.listener.Close()
	id := 1
	for {
		conn, err := server.listener.Accept()
		if err != nil {
			return
		}
		client := &Client{id: id, conn: conn, connected: true}
		server.clientsMu.Lock()
		server.clients[client.id] = client
		server.clientsMu.Unlock()
		go server.handleClient(client)
		id++
	}
}

func createServer(id int, name string, port uint16) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, err
	}
	return &Server{
		id:       id,
		Name:     name,
		listener: listener,
		handlers: make(map[protocol.MessageType]MessageHandler),
		commands: make(chan command),
		Port:     uint16(listener.Addr().(*net.TCPAddr).Port),
		clients:  make(map[int]*Client),
	}, nil
}

// Spawn starts a game server. Port 0 picks a free port; the chosen one is
// available as server.Port.
func Spawn(id int, name string, port uint16) (*Server, error) {
	server, err := createServer(id, name, port)
	if err != nil {
		return nil, err
	}
	server.registerHandlers()
	go server.manageCommands()
	go server.acceptLoop()
	return server, nil
}
