package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync/atomic"
)

type MessageHandler func([]byte) error

// ConnectionController is the client side of a game connection: it owns
// the socket, serializes writes through a channel, and dispatches incoming
// frames to the handler registered for their message type.
type ConnectionController struct {
	conn            net.Conn
	messageHandlers map[MessageType]MessageHandler
	messageChannel  chan []byte
	// The read loop drops the flag while the writer goroutine checks it.
	connected atomic.Bool
}

// Connected reports whether the controller currently holds a live
// connection.
func (controller *ConnectionController) Connected() bool {
	return controller.connected.Load()
}

func NewConnectionController() *ConnectionController {
	controller := &ConnectionController{
		messageHandlers: make(map[MessageType]MessageHandler),
		messageChannel:  make(chan []byte, 64),
	}
	controller.startWriter()
	return controller
}

func (controller *ConnectionController) startWriter() {
	go func() {
		for message := range controller.messageChannel {
			if !controller.connected.Load() {
				continue
			}
			if _, err := controller.conn.Write(message); err != nil {
				fmt.Println("Error writing to server:", err)
				return
			}
		}
	}()
}

func (controller *ConnectionController) SendMessage(message []byte) error {
	select {
	case controller.messageChannel <- message:
	default:
		return fmt.Errorf("failed to write to message channel")
	}
	return nil
}

// SetConnection attaches an already-established connection, e.g. one half
// of a net.Pipe in tests.
func (controller *ConnectionController) SetConnection(conn net.Conn) error {
	if controller.connected.Load() {
		return fmt.Errorf("controller is already connected")
	}
	controller.conn = conn
	controller.connected.Store(true)
	return nil
}

func (controller *ConnectionController) Connect(host string, port uint16) error {
	if controller.connected.Load() {
		return fmt.Errorf("controller is already connected")
	}
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return err
	}
	controller.conn = conn
	controller.connected.Store(true)
	return nil
}

func (controller *ConnectionController) RegisterHandler(msgType MessageType, handlerFunc MessageHandler) {
	controller.messageHandlers[msgType] = handlerFunc
}

func (controller *ConnectionController) HandleMessage(data []byte) error {
	msgType := MessageType(data[0])
	handlerFunc, exists := controller.messageHandlers[msgType]
	if !exists {
		return fmt.Errorf("no handler registered for message type: %d", msgType)
	}
	return handlerFunc(data)
}

// ReadLoop reads and dispatches frames until the connection drops. Handler
// errors are reported and skipped; a frame the peer half-sent is fatal.
func (controller *ConnectionController) ReadLoop() error {
	reader := bufio.NewReader(controller.conn)
	for {
		message, err := ReadMessage(reader)
		if err != nil {
			controller.connected.Store(false)
			return fmt.Errorf("lost connection: %w", err)
		}
		if err := controller.HandleMessage(message); err != nil {
			fmt.Println(err.Error())
		}
	}
}

// ReadMessage reads one full header-framed message from the stream.
func ReadMessage(reader io.Reader) ([]byte, error) {
	header := make([]byte, HeaderLength)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, err
	}
	messageLength := int(binary.BigEndian.Uint32(header[2:HeaderLength]))
	message := make([]byte, messageLength+HeaderLength)
	copy(message[0:HeaderLength], header)
	if _, err := io.ReadFull(reader, message[HeaderLength:]); err != nil {
		return nil, err
	}
	return message, nil
}
