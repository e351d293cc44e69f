// Package protocol frames the board engine's contract surface for remote
// collaborators: move commands, game-start parameters, per-cell updates,
// neighborhood windows and game-end notices. Every message starts with a
// 6-byte header: message type, a reserved flags byte, and a big-endian
// uint32 payload length.
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/digbot/minesweeper/mines"
)

type MessageType byte

const (
	MoveCommand      MessageType = 0x01
	TextMessage      MessageType = 0x02
	BoardSnapshot    MessageType = 0x03
	StartGame        MessageType = 0x04
	CellUpdate       MessageType = 0x05
	RequestReload    MessageType = 0x06
	GameEnd          MessageType = 0x07
	NeighborhoodData MessageType = 0x08
)

type GameEndType byte

const (
	Win     GameEndType = 0x01
	Loss    GameEndType = 0x02
	Aborted GameEndType = 0x03
)

const (
	HeaderLength         = 6
	MovePayloadLength    = 9
	UpdateCellByteLength = 9
)

// Cell update codes. The low nibble carries the neighbor count for
// revealed cells; the high nibble marks the special states.
const (
	ShowCount byte = 0x00
	ShowMine  byte = 0x10
	ShowFlag  byte = 0x20
	ShowLava  byte = 0x30
)

var (
	ErrInvalidPayloadSize = errors.New("invalid payload size")
)

// UpdatedCell is one cell's wire state, pushed to clients after a move.
type UpdatedCell struct {
	Row  int
	Col  int
	Code byte
}

func checkAndDecodeLength(data []byte, message MessageType) (int, error) {
	if len(data) < HeaderLength {
		return 0, fmt.Errorf("data too short to decode")
	}
	if MessageType(data[0]) != message {
		return 0, fmt.Errorf("invalid message type E:%d R:%d", message, data[0])
	}
	payloadLength := int(binary.BigEndian.Uint32(data[2:6]))
	if payloadLength != len(data)-HeaderLength {
		return payloadLength, ErrInvalidPayloadSize
	}
	return payloadLength, nil
}

func intToBytes(i int) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(i))
	return buf
}

func bytesToInt(data []byte) int {
	return int(int32(binary.BigEndian.Uint32(data)))
}

func writeHeader(buf *bytes.Buffer, message MessageType, payloadLength int) {
	buf.WriteByte(byte(message))
	// Reserved byte for future use
	buf.WriteByte(0x00)
	binary.Write(buf, binary.BigEndian, uint32(payloadLength))
}

func writeStringWithLength(buf *bytes.Buffer, str string) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(str))); err != nil {
		return err
	}
	_, err := buf.WriteString(str)
	return err
}

func readStringWithLength(r io.Reader) (string, error) {
	var length int32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	strBytes := make([]byte, length)
	if _, err := io.ReadFull(r, strBytes); err != nil {
		return "", err
	}
	return string(strBytes), nil
}

func EncodeMove(move mines.Move) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, MoveCommand, MovePayloadLength)
	payload := make([]byte, MovePayloadLength)
	payload[0] = byte(move.Type)
	copy(payload[1:5], intToBytes(move.Row))
	copy(payload[5:9], intToBytes(move.Col))
	buf.Write(payload)
	return buf.Bytes(), nil
}

func DecodeMove(data []byte) (*mines.Move, error) {
	length, err := checkAndDecodeLength(data, MoveCommand)
	if err != nil {
		return nil, err
	}
	if length != MovePayloadLength {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	return &mines.Move{
		Type: mines.MoveType(payload[0]),
		Row:  bytesToInt(payload[1:5]),
		Col:  bytesToInt(payload[5:9]),
	}, nil
}

// EncodeStartGame announces a new board. The seed travels with the
// parameters so every observer can reconstruct the exact same game later.
func EncodeStartGame(params mines.GameParams, seed string) ([]byte, error) {
	var payload bytes.Buffer
	payload.Write(intToBytes(params.Rows))
	payload.Write(intToBytes(params.Cols))
	payload.Write(intToBytes(params.Mines))
	if err := writeStringWithLength(&payload, seed); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writeHeader(&buf, StartGame, payload.Len())
	buf.Write(payload.Bytes())
	return buf.Bytes(), nil
}

func DecodeStartGame(data []byte) (mines.GameParams, string, error) {
	length, err := checkAndDecodeLength(data, StartGame)
	if err != nil {
		return mines.GameParams{}, "", err
	}
	if length < 3*4+4 {
		return mines.GameParams{}, "", ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	params := mines.GameParams{
		Rows:  bytesToInt(payload[0:4]),
		Cols:  bytesToInt(payload[4:8]),
		Mines: bytesToInt(payload[8:12]),
	}
	seed, err := readStringWithLength(bytes.NewReader(payload[12:]))
	if err != nil {
		return mines.GameParams{}, "", err
	}
	return params, seed, nil
}

// CellCode packs one cell's state into the single wire byte.
func CellCode(state mines.CellState, neighbors int) (byte, error) {
	switch state {
	case mines.Revealed:
		return ShowCount | byte(neighbors), nil
	case mines.Flagged:
		return ShowFlag, nil
	case mines.Detonated:
		return ShowMine, nil
	case mines.Lava:
		return ShowLava, nil
	default:
		return 0, fmt.Errorf("no wire code for cell state %d", state)
	}
}

// TouchedUpdates converts the board's recently-touched list into wire
// updates. The caller resets the list once they are flushed.
func TouchedUpdates(board *mines.Board) ([]UpdatedCell, error) {
	return cellUpdates(board, board.RecentlyTouched())
}

// FullUpdates sweeps the whole board for every non-hidden cell, used to
// bring a reconnecting client back in sync.
func FullUpdates(board *mines.Board) ([]UpdatedCell, error) {
	var points []mines.Point
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			if board.State(row, col) != mines.Hidden {
				points = append(points, mines.Point{Row: row, Col: col})
			}
		}
	}
	return cellUpdates(board, points)
}

func cellUpdates(board *mines.Board, points []mines.Point) ([]UpdatedCell, error) {
	updates := make([]UpdatedCell, len(points))
	for i, p := range points {
		code, err := CellCode(board.State(p.Row, p.Col), board.NeighborCount(p.Row, p.Col))
		if err != nil {
			return nil, err
		}
		updates[i] = UpdatedCell{Row: p.Row, Col: p.Col, Code: code}
	}
	return updates, nil
}

func encodeCellUpdate(cell UpdatedCell) []byte {
	data := make([]byte, UpdateCellByteLength)
	copy(data[0:4], intToBytes(cell.Row))
	copy(data[4:8], intToBytes(cell.Col))
	data[8] = cell.Code
	return data
}

func EncodeCellUpdates(cells []UpdatedCell) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, CellUpdate, len(cells)*UpdateCellByteLength)
	for _, cell := range cells {
		buf.Write(encodeCellUpdate(cell))
	}
	return buf.Bytes(), nil
}

func DecodeCellUpdates(data []byte) ([]UpdatedCell, error) {
	payloadLength, err := checkAndDecodeLength(data, CellUpdate)
	if err != nil {
		return nil, err
	}
	if payloadLength%UpdateCellByteLength != 0 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	cells := make([]UpdatedCell, payloadLength/UpdateCellByteLength)
	for i := range cells {
		chunk := payload[i*UpdateCellByteLength : (i+1)*UpdateCellByteLength]
		cells[i] = UpdatedCell{
			Row:  bytesToInt(chunk[0:4]),
			Col:  bytesToInt(chunk[4:8]),
			Code: chunk[8],
		}
	}
	return cells, nil
}

// EncodeBoardSnapshot carries a rendered text grid, one symbol per cell.
func EncodeBoardSnapshot(grid string) ([]byte, error) {
	return encodeString(BoardSnapshot, grid)
}

func DecodeBoardSnapshot(data []byte) (string, error) {
	return decodeString(BoardSnapshot, data)
}

func EncodeTextMessage(message string) ([]byte, error) {
	return encodeString(TextMessage, message)
}

func DecodeTextMessage(data []byte) (string, error) {
	return decodeString(TextMessage, data)
}

func encodeString(message MessageType, text string) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, message, len(text))
	buf.WriteString(text)
	return buf.Bytes(), nil
}

func decodeString(message MessageType, data []byte) (string, error) {
	if _, err := checkAndDecodeLength(data, message); err != nil {
		return "", err
	}
	return string(data[HeaderLength:]), nil
}

func EncodeRequestReload() ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, RequestReload, 0)
	return buf.Bytes(), nil
}

func DecodeRequestReload(data []byte) error {
	_, err := checkAndDecodeLength(data, RequestReload)
	return err
}

func EncodeGameEnd(endType GameEndType) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, GameEnd, 1)
	buf.WriteByte(byte(endType))
	return buf.Bytes(), nil
}

func DecodeGameEnd(data []byte) (GameEndType, error) {
	length, err := checkAndDecodeLength(data, GameEnd)
	if err != nil {
		return 0, err
	}
	if length != 1 {
		return 0, ErrInvalidPayloadSize
	}
	return GameEndType(data[HeaderLength]), nil
}

// NeighborhoodWindow is one Neighborhood query result as it travels to bot
// collaborators. Codes use the engine's stable sentinel encoding.
type NeighborhoodWindow struct {
	Row    int
	Col    int
	Radius int
	Codes  []int
}

func EncodeNeighborhood(window NeighborhoodWindow) ([]byte, error) {
	if window.Radius < 0 {
		return nil, fmt.Errorf("invalid window radius %d", window.Radius)
	}
	side := 2*window.Radius + 1
	if len(window.Codes) != side*side {
		return nil, fmt.Errorf("expected %d codes for radius %d, got %d",
			side*side, window.Radius, len(window.Codes))
	}
	var buf bytes.Buffer
	writeHeader(&buf, NeighborhoodData, 3*4+4*len(window.Codes))
	buf.Write(intToBytes(window.Row))
	buf.Write(intToBytes(window.Col))
	buf.Write(intToBytes(window.Radius))
	for _, code := range window.Codes {
		buf.Write(intToBytes(code))
	}
	return buf.Bytes(), nil
}

func DecodeNeighborhood(data []byte) (*NeighborhoodWindow, error) {
	length, err := checkAndDecodeLength(data, NeighborhoodData)
	if err != nil {
		return nil, err
	}
	if length < 3*4 || (length-3*4)%4 != 0 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	window := &NeighborhoodWindow{
		Row:    bytesToInt(payload[0:4]),
		Col:    bytesToInt(payload[4:8]),
		Radius: bytesToInt(payload[8:12]),
	}
	// A negative radius would fold to a positive window size below.
	if window.Radius < 0 {
		return nil, ErrInvalidPayloadSize
	}
	side := 2*window.Radius + 1
	count := (length - 3*4) / 4
	if count != side*side {
		return nil, ErrInvalidPayloadSize
	}
	window.Codes = make([]int, count)
	for i := range window.Codes {
		window.Codes[i] = bytesToInt(payload[12+4*i : 16+4*i])
	}
	return window, nil
}
