// Package protocol implements the framed message layer spoken between the
// Briscola server and its clients: a single type byte, a 4-byte big-endian
// payload length, then the payload. It also provides build/parse helpers for
// the payload formats used by the session and match conversations.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Message types, one byte each.
const (
	TypeRegister   byte = 'R' // register a new user
	TypeCancel     byte = 'Q' // cancel a registration
	TypeDisconnect byte = 'D' // force a user back to disconnected
	TypeConnect    byte = 'C' // connect and ask for a match
	TypeWait       byte = 'W' // wait for a challenger
	TypeOK         byte = 'K' // acceptance
	TypeNo         byte = 'N' // refusal
	TypeErr        byte = 'E' // error
	TypeStartGame  byte = 'S' // match start: trump, hand, opponent
	TypeEndGame    byte = 'Z' // match end: winner and points
	TypePlay       byte = 'P' // a played card
	TypeCard       byte = 'A' // a newly drawn card
)

// ErrPeerClosed reports that the other end of the connection went away.
// Both server and client treat it as fatal to the enclosing conversation.
var ErrPeerClosed = errors.New("protocol: peer closed connection")

// maxPayload bounds a frame's declared length; nothing in the protocol
// comes close, so larger values indicate a corrupt or hostile stream.
const maxPayload = 1 << 16

// Message is one framed unit on the wire. Payload may be empty.
type Message struct {
	Type    byte
	Payload []byte
}

// NewMessage builds a message from a type and a string payload.
func NewMessage(t byte, payload string) Message {
	return Message{Type: t, Payload: []byte(payload)}
}

// Text returns the payload as a string.
func (m Message) Text() string {
	return string(m.Payload)
}

// Write frames and sends a message. A closed peer surfaces as ErrPeerClosed.
func Write(w io.Writer, m Message) error {
	buf := make([]byte, 5+len(m.Payload))
	buf[0] = m.Type
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(m.Payload)))
	copy(buf[5:], m.Payload)
	if _, err := w.Write(buf); err != nil {
		return peerErr(err)
	}
	return nil
}

// Read receives one framed message. A closed peer surfaces as ErrPeerClosed.
func Read(r io.Reader) (Message, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Message{}, peerErr(err)
	}
	length := binary.BigEndian.Uint32(header[1:5])
	if length > maxPayload {
		return Message{}, fmt.Errorf("protocol: frame length %d exceeds limit", length)
	}
	m := Message{Type: header[0]}
	if length > 0 {
		m.Payload = make([]byte, length)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			return Message{}, peerErr(err)
		}
	}
	return m, nil
}

// peerErr maps the ways a stream reports a vanished peer onto ErrPeerClosed.
func peerErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENOTCONN) {
		return ErrPeerClosed
	}
	return err
}
