package protocol

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{name: "with payload", msg: NewMessage(TypeRegister, "alice:pw")},
		{name: "empty payload", msg: Message{Type: TypeOK}},
		{name: "play", msg: NewMessage(TypePlay, "AC")},
		{name: "long payload", msg: NewMessage(TypeOK, "alice:bob:carol:dave")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.msg))

			// Header is type byte plus 4-byte big-endian length.
			raw := buf.Bytes()
			require.GreaterOrEqual(t, len(raw), 5)
			assert.Equal(t, tt.msg.Type, raw[0])
			wantLen := len(tt.msg.Payload)
			gotLen := int(raw[1])<<24 | int(raw[2])<<16 | int(raw[3])<<8 | int(raw[4])
			assert.Equal(t, wantLen, gotLen)

			got, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.msg.Type, got.Type)
			assert.Equal(t, tt.msg.Text(), got.Text())
		})
	}
}

func TestReadPeerClosed(t *testing.T) {
	var empty bytes.Buffer
	_, err := Read(&empty)
	assert.ErrorIs(t, err, ErrPeerClosed)

	// A header that promises more payload than the stream holds.
	var short bytes.Buffer
	short.Write([]byte{TypePlay, 0, 0, 0, 5, 'A'})
	_, err = Read(&short)
	assert.ErrorIs(t, err, ErrPeerClosed)
}

func TestReadRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{TypePlay, 0xFF, 0xFF, 0xFF, 0xFF})
	_, err := Read(&buf)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPeerClosed)
}

func TestWriteToClosedConn(t *testing.T) {
	client, server := net.Pipe()
	require.NoError(t, server.Close())
	require.NoError(t, client.Close())

	err := Write(client, NewMessage(TypePlay, "AC"))
	assert.ErrorIs(t, err, ErrPeerClosed)
}

func TestFrameOverSocketPair(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan Message, 1)
	go func() {
		m, err := Read(server)
		if err != nil {
			close(done)
			return
		}
		done <- m
	}()

	require.NoError(t, Write(client, NewMessage(TypeConnect, "alice:pw")))
	got, ok := <-done
	require.True(t, ok)
	assert.Equal(t, TypeConnect, got.Type)
	assert.Equal(t, "alice:pw", got.Text())
}
