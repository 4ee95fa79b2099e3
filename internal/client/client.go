// Package client implements the terminal Briscola client: one-shot account
// requests and the interactive connect-and-play conversation.
package client

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/emarcon/briscola/internal/protocol"
)

const (
	dialAttempts   = 3
	dialRetryDelay = time.Second
)

// WaitCommand is what the user types to wait for a challenger instead of
// naming an opponent.
const WaitCommand = "WAIT"

// Client talks to the server over its unix socket. Prompts are read from in
// and everything user-facing is written to out.
type Client struct {
	socket string
	in     *bufio.Scanner
	out    io.Writer
	logger *log.Logger
	clock  quartz.Clock
}

// New builds a client. A nil clock means the real one.
func New(socket string, in io.Reader, out io.Writer, logger *log.Logger, clock quartz.Clock) *Client {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Client{
		socket: socket,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger.WithPrefix("client"),
		clock:  clock,
	}
}

// dial connects to the server socket, retrying a few times in case the
// server is still coming up.
func (c *Client) dial() (net.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		if attempt > 0 {
			t := c.clock.NewTimer(dialRetryDelay)
			<-t.C
		}
		conn, err := net.Dial("unix", c.socket)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		c.logger.Warn("Server not reachable", "socket", c.socket, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("dial %s: %w", c.socket, lastErr)
}

// Register asks the server to create a new account.
func (c *Client) Register(name, password string) error {
	return c.oneShot(protocol.TypeRegister, name, password)
}

// Cancel asks the server to delete an account.
func (c *Client) Cancel(name, password string) error {
	return c.oneShot(protocol.TypeCancel, name, password)
}

// Disconnect forces the user back to the disconnected state server-side.
func (c *Client) Disconnect(name, password string) error {
	return c.oneShot(protocol.TypeDisconnect, name, password)
}

// oneShot runs a single request and reply conversation and explains the
// reply to the user. A refusal is not an error; only wire failures are.
func (c *Client) oneShot(msgType byte, name, password string) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	creds := protocol.Credentials{Name: name, Password: password}
	if err := protocol.Write(conn, protocol.NewMessage(msgType, creds.String())); err != nil {
		return err
	}
	reply, err := protocol.Read(conn)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, explainReply(reply))
	return nil
}

// Play runs the connect-and-play conversation: either wait for a challenger
// or pick an opponent from the waiting list, then play the match out.
func (c *Client) Play(name, password string) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	creds := protocol.Credentials{Name: name, Password: password}
	if err := protocol.Write(conn, protocol.NewMessage(protocol.TypeConnect, creds.String())); err != nil {
		return err
	}
	reply, err := protocol.Read(conn)
	if err != nil {
		return err
	}

	switch reply.Type {
	case protocol.TypeWait:
		fmt.Fprintln(c.out, bannerStyle.Render("No opponent available, waiting for a challenger"))
		return c.playMatch(conn, name, false)
	case protocol.TypeOK:
		return c.choose(conn, name, reply.Text())
	default:
		fmt.Fprintln(c.out, explainReply(reply))
		return nil
	}
}

// choose shows the waiting list and sends the user's pick: WAIT to join the
// pool, anything else as an opponent name.
func (c *Client) choose(conn net.Conn, name, waiting string) error {
	fmt.Fprintln(c.out, "Users waiting for a match: "+handStyle.Render(strings.ReplaceAll(waiting, ":", " ")))
	fmt.Fprintf(c.out, "Type %s to wait, or the opponent to challenge: ", WaitCommand)
	choice := c.prompt()

	if choice == WaitCommand {
		if err := protocol.Write(conn, protocol.Message{Type: protocol.TypeWait}); err != nil {
			return err
		}
		reply, err := protocol.Read(conn)
		if err != nil {
			return err
		}
		if reply.Type != protocol.TypeOK {
			fmt.Fprintln(c.out, explainReply(reply))
			return nil
		}
		fmt.Fprintln(c.out, bannerStyle.Render("Waiting for a challenger"))
		return c.playMatch(conn, name, false)
	}

	if err := protocol.Write(conn, protocol.NewMessage(protocol.TypeOK, choice)); err != nil {
		return err
	}
	reply, err := protocol.Read(conn)
	if err != nil {
		return err
	}
	if reply.Type != protocol.TypeOK {
		fmt.Fprintln(c.out, explainReply(reply))
		return nil
	}
	return c.playMatch(conn, name, true)
}

// prompt reads one trimmed line of user input. EOF yields an empty string.
func (c *Client) prompt() string {
	if !c.in.Scan() {
		return ""
	}
	return strings.TrimSpace(c.in.Text())
}
