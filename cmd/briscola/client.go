package main

import (
	"fmt"
	"os"

	"github.com/emarcon/briscola/internal/client"
)

// ClientCmd talks to the server: account management with one of the
// mutually exclusive flags, or connect and play without any.
type ClientCmd struct {
	Username string `kong:"arg,help='Registered user name'"`
	Password string `kong:"arg,help='User password'"`

	Register   bool `kong:"xor='mode',help='Register a new account'"`
	Cancel     bool `kong:"xor='mode',help='Delete the account'"`
	Disconnect bool `kong:"xor='mode',help='Force the account back to disconnected'"`

	Socket string `kong:"default='/tmp/briscola.sock',help='Unix socket path'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ClientCmd) Run() error {
	logger := setupLogger("info", c.Debug)
	cl := client.New(c.Socket, os.Stdin, os.Stdout, logger, nil)

	switch {
	case c.Register:
		return cl.Register(c.Username, c.Password)
	case c.Cancel:
		return cl.Cancel(c.Username, c.Password)
	case c.Disconnect:
		return cl.Disconnect(c.Username, c.Password)
	default:
		if err := cl.Play(c.Username, c.Password); err != nil {
			return fmt.Errorf("connection to the server lost: %w", err)
		}
		return nil
	}
}
