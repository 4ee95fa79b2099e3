package server

import (
	"errors"
	"net"

	"github.com/charmbracelet/log"

	"github.com/emarcon/briscola/internal/protocol"
	"github.com/emarcon/briscola/internal/registry"
)

// session serves one accepted connection. Most conversations are a single
// request and reply; a connect request may park the connection for a future
// challenger or run an entire match before returning.
type session struct {
	srv    *Server
	conn   net.Conn
	id     int
	logger *log.Logger

	// parked is set when a waiting user's connection is handed over to the
	// server; the session must then return without closing it.
	parked bool
}

func (s *session) run() {
	defer func() {
		if !s.parked {
			s.srv.release(s.conn)
		}
	}()

	m, err := protocol.Read(s.conn)
	if err != nil {
		if !errors.Is(err, protocol.ErrPeerClosed) {
			s.logger.Error("Failed to read request", "error", err)
		}
		return
	}

	switch m.Type {
	case protocol.TypeRegister:
		s.register(m.Text())
	case protocol.TypeCancel:
		s.cancel(m.Text())
	case protocol.TypeDisconnect:
		s.disconnect(m.Text())
	case protocol.TypeConnect:
		s.connect(m.Text())
	default:
		s.logger.Warn("Unsupported request", "type", string(m.Type))
		s.reply(protocol.TypeErr, "not supported")
	}
}

func (s *session) reply(t byte, payload string) {
	if err := protocol.Write(s.conn, protocol.NewMessage(t, payload)); err != nil {
		if !errors.Is(err, protocol.ErrPeerClosed) {
			s.logger.Error("Failed to send reply", "error", err)
		}
	}
}

func (s *session) register(payload string) {
	creds, err := protocol.ParseCredentials(payload)
	if err != nil {
		s.reply(protocol.TypeErr, err.Error())
		return
	}
	if err := s.srv.registry.Add(registry.User(creds)); err != nil {
		s.logger.Info("Registration refused", "user", creds.Name)
		s.reply(protocol.TypeNo, "user already registered")
		return
	}
	s.logger.Info("User registered", "user", creds.Name)
	s.reply(protocol.TypeOK, "")
}

func (s *session) cancel(payload string) {
	creds, err := protocol.ParseCredentials(payload)
	if err != nil {
		s.reply(protocol.TypeErr, err.Error())
		return
	}
	switch err := s.srv.registry.Remove(creds.Name, creds.Password); {
	case errors.Is(err, registry.ErrNoUser):
		s.reply(protocol.TypeNo, "no user with this name")
	case errors.Is(err, registry.ErrWrongPassword):
		s.reply(protocol.TypeNo, "wrong password")
	case err != nil:
		s.reply(protocol.TypeErr, err.Error())
	default:
		s.logger.Info("Registration cancelled", "user", creds.Name)
		s.reply(protocol.TypeOK, "")
	}
}

func (s *session) disconnect(payload string) {
	creds, err := protocol.ParseCredentials(payload)
	if err != nil {
		s.reply(protocol.TypeErr, err.Error())
		return
	}
	if !s.srv.registry.CheckPassword(creds.Name, creds.Password) {
		s.reply(protocol.TypeNo, "wrong name or password")
		return
	}
	// A parked connection for this user is now stale; drop it.
	if ch, ok := s.srv.registry.Channel(creds.Name); ok && ch != registry.NoChannel {
		if conn, ok := s.srv.unpark(ch); ok {
			s.srv.release(conn)
		}
	}
	s.srv.registry.Disconnect(creds.Name)
	s.logger.Info("User forced to disconnected", "user", creds.Name)
	s.reply(protocol.TypeOK, "")
}

// connect handles the match-seeking conversation.
func (s *session) connect(payload string) {
	creds, err := protocol.ParseCredentials(payload)
	if err != nil {
		s.reply(protocol.TypeErr, err.Error())
		return
	}
	if !s.srv.registry.CheckPassword(creds.Name, creds.Password) {
		s.reply(protocol.TypeNo, "wrong name or password")
		return
	}
	if st, _ := s.srv.registry.Status(creds.Name); st != registry.Disconnected {
		s.reply(protocol.TypeErr, "already connected")
		return
	}

	waiting, any := s.srv.registry.ListByStatus(registry.Waiting)
	if !any {
		s.wait(creds.Name, protocol.TypeWait, "")
		return
	}

	s.reply(protocol.TypeOK, waiting)
	m, err := protocol.Read(s.conn)
	if err != nil {
		if !errors.Is(err, protocol.ErrPeerClosed) {
			s.logger.Error("Failed to read choice", "user", creds.Name, "error", err)
		}
		return
	}
	switch m.Type {
	case protocol.TypeWait:
		s.wait(creds.Name, protocol.TypeOK, "")
	case protocol.TypeOK:
		s.challenge(creds.Name, m.Text())
	default:
		s.reply(protocol.TypeErr, "not supported")
	}
}

// wait parks this connection until a challenger adopts it, marking the user
// as waiting under this session's channel.
func (s *session) wait(name string, replyType byte, payload string) {
	s.srv.park(s.id, s.conn)
	s.srv.registry.SetStatus(name, registry.Waiting)
	s.srv.registry.SetChannel(name, s.id)
	s.logger.Info("User waiting for a challenger", "user", name, "channel", s.id)
	s.reply(replyType, payload)
	s.parked = true
}

// challenge pairs this user against a waiting opponent and runs the match on
// this session's goroutine, adopting the opponent's parked connection.
func (s *session) challenge(name, opponent string) {
	st, ok := s.srv.registry.Status(opponent)
	if !ok || st != registry.Waiting || opponent == name {
		s.reply(protocol.TypeNo, "no user")
		return
	}
	ch, _ := s.srv.registry.Channel(opponent)
	oppConn, ok := s.srv.unpark(ch)
	if !ok {
		s.reply(protocol.TypeNo, "no user")
		return
	}
	defer s.srv.release(oppConn)
	defer func() {
		s.srv.registry.Disconnect(name)
		s.srv.registry.Disconnect(opponent)
	}()

	s.srv.registry.SetStatus(name, registry.Playing)
	s.srv.registry.SetChannel(name, s.id)
	s.srv.registry.SetStatus(opponent, registry.Playing)
	s.reply(protocol.TypeOK, "")

	if err := s.srv.runMatch(name, s.conn, opponent, oppConn); err != nil {
		if errors.Is(err, protocol.ErrPeerClosed) {
			s.logger.Info("Match aborted by a vanished player",
				"challenger", name, "awaited", opponent)
		} else {
			s.logger.Error("Match failed", "challenger", name, "awaited", opponent, "error", err)
		}
	}
}
