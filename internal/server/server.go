// Package server implements the Briscola match server: a dispatcher
// accepting connections on a unix socket, one session worker per connection,
// a match engine pairing users head to head, and a signal handler driving
// checkpointing and shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/emarcon/briscola/internal/fileutil"
	"github.com/emarcon/briscola/internal/randutil"
	"github.com/emarcon/briscola/internal/registry"
)

// Server owns the listener, the live connection set and the parked
// connections of waiting users.
type Server struct {
	cfg      Settings
	registry *registry.Registry
	logger   *log.Logger
	seed     int64
	users    string

	listener net.Listener

	termMu     sync.Mutex
	terminated bool

	connMu  sync.Mutex
	conns   map[net.Conn]bool
	parkedC map[int]net.Conn
	nextID  int

	matchMu sync.Mutex
	serial  int

	wg sync.WaitGroup
}

// New builds a server. usersPath is where the registry is stored back on
// shutdown; seed drives the per-match shuffles (0 for deterministic runs).
func New(cfg Settings, reg *registry.Registry, logger *log.Logger, usersPath string, seed int64) *Server {
	return &Server{
		cfg:      cfg,
		registry: reg,
		logger:   logger.WithPrefix("server"),
		seed:     seed,
		users:    usersPath,
		conns:    make(map[net.Conn]bool),
		parkedC:  make(map[int]net.Conn),
	}
}

// Run listens on the unix socket and serves until a termination signal or
// context cancellation, then joins every worker and stores the users file.
func (s *Server) Run(ctx context.Context) error {
	if err := os.Remove(s.cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stale socket %s: %w", s.cfg.SocketPath, err)
	}
	l, err := net.Listen("unix", s.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.SocketPath, err)
	}
	s.listener = l
	s.logger.Info("Listening", "socket", s.cfg.SocketPath)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.acceptLoop() })
	g.Go(func() error { return s.watchSignals(ctx) })
	err = g.Wait()

	s.wg.Wait()
	os.Remove(s.cfg.SocketPath)

	if serr := s.storeUsers(); serr != nil && err == nil {
		err = serr
	}
	return err
}

// acceptLoop hands every accepted connection to a session worker.
func (s *Server) acceptLoop() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.Terminated() {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.track(conn)
		sess := &session{
			srv:    s,
			conn:   conn,
			id:     s.allocateID(),
			logger: s.logger.WithPrefix("session"),
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.run()
		}()
	}
}

// watchSignals drives checkpointing and shutdown. SIGUSR1 checkpoints the
// registry; SIGINT and SIGTERM terminate the server.
func (s *Server) watchSignals(ctx context.Context) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(sigc)

	for {
		select {
		case sig := <-sigc:
			if sig == syscall.SIGUSR1 {
				if err := s.Checkpoint(); err != nil {
					s.logger.Error("Checkpoint failed", "error", err)
				}
				continue
			}
			s.logger.Info("Shutting down", "signal", sig)
			s.shutdown()
			return nil
		case <-ctx.Done():
			s.shutdown()
			return nil
		}
	}
}

// shutdown sets the termination flag, stops the listener and closes every
// live connection so blocked workers observe a closed peer and exit.
func (s *Server) shutdown() {
	s.termMu.Lock()
	already := s.terminated
	s.terminated = true
	s.termMu.Unlock()
	if already {
		return
	}

	s.listener.Close()

	s.connMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connMu.Unlock()
}

// Terminated reports whether shutdown has begun. Once set it never clears.
func (s *Server) Terminated() bool {
	s.termMu.Lock()
	defer s.termMu.Unlock()
	return s.terminated
}

// Checkpoint atomically writes the current registry to the checkpoint file.
func (s *Server) Checkpoint() error {
	var count int
	err := fileutil.WriteAtomic(s.cfg.CheckpointPath, 0600, func(w io.Writer) error {
		var err error
		count, err = s.registry.Store(w)
		return err
	})
	if err != nil {
		return fmt.Errorf("checkpoint %s: %w", s.cfg.CheckpointPath, err)
	}
	s.logger.Info("Checkpoint written", "path", s.cfg.CheckpointPath, "users", count)
	return nil
}

// storeUsers writes the registry back to the users file on shutdown.
func (s *Server) storeUsers() error {
	var count int
	err := fileutil.WriteAtomic(s.users, 0600, func(w io.Writer) error {
		var err error
		count, err = s.registry.Store(w)
		return err
	})
	if err != nil {
		return fmt.Errorf("store users %s: %w", s.users, err)
	}
	s.logger.Info("Users stored", "path", s.users, "users", count)
	return nil
}

// runMatch opens a transcript and plays one match on the caller's goroutine.
func (s *Server) runMatch(challenger string, challengerConn io.ReadWriter,
	awaited string, awaitedConn io.ReadWriter) error {

	serial := s.nextSerial()
	tr, err := openTranscript(s.cfg.TranscriptDir, serial)
	if err != nil {
		return err
	}
	defer tr.Close()

	rng := randutil.New(s.seed + int64(serial))
	e := newEngine(serial, rng, tr, s.logger.WithPrefix("match"),
		challenger, challengerConn, awaited, awaitedConn)
	return e.run()
}

// nextSerial returns the next match id, unique within the process.
func (s *Server) nextSerial() int {
	s.matchMu.Lock()
	defer s.matchMu.Unlock()
	s.serial++
	return s.serial
}

// allocateID returns a fresh session channel id.
func (s *Server) allocateID() int {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.nextID++
	return s.nextID
}

// track registers a live connection so shutdown can close it.
func (s *Server) track(conn net.Conn) {
	s.connMu.Lock()
	s.conns[conn] = true
	s.connMu.Unlock()
}

// release closes a connection and forgets it.
func (s *Server) release(conn net.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
	conn.Close()
}

// park stashes a waiting user's connection under its channel id.
func (s *Server) park(id int, conn net.Conn) {
	s.connMu.Lock()
	s.parkedC[id] = conn
	s.connMu.Unlock()
}

// unpark claims a parked connection. At most one caller gets it.
func (s *Server) unpark(id int) (net.Conn, bool) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	conn, ok := s.parkedC[id]
	if ok {
		delete(s.parkedC, id)
	}
	return conn, ok
}
