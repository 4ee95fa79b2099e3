package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/emarcon/briscola/internal/registry"
	"github.com/emarcon/briscola/internal/server"
)

// ServerCmd runs the match server until a termination signal.
type ServerCmd struct {
	UsersFile string `kong:"arg,help='File holding registered users, one name:password line each'"`
	Test      bool   `kong:"short='t',help='Deterministic shuffles for testing'"`
	Socket    string `kong:"help='Unix socket path (overrides config)'"`
	Config    string `kong:"default='briscola.hcl',help='HCL configuration file'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Socket != "" {
		cfg.Server.SocketPath = c.Socket
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logger := setupLogger(cfg.Server.LogLevel, c.Debug)

	reg := registry.New()
	f, err := os.Open(c.UsersFile)
	switch {
	case os.IsNotExist(err):
		logger.Info("Users file not found, starting empty", "path", c.UsersFile)
	case err != nil:
		return fmt.Errorf("users file %s: %w", c.UsersFile, err)
	default:
		count, lerr := reg.Load(f)
		f.Close()
		if lerr != nil {
			return fmt.Errorf("users file %s: %w", c.UsersFile, lerr)
		}
		logger.Info("Users loaded", "path", c.UsersFile, "users", count)
	}

	var seed int64
	if c.Test {
		logger.Info("Test mode, deterministic shuffles")
	} else {
		seed = time.Now().UnixNano()
	}

	srv := server.New(cfg.Server, reg, logger, c.UsersFile, seed)
	return srv.Run(context.Background())
}
