package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server Settings `hcl:"server,block"`
}

// Settings contains server-level configuration
type Settings struct {
	SocketPath     string `hcl:"socket_path,optional"`
	CheckpointPath string `hcl:"checkpoint_path,optional"`
	TranscriptDir  string `hcl:"transcript_dir,optional"`
	LogLevel       string `hcl:"log_level,optional"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: Settings{
			SocketPath:     "/tmp/briscola.sock",
			CheckpointPath: "briscola-users.ckpt",
			TranscriptDir:  ".",
			LogLevel:       "info",
		},
	}
}

// LoadConfig loads server configuration from an HCL file. A missing file is
// not an error; defaults apply.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if config.Server.SocketPath == "" {
		config.Server.SocketPath = defaults.Server.SocketPath
	}
	if config.Server.CheckpointPath == "" {
		config.Server.CheckpointPath = defaults.Server.CheckpointPath
	}
	if config.Server.TranscriptDir == "" {
		config.Server.TranscriptDir = defaults.Server.TranscriptDir
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.SocketPath == "" {
		return fmt.Errorf("socket_path must not be empty")
	}
	if c.Server.CheckpointPath == "" {
		return fmt.Errorf("checkpoint_path must not be empty")
	}
	if info, err := os.Stat(c.Server.TranscriptDir); err != nil {
		return fmt.Errorf("transcript_dir: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("transcript_dir %s is not a directory", c.Server.TranscriptDir)
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.Server.LogLevel)
	}
	return nil
}
