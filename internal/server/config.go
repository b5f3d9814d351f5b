package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration.
type Config struct {
	Server   *ServerSettings   `hcl:"server,block"`
	Game     *GameSettings     `hcl:"game,block"`
	Database *DatabaseSettings `hcl:"database,block"`
}

// ServerSettings covers the listener and logging.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// GameSettings covers table rules shared by every game the server hosts.
type GameSettings struct {
	BuyIn          int    `hcl:"buy_in,optional"`
	MaxPlayers     int    `hcl:"max_players,optional"`
	Structure      string `hcl:"structure,optional"`
	TurnTimeoutRaw string `hcl:"turn_timeout,optional"`
	HandDelayRaw   string `hcl:"hand_delay,optional"`

	turnTimeout time.Duration
	handDelay   time.Duration
}

// DatabaseSettings configures persistence. An empty DSN selects the
// in-memory store.
type DatabaseSettings struct {
	DSN string `hcl:"dsn,optional"`
}

// TurnTimeout is how long a player has to act before being folded.
func (g *GameSettings) TurnTimeout() time.Duration { return g.turnTimeout }

// HandDelay is the pause between a hand ending and the next being dealt.
func (g *GameSettings) HandDelay() time.Duration { return g.handDelay }

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: &GameSettings{
			BuyIn:          10000,
			MaxPlayers:     9,
			Structure:      "normal",
			TurnTimeoutRaw: "30s",
			HandDelayRaw:   "3s",
			turnTimeout:    30 * time.Second,
			handDelay:      3 * time.Second,
		},
	}
}

// LoadConfig reads an HCL configuration file, falling back to defaults when
// the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %s", filename, diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %s", filename, diags.Error())
	}

	defaults := DefaultConfig()
	if cfg.Server == nil {
		cfg.Server = defaults.Server
	}
	if cfg.Game == nil {
		cfg.Game = defaults.Game
	}
	if cfg.Database == nil {
		cfg.Database = &DatabaseSettings{}
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaults.Server.Address
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = defaults.Server.LogLevel
	}
	if cfg.Game.BuyIn == 0 {
		cfg.Game.BuyIn = defaults.Game.BuyIn
	}
	if cfg.Game.MaxPlayers == 0 {
		cfg.Game.MaxPlayers = defaults.Game.MaxPlayers
	}
	if cfg.Game.Structure == "" {
		cfg.Game.Structure = defaults.Game.Structure
	}
	if cfg.Game.TurnTimeoutRaw == "" {
		cfg.Game.TurnTimeoutRaw = defaults.Game.TurnTimeoutRaw
	}
	if cfg.Game.HandDelayRaw == "" {
		cfg.Game.HandDelayRaw = defaults.Game.HandDelayRaw
	}

	var err error
	if cfg.Game.turnTimeout, err = time.ParseDuration(cfg.Game.TurnTimeoutRaw); err != nil {
		return nil, fmt.Errorf("turn_timeout: %w", err)
	}
	if cfg.Game.handDelay, err = time.ParseDuration(cfg.Game.HandDelayRaw); err != nil {
		return nil, fmt.Errorf("hand_delay: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.BuyIn <= 0 {
		return fmt.Errorf("buy_in must be positive, got %d", c.Game.BuyIn)
	}
	if c.Game.MaxPlayers < 2 || c.Game.MaxPlayers > 10 {
		return fmt.Errorf("max_players must be between 2 and 10, got %d", c.Game.MaxPlayers)
	}
	switch c.Game.Structure {
	case "normal", "turbo", "hyper":
	default:
		return fmt.Errorf("unknown blind structure %q", c.Game.Structure)
	}
	if c.Game.turnTimeout < time.Second {
		return fmt.Errorf("turn_timeout must be at least 1s")
	}
	return nil
}

// ListenAddress is the host:port the server binds to.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
