// Package config loads the trainer's HCL configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/calvinwijaya/blackjack-trainer/internal/game"
)

// Config represents the complete configuration
type Config struct {
	Server   ServerSettings   `hcl:"server,block"`
	Database DatabaseSettings `hcl:"database,block"`
	Rules    RulesSettings    `hcl:"rules,block"`
	Dealer   DealerSettings   `hcl:"dealer,block"`
	Trainer  TrainerSettings  `hcl:"trainer,block"`
}

// ServerSettings contains HTTP server configuration
type ServerSettings struct {
	Address     string `hcl:"address,optional"`
	FrontendURL string `hcl:"frontend_url,optional"`
	LogLevel    string `hcl:"log_level,optional"`
}

// DatabaseSettings selects the SQL backend. An empty DSN disables persistence.
type DatabaseSettings struct {
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn,optional"`
}

// RulesSettings configures how rounds are dealt
type RulesSettings struct {
	Decks       int    `hcl:"decks,optional"`
	Composition string `hcl:"composition,optional"`
	Bet         int    `hcl:"bet,optional"`
}

// DealerSettings configures dealer turn pacing
type DealerSettings struct {
	StepInterval string `hcl:"step_interval,optional"`
}

// TrainerSettings configures how long drill feedback is shown
type TrainerSettings struct {
	CorrectDelay   string `hcl:"correct_delay,optional"`
	IncorrectDelay string `hcl:"incorrect_delay,optional"`
}

// file mirrors Config with every block optional.
type file struct {
	Server   *ServerSettings  `hcl:"server,block"`
	Database *fileDatabase    `hcl:"database,block"`
	Rules    *RulesSettings   `hcl:"rules,block"`
	Dealer   *DealerSettings  `hcl:"dealer,block"`
	Trainer  *TrainerSettings `hcl:"trainer,block"`
}

// fileDatabase tells an absent dsn apart from an explicitly empty one.
type fileDatabase struct {
	Driver string  `hcl:"driver,optional"`
	DSN    *string `hcl:"dsn,optional"`
}

// Default returns the default configuration
func Default() *Config {
	rules := game.DefaultRules()
	return &Config{
		Server: ServerSettings{
			Address:     ":8080",
			FrontendURL: "http://localhost:5173",
			LogLevel:    "info",
		},
		Database: DatabaseSettings{
			Driver: "sqlite3",
			DSN:    "./data/blackjack.db",
		},
		Rules: RulesSettings{
			Decks:       rules.Decks,
			Composition: string(rules.Composition),
			Bet:         rules.Bet,
		},
		Dealer: DealerSettings{
			StepInterval: "1s",
		},
		Trainer: TrainerSettings{
			CorrectDelay:   "1s",
			IncorrectDelay: "2s",
		},
	}
}

// Load loads configuration from an HCL file. A missing file yields the
// defaults; values absent from the file keep their defaults.
func Load(filename string) (*Config, error) {
	config := Default()

	if filename == "" {
		return config, nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return config, nil
	}

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw file
	diags = gohcl.DecodeBody(f.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if err := config.merge(raw); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) merge(raw file) error {
	if s := raw.Server; s != nil {
		setString(&c.Server.Address, s.Address)
		setString(&c.Server.FrontendURL, s.FrontendURL)
		setString(&c.Server.LogLevel, s.LogLevel)
	}
	if d := raw.Database; d != nil {
		setString(&c.Database.Driver, d.Driver)
		switch {
		case d.DSN != nil:
			// An explicit empty dsn turns persistence off.
			c.Database.DSN = *d.DSN
		case c.Database.Driver != Default().Database.Driver:
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	}
	if r := raw.Rules; r != nil {
		setInt(&c.Rules.Decks, r.Decks)
		setString(&c.Rules.Composition, r.Composition)
		setInt(&c.Rules.Bet, r.Bet)
	}
	if d := raw.Dealer; d != nil {
		setString(&c.Dealer.StepInterval, d.StepInterval)
	}
	if t := raw.Trainer; t != nil {
		setString(&c.Trainer.CorrectDelay, t.CorrectDelay)
		setString(&c.Trainer.IncorrectDelay, t.IncorrectDelay)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}

	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("invalid database driver %q", c.Database.Driver)
	}

	if _, err := c.GameRules(); err != nil {
		return err
	}

	for name, v := range map[string]string{
		"dealer.step_interval":    c.Dealer.StepInterval,
		"trainer.correct_delay":   c.Trainer.CorrectDelay,
		"trainer.incorrect_delay": c.Trainer.IncorrectDelay,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s: must not be negative", name)
		}
	}

	return nil
}

// GameRules converts the rules block to engine rules.
func (c *Config) GameRules() (game.Rules, error) {
	if c.Rules.Decks < 1 || c.Rules.Decks > 8 {
		return game.Rules{}, fmt.Errorf("rules.decks must be between 1 and 8, got %d", c.Rules.Decks)
	}
	if c.Rules.Bet <= 0 {
		return game.Rules{}, fmt.Errorf("rules.bet must be positive, got %d", c.Rules.Bet)
	}
	composition, err := game.ParseComposition(c.Rules.Composition)
	if err != nil {
		return game.Rules{}, fmt.Errorf("rules.composition: %w", err)
	}
	return game.Rules{
		Decks:       c.Rules.Decks,
		Composition: composition,
		Bet:         c.Rules.Bet,
	}, nil
}

// StepInterval returns the pause between dealer steps.
func (c *Config) StepInterval() time.Duration {
	d, _ := time.ParseDuration(c.Dealer.StepInterval)
	return d
}

// TrainerDelays returns how long correct and incorrect verdicts are shown.
func (c *Config) TrainerDelays() (correct, incorrect time.Duration) {
	correct, _ = time.ParseDuration(c.Trainer.CorrectDelay)
	incorrect, _ = time.ParseDuration(c.Trainer.IncorrectDelay)
	return correct, incorrect
}
