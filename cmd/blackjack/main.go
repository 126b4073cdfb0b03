package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/calvinwijaya/blackjack-trainer/internal/config"
	"github.com/calvinwijaya/blackjack-trainer/internal/randutil"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" default:"blackjack.hcl" env:"BLACKJACK_CONFIG" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" env:"BLACKJACK_LOG_LEVEL" help:"Log level (overrides config)"`
}

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" default:"1" help:"Run the HTTP and WebSocket server"`
	Drill   DrillCmd         `cmd:"" help:"Practice basic strategy in the terminal"`
	Play    PlayCmd          `cmd:"" help:"Play rounds against the dealer in the terminal"`
}

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Blackjack game server and basic strategy trainer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

// load reads the configuration and builds the logger. Interactive commands
// log at warn level unless a level was asked for explicitly, so that log
// lines do not interleave with the table.
func (g *Globals) load(interactive bool) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	switch {
	case g.LogLevel != "":
		cfg.Server.LogLevel = g.LogLevel
	case interactive:
		cfg.Server.LogLevel = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return cfg, logger, nil
}

// seedSource returns a goroutine safe seed generator. A fixed seed makes the
// whole sequence of dealt shoes reproducible.
func seedSource(seed *int64) func() int64 {
	if seed == nil {
		return randutil.Seed
	}
	rng := randutil.New(*seed)
	var mu sync.Mutex
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		return rng.Int64()
	}
}
