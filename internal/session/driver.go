package session

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/sanity-io/litter"

	"github.com/calvinwijaya/blackjack-trainer/internal/game"
)

// DefaultStepInterval is the pause before each dealer step.
const DefaultStepInterval = time.Second

// Driver plays out dealer turns one step per tick.
type Driver struct {
	clock    quartz.Clock
	interval time.Duration
	logger   *log.Logger
}

// NewDriver creates a driver stepping every interval on clock.
func NewDriver(clock quartz.Clock, interval time.Duration, logger *log.Logger) *Driver {
	if interval <= 0 {
		interval = DefaultStepInterval
	}
	return &Driver{
		clock:    clock,
		interval: interval,
		logger:   logger.WithPrefix("driver"),
	}
}

// Start runs g's dealer turn in the background. Every state produced by a
// step is sent on the returned channel, which is closed after the round
// settles or ctx is cancelled. The ticker is armed before Start returns.
func (d *Driver) Start(ctx context.Context, g *Game) <-chan game.GameState {
	out := make(chan game.GameState)
	ticker := d.clock.NewTicker(d.interval, "driver", "step")

	go func() {
		defer close(out)
		defer ticker.Stop()

		logger := d.logger.With("game", g.ID)
		logger.Debug("Dealer turn started")

		for {
			select {
			case <-ctx.Done():
				logger.Debug("Dealer turn cancelled", "error", ctx.Err())
				return
			case <-ticker.C:
			}

			state, done := g.StepDealer()
			if logger.GetLevel() <= log.DebugLevel {
				logger.Debug("Dealer step", "status", state.Status, "state", litter.Sdump(state.View()))
			}

			select {
			case out <- state:
			case <-ctx.Done():
				return
			}

			if done {
				logger.Info("Round settled", "status", state.Status, "results", state.HandResults)
				return
			}
		}
	}()

	return out
}

// Run plays out the dealer turn and blocks until it is finished, calling
// onStep with every intermediate state.
func (d *Driver) Run(ctx context.Context, g *Game, onStep func(game.GameState)) error {
	for state := range d.Start(ctx, g) {
		if onStep != nil {
			onStep(state)
		}
	}
	return ctx.Err()
}
