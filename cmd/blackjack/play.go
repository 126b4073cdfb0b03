package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/quartz"
	"github.com/pterm/pterm"

	"github.com/calvinwijaya/blackjack-trainer/internal/display"
	"github.com/calvinwijaya/blackjack-trainer/internal/game"
	"github.com/calvinwijaya/blackjack-trainer/internal/session"
)

// PlayCmd plays rounds against the dealer in the terminal
type PlayCmd struct {
	Seed *int64 `help:"Deterministic RNG seed (optional)"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, logger, err := g.load(true)
	if err != nil {
		return err
	}
	rules, err := cfg.GameRules()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := quartz.NewReal()
	driver := session.NewDriver(clock, cfg.StepInterval(), logger)
	seed := seedSource(c.Seed)
	r := display.NewRenderer()

	for {
		round := session.New(game.NewGame(rules, seed()), clock)
		if err := playRound(ctx, round, driver, r); err != nil {
			return err
		}

		again, err := pterm.DefaultInteractiveConfirm.
			WithDefaultText("Deal another hand?").
			WithDefaultValue(true).
			Show()
		if err != nil || !again {
			return err
		}
	}
}

// playRound prompts for actions until the player's turn ends, then shows the
// dealer playing out the round.
func playRound(ctx context.Context, round *session.Game, driver *session.Driver, r *display.Renderer) error {
	for {
		state := round.State()
		fmt.Println()
		fmt.Println(r.Table(state.View()))

		if round.DealerTurn() {
			err := driver.Run(ctx, round, func(s game.GameState) {
				fmt.Println()
				fmt.Println(r.Table(s.View()))
			})
			if err != nil {
				return err
			}
			fmt.Println(r.Status(round.State().Status))
			return nil
		}
		if state.Status.IsTerminal() {
			fmt.Println(r.Status(state.Status))
			return nil
		}

		actions := []string{"Hit", "Stand"}
		if state.CanDouble() {
			actions = append(actions, "Double")
		}
		if state.CanSplit() {
			actions = append(actions, "Split")
		}

		choice, err := pterm.DefaultInteractiveSelect.
			WithDefaultText("Your move").
			WithOptions(actions).
			Show()
		if err != nil {
			return err
		}

		switch choice {
		case "Hit":
			_, err = round.Hit()
		case "Stand":
			_, err = round.Stand()
		case "Double":
			_, err = round.Double()
		case "Split":
			_, err = round.Split()
		}
		if err != nil {
			pterm.Warning.Println(err)
		}
	}
}
