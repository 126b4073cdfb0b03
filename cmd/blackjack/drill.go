package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"

	"github.com/calvinwijaya/blackjack-trainer/internal/display"
	"github.com/calvinwijaya/blackjack-trainer/internal/strategy"
	"github.com/calvinwijaya/blackjack-trainer/internal/trainer"
)

const (
	optionReset = "Reset score"
	optionQuit  = "Quit"
)

// DrillCmd runs the basic strategy trainer in the terminal
type DrillCmd struct {
	Seed *int64 `help:"Deterministic RNG seed (optional)"`
}

func (c *DrillCmd) Run(g *Globals) error {
	cfg, logger, err := g.load(true)
	if err != nil {
		return err
	}
	rules, err := cfg.GameRules()
	if err != nil {
		return err
	}

	correctDelay, incorrectDelay := cfg.TrainerDelays()
	tr := trainer.New(rules, logger, trainer.WithDelays(correctDelay, incorrectDelay))
	seed := seedSource(c.Seed)
	d := tr.NewDrill(seed())
	r := display.NewRenderer()

	options := make([]string, 0, len(strategy.Plays)+2)
	for _, p := range strategy.Plays {
		options = append(options, p.Description())
	}
	options = append(options, optionReset, optionQuit)

	for {
		fmt.Println()
		fmt.Println(r.Header("Basic Strategy Trainer"))
		fmt.Println(r.Table(d.Hand.DrillView()))
		fmt.Println(r.Score(d.Correct, d.Incorrect, d.Accuracy()))

		choice, err := pterm.DefaultInteractiveSelect.
			WithDefaultText("What is the optimal play?").
			WithOptions(options).
			Show()
		if err != nil {
			return err
		}

		switch choice {
		case optionQuit:
			fmt.Println(r.Score(d.Correct, d.Incorrect, d.Accuracy()))
			return nil
		case optionReset:
			tr.Reset(d, seed())
			continue
		}

		play, err := strategy.ParsePlay(choice)
		if err != nil {
			return err
		}
		v := tr.Answer(d, play)
		fmt.Println(r.Verdict(v.Correct, v.Message))
		time.Sleep(v.NextHandDelay)
	}
}
