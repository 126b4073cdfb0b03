// Package trainer scores basic-strategy drills: the player is shown a hand
// and the dealer's up-card, picks a play, and is told whether it matched
// the optimal one.
package trainer

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/calvinwijaya/blackjack-trainer/internal/game"
	"github.com/calvinwijaya/blackjack-trainer/internal/strategy"
)

const (
	DefaultCorrectDelay   = time.Second
	DefaultIncorrectDelay = 2 * time.Second
)

// Drill is one trainer session.
type Drill struct {
	ID        string         `json:"id"`
	Hand      game.GameState `json:"hand"`
	Correct   int            `json:"correct"`
	Incorrect int            `json:"incorrect"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Attempts returns the number of answered hands.
func (d *Drill) Attempts() int {
	return d.Correct + d.Incorrect
}

// Accuracy returns the share of correct answers as a percentage with one
// decimal, "0.0" before the first answer.
func (d *Drill) Accuracy() string {
	total := d.Attempts()
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(d.Correct)/float64(total)*100)
}

// Optimal returns the best play for the drill's current hand.
func (d *Drill) Optimal() strategy.Play {
	return strategy.Optimal(d.Hand.PlayerHands[0], d.Hand.DealerUpCard())
}

// Verdict is the outcome of one answer.
type Verdict struct {
	Correct       bool          `json:"correct"`
	Play          strategy.Play `json:"play"`
	Optimal       strategy.Play `json:"optimal"`
	Message       string        `json:"message"`
	NextHandDelay time.Duration `json:"-"`
}

// Trainer deals drill hands and scores answers.
type Trainer struct {
	rules          game.Rules
	correctDelay   time.Duration
	incorrectDelay time.Duration
	clock          quartz.Clock
	logger         *log.Logger
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithDelays sets how long a verdict stays on screen before the next hand.
func WithDelays(correct, incorrect time.Duration) Option {
	return func(t *Trainer) {
		t.correctDelay = correct
		t.incorrectDelay = incorrect
	}
}

// WithClock sets the clock used for drill timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(t *Trainer) {
		t.clock = clock
	}
}

// New creates a trainer dealing hands under rules.
func New(rules game.Rules, logger *log.Logger, opts ...Option) *Trainer {
	t := &Trainer{
		rules:          rules,
		correctDelay:   DefaultCorrectDelay,
		incorrectDelay: DefaultIncorrectDelay,
		clock:          quartz.NewReal(),
		logger:         logger.WithPrefix("trainer"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewDrill starts a drill with zeroed counters and a fresh hand.
func (t *Trainer) NewDrill(seed int64) *Drill {
	now := t.clock.Now()
	d := &Drill{
		ID:        uuid.New().String(),
		Hand:      game.NewSimulatorHand(t.rules, seed),
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.logger.Debug("Drill started", "drill", d.ID, "hand", d.Hand.PlayerHands[0], "up", d.Hand.DealerUpCard())
	return d
}

// Answer scores play against the current hand, updates the counters and
// deals the next hand from the same shoe.
func (t *Trainer) Answer(d *Drill, play strategy.Play) Verdict {
	optimal := d.Optimal()

	v := Verdict{Play: play, Optimal: optimal}
	if play == optimal {
		d.Correct++
		v.Correct = true
		v.Message = "Correct!"
		v.NextHandDelay = t.correctDelay
	} else {
		d.Incorrect++
		v.Message = fmt.Sprintf("Incorrect. The optimal play is to %s.", optimal.Description())
		v.NextHandDelay = t.incorrectDelay
	}

	t.logger.Debug("Answer scored",
		"drill", d.ID,
		"play", play,
		"optimal", optimal,
		"correct", d.Correct,
		"incorrect", d.Incorrect)

	d.Hand = game.Deal(d.Hand.Deck, t.rules.Bet, true)
	d.UpdatedAt = t.clock.Now()
	return v
}

// Reset zeroes the counters and deals a hand from a fresh shoe.
func (t *Trainer) Reset(d *Drill, seed int64) {
	d.Correct = 0
	d.Incorrect = 0
	d.Hand = game.NewSimulatorHand(t.rules, seed)
	d.UpdatedAt = t.clock.Now()
	t.logger.Debug("Drill reset", "drill", d.ID)
}
