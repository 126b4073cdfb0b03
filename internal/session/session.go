// Package session owns a single game-mode round between HTTP requests and
// sequences the dealer turn the way the table UI does: actions are gated on
// the round's status, and the dealer plays in timed steps once the player's
// last hand is done.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/calvinwijaya/blackjack-trainer/internal/game"
)

var (
	ErrNotPlaying   = errors.New("round is not accepting actions")
	ErrDealerTurn   = errors.New("dealer is playing")
	ErrCannotDouble = errors.New("hand cannot be doubled")
	ErrCannotSplit  = errors.New("hand cannot be split")
)

// Game is a game-mode round with its identity and dealer-turn flag.
type Game struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	state      game.GameState
	dealerTurn bool
	updatedAt  time.Time
	clock      quartz.Clock
}

// Snapshot is a consistent copy of a Game, safe to serialize.
type Snapshot struct {
	ID         string         `json:"id"`
	State      game.GameState `json:"state"`
	DealerTurn bool           `json:"dealerTurn"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// New wraps a freshly dealt state in a new session.
func New(state game.GameState, clock quartz.Clock) *Game {
	now := clock.Now()
	return &Game{
		ID:        uuid.New().String(),
		CreatedAt: now,
		state:     state,
		updatedAt: now,
		clock:     clock,
	}
}

// Restore rebuilds a session from a snapshot.
func Restore(s Snapshot, clock quartz.Clock) *Game {
	return &Game{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		state:      s.State,
		dealerTurn: s.DealerTurn,
		updatedAt:  s.UpdatedAt,
		clock:      clock,
	}
}

// Snapshot returns a copy of the session.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		ID:         g.ID,
		State:      g.state.Clone(),
		DealerTurn: g.dealerTurn,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.updatedAt,
	}
}

// State returns the current round state.
func (g *Game) State() game.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// DealerTurn reports whether the dealer is playing out the round.
func (g *Game) DealerTurn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dealerTurn
}

func (g *Game) checkPlaying() error {
	if g.dealerTurn {
		return ErrDealerTurn
	}
	if !g.state.Status.AcceptsActions() {
		return ErrNotPlaying
	}
	return nil
}

func (g *Game) set(next game.GameState) {
	g.state = next
	g.updatedAt = g.clock.Now()
}

// Hit draws a card. Busting the last of several split hands hands the round
// to the dealer.
func (g *Game) Hit() (game.GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkPlaying(); err != nil {
		return g.state, err
	}

	g.set(g.state.Hit())
	if g.state.Status == game.LastHandBusted {
		g.dealerTurn = true
	}
	return g.state, nil
}

// Stand moves to the next hand, or starts the dealer turn on the last hand.
func (g *Game) Stand() (game.GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkPlaying(); err != nil {
		return g.state, err
	}

	if g.state.IsLastHand() {
		g.dealerTurn = true
		g.updatedAt = g.clock.Now()
		return g.state, nil
	}
	g.set(g.state.Stand())
	return g.state, nil
}

// Double doubles down. When the doubled hand was the last one and the round
// is not settled, the dealer turn starts.
func (g *Game) Double() (game.GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkPlaying(); err != nil {
		return g.state, err
	}
	if !g.state.CanDouble() {
		return g.state, ErrCannotDouble
	}

	last := g.state.IsLastHand()
	g.set(g.state.Double())
	if last && !g.state.Status.IsTerminal() {
		g.dealerTurn = true
	}
	return g.state, nil
}

// Split splits the active pair.
func (g *Game) Split() (game.GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkPlaying(); err != nil {
		return g.state, err
	}
	if !g.state.CanSplit() {
		return g.state, ErrCannotSplit
	}

	g.set(g.state.Split())
	return g.state, nil
}

// StepDealer advances the dealer turn by one step. done is true once the
// round is settled or when no dealer turn is in progress.
func (g *Game) StepDealer() (state game.GameState, done bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.dealerTurn {
		return g.state, true
	}

	g.set(g.state.DealerStep())
	if g.state.Status.IsTerminal() {
		g.dealerTurn = false
		return g.state, true
	}
	return g.state, false
}
