package session

import (
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinwijaya/blackjack-trainer/internal/game"
)

// stacked starts a session from a hidden-hole round dealt from cards listed
// in draw order: player, player, hole card, up-card, then the rest.
func stacked(t *testing.T, clock quartz.Clock, s string) *Game {
	t.Helper()
	cards, err := game.ParseCards(s)
	require.NoError(t, err)
	return New(game.Deal(game.NewStackedShoe(cards...), 10, false), clock)
}

// playDealer steps the dealer until the round settles.
func playDealer(t *testing.T, g *Game) game.GameState {
	t.Helper()
	for i := 0; i < 20; i++ {
		state, done := g.StepDealer()
		if done {
			return state
		}
	}
	t.Fatal("dealer turn did not finish")
	return game.GameState{}
}

func TestStandOnLastHandStartsDealerTurn(t *testing.T) {
	g := stacked(t, quartz.NewMock(t), "Ts 7h Td 6c 5s")

	state, err := g.Stand()
	require.NoError(t, err)

	assert.True(t, g.DealerTurn())
	assert.Len(t, state.DealerHand, 2, "standing on the last hand leaves the dealer to the driver")

	_, err = g.Hit()
	assert.ErrorIs(t, err, ErrDealerTurn)

	state, done := g.StepDealer()
	assert.False(t, done)
	assert.True(t, state.DealerRevealed)

	state, done = g.StepDealer()
	assert.False(t, done)
	assert.Len(t, state.DealerHand, 3)

	state, done = g.StepDealer()
	assert.True(t, done)
	assert.Equal(t, game.DealerWin, state.Status)
	assert.False(t, g.DealerTurn())

	_, err = g.Stand()
	assert.ErrorIs(t, err, ErrNotPlaying)
}

func TestHitBustingSingleHandSettles(t *testing.T) {
	g := stacked(t, quartz.NewMock(t), "Ts 6h 9d 7c Ks")

	state, err := g.Hit()
	require.NoError(t, err)

	assert.Equal(t, game.PlayerBust, state.Status)
	assert.False(t, g.DealerTurn())
	_, done := g.StepDealer()
	assert.True(t, done)
}

func TestHitBustingLastSplitHandStartsDealerTurn(t *testing.T) {
	g := stacked(t, quartz.NewMock(t), "8s 8h Td 7c 2s 6c Kd")

	_, err := g.Split()
	require.NoError(t, err)
	_, err = g.Stand()
	require.NoError(t, err)
	assert.False(t, g.DealerTurn())

	state, err := g.Hit()
	require.NoError(t, err)
	assert.Equal(t, game.LastHandBusted, state.Status)
	assert.True(t, g.DealerTurn())

	final := playDealer(t, g)
	assert.Equal(t, game.DealerWin, final.Status)
	assert.Equal(t, []game.HandResult{game.HandLose, game.HandLose}, final.HandResults)
}

func TestDoubleGating(t *testing.T) {
	g := stacked(t, quartz.NewMock(t), "5s 6h Td 7c Ks 2d")

	_, err := g.Hit()
	require.NoError(t, err)

	_, err = g.Double()
	assert.ErrorIs(t, err, ErrCannotDouble)
}

func TestDoubleOnLastHandStartsDealerTurn(t *testing.T) {
	g := stacked(t, quartz.NewMock(t), "5s 6h Td 7c Ks")

	state, err := g.Double()
	require.NoError(t, err)

	assert.Equal(t, 20, state.Bet)
	assert.True(t, g.DealerTurn())

	final := playDealer(t, g)
	assert.Equal(t, game.PlayerWin, final.Status)
}

func TestDoubleBustOnOnlyHandSettles(t *testing.T) {
	g := stacked(t, quartz.NewMock(t), "Ts 6h Td 7c Ks")

	state, err := g.Double()
	require.NoError(t, err)

	assert.Equal(t, game.PlayerBust, state.Status)
	assert.False(t, g.DealerTurn())
}

func TestDoubleOnFirstSplitHandKeepsPlaying(t *testing.T) {
	g := stacked(t, quartz.NewMock(t), "5s 5h Td 7c 6d Ks 9c")

	_, err := g.Split()
	require.NoError(t, err)

	state, err := g.Double()
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentPlayerHand)
	assert.False(t, g.DealerTurn())
}

func TestSplitGating(t *testing.T) {
	g := stacked(t, quartz.NewMock(t), "8s 9h Td 7c")

	_, err := g.Split()
	assert.ErrorIs(t, err, ErrCannotSplit)
}

func TestSnapshotRestore(t *testing.T) {
	clock := quartz.NewMock(t)
	g := stacked(t, clock, "Ts 7h Td 6c 5s")
	_, err := g.Stand()
	require.NoError(t, err)

	snap := g.Snapshot()
	assert.Equal(t, g.ID, snap.ID)
	assert.True(t, snap.DealerTurn)

	restored := Restore(snap, clock)
	assert.Equal(t, g.ID, restored.ID)
	assert.True(t, restored.DealerTurn())
	assert.Equal(t, g.State().PlayerHands, restored.State().PlayerHands)

	// Stepping the restored session leaves the original alone.
	restored.StepDealer()
	assert.False(t, g.State().DealerRevealed)
}
