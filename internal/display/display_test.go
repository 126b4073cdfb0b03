package display

import (
	"os"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinwijaya/blackjack-trainer/internal/game"
)

func TestMain(m *testing.M) {
	// Plain text output keeps assertions independent of the terminal.
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func deal(t *testing.T, s string) game.GameState {
	t.Helper()
	cards, err := game.ParseCards(s)
	require.NoError(t, err)
	return game.Deal(game.NewStackedShoe(cards...), 10, false)
}

func TestCards(t *testing.T) {
	r := NewRenderer()
	cards, err := game.ParseCards("As 10h")
	require.NoError(t, err)

	assert.Equal(t, "A♠ 10♥", r.Cards(cards))
}

func TestTableHidesHoleCard(t *testing.T) {
	r := NewRenderer()
	v := deal(t, "As 6h Kd 5c").View()

	out := r.Table(v)

	assert.Contains(t, out, "Dealer  ?? 5♣  (5)")
	assert.Contains(t, out, "> Hand  A♠ 6♥  (soft 17)")
	assert.NotContains(t, out, "K♦")
	assert.Contains(t, out, "Bet 10")
}

func TestTableShowsResults(t *testing.T) {
	r := NewRenderer()
	s := deal(t, "8s 8h Td 7c 2s 3c").Split().Stand().Stand()
	require.Equal(t, game.DealerWin, s.Status)

	out := r.Table(s.View())

	assert.Contains(t, out, "Hand 1  8♠ 2♠  (10)  LOSE")
	assert.Contains(t, out, "Hand 2  8♥ 3♣  (11)  LOSE")
}

func TestStatus(t *testing.T) {
	r := NewRenderer()
	assert.Equal(t, "You win!", r.Status(game.PlayerWin))
	assert.Equal(t, "Push.", r.Status(game.Push))
	assert.Equal(t, "Correct: 2  Incorrect: 1  Accuracy: 66.7%", r.Score(2, 1, "66.7"))
}
