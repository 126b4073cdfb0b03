package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewHidesHoleCard(t *testing.T) {
	s := dealFrom(t, "As 6h Kd 5c")

	v := s.View()

	assert.True(t, v.Dealer.Hidden)
	assert.Equal(t, cards(t, "5c"), v.Dealer.Cards)
	assert.Equal(t, 5, v.Dealer.Value)
	require.Len(t, v.PlayerHands, 1)
	assert.Equal(t, 17, v.PlayerHands[0].Value)
	assert.True(t, v.PlayerHands[0].Soft)
	assert.True(t, v.PlayerHands[0].Active)
	assert.True(t, v.CanDouble)
	assert.False(t, v.CanSplit)
	assert.Equal(t, 0, v.CardsRemaining)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"value":"K"`)
	assert.NotContains(t, string(data), `"deck"`)
}

func TestViewRevealed(t *testing.T) {
	s := dealFrom(t, "8s 8h Kd 5c").RevealDealerCard()

	v := s.View()

	assert.False(t, v.Dealer.Hidden)
	assert.Equal(t, cards(t, "Kd 5c"), v.Dealer.Cards)
	assert.Equal(t, 15, v.Dealer.Value)
	assert.True(t, v.CanSplit)
}

func TestViewOfSettledRound(t *testing.T) {
	s := dealFrom(t, "Ks 6h 9d 7c 6s").Hit()
	require.Equal(t, PlayerBust, s.Status)

	v := s.View()

	assert.False(t, v.PlayerHands[0].Active)
	assert.False(t, v.CanDouble)
	assert.Equal(t, HandBust, v.PlayerHands[0].Result)
	assert.Equal(t, PlayerBust, v.Status)
}

func TestDrillViewShowsOnlyUpCard(t *testing.T) {
	shoe := NewStackedShoe(cards(t, "Ts 6h Kc 5d")...)
	s := Deal(shoe, 10, true)
	require.Equal(t, cards(t, "5d")[0], s.DealerUpCard())

	v := s.DrillView()

	assert.True(t, v.Dealer.Hidden)
	assert.Equal(t, cards(t, "5d"), v.Dealer.Cards)
	assert.Equal(t, 5, v.Dealer.Value)
	assert.Equal(t, 16, v.PlayerHands[0].Value)
	assert.True(t, s.DealerRevealed, "the state itself is untouched")

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"value":"K"`)
}
