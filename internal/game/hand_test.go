package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calvinwijaya/blackjack-trainer/internal/randutil"
)

func TestHandValue(t *testing.T) {
	tests := []struct {
		hand string
		want int
	}{
		{"As Kh", 21},
		{"As Qd", 21},
		{"As Ah", 12},
		{"Ks Qh 5d", 25},
		{"As Ah 9c", 21},
		{"As 9h Ac Kd", 21},
		{"As 6h", 17},
		{"As 6h 9c", 16},
		{"2s 3h", 5},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.hand, func(t *testing.T) {
			assert.Equal(t, tt.want, HandValue(cards(t, tt.hand)))
		})
	}
}

func TestHandValueWithoutAcesIsPlainSum(t *testing.T) {
	rng := randutil.New(99)
	nonAces := Ranks[:len(Ranks)-1]

	for i := 0; i < 500; i++ {
		n := 1 + rng.IntN(6)
		hand := make([]Card, n)
		sum := 0
		for j := range hand {
			hand[j] = NewCard(nonAces[rng.IntN(len(nonAces))], Suits[rng.IntN(len(Suits))])
			sum += hand[j].Value()
		}
		assert.Equal(t, sum, HandValue(hand), "hand %v", hand)
	}
}

func TestHandValueReducesAcesToTwentyOneOrLess(t *testing.T) {
	rng := randutil.New(7)

	for i := 0; i < 500; i++ {
		aces := 1 + rng.IntN(3)
		hand := make([]Card, 0, aces+3)
		for j := 0; j < aces; j++ {
			hand = append(hand, NewCard(Ace, Spades))
		}
		extra := rng.IntN(4)
		for j := 0; j < extra; j++ {
			hand = append(hand, NewCard(Ranks[rng.IntN(len(Ranks)-1)], Hearts))
		}

		hard := 0
		for _, c := range hand {
			hard += c.Value()
		}
		if hard-21 <= 10*aces {
			assert.LessOrEqual(t, HandValue(hand), 21, "hand %v", hand)
		}
	}
}

func TestHandPredicates(t *testing.T) {
	assert.True(t, IsSoft(cards(t, "As 6h")))
	assert.True(t, IsSoft(cards(t, "As Ah")))
	assert.False(t, IsSoft(cards(t, "Ks 6h")))

	assert.True(t, IsPair(cards(t, "8s 8h")))
	assert.False(t, IsPair(cards(t, "Ks Qh")))
	assert.False(t, IsPair(cards(t, "8s 8h 8d")))

	assert.True(t, IsBust(cards(t, "Ks Qh 5d")))
	assert.False(t, IsBust(cards(t, "Ks Qh As")))
}
