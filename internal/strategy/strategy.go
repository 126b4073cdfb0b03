// Package strategy answers basic-strategy questions for a player hand against
// the dealer's up-card.
package strategy

import (
	"fmt"
	"strings"

	"github.com/calvinwijaya/blackjack-trainer/internal/game"
)

// Play is a player decision.
type Play string

const (
	Hit        Play = "H"
	Stand      Play = "S"
	DoubleDown Play = "DD"
	Split      Play = "SP"
)

// Plays lists every decision in the order they are offered to a player.
var Plays = []Play{Hit, Stand, DoubleDown, Split}

// ParsePlay accepts a short code ("H", "DD") or a description ("double down").
func ParsePlay(s string) (Play, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for _, p := range Plays {
		if norm == string(p) || norm == strings.ToUpper(p.Description()) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown play %q", s)
}

// Description returns the human readable name of the play.
func (p Play) Description() string {
	switch p {
	case Hit:
		return "Hit"
	case Stand:
		return "Stand"
	case DoubleDown:
		return "Double Down"
	case Split:
		return "Split"
	default:
		return string(p)
	}
}

func (p Play) String() string {
	return string(p)
}

// Optimal returns the textbook play for hand against the dealer's up-card.
// Pair rules are checked first, then soft totals, then hard totals; a pair
// whose rule does not apply is played by its total.
func Optimal(hand []game.Card, upCard game.Card) Play {
	total := game.HandValue(hand)
	up := upCard.Value()

	if game.IsPair(hand) {
		if p, ok := pairPlay(hand[0].Rank, up); ok {
			return p
		}
	}

	if game.IsSoft(hand) {
		return softPlay(total, up)
	}
	return hardPlay(total, up)
}

func pairPlay(rank game.Rank, up int) (Play, bool) {
	switch rank {
	case game.Ace, game.Eight:
		return Split, true
	case game.Nine:
		if up != 7 && up != 10 && up != 11 {
			return Split, true
		}
	case game.Two, game.Three, game.Six, game.Seven:
		if up <= 7 {
			return Split, true
		}
	case game.Four:
		if up == 5 || up == 6 {
			return Split, true
		}
	case game.Five:
		if up <= 9 {
			return DoubleDown, true
		}
	case game.Ten:
		return Stand, true
	}
	return "", false
}

func softPlay(total, up int) Play {
	switch {
	case total <= 17:
		return Hit
	case total == 18 && up >= 9:
		return Hit
	case total == 18 && up <= 6:
		return DoubleDown
	default:
		return Stand
	}
}

func hardPlay(total, up int) Play {
	switch {
	case total <= 8:
		return Hit
	case total == 9:
		if up >= 3 && up <= 6 {
			return DoubleDown
		}
		return Hit
	case total == 10:
		if up <= 9 {
			return DoubleDown
		}
		return Hit
	case total == 11:
		return DoubleDown
	case total == 12:
		if up >= 4 && up <= 6 {
			return Stand
		}
		return Hit
	case total <= 16:
		if up <= 6 {
			return Stand
		}
		return Hit
	default:
		return Stand
	}
}
