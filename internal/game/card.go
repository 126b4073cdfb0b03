package game

import (
	"fmt"
	"strings"
)

type Suit string
type Rank string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Suits lists the four suits in the order shoes are built.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Ranks lists all thirteen ranks.
var Ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// Card is an immutable playing card.
type Card struct {
	Rank Rank `json:"value"`
	Suit Suit `json:"suit"`
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// Value returns the blackjack value of the card, counting an ace as 11.
func (c Card) Value() int {
	switch c.Rank {
	case Ace:
		return 11
	case Ten, Jack, Queen, King:
		return 10
	case Two:
		return 2
	case Three:
		return 3
	case Four:
		return 4
	case Five:
		return 5
	case Six:
		return 6
	case Seven:
		return 7
	case Eight:
		return 8
	case Nine:
		return 9
	default:
		return 0
	}
}

// IsAce returns true if the card is an ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// IsRed returns true for hearts and diamonds
func (c Card) IsRed() bool {
	return c.Suit == Hearts || c.Suit == Diamonds
}

func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// ParseCard parses strings such as "A♠", "As", "10h" or "Td".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}

	suit, err := parseSuit(runes[len(runes)-1])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}

	rank, err := parseRank(string(runes[:len(runes)-1]))
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCards parses a whitespace or comma separated list of cards.
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func parseSuit(r rune) (Suit, error) {
	switch r {
	case '♠', 's', 'S':
		return Spades, nil
	case '♥', 'h', 'H':
		return Hearts, nil
	case '♦', 'd', 'D':
		return Diamonds, nil
	case '♣', 'c', 'C':
		return Clubs, nil
	}
	return "", fmt.Errorf("unknown suit %q", r)
}

func parseRank(s string) (Rank, error) {
	switch strings.ToUpper(s) {
	case "A":
		return Ace, nil
	case "K":
		return King, nil
	case "Q":
		return Queen, nil
	case "J":
		return Jack, nil
	case "10", "T":
		return Ten, nil
	}

	for _, r := range Ranks {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown rank %q", s)
}
