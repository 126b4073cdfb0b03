package game

import (
	"encoding/json"
	"fmt"
	rand "math/rand/v2"

	"github.com/calvinwijaya/blackjack-trainer/internal/randutil"
)

// DefaultDecks is the number of decks in a shoe.
const DefaultDecks = 6

// Composition selects which ranks each deck of a shoe contains.
type Composition string

const (
	// LegacyComposition builds every deck from the single rank "2", so a six
	// deck shoe holds 24 twos. It is the shoe the trainer has always dealt.
	LegacyComposition Composition = "legacy"
	// StandardComposition builds every deck from all thirteen ranks.
	StandardComposition Composition = "standard"
)

// ParseComposition validates a composition name.
func ParseComposition(s string) (Composition, error) {
	switch Composition(s) {
	case LegacyComposition, StandardComposition:
		return Composition(s), nil
	}
	return "", fmt.Errorf("unknown shoe composition %q", s)
}

// Ranks returns the ranks dealt into each suit of a deck.
func (c Composition) Ranks() []Rank {
	switch c {
	case StandardComposition:
		return Ranks
	default:
		return []Rank{Two}
	}
}

// Shoe is the drawable pile of cards. It is a value: Draw returns the card
// together with the updated shoe and never touches the receiver's storage.
type Shoe struct {
	cards       []Card
	decks       int
	composition Composition
	src         rand.PCG
}

// NewShoe builds and shuffles a shoe of the given number of decks.
func NewShoe(decks int, composition Composition, seed int64) Shoe {
	s := Shoe{
		decks:       decks,
		composition: composition,
		src:         randutil.NewPCG(seed),
	}
	s.cards = s.build()
	return s
}

// NewStackedShoe returns a shoe that deals the given cards in the order they
// are listed. Once exhausted it refills like a standard six deck shoe.
func NewStackedShoe(cards ...Card) Shoe {
	s := Shoe{
		decks:       DefaultDecks,
		composition: StandardComposition,
		src:         randutil.NewPCG(1),
		cards:       make([]Card, len(cards)),
	}
	for i, c := range cards {
		s.cards[len(cards)-1-i] = c
	}
	return s
}

// build creates a freshly shuffled set of cards, advancing the shoe's source.
func (s *Shoe) build() []Card {
	decks := s.decks
	if decks < 1 {
		decks = DefaultDecks
	}
	ranks := s.composition.Ranks()

	cards := make([]Card, 0, decks*len(Suits)*len(ranks))
	for d := 0; d < decks; d++ {
		for _, suit := range Suits {
			for _, rank := range ranks {
				cards = append(cards, NewCard(rank, suit))
			}
		}
	}

	// Fisher-Yates shuffle
	r := rand.New(&s.src)
	for i := len(cards) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return cards
}

// Draw removes and returns the last card of the shoe. An empty shoe is
// replenished with a freshly shuffled one before drawing, so Draw always
// yields a card.
func (s Shoe) Draw() (Card, Shoe) {
	s = s.clone()
	if len(s.cards) == 0 {
		s.cards = append(s.cards, s.build()...)
	}

	last := len(s.cards) - 1
	card := s.cards[last]
	s.cards = s.cards[:last]
	return card, s
}

// Len returns the number of cards left in the shoe
func (s Shoe) Len() int {
	return len(s.cards)
}

// Cards returns a copy of the remaining cards, next card to be drawn last.
func (s Shoe) Cards() []Card {
	return append([]Card(nil), s.cards...)
}

// Composition returns the composition used to build and refill the shoe.
func (s Shoe) Composition() Composition {
	return s.composition
}

func (s Shoe) clone() Shoe {
	s.cards = append(make([]Card, 0, len(s.cards)), s.cards...)
	return s
}

type shoeJSON struct {
	Cards       []Card      `json:"cards"`
	Decks       int         `json:"decks"`
	Composition Composition `json:"composition"`
	RNG         []byte      `json:"rng"`
}

func (s Shoe) MarshalJSON() ([]byte, error) {
	src := s.src
	state, err := src.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal shoe rng: %w", err)
	}
	cards := s.cards
	if cards == nil {
		cards = []Card{}
	}
	return json.Marshal(shoeJSON{
		Cards:       cards,
		Decks:       s.decks,
		Composition: s.composition,
		RNG:         state,
	})
}

func (s *Shoe) UnmarshalJSON(data []byte) error {
	var raw shoeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var src rand.PCG
	if len(raw.RNG) > 0 {
		if err := src.UnmarshalBinary(raw.RNG); err != nil {
			return fmt.Errorf("unmarshal shoe rng: %w", err)
		}
	}

	*s = Shoe{
		cards:       raw.Cards,
		decks:       raw.Decks,
		composition: raw.Composition,
		src:         src,
	}
	return nil
}
