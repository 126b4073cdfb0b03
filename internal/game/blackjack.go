package game

import (
	"errors"
	"fmt"
)

// MaxHands is the number of hands a player may hold after splitting.
const MaxHands = 4

// Rules configures how rounds are dealt.
type Rules struct {
	Decks       int
	Composition Composition
	Bet         int
}

// DefaultRules returns the rules the trainer deals with out of the box.
func DefaultRules() Rules {
	return Rules{
		Decks:       DefaultDecks,
		Composition: LegacyComposition,
		Bet:         10,
	}
}

// GameState is a snapshot of one round. Transitions never modify a state in
// place; each returns a new state that shares no storage with its input.
type GameState struct {
	PlayerHands       [][]Card     `json:"playerHands"`
	DealerHand        []Card       `json:"dealerHand"`
	Deck              Shoe         `json:"deck"`
	CurrentPlayerHand int          `json:"currentPlayerHand"`
	Bet               int          `json:"bet"`
	Status            GameStatus   `json:"gameStatus"`
	DealerRevealed    bool         `json:"dealerRevealed"`
	HandResults       []HandResult `json:"handResults"`
}

// NewGame deals a fresh round with the dealer's hole card hidden.
func NewGame(r Rules, seed int64) GameState {
	return Deal(NewShoe(r.Decks, r.Composition, seed), r.Bet, false)
}

// NewSimulatorHand deals a fresh round for strategy drills. The dealer's hand
// is revealed from the start.
func NewSimulatorHand(r Rules, seed int64) GameState {
	return Deal(NewShoe(r.Decks, r.Composition, seed), r.Bet, true)
}

// Deal draws two cards for the player then two for the dealer.
func Deal(shoe Shoe, bet int, revealed bool) GameState {
	var p1, p2, d1, d2 Card
	p1, shoe = shoe.Draw()
	p2, shoe = shoe.Draw()
	d1, shoe = shoe.Draw()
	d2, shoe = shoe.Draw()

	return GameState{
		PlayerHands:       [][]Card{{p1, p2}},
		DealerHand:        []Card{d1, d2},
		Deck:              shoe,
		CurrentPlayerHand: 0,
		Bet:               bet,
		Status:            Playing,
		DealerRevealed:    revealed,
		HandResults:       []HandResult{HandPlaying},
	}
}

// Clone returns a deep copy of the state.
func (s GameState) Clone() GameState {
	hands := make([][]Card, len(s.PlayerHands))
	for i, h := range s.PlayerHands {
		hands[i] = append(make([]Card, 0, len(h)+1), h...)
	}
	s.PlayerHands = hands
	s.DealerHand = append(make([]Card, 0, len(s.DealerHand)+1), s.DealerHand...)
	s.HandResults = append(make([]HandResult, 0, len(s.HandResults)+1), s.HandResults...)
	s.Deck = s.Deck.clone()
	return s
}

// ErrInvalidState is returned for a state whose hands, results and cursor do
// not line up, such as one decoded from a damaged record.
var ErrInvalidState = errors.New("invalid game state")

// Validate checks the structural invariants every dealt state holds.
func (s GameState) Validate() error {
	switch {
	case len(s.PlayerHands) == 0 || len(s.PlayerHands) > MaxHands:
		return fmt.Errorf("%w: %d player hands", ErrInvalidState, len(s.PlayerHands))
	case len(s.HandResults) != len(s.PlayerHands):
		return fmt.Errorf("%w: %d results for %d hands", ErrInvalidState, len(s.HandResults), len(s.PlayerHands))
	case s.CurrentPlayerHand < 0 || s.CurrentPlayerHand >= len(s.PlayerHands):
		return fmt.Errorf("%w: current hand %d of %d", ErrInvalidState, s.CurrentPlayerHand, len(s.PlayerHands))
	case len(s.DealerHand) < 2:
		return fmt.Errorf("%w: dealer holds %d cards", ErrInvalidState, len(s.DealerHand))
	}
	for i, h := range s.PlayerHands {
		if len(h) == 0 {
			return fmt.Errorf("%w: hand %d is empty", ErrInvalidState, i)
		}
	}
	return nil
}

// ActiveHand returns the hand receiving the next action.
func (s GameState) ActiveHand() []Card {
	if s.CurrentPlayerHand < 0 || s.CurrentPlayerHand >= len(s.PlayerHands) {
		return nil
	}
	return s.PlayerHands[s.CurrentPlayerHand]
}

// IsLastHand reports whether the active hand is the last one to act.
func (s GameState) IsLastHand() bool {
	return s.CurrentPlayerHand == len(s.PlayerHands)-1
}

// DealerUpCard returns the dealer's face-up card. The first dealer card is
// the hole card.
func (s GameState) DealerUpCard() Card {
	if len(s.DealerHand) < 2 {
		return Card{}
	}
	return s.DealerHand[1]
}

// CanSplit reports whether the active hand is a pair and another hand fits.
func (s GameState) CanSplit() bool {
	return IsPair(s.ActiveHand()) && len(s.PlayerHands) < MaxHands
}

// CanDouble reports whether the active hand still holds its first two cards.
func (s GameState) CanDouble() bool {
	return len(s.ActiveHand()) == 2
}

func (s *GameState) draw() Card {
	var c Card
	c, s.Deck = s.Deck.Draw()
	return c
}

// advance moves to the next hand and gives a freshly split hand its second card.
func (s *GameState) advance() {
	s.CurrentPlayerHand++
	i := s.CurrentPlayerHand
	if len(s.PlayerHands[i]) == 1 {
		s.PlayerHands[i] = append(s.PlayerHands[i], s.draw())
	}
}

// settleBust records a busted active hand and moves the round along.
func (s *GameState) settleBust() {
	s.HandResults[s.CurrentPlayerHand] = HandBust
	switch {
	case !s.IsLastHand():
		s.advance()
	case len(s.PlayerHands) == 1:
		s.Status = PlayerBust
	default:
		s.Status = LastHandBusted
	}
}

// Hit draws a card into the active hand.
func (s GameState) Hit() GameState {
	if !s.Status.AcceptsActions() {
		return s
	}

	next := s.Clone()
	i := next.CurrentPlayerHand
	next.PlayerHands[i] = append(next.PlayerHands[i], next.draw())

	if IsBust(next.PlayerHands[i]) {
		next.settleBust()
	}
	return next
}

// Stand ends the active hand's turn. Standing on the last hand hands over to
// the dealer.
func (s GameState) Stand() GameState {
	if !s.Status.AcceptsActions() {
		return s
	}

	next := s.Clone()
	if !next.IsLastHand() {
		next.advance()
		return next
	}
	return next.ResolveDealerHand()
}

// Double doubles the bet and draws exactly one card, ending the active
// hand's turn.
func (s GameState) Double() GameState {
	if !s.Status.AcceptsActions() || !s.CanDouble() {
		return s
	}

	next := s.Clone()
	next.Bet *= 2
	i := next.CurrentPlayerHand
	next.PlayerHands[i] = append(next.PlayerHands[i], next.draw())

	switch {
	case IsBust(next.PlayerHands[i]):
		next.settleBust()
	case !next.IsLastHand():
		next.advance()
	}
	return next
}

// Split moves the second card of a pair into a new hand placed right after
// the active one, then draws a replacement card for the active hand.
func (s GameState) Split() GameState {
	if !s.Status.AcceptsActions() || !s.CanSplit() {
		return s
	}

	next := s.Clone()
	i := next.CurrentPlayerHand
	hand := next.PlayerHands[i]
	moved := hand[1]
	next.PlayerHands[i] = append(hand[:1], next.draw())

	hands := make([][]Card, 0, len(next.PlayerHands)+1)
	hands = append(hands, next.PlayerHands[:i+1]...)
	hands = append(hands, []Card{moved})
	hands = append(hands, next.PlayerHands[i+1:]...)
	next.PlayerHands = hands

	results := make([]HandResult, 0, len(next.HandResults)+1)
	results = append(results, next.HandResults[:i+1]...)
	results = append(results, HandPlaying)
	results = append(results, next.HandResults[i+1:]...)
	next.HandResults = results

	return next
}
