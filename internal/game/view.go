package game

// HandView is a player hand as shown to clients.
type HandView struct {
	Cards  []Card     `json:"cards"`
	Value  int        `json:"value"`
	Soft   bool       `json:"soft"`
	Result HandResult `json:"result"`
	Active bool       `json:"active"`
}

// DealerView is the dealer hand as shown to clients. While the hole card is
// hidden only the up-card and its value are exposed.
type DealerView struct {
	Cards  []Card `json:"cards"`
	Hidden bool   `json:"hidden"`
	Value  int    `json:"value"`
}

// View is the client-facing projection of a GameState. It never exposes the
// shoe order or a hidden hole card.
type View struct {
	PlayerHands       []HandView `json:"playerHands"`
	Dealer            DealerView `json:"dealer"`
	CurrentPlayerHand int        `json:"currentPlayerHand"`
	Bet               int        `json:"bet"`
	Status            GameStatus `json:"gameStatus"`
	DealerRevealed    bool       `json:"dealerRevealed"`
	CanSplit          bool       `json:"canSplit"`
	CanDouble         bool       `json:"canDouble"`
	CardsRemaining    int        `json:"cardsRemaining"`
}

// View projects the state for display.
func (s GameState) View() View {
	hands := make([]HandView, len(s.PlayerHands))
	for i, h := range s.PlayerHands {
		hands[i] = HandView{
			Cards:  append([]Card(nil), h...),
			Value:  HandValue(h),
			Soft:   IsSoft(h),
			Result: s.HandResults[i],
			Active: i == s.CurrentPlayerHand && s.Status.AcceptsActions(),
		}
	}

	dealer := DealerView{Hidden: !s.DealerRevealed}
	if s.DealerRevealed {
		dealer.Cards = append([]Card(nil), s.DealerHand...)
	} else if len(s.DealerHand) > 1 {
		dealer.Cards = append([]Card(nil), s.DealerHand[1:]...)
	}
	dealer.Value = HandValue(dealer.Cards)

	playing := s.Status.AcceptsActions()
	return View{
		PlayerHands:       hands,
		Dealer:            dealer,
		CurrentPlayerHand: s.CurrentPlayerHand,
		Bet:               s.Bet,
		Status:            s.Status,
		DealerRevealed:    s.DealerRevealed,
		CanSplit:          playing && s.CanSplit(),
		CanDouble:         playing && s.CanDouble(),
		CardsRemaining:    s.Deck.Len(),
	}
}

// DrillView projects the state as a strategy question. Only the dealer's
// up-card is shown, even when the hole card has been dealt face up.
func (s GameState) DrillView() View {
	s.DealerRevealed = false
	return s.View()
}
