package game

// DealerStandsOn is the total at which the dealer stops drawing.
const DealerStandsOn = 17

// RevealDealerCard turns the dealer's hole card face up.
func (s GameState) RevealDealerCard() GameState {
	next := s.Clone()
	next.DealerRevealed = true
	return next
}

// ResolveDealerHand plays the dealer once every hand has had its turn.
// Before that it returns the state unchanged.
func (s GameState) ResolveDealerHand() GameState {
	if !s.IsLastHand() {
		return s
	}
	return s.DealerHit()
}

// DealerHit draws one dealer card while the dealer is under 17. Callers keep
// invoking it until the round is settled. At 17 or more the round is settled.
func (s GameState) DealerHit() GameState {
	next := s.Clone()
	if HandValue(next.DealerHand) < DealerStandsOn {
		next.DealerHand = append(next.DealerHand, next.draw())
		return next
	}
	next.finalize()
	return next
}

// DealerStep performs one sub-step of the dealer turn: reveal the hole card
// if it is still hidden, otherwise resolve the dealer hand.
func (s GameState) DealerStep() GameState {
	if !s.DealerRevealed {
		return s.RevealDealerCard()
	}
	return s.ResolveDealerHand()
}

func (s *GameState) finalize() {
	dealer := HandValue(s.DealerHand)

	if dealer > 21 {
		s.Status = DealerBust
		for i, r := range s.HandResults {
			if r == HandPlaying {
				s.HandResults[i] = HandWin
			}
		}
		return
	}

	best := -1
	for i, hand := range s.PlayerHands {
		v := HandValue(hand)
		switch {
		case v > 21:
			s.HandResults[i] = HandLose
		case v > dealer:
			s.HandResults[i] = HandWin
		case v < dealer:
			s.HandResults[i] = HandLose
		default:
			s.HandResults[i] = HandPush
		}
		if v <= 21 && v > best {
			best = v
		}
	}

	switch {
	case best > dealer:
		s.Status = PlayerWin
	case dealer > best:
		s.Status = DealerWin
	default:
		s.Status = Push
	}
}
