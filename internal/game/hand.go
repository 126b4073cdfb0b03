package game

// HandValue calculates the value of a hand. Aces count as 11 and are reduced
// to 1 one at a time while the total is over 21. The result may exceed 21
// when no reduction is left.
func HandValue(hand []Card) int {
	score := 0
	aces := 0

	for _, card := range hand {
		if card.IsAce() {
			aces++
		}
		score += card.Value()
	}

	for aces > 0 && score > 21 {
		score -= 10
		aces--
	}

	return score
}

// IsSoft reports whether the hand holds an ace and has not busted.
func IsSoft(hand []Card) bool {
	if HandValue(hand) > 21 {
		return false
	}
	for _, card := range hand {
		if card.IsAce() {
			return true
		}
	}
	return false
}

// IsPair reports whether the hand is exactly two cards of the same rank label.
func IsPair(hand []Card) bool {
	return len(hand) == 2 && hand[0].Rank == hand[1].Rank
}

// IsBust reports whether the hand is over 21.
func IsBust(hand []Card) bool {
	return HandValue(hand) > 21
}
