package game

import "fmt"

// GameStatus is the overall state of a round.
type GameStatus uint8

const (
	Playing GameStatus = iota
	PlayerBlackjack
	PlayerBust
	DealerBust
	PlayerWin
	DealerWin
	Push
	// LastHandBusted marks that the final split hand busted; the dealer turn
	// still has to run before the round is settled.
	LastHandBusted
)

func (s GameStatus) String() string {
	switch s {
	case Playing:
		return "playing"
	case PlayerBlackjack:
		return "playerBlackjack"
	case PlayerBust:
		return "playerBust"
	case DealerBust:
		return "dealerBust"
	case PlayerWin:
		return "playerWin"
	case DealerWin:
		return "dealerWin"
	case Push:
		return "push"
	case LastHandBusted:
		return "lastHandBusted"
	default:
		return fmt.Sprintf("GameStatus(%d)", uint8(s))
	}
}

// AcceptsActions reports whether player actions are legal.
func (s GameStatus) AcceptsActions() bool {
	return s == Playing
}

// IsTerminal reports whether the round is settled.
func (s GameStatus) IsTerminal() bool {
	switch s {
	case Playing, LastHandBusted:
		return false
	case PlayerBlackjack, PlayerBust, DealerBust, PlayerWin, DealerWin, Push:
		return true
	default:
		return false
	}
}

func (s GameStatus) MarshalText() ([]byte, error) {
	if s > LastHandBusted {
		return nil, fmt.Errorf("invalid game status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *GameStatus) UnmarshalText(text []byte) error {
	for v := Playing; v <= LastHandBusted; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown game status %q", text)
}

// HandResult is the outcome of a single player hand.
type HandResult uint8

const (
	HandPlaying HandResult = iota
	HandWin
	HandLose
	HandBust
	HandPush
)

func (r HandResult) String() string {
	switch r {
	case HandPlaying:
		return "playing"
	case HandWin:
		return "win"
	case HandLose:
		return "lose"
	case HandBust:
		return "bust"
	case HandPush:
		return "push"
	default:
		return fmt.Sprintf("HandResult(%d)", uint8(r))
	}
}

// IsSettled reports whether the hand has a final outcome.
func (r HandResult) IsSettled() bool {
	switch r {
	case HandPlaying:
		return false
	case HandWin, HandLose, HandBust, HandPush:
		return true
	default:
		return false
	}
}

func (r HandResult) MarshalText() ([]byte, error) {
	if r > HandPush {
		return nil, fmt.Errorf("invalid hand result %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *HandResult) UnmarshalText(text []byte) error {
	for v := HandPlaying; v <= HandPush; v++ {
		if v.String() == string(text) {
			*r = v
			return nil
		}
	}
	return fmt.Errorf("unknown hand result %q", text)
}
