// Package display renders rounds and drill results for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/calvinwijaya/blackjack-trainer/internal/game"
)

// Styles contains styling for table display
type Styles struct {
	Header    lipgloss.Style
	Label     lipgloss.Style
	CardRed   lipgloss.Style
	CardBlack lipgloss.Style
	Hidden    lipgloss.Style
	Active    lipgloss.Style
	Win       lipgloss.Style
	Lose      lipgloss.Style
	Push      lipgloss.Style
	Muted     lipgloss.Style
}

// NewStyles creates the default styles
func NewStyles() *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#1B5E20")).
			Padding(0, 2).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		CardRed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		CardBlack: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true),
		Hidden: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Active: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Win: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Lose: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Push: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#74B9FF")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}

// Renderer turns game views into styled text.
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a renderer with the default styles
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Card renders one card, red suits in red.
func (r *Renderer) Card(c game.Card) string {
	if c.IsRed() {
		return r.styles.CardRed.Render(c.String())
	}
	return r.styles.CardBlack.Render(c.String())
}

// Cards renders a list of cards separated by spaces.
func (r *Renderer) Cards(cards []game.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = r.Card(c)
	}
	return strings.Join(parts, " ")
}

// Value renders a hand total, marking soft totals.
func (r *Renderer) Value(v int, soft bool) string {
	if soft {
		return fmt.Sprintf("soft %d", v)
	}
	return fmt.Sprintf("%d", v)
}

// Result renders a hand result.
func (r *Renderer) Result(res game.HandResult) string {
	switch res {
	case game.HandWin:
		return r.styles.Win.Render("WIN")
	case game.HandLose:
		return r.styles.Lose.Render("LOSE")
	case game.HandBust:
		return r.styles.Lose.Render("BUST")
	case game.HandPush:
		return r.styles.Push.Render("PUSH")
	case game.HandPlaying:
		return ""
	default:
		return res.String()
	}
}

// Status renders the round's overall outcome.
func (r *Renderer) Status(s game.GameStatus) string {
	switch s {
	case game.Playing:
		return r.styles.Muted.Render("In play")
	case game.PlayerBlackjack:
		return r.styles.Win.Render("Blackjack!")
	case game.PlayerBust:
		return r.styles.Lose.Render("Bust! Dealer wins.")
	case game.DealerBust:
		return r.styles.Win.Render("Dealer busts! You win.")
	case game.PlayerWin:
		return r.styles.Win.Render("You win!")
	case game.DealerWin:
		return r.styles.Lose.Render("Dealer wins.")
	case game.Push:
		return r.styles.Push.Render("Push.")
	case game.LastHandBusted:
		return r.styles.Muted.Render("Last hand busted, dealer to play")
	default:
		return s.String()
	}
}

// Table renders the dealer and every player hand of a view.
func (r *Renderer) Table(v game.View) string {
	var b strings.Builder

	b.WriteString(r.styles.Label.Render("Dealer"))
	b.WriteString("  ")
	if v.Dealer.Hidden {
		b.WriteString(r.styles.Hidden.Render("??"))
		b.WriteString(" ")
	}
	b.WriteString(r.Cards(v.Dealer.Cards))
	b.WriteString(r.styles.Muted.Render(fmt.Sprintf("  (%d)", v.Dealer.Value)))
	b.WriteString("\n")

	for i, h := range v.PlayerHands {
		label := "Hand"
		if len(v.PlayerHands) > 1 {
			label = fmt.Sprintf("Hand %d", i+1)
		}
		if h.Active {
			b.WriteString(r.styles.Active.Render("> " + label))
		} else {
			b.WriteString(r.styles.Label.Render("  " + label))
		}
		b.WriteString("  ")
		b.WriteString(r.Cards(h.Cards))
		b.WriteString(r.styles.Muted.Render(fmt.Sprintf("  (%s)", r.Value(h.Value, h.Soft))))
		if res := r.Result(h.Result); res != "" {
			b.WriteString("  ")
			b.WriteString(res)
		}
		b.WriteString("\n")
	}

	b.WriteString(r.styles.Muted.Render(fmt.Sprintf("Bet %d  Shoe %d", v.Bet, v.CardsRemaining)))
	return b.String()
}

// Header renders a title bar.
func (r *Renderer) Header(title string) string {
	return r.styles.Header.Render(title)
}

// Score renders drill counters.
func (r *Renderer) Score(correct, incorrect int, accuracy string) string {
	return fmt.Sprintf("%s %s  %s %s  %s %s%%",
		r.styles.Label.Render("Correct:"), r.styles.Win.Render(fmt.Sprint(correct)),
		r.styles.Label.Render("Incorrect:"), r.styles.Lose.Render(fmt.Sprint(incorrect)),
		r.styles.Label.Render("Accuracy:"), accuracy)
}

// Verdict renders the feedback for an answer.
func (r *Renderer) Verdict(correct bool, message string) string {
	if correct {
		return r.styles.Win.Render(message)
	}
	return r.styles.Lose.Render(message)
}
