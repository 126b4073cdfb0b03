package store

import (
	"errors"

	"github.com/calvinwijaya/blackjack-trainer/internal/session"
	"github.com/calvinwijaya/blackjack-trainer/internal/trainer"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrDrillNotFound = errors.New("drill not found")
)

// Store defines the interface for game and drill storage
type Store interface {
	// SaveGame saves a game to the store
	SaveGame(g *session.Game) error

	// GetGame retrieves a game by ID
	GetGame(id string) (*session.Game, error)

	// DeleteGame removes a game from the store
	DeleteGame(id string) error

	// GetAllGames returns all games in the store
	GetAllGames() ([]*session.Game, error)

	// SaveDrill saves a copy of a drill
	SaveDrill(d *trainer.Drill) error

	// GetDrill retrieves a copy of a drill by ID
	GetDrill(id string) (*trainer.Drill, error)

	// UpdateDrill applies fn to the stored drill and saves the result.
	// Updates to the same drill never interleave. It returns a copy of the
	// updated drill.
	UpdateDrill(id string, fn func(d *trainer.Drill)) (*trainer.Drill, error)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*DatabaseStore)(nil)
)
