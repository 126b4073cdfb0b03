package store

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/calvinwijaya/blackjack-trainer/internal/db"
	"github.com/calvinwijaya/blackjack-trainer/internal/session"
	"github.com/calvinwijaya/blackjack-trainer/internal/trainer"
)

// DatabaseStore keeps live games and drills in memory and writes every save
// through to the database. Lookups that miss the cache are loaded from the
// database, so sessions survive a restart.
type DatabaseStore struct {
	cache  *MemoryStore
	db     *db.Database
	clock  quartz.Clock
	logger *log.Logger

	// drillMu serializes drill updates across the cache and the database.
	drillMu sync.Mutex
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.Database, clock quartz.Clock, logger *log.Logger) *DatabaseStore {
	return &DatabaseStore{
		cache:  NewMemoryStore(),
		db:     database,
		clock:  clock,
		logger: logger.WithPrefix("store"),
	}
}

// SaveGame saves a game to the cache and the database
func (s *DatabaseStore) SaveGame(g *session.Game) error {
	if err := s.cache.SaveGame(g); err != nil {
		return err
	}
	return s.db.SaveGame(g.Snapshot())
}

// GetGame retrieves a game by ID, loading it from the database on a miss
func (s *DatabaseStore) GetGame(id string) (*session.Game, error) {
	if g, err := s.cache.GetGame(id); err == nil {
		return g, nil
	}

	snap, err := s.db.GetGame(id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	g := session.Restore(snap, s.clock)
	s.logger.Debug("Game loaded from database", "game", id, "status", snap.State.Status)
	if err := s.cache.SaveGame(g); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGame removes a game from the cache and the database
func (s *DatabaseStore) DeleteGame(id string) error {
	cacheErr := s.cache.DeleteGame(id)
	err := s.db.DeleteGame(id)
	if errors.Is(err, db.ErrNotFound) {
		if cacheErr != nil {
			return ErrGameNotFound
		}
		return nil
	}
	return err
}

// GetAllGames returns all games in the database
func (s *DatabaseStore) GetAllGames() ([]*session.Game, error) {
	snaps, err := s.db.GetAllGames()
	if err != nil {
		return nil, err
	}

	games := make([]*session.Game, 0, len(snaps))
	for _, snap := range snaps {
		if g, err := s.cache.GetGame(snap.ID); err == nil {
			games = append(games, g)
			continue
		}
		games = append(games, session.Restore(snap, s.clock))
	}
	return games, nil
}

// SaveDrill saves a drill to the cache and the database
func (s *DatabaseStore) SaveDrill(d *trainer.Drill) error {
	if err := s.cache.SaveDrill(d); err != nil {
		return err
	}
	return s.db.SaveDrill(d)
}

// GetDrill retrieves a drill by ID, loading it from the database on a miss
func (s *DatabaseStore) GetDrill(id string) (*trainer.Drill, error) {
	if d, err := s.cache.GetDrill(id); err == nil {
		return d, nil
	}

	d, err := s.db.GetDrill(id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrDrillNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.SaveDrill(d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDrill loads a drill, applies fn and writes it through. Updates are
// serialized so concurrent answers are all counted.
func (s *DatabaseStore) UpdateDrill(id string, fn func(d *trainer.Drill)) (*trainer.Drill, error) {
	s.drillMu.Lock()
	defer s.drillMu.Unlock()

	d, err := s.GetDrill(id)
	if err != nil {
		return nil, err
	}
	fn(d)
	if err := s.SaveDrill(d); err != nil {
		return nil, err
	}
	return d, nil
}
