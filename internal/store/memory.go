package store

import (
	"sort"
	"sync"

	"github.com/calvinwijaya/blackjack-trainer/internal/session"
	"github.com/calvinwijaya/blackjack-trainer/internal/trainer"
)

// MemoryStore is an in-memory implementation of game storage. Games are
// kept as live sessions; drills are copied in and out.
type MemoryStore struct {
	games  map[string]*session.Game
	drills map[string]trainer.Drill
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:  make(map[string]*session.Game),
		drills: make(map[string]trainer.Drill),
	}
}

// SaveGame saves a game to the store
func (s *MemoryStore) SaveGame(g *session.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.games[g.ID] = g
	return nil
}

// GetGame retrieves a game by ID
func (s *MemoryStore) GetGame(id string) (*session.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.games[id]
	if !exists {
		return nil, ErrGameNotFound
	}

	return g, nil
}

// DeleteGame removes a game from the store
func (s *MemoryStore) DeleteGame(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[id]; !exists {
		return ErrGameNotFound
	}
	delete(s.games, id)

	return nil
}

// GetAllGames returns all games in the store, newest first
func (s *MemoryStore) GetAllGames() ([]*session.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]*session.Game, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})

	return games, nil
}

// SaveDrill saves a copy of a drill
func (s *MemoryStore) SaveDrill(d *trainer.Drill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *d
	cp.Hand = d.Hand.Clone()
	s.drills[d.ID] = cp
	return nil
}

// GetDrill retrieves a copy of a drill by ID
func (s *MemoryStore) GetDrill(id string) (*trainer.Drill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.drills[id]
	if !exists {
		return nil, ErrDrillNotFound
	}

	d.Hand = d.Hand.Clone()
	return &d, nil
}

// UpdateDrill applies fn to a drill while holding the store lock
func (s *MemoryStore) UpdateDrill(id string, fn func(d *trainer.Drill)) (*trainer.Drill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, exists := s.drills[id]
	if !exists {
		return nil, ErrDrillNotFound
	}

	d.Hand = d.Hand.Clone()
	fn(&d)
	s.drills[id] = d

	out := d
	out.Hand = d.Hand.Clone()
	return &out, nil
}
