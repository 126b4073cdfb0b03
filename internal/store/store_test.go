package store

import (
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinwijaya/blackjack-trainer/internal/db"
	"github.com/calvinwijaya/blackjack-trainer/internal/game"
	"github.com/calvinwijaya/blackjack-trainer/internal/session"
	"github.com/calvinwijaya/blackjack-trainer/internal/strategy"
	"github.com/calvinwijaya/blackjack-trainer/internal/trainer"
)

func newDatabaseStore(t *testing.T, database *db.Database) *DatabaseStore {
	t.Helper()
	return NewDatabaseStore(database, quartz.NewMock(t), log.New(io.Discard))
}

func openDB(t *testing.T, path string) *db.Database {
	t.Helper()
	d, err := db.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

// testStores runs fn against every Store implementation.
func testStores(t *testing.T, fn func(t *testing.T, s Store, clock quartz.Clock)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore(), quartz.NewMock(t))
	})
	t.Run("database", func(t *testing.T) {
		d := openDB(t, filepath.Join(t.TempDir(), "store.db"))
		fn(t, newDatabaseStore(t, d), quartz.NewMock(t))
	})
}

func TestGames(t *testing.T) {
	testStores(t, func(t *testing.T, s Store, clock quartz.Clock) {
		g := session.New(game.NewGame(game.DefaultRules(), 1), clock)
		require.NoError(t, s.SaveGame(g))

		got, err := s.GetGame(g.ID)
		require.NoError(t, err)
		assert.Equal(t, g.ID, got.ID)

		all, err := s.GetAllGames()
		require.NoError(t, err)
		assert.Len(t, all, 1)

		require.NoError(t, s.DeleteGame(g.ID))
		_, err = s.GetGame(g.ID)
		assert.ErrorIs(t, err, ErrGameNotFound)
		assert.ErrorIs(t, s.DeleteGame(g.ID), ErrGameNotFound)
	})
}

func TestDrillsAreCopied(t *testing.T) {
	testStores(t, func(t *testing.T, s Store, clock quartz.Clock) {
		tr := trainer.New(game.DefaultRules(), log.New(io.Discard), trainer.WithClock(clock))
		d := tr.NewDrill(1)
		require.NoError(t, s.SaveDrill(d))

		d.Correct = 10

		got, err := s.GetDrill(d.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Correct)

		_, err = s.GetDrill("missing")
		assert.ErrorIs(t, err, ErrDrillNotFound)
	})
}

func TestUpdateDrillCountsConcurrentAnswers(t *testing.T) {
	testStores(t, func(t *testing.T, s Store, clock quartz.Clock) {
		tr := trainer.New(game.DefaultRules(), log.New(io.Discard), trainer.WithClock(clock))
		d := tr.NewDrill(1)
		require.NoError(t, s.SaveDrill(d))

		const answers = 20
		var wg sync.WaitGroup
		for i := range answers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				play := strategy.Split
				if i%2 == 1 {
					play = strategy.Hit
				}
				_, err := s.UpdateDrill(d.ID, func(d *trainer.Drill) {
					tr.Answer(d, play)
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.GetDrill(d.ID)
		require.NoError(t, err)
		assert.Equal(t, answers, got.Attempts())
		assert.Equal(t, answers/2, got.Correct)

		_, err = s.UpdateDrill("missing", func(*trainer.Drill) {})
		assert.ErrorIs(t, err, ErrDrillNotFound)
	})
}

func TestDatabaseStoreLoadsAfterRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restart.db")
	clock := quartz.NewMock(t)

	first := newDatabaseStore(t, openDB(t, path))
	g := session.New(game.NewGame(game.DefaultRules(), 2), clock)
	_, err := g.Stand()
	require.NoError(t, err)
	require.NoError(t, first.SaveGame(g))

	tr := trainer.New(game.DefaultRules(), log.New(io.Discard), trainer.WithClock(clock))
	d := tr.NewDrill(3)
	d.Correct, d.Incorrect = 2, 1
	require.NoError(t, first.SaveDrill(d))

	clock.Advance(time.Minute)
	second := newDatabaseStore(t, openDB(t, path))

	loaded, err := second.GetGame(g.ID)
	require.NoError(t, err)
	assert.True(t, loaded.DealerTurn())
	assert.Equal(t, g.State().PlayerHands, loaded.State().PlayerHands)

	again, err := second.GetGame(g.ID)
	require.NoError(t, err)
	assert.Same(t, loaded, again, "loaded games are cached")

	drill, err := second.GetDrill(d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, drill.Correct)
	assert.Equal(t, "66.7", drill.Accuracy())
}
