package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/calvinwijaya/blackjack-trainer/internal/api"
	"github.com/calvinwijaya/blackjack-trainer/internal/db"
	"github.com/calvinwijaya/blackjack-trainer/internal/session"
	"github.com/calvinwijaya/blackjack-trainer/internal/store"
	"github.com/calvinwijaya/blackjack-trainer/internal/trainer"
)

// ServeCmd runs the game server
type ServeCmd struct {
	Addr     string `short:"a" help:"Server address to bind to (overrides config)"`
	Frontend string `help:"Frontend URL allowed by CORS (overrides config)"`
	DSN      string `name:"db" help:"Database DSN (overrides config)"`
	Seed     *int64 `help:"Deterministic RNG seed (optional)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, logger, err := g.load(false)
	if err != nil {
		return err
	}

	// Apply command line overrides
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Frontend != "" {
		cfg.Server.FrontendURL = c.Frontend
	}
	if c.DSN != "" {
		cfg.Database.DSN = c.DSN
	}

	rules, err := cfg.GameRules()
	if err != nil {
		return err
	}
	clock := quartz.NewReal()

	// Initialize the store
	var gameStore store.Store = store.NewMemoryStore()
	var database *db.Database
	if cfg.Database.DSN != "" {
		if cfg.Database.Driver == "sqlite3" && !strings.HasPrefix(cfg.Database.DSN, "file:") {
			// Create data directory if it doesn't exist
			if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
		}

		database, err = db.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			logger.Warn("Failed to initialize database", "error", err)
			logger.Warn("Continuing without database persistence")
			database = nil
		} else {
			logger.Info("Database initialized", "driver", cfg.Database.Driver)
			defer database.Close()
			gameStore = store.NewDatabaseStore(database, clock, logger)
		}
	} else {
		logger.Info("In-memory game store initialized")
	}

	// Initialize WebSocket hub
	frontend := cfg.Server.FrontendURL
	hub := api.NewHub(logger, func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == frontend
	})
	go hub.Run()
	defer hub.Stop()

	correctDelay, incorrectDelay := cfg.TrainerDelays()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)

	handlers := api.NewHandlers(ctx, api.Deps{
		Store:    gameStore,
		Database: database,
		Hub:      hub,
		Trainer:  trainer.New(rules, logger, trainer.WithDelays(correctDelay, incorrectDelay), trainer.WithClock(clock)),
		Driver:   session.NewDriver(clock, cfg.StepInterval(), logger),
		Rules:    rules,
		Clock:    clock,
		Seed:     seedSource(c.Seed),
		Logger:   logger,
	})

	// Set up router
	r := mux.NewRouter()
	handlers.RegisterRoutes(r)
	r.Use(api.LoggingMiddleware(logger))

	// Configure CORS
	cc := cors.New(cors.Options{
		AllowedOrigins:   []string{frontend},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      cc.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	eg.Go(func() error {
		logger.Info("Starting server",
			"addr", srv.Addr,
			"decks", rules.Decks,
			"composition", rules.Composition,
			"bet", rules.Bet)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		handlers.Wait()
		return err
	})

	return eg.Wait()
}
