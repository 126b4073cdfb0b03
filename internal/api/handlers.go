package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/mux"

	"github.com/calvinwijaya/blackjack-trainer/internal/db"
	"github.com/calvinwijaya/blackjack-trainer/internal/game"
	"github.com/calvinwijaya/blackjack-trainer/internal/randutil"
	"github.com/calvinwijaya/blackjack-trainer/internal/session"
	"github.com/calvinwijaya/blackjack-trainer/internal/store"
	"github.com/calvinwijaya/blackjack-trainer/internal/strategy"
	"github.com/calvinwijaya/blackjack-trainer/internal/trainer"
)

// Deps are the collaborators of the API handlers. Database and Seed are
// optional.
type Deps struct {
	Store    store.Store
	Database *db.Database
	Hub      *Hub
	Trainer  *trainer.Trainer
	Driver   *session.Driver
	Rules    game.Rules
	Clock    quartz.Clock
	Seed     func() int64
	Logger   *log.Logger
}

// Handlers contains all the API handlers
type Handlers struct {
	store    store.Store
	database *db.Database
	hub      *Hub
	trainer  *trainer.Trainer
	driver   *session.Driver
	rules    game.Rules
	clock    quartz.Clock
	seed     func() int64
	logger   *log.Logger

	// ctx bounds background dealer turns.
	ctx     context.Context
	wg      sync.WaitGroup
	mu      sync.Mutex
	running map[string]bool
}

// NewHandlers creates a new instance of Handlers. Dealer turns started by the
// handlers stop when ctx is cancelled.
func NewHandlers(ctx context.Context, deps Deps) *Handlers {
	seed := deps.Seed
	if seed == nil {
		seed = randutil.Seed
	}
	return &Handlers{
		store:    deps.Store,
		database: deps.Database,
		hub:      deps.Hub,
		trainer:  deps.Trainer,
		driver:   deps.Driver,
		rules:    deps.Rules,
		clock:    deps.Clock,
		seed:     seed,
		logger:   deps.Logger.WithPrefix("api"),
		ctx:      ctx,
		running:  make(map[string]bool),
	}
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Game endpoints
	r.HandleFunc("/api/game/new", h.NewGame).Methods("POST")
	r.HandleFunc("/api/games", h.ListGames).Methods("GET")
	r.HandleFunc("/api/game/{id}", h.GetGame).Methods("GET")
	r.HandleFunc("/api/game/{id}", h.DeleteGame).Methods("DELETE")
	r.HandleFunc("/api/game/{id}/results", h.GetResults).Methods("GET")
	r.HandleFunc("/api/game/{id}/{action:hit|stand|double|split}", h.Action).Methods("POST")

	// Trainer endpoints
	r.HandleFunc("/api/trainer/new", h.NewDrill).Methods("POST")
	r.HandleFunc("/api/trainer/{id}", h.GetDrill).Methods("GET")
	r.HandleFunc("/api/trainer/{id}/answer", h.Answer).Methods("POST")
	r.HandleFunc("/api/trainer/{id}/reset", h.ResetDrill).Methods("POST")

	r.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws", h.hub.WebSocketHandler)
}

// Wait blocks until every background dealer turn has finished.
func (h *Handlers) Wait() {
	h.wg.Wait()
}

// response helper function to send JSON responses
func response(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// error response helper function
func errorResponse(w http.ResponseWriter, status int, message string) {
	response(w, status, map[string]string{"error": message})
}

// decode reads an optional JSON body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// GameResponse is a game as sent to clients.
type GameResponse struct {
	ID         string    `json:"id"`
	DealerTurn bool      `json:"dealerTurn"`
	State      game.View `json:"state"`
}

func newGameResponse(g *session.Game) GameResponse {
	snap := g.Snapshot()
	return GameResponse{
		ID:         snap.ID,
		DealerTurn: snap.DealerTurn,
		State:      snap.State.View(),
	}
}

// DrillResponse is a drill as sent to clients.
type DrillResponse struct {
	ID        string    `json:"id"`
	Correct   int       `json:"correct"`
	Incorrect int       `json:"incorrect"`
	Accuracy  string    `json:"accuracy"`
	Hand      game.View `json:"hand"`
}

func newDrillResponse(d *trainer.Drill) DrillResponse {
	return DrillResponse{
		ID:        d.ID,
		Correct:   d.Correct,
		Incorrect: d.Incorrect,
		Accuracy:  d.Accuracy(),
		Hand:      d.Hand.DrillView(),
	}
}

// VerdictResponse is the scored answer sent to clients.
type VerdictResponse struct {
	Correct         bool          `json:"correct"`
	Play            strategy.Play `json:"play"`
	Optimal         strategy.Play `json:"optimal"`
	Message         string        `json:"message"`
	NextHandDelayMs int64         `json:"nextHandDelayMs"`
}

// NewGame deals a new game-mode round
func (h *Handlers) NewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bet int `json:"bet"`
	}
	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rules := h.rules
	if req.Bet > 0 {
		rules.Bet = req.Bet
	}

	g := session.New(game.NewGame(rules, h.seed()), h.clock)
	if err := h.store.SaveGame(g); err != nil {
		h.logger.Error("Failed to save game", "game", g.ID, "error", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to save game")
		return
	}

	h.logger.Info("Game created", "game", g.ID, "bet", rules.Bet)
	response(w, http.StatusCreated, newGameResponse(g))
}

// GetGame returns the current state of a game
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookupGame(w, r)
	if !ok {
		return
	}

	// A game loaded mid dealer turn resumes it.
	if g.DealerTurn() {
		h.startDealerTurn(g)
	}

	response(w, http.StatusOK, newGameResponse(g))
}

// ListGames returns every known game
func (h *Handlers) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.store.GetAllGames()
	if err != nil {
		h.logger.Error("Failed to list games", "error", err)
		errorResponse(w, http.StatusInternalServerError, "Error retrieving games")
		return
	}

	list := make([]GameResponse, 0, len(games))
	for _, g := range games {
		list = append(list, newGameResponse(g))
	}
	response(w, http.StatusOK, list)
}

// DeleteGame removes a game
func (h *Handlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.DeleteGame(id); err != nil {
		if errors.Is(err, store.ErrGameNotFound) {
			errorResponse(w, http.StatusNotFound, "Game not found")
			return
		}
		h.logger.Error("Failed to delete game", "game", id, "error", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to delete game")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Action applies hit, stand, double or split to a game
func (h *Handlers) Action(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookupGame(w, r)
	if !ok {
		return
	}

	action := mux.Vars(r)["action"]
	var err error
	switch action {
	case "hit":
		_, err = g.Hit()
	case "stand":
		_, err = g.Stand()
	case "double":
		_, err = g.Double()
	case "split":
		_, err = g.Split()
	default:
		errorResponse(w, http.StatusNotFound, "Unknown action")
		return
	}
	if err != nil {
		errorResponse(w, http.StatusConflict, err.Error())
		return
	}

	if err := h.store.SaveGame(g); err != nil {
		h.logger.Error("Failed to update game", "game", g.ID, "error", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to update game")
		return
	}

	resp := newGameResponse(g)
	h.logger.Debug("Action applied", "game", g.ID, "action", action, "status", resp.State.Status)
	h.hub.BroadcastGameUpdate(resp)

	switch {
	case resp.DealerTurn:
		h.startDealerTurn(g)
	case resp.State.Status.IsTerminal():
		h.recordResults(g)
	}

	response(w, http.StatusOK, resp)
}

// GetResults returns the recorded hand results of a game
func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	if h.database == nil {
		errorResponse(w, http.StatusServiceUnavailable, "Database not available")
		return
	}

	records, err := h.database.GetHandResults(mux.Vars(r)["id"])
	if err != nil {
		h.logger.Error("Failed to read results", "error", err)
		errorResponse(w, http.StatusInternalServerError, "Error retrieving results")
		return
	}
	if records == nil {
		records = []db.HandRecord{}
	}
	response(w, http.StatusOK, records)
}

// GetStats returns aggregate results
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.database == nil {
		errorResponse(w, http.StatusServiceUnavailable, "Database not available")
		return
	}

	stats, err := h.database.GetStats()
	if err != nil {
		h.logger.Error("Failed to read stats", "error", err)
		errorResponse(w, http.StatusInternalServerError, "Error retrieving statistics")
		return
	}
	response(w, http.StatusOK, stats)
}

// NewDrill starts a trainer drill
func (h *Handlers) NewDrill(w http.ResponseWriter, r *http.Request) {
	d := h.trainer.NewDrill(h.seed())
	if err := h.store.SaveDrill(d); err != nil {
		h.logger.Error("Failed to save drill", "drill", d.ID, "error", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to save drill")
		return
	}
	response(w, http.StatusCreated, newDrillResponse(d))
}

// GetDrill returns a drill with its current hand
func (h *Handlers) GetDrill(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookupDrill(w, r)
	if !ok {
		return
	}
	response(w, http.StatusOK, newDrillResponse(d))
}

// Answer scores a play for the drill's current hand
func (h *Handlers) Answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Play string `json:"play"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	play, err := strategy.ParsePlay(req.Play)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var v trainer.Verdict
	d, ok := h.updateDrill(w, r, func(d *trainer.Drill) {
		v = h.trainer.Answer(d, play)
	})
	if !ok {
		return
	}

	response(w, http.StatusOK, map[string]any{
		"verdict": VerdictResponse{
			Correct:         v.Correct,
			Play:            v.Play,
			Optimal:         v.Optimal,
			Message:         v.Message,
			NextHandDelayMs: v.NextHandDelay.Milliseconds(),
		},
		"drill": newDrillResponse(d),
	})
}

// ResetDrill zeroes a drill's counters and deals a new hand
func (h *Handlers) ResetDrill(w http.ResponseWriter, r *http.Request) {
	seed := h.seed()
	d, ok := h.updateDrill(w, r, func(d *trainer.Drill) {
		h.trainer.Reset(d, seed)
	})
	if !ok {
		return
	}
	response(w, http.StatusOK, newDrillResponse(d))
}

func (h *Handlers) lookupGame(w http.ResponseWriter, r *http.Request) (*session.Game, bool) {
	g, err := h.store.GetGame(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrGameNotFound) {
		errorResponse(w, http.StatusNotFound, "Game not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to load game", "error", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to load game")
		return nil, false
	}
	return g, true
}

func (h *Handlers) lookupDrill(w http.ResponseWriter, r *http.Request) (*trainer.Drill, bool) {
	d, err := h.store.GetDrill(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrDrillNotFound) {
		errorResponse(w, http.StatusNotFound, "Drill not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to load drill", "error", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to load drill")
		return nil, false
	}
	return d, true
}

// updateDrill applies fn to the drill named in the request through the
// store, so answers to the same drill are scored one at a time.
func (h *Handlers) updateDrill(w http.ResponseWriter, r *http.Request, fn func(d *trainer.Drill)) (*trainer.Drill, bool) {
	id := mux.Vars(r)["id"]
	d, err := h.store.UpdateDrill(id, fn)
	if errors.Is(err, store.ErrDrillNotFound) {
		errorResponse(w, http.StatusNotFound, "Drill not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to update drill", "drill", id, "error", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to update drill")
		return nil, false
	}
	return d, true
}

// startDealerTurn plays out the dealer in the background, saving and
// broadcasting every step. At most one dealer turn runs per game.
func (h *Handlers) startDealerTurn(g *session.Game) {
	h.mu.Lock()
	if h.running[g.ID] {
		h.mu.Unlock()
		return
	}
	h.running[g.ID] = true
	h.mu.Unlock()

	steps := h.driver.Start(h.ctx, g)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			h.mu.Lock()
			delete(h.running, g.ID)
			h.mu.Unlock()
		}()

		for state := range steps {
			if err := h.store.SaveGame(g); err != nil {
				h.logger.Error("Failed to save dealer step", "game", g.ID, "error", err)
			}
			h.hub.BroadcastGameUpdate(newGameResponse(g))
			if state.Status.IsTerminal() {
				h.recordResults(g)
			}
		}
	}()
}

// recordResults stores the hand outcomes of a settled round.
func (h *Handlers) recordResults(g *session.Game) {
	if h.database == nil {
		return
	}
	if err := h.database.SaveHandResults(g.Snapshot()); err != nil {
		h.logger.Error("Failed to save hand results", "game", g.ID, "error", err)
	}
}
