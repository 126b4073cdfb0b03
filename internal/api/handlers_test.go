package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinwijaya/blackjack-trainer/internal/db"
	"github.com/calvinwijaya/blackjack-trainer/internal/game"
	"github.com/calvinwijaya/blackjack-trainer/internal/session"
	"github.com/calvinwijaya/blackjack-trainer/internal/store"
	"github.com/calvinwijaya/blackjack-trainer/internal/trainer"
)

// The default rules deal from a shoe of twos, so every round is known in
// advance: the player holds 2,2 against a dealer 2,2.
type testServer struct {
	srv      *httptest.Server
	handlers *Handlers
	hub      *Hub
	store    store.Store
	database *db.Database
	clock    *quartz.Mock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clock := quartz.NewMock(t)
	logger := log.New(io.Discard)

	database, err := db.Open("sqlite3", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	st := store.NewDatabaseStore(database, clock, logger)
	hub := NewHub(logger, nil)
	go hub.Run()

	rules := game.DefaultRules()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHandlers(ctx, Deps{
		Store:    st,
		Database: database,
		Hub:      hub,
		Trainer:  trainer.New(rules, logger, trainer.WithClock(clock)),
		Driver:   session.NewDriver(clock, time.Second, logger),
		Rules:    rules,
		Clock:    clock,
		Seed:     func() int64 { return 1 },
		Logger:   logger,
	})

	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger))
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		cancel()
		h.Wait()
		srv.Close()
		hub.Stop()
		database.Close()
	})

	return &testServer{srv: srv, handlers: h, hub: hub, store: st, database: database, clock: clock}
}

func (ts *testServer) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()

	req, err := http.NewRequest(method, ts.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}

func (ts *testServer) newGame(t *testing.T) GameResponse {
	t.Helper()
	var g GameResponse
	require.Equal(t, http.StatusCreated, ts.do(t, "POST", "/api/game/new", "", &g))
	return g
}

// finishDealerTurn advances the clock until the dealer turn of id is over.
func (ts *testServer) finishDealerTurn(t *testing.T, id string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.Eventually(t, func() bool {
		ts.clock.Advance(time.Second).MustWait(ctx)
		g, err := ts.store.GetGame(id)
		return err == nil && !g.DealerTurn()
	}, 5*time.Second, 10*time.Millisecond)
	ts.handlers.Wait()
}

func TestNewGame(t *testing.T) {
	ts := newTestServer(t)

	g := ts.newGame(t)

	assert.NotEmpty(t, g.ID)
	assert.False(t, g.DealerTurn)
	assert.Equal(t, game.Playing, g.State.Status)
	assert.Equal(t, 10, g.State.Bet)
	require.Len(t, g.State.PlayerHands, 1)
	assert.Len(t, g.State.PlayerHands[0].Cards, 2)
	assert.True(t, g.State.Dealer.Hidden)
	assert.Len(t, g.State.Dealer.Cards, 1)
	assert.True(t, g.State.CanSplit)

	var withBet GameResponse
	require.Equal(t, http.StatusCreated, ts.do(t, "POST", "/api/game/new", `{"bet": 50}`, &withBet))
	assert.Equal(t, 50, withBet.State.Bet)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, "POST", "/api/game/new", `{`, nil))

	var list []GameResponse
	require.Equal(t, http.StatusOK, ts.do(t, "GET", "/api/games", "", &list))
	assert.Len(t, list, 2)
}

func TestGameNotFound(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, ts.do(t, "GET", "/api/game/missing", "", nil))
	assert.Equal(t, http.StatusNotFound, ts.do(t, "POST", "/api/game/missing/hit", "", nil))
	assert.Equal(t, http.StatusNotFound, ts.do(t, "DELETE", "/api/game/missing", "", nil))
}

func TestHitUntilBust(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t)

	var resp GameResponse
	for i := 0; i < 9; i++ {
		require.Equal(t, http.StatusOK, ts.do(t, "POST", "/api/game/"+g.ID+"/hit", "", &resp))
	}

	assert.Equal(t, game.PlayerBust, resp.State.Status)
	assert.Equal(t, 22, resp.State.PlayerHands[0].Value)
	assert.False(t, resp.DealerTurn)

	var errResp map[string]string
	assert.Equal(t, http.StatusConflict, ts.do(t, "POST", "/api/game/"+g.ID+"/hit", "", &errResp))
	assert.Equal(t, session.ErrNotPlaying.Error(), errResp["error"])

	var records []db.HandRecord
	require.Equal(t, http.StatusOK, ts.do(t, "GET", "/api/game/"+g.ID+"/results", "", &records))
	require.Len(t, records, 1)
	assert.Equal(t, game.HandBust, records[0].Result)
}

func TestDoubleRejectedAfterHit(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t)

	require.Equal(t, http.StatusOK, ts.do(t, "POST", "/api/game/"+g.ID+"/hit", "", nil))
	assert.Equal(t, http.StatusConflict, ts.do(t, "POST", "/api/game/"+g.ID+"/double", "", nil))
}

func TestSplit(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t)

	var resp GameResponse
	require.Equal(t, http.StatusOK, ts.do(t, "POST", "/api/game/"+g.ID+"/split", "", &resp))

	require.Len(t, resp.State.PlayerHands, 2)
	assert.Len(t, resp.State.PlayerHands[0].Cards, 2)
	assert.Len(t, resp.State.PlayerHands[1].Cards, 1)
	assert.True(t, resp.State.PlayerHands[0].Active)
}

func TestStandRunsDealerTurn(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t)

	var resp GameResponse
	require.Equal(t, http.StatusOK, ts.do(t, "POST", "/api/game/"+g.ID+"/stand", "", &resp))
	assert.True(t, resp.DealerTurn)
	assert.True(t, resp.State.Dealer.Hidden)

	assert.Equal(t, http.StatusConflict, ts.do(t, "POST", "/api/game/"+g.ID+"/hit", "", nil))

	ts.finishDealerTurn(t, g.ID)

	require.Equal(t, http.StatusOK, ts.do(t, "GET", "/api/game/"+g.ID, "", &resp))
	assert.False(t, resp.DealerTurn)
	assert.Equal(t, game.DealerWin, resp.State.Status)
	assert.False(t, resp.State.Dealer.Hidden)
	assert.Equal(t, 18, resp.State.Dealer.Value)
	assert.Equal(t, game.HandLose, resp.State.PlayerHands[0].Result)

	records, err := ts.database.GetHandResults(g.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, game.HandLose, records[0].Result)
	assert.Equal(t, 4, records[0].PlayerValue)
	assert.Equal(t, 18, records[0].DealerValue)

	var stats db.Stats
	require.Equal(t, http.StatusOK, ts.do(t, "GET", "/api/stats", "", &stats))
	assert.Equal(t, 1, stats.GamesPlayed)
	assert.Equal(t, 1, stats.HandsLost)
}

func TestTrainer(t *testing.T) {
	ts := newTestServer(t)

	var d DrillResponse
	require.Equal(t, http.StatusCreated, ts.do(t, "POST", "/api/trainer/new", "", &d))
	assert.Equal(t, "0.0", d.Accuracy)
	// Only the up-card is part of the question.
	assert.True(t, d.Hand.Dealer.Hidden)
	assert.Len(t, d.Hand.Dealer.Cards, 1)
	assert.Equal(t, 2, d.Hand.Dealer.Value)

	type answer struct {
		Verdict VerdictResponse `json:"verdict"`
		Drill   DrillResponse   `json:"drill"`
	}

	// A pair of twos against a two is split.
	var a answer
	require.Equal(t, http.StatusOK, ts.do(t, "POST", "/api/trainer/"+d.ID+"/answer", `{"play":"SP"}`, &a))
	assert.True(t, a.Verdict.Correct)
	assert.Equal(t, "Correct!", a.Verdict.Message)
	assert.Equal(t, int64(1000), a.Verdict.NextHandDelayMs)
	assert.Equal(t, 1, a.Drill.Correct)
	assert.Equal(t, "100.0", a.Drill.Accuracy)

	require.Equal(t, http.StatusOK, ts.do(t, "POST", "/api/trainer/"+d.ID+"/answer", `{"play":"H"}`, &a))
	assert.False(t, a.Verdict.Correct)
	assert.Equal(t, "Incorrect. The optimal play is to Split.", a.Verdict.Message)
	assert.Equal(t, int64(2000), a.Verdict.NextHandDelayMs)
	assert.Equal(t, "50.0", a.Drill.Accuracy)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, "POST", "/api/trainer/"+d.ID+"/answer", `{"play":"surrender"}`, nil))
	assert.Equal(t, http.StatusNotFound, ts.do(t, "POST", "/api/trainer/missing/answer", `{"play":"H"}`, nil))

	var stats db.Stats
	require.Equal(t, http.StatusOK, ts.do(t, "GET", "/api/stats", "", &stats))
	assert.Equal(t, 2, stats.DrillAnswers)

	require.Equal(t, http.StatusOK, ts.do(t, "POST", "/api/trainer/"+d.ID+"/reset", "", &d))
	assert.Equal(t, 0, d.Correct)
	assert.Equal(t, 0, d.Incorrect)

	require.Equal(t, http.StatusOK, ts.do(t, "GET", "/api/trainer/"+d.ID, "", &d))
	assert.Equal(t, "0.0", d.Accuracy)
}

func TestConcurrentAnswersAreAllCounted(t *testing.T) {
	ts := newTestServer(t)

	var d DrillResponse
	require.Equal(t, http.StatusCreated, ts.do(t, "POST", "/api/trainer/new", "", &d))

	const answers = 16
	var wg sync.WaitGroup
	for range answers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, http.StatusOK, ts.do(t, "POST", "/api/trainer/"+d.ID+"/answer", `{"play":"SP"}`, nil))
		}()
	}
	wg.Wait()

	require.Equal(t, http.StatusOK, ts.do(t, "GET", "/api/trainer/"+d.ID, "", &d))
	assert.Equal(t, answers, d.Correct+d.Incorrect)
	assert.Equal(t, answers, d.Correct)
}

func TestWebSocketReceivesUpdates(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame(t)

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws?gameId=" + g.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageWelcome, msg.Type)

	require.Eventually(t, func() bool { return ts.hub.Clients(g.ID) == 1 }, time.Second, 5*time.Millisecond)

	require.Equal(t, http.StatusOK, ts.do(t, "POST", "/api/game/"+g.ID+"/hit", "", nil))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var update struct {
		Type   string       `json:"type"`
		GameID string       `json:"gameId"`
		Data   GameResponse `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, MessageGameUpdate, update.Type)
	assert.Equal(t, g.ID, update.GameID)
	assert.Len(t, update.Data.State.PlayerHands[0].Cards, 3)
}

func TestWebSocketRequiresGameID(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/ws", "", nil))
}
