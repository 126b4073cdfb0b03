package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 512
)

// Message types pushed to clients.
const (
	MessageWelcome    = "welcome"
	MessageGameUpdate = "gameUpdate"
)

// Message represents a WebSocket message
type Message struct {
	Type   string `json:"type"`
	GameID string `json:"gameId,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Client represents a connected WebSocket client following one game
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string
	hub    *Hub
}

// Hub tracks the clients watching each game and fans updates out to them.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	games      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *log.Logger
}

// NewHub creates a new WebSocket hub. checkOrigin may be nil to accept every
// origin.
func NewHub(logger *log.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		games:      make(map[string]map[*Client]bool),
		logger:     logger.WithPrefix("ws"),
	}
}

// Run processes registrations until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, exists := h.games[client.gameID]; !exists {
				h.games[client.gameID] = make(map[*Client]bool)
			}
			h.games[client.gameID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case <-h.done:
			h.mu.Lock()
			for _, clients := range h.games {
				for client := range clients {
					close(client.send)
				}
			}
			h.games = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, exists := h.games[client.gameID]
	if !exists || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.games, client.gameID)
	}
}

// Clients returns the number of clients following a game.
func (h *Hub) Clients(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// BroadcastToGame sends a message to all clients following a game
func (h *Hub) BroadcastToGame(gameID string, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Error marshaling message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.games[gameID] {
		select {
		case client.send <- data:
		default:
			// Slow clients miss intermediate updates; the next one carries the full state.
			h.logger.Warn("Dropping update for slow client", "game", gameID)
		}
	}
}

// BroadcastGameUpdate pushes a game response to its followers
func (h *Hub) BroadcastGameUpdate(resp GameResponse) {
	h.BroadcastToGame(resp.ID, Message{
		Type:   MessageGameUpdate,
		GameID: resp.ID,
		Data:   resp,
	})
}

// WebSocketHandler handles WebSocket connections
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		errorResponse(w, http.StatusBadRequest, "gameId is required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Upgrade failed", "error", err)
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		gameID: gameID,
		hub:    h,
	}

	welcome, _ := json.Marshal(Message{
		Type:   MessageWelcome,
		GameID: gameID,
		Data:   map[string]string{"message": "Connected to blackjack trainer"},
	})
	client.send <- welcome

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.readPump()
	go client.writePump()
}

// readPump drains the connection so pings and closes are processed
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket error", "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
