package handlers

import (
	"botmaster-console/middleware"
	"botmaster-console/models"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client is one operator's console connection. An operator may hold several.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	operatorID string
}

// Hub fans console events out to every connected operator.
type Hub struct {
	auth       *middleware.Authenticator
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub(auth *middleware.Authenticator) *Hub {
	return &Hub{
		auth:       auth,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
	}
}

func (h *Hub) Run() {
	log.Printf("[WS HUB] Hub started and running")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			first := !h.hasOperatorLocked(client.operatorID)
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()

			log.Printf("[WS HUB] Client registered: %s (total clients: %d, first=%v)", client.operatorID, total, first)
			if first {
				go h.BroadcastAll(models.WSMessage{
					Type:    models.WSTypeOperatorOnline,
					Payload: map[string]string{"operator_id": client.operatorID},
				})
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, present := h.clients[client]
			if present {
				delete(h.clients, client)
				close(client.send)
			}
			remaining := present && h.hasOperatorLocked(client.operatorID)
			total := len(h.clients)
			h.mu.Unlock()

			if !present {
				continue
			}
			log.Printf("[WS HUB] Client unregistered: %s (total clients: %d, other connections: %v)", client.operatorID, total, remaining)
			if !remaining {
				go h.BroadcastAll(models.WSMessage{
					Type:    models.WSTypeOperatorOffline,
					Payload: map[string]string{"operator_id": client.operatorID},
				})
			}

		case message := <-h.broadcast:
			var stale []*Client
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					log.Printf("[WS HUB] Client %s buffer full - marking as stale", client.operatorID)
					stale = append(stale, client)
				}
			}
			h.mu.RUnlock()

			if len(stale) > 0 {
				h.mu.Lock()
				for _, client := range stale {
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

func (h *Hub) hasOperatorLocked(operatorID string) bool {
	for c := range h.clients {
		if c.operatorID == operatorID {
			return true
		}
	}
	return false
}

// BroadcastAll queues msg for every client. It never blocks the caller; if
// the queue is full the event is dropped.
func (h *Hub) BroadcastAll(msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] BroadcastAll marshal error for type '%s': %v", msg.Type, err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Printf("[WS] Broadcast queue full, dropping '%s'", msg.Type)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		log.Printf("[WS] Connection rejected - no token provided from %s", r.RemoteAddr)
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		log.Printf("[WS] Connection rejected - invalid token from %s: %v", r.RemoteAddr, err)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error for operator %s: %v", claims.OperatorID, err)
		return
	}

	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, 256),
		operatorID: claims.OperatorID,
	}

	welcome := []byte(`{"type":"welcome","payload":{"message":"connected"}}`)
	if err := conn.WriteMessage(websocket.TextMessage, welcome); err != nil {
		log.Printf("[WS] Failed to send welcome message to %s: %v", claims.OperatorID, err)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.register <- client
}

// readPump only services control frames. Operators drive the console over
// the REST API, so text frames are ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close error for client %s: %v", c.operatorID, err)
			}
			return
		}
	}
}

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
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for client %s: %v", c.operatorID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping failed for client %s: %v", c.operatorID, err)
				return
			}
		}
	}
}
