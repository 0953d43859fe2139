package fraud

import (
	"log"
	"time"

	"github.com/gorilla/websocket"

	"payguard/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one open alert session. It exists only for the lifetime of its
// WebSocket connection.
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
}

// ReadPump drains inbound frames until the peer closes or errors, then
// deregisters. Clients send nothing meaningful; this exists to observe the
// close handshake and keep pong deadlines fresh.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[FraudHub] read error on %s: %v", c.ID, err)
			}
			return
		}
	}
}

// WritePump forwards queued alerts and pings the peer on an interval.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub tracks open sessions and fans alerts out to all of them. A failed or
// slow session is dropped without affecting delivery to the rest.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			metrics.FraudSessions.Set(float64(len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			metrics.FraudSessions.Set(float64(len(h.clients)))

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
					metrics.FraudBroadcasts.Inc()
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			metrics.FraudSessions.Set(float64(len(h.clients)))
		}
	}
}

// Broadcast queues one serialized alert for every open session.
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}
