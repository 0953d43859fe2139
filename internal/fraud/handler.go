package fraud

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"payguard/pkg/id"
	"payguard/pkg/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the request and registers the session with the hub. The
// auth middleware has already established the caller's identity.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[FraudHub] upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:     id.Generate("conn"),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
	}

	hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
