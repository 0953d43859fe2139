package fraud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"payguard/internal/event"
	"payguard/pkg/middleware"
)

func recvOrTimeout(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("send channel closed unexpectedly")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := &Client{ID: "a", UserID: "u1", Send: make(chan []byte, 4), Hub: hub}
	b := &Client{ID: "b", UserID: "u2", Send: make(chan []byte, 4), Hub: hub}
	hub.register <- a
	hub.register <- b

	hub.Broadcast([]byte("alert-1"))

	if got := string(recvOrTimeout(t, a.Send)); got != "alert-1" {
		t.Errorf("client a got %q", got)
	}
	if got := string(recvOrTimeout(t, b.Send)); got != "alert-1" {
		t.Errorf("client b got %q", got)
	}
}

func TestHubDropsDepartedClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := &Client{ID: "a", UserID: "u1", Send: make(chan []byte, 4), Hub: hub}
	b := &Client{ID: "b", UserID: "u2", Send: make(chan []byte, 4), Hub: hub}
	hub.register <- a
	hub.register <- b

	hub.unregister <- b

	hub.Broadcast([]byte("alert-2"))

	if got := string(recvOrTimeout(t, a.Send)); got != "alert-2" {
		t.Errorf("client a got %q", got)
	}
	// The departed client's channel is closed and receives nothing.
	select {
	case msg, ok := <-b.Send:
		if ok {
			t.Errorf("departed client received %q", msg)
		}
	case <-time.After(time.Second):
		t.Error("departed client's channel was not closed")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// No buffer and no reader: the first broadcast cannot be queued and the
	// session must be dropped instead of stalling the fan-out.
	slow := &Client{ID: "slow", UserID: "u1", Send: make(chan []byte), Hub: hub}
	healthy := &Client{ID: "ok", UserID: "u2", Send: make(chan []byte, 4), Hub: hub}
	hub.register <- slow
	hub.register <- healthy

	hub.Broadcast([]byte("alert-3"))

	if got := string(recvOrTimeout(t, healthy.Send)); got != "alert-3" {
		t.Errorf("healthy client got %q", got)
	}
	select {
	case _, ok := <-slow.Send:
		if ok {
			t.Error("slow client unexpectedly received a message")
		}
	case <-time.After(time.Second):
		t.Error("slow client's channel was not closed")
	}
}

func TestBroadcasterFiltersNonFraudEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := &Client{ID: "c", UserID: "u1", Send: make(chan []byte, 4), Hub: hub}
	hub.register <- c

	b := NewBroadcaster(hub)
	ctx := context.Background()

	login, _ := json.Marshal(&event.Event{EventType: event.TypeUserLogin, UserID: "u1"})
	b.HandleMessage(ctx, event.TopicAuditLogs, login)
	b.HandleMessage(ctx, event.TopicAuditLogs, []byte("{broken"))

	stamp := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	fraudEv, _ := json.Marshal(&event.Event{
		EventType: event.TypeFraudDetected,
		UserID:    "u9",
		Details:   "Multiple failed OTP validations",
		Timestamp: stamp,
	})
	b.HandleMessage(ctx, event.TopicAuditLogs, fraudEv)

	// The first and only delivery is the fraud alert.
	var alert Alert
	if err := json.Unmarshal(recvOrTimeout(t, c.Send), &alert); err != nil {
		t.Fatalf("unmarshal alert: %v", err)
	}
	if alert.EventType != event.TypeFraudDetected || alert.UserID != "u9" {
		t.Errorf("alert = %+v", alert)
	}
	if alert.Details != "Multiple failed OTP validations" {
		t.Errorf("Details = %q", alert.Details)
	}
	if !alert.Timestamp.Equal(stamp) {
		t.Errorf("Timestamp = %v, want %v", alert.Timestamp, stamp)
	}

	select {
	case extra := <-c.Send:
		t.Errorf("unexpected second delivery: %s", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServeWSDeliversToLiveSessions(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	b := NewBroadcaster(hub)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.ContextUserID, "u1")
		ServeWS(hub, w, r.WithContext(ctx))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		return conn
	}

	c1 := dial()
	defer c1.Close()
	c2 := dial()
	defer c2.Close()
	c3 := dial()

	// Registration happens just after the handshake; give the hub a moment.
	time.Sleep(100 * time.Millisecond)

	// One session disconnects before the alert fires.
	c3.Close()
	time.Sleep(100 * time.Millisecond)

	payload, _ := json.Marshal(&event.Event{
		EventType: event.TypeFraudDetected,
		UserID:    "u9",
		Details:   "Suspicious IBAN change pattern",
		Timestamp: time.Now().UTC(),
	})
	b.HandleMessage(context.Background(), event.TopicAuditLogs, payload)

	for i, conn := range []*websocket.Conn{c1, c2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %d read: %v", i+1, err)
		}
		var alert Alert
		if err := json.Unmarshal(msg, &alert); err != nil {
			t.Fatalf("client %d unmarshal: %v", i+1, err)
		}
		if alert.EventType != event.TypeFraudDetected || alert.Details != "Suspicious IBAN change pattern" {
			t.Errorf("client %d alert = %+v", i+1, alert)
		}
	}
}
