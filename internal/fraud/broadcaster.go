package fraud

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"payguard/internal/event"
)

// Alert is the envelope pushed to connected sessions.
type Alert struct {
	EventType string    `json:"EventType"`
	UserID    string    `json:"UserId"`
	Details   string    `json:"Details"`
	Timestamp time.Time `json:"Timestamp"`
}

// Broadcaster filters the audit stream down to fraud signals and hands each
// one to the hub, serialized once per event.
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// HandleMessage is the consumer entry point for the fraud consumer group.
func (b *Broadcaster) HandleMessage(ctx context.Context, topic string, data []byte) {
	var ev event.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("[FraudBroadcaster] skipping undecodable message on %s: %v", topic, err)
		return
	}
	if ev.EventType != event.TypeFraudDetected {
		return
	}

	alert := Alert{
		EventType: ev.EventType,
		UserID:    ev.UserID,
		Details:   ev.Details,
		Timestamp: ev.Timestamp,
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("[FraudBroadcaster] failed to marshal alert: %v", err)
		return
	}

	b.hub.Broadcast(payload)
}
