package audit

import "time"

// AuditRecord is the human-readable, append-only trace of one consumed domain
// event. Records are never updated or deleted here.
type AuditRecord struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// Query narrows a user's audit listing. Zero values mean "no filter";
// EventType "ALL" matches everything.
type Query struct {
	Page      int
	PageSize  int
	EventType string
	Details   string
	StartDate *time.Time
	EndDate   *time.Time
}
