package ledger

import "time"

// PendingChange stages a proposed IBAN mutation until the step-up challenge
// completes or the sweeper expires it. Rows are created and deleted, never
// updated.
type PendingChange struct {
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	NewIBAN       string    `json:"newIban"`
	CreatedAt     time.Time `json:"createdAt"`
}
