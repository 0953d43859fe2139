package ledger

import (
	"context"
	"log"
	"time"

	"payguard/internal/event"
	"payguard/internal/metrics"
)

// Sweeper expires abandoned pending changes on a fixed interval. Each removed
// row produces exactly one IBAN_UPDATE_FAILED event; rows finalized by a
// racing request are skipped via the repository's conditional delete.
type Sweeper struct {
	repo      Repository
	publisher event.Publisher
	interval  time.Duration
	window    time.Duration
	now       func() time.Time
}

func NewSweeper(repo Repository, publisher event.Publisher, interval, window time.Duration) *Sweeper {
	return &Sweeper{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		window:    window,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("[Sweeper] started (interval: %v, window: %v)", s.interval, s.window)

	for {
		select {
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				log.Printf("[Sweeper] error: %v", err)
			} else if n > 0 {
				log.Printf("[Sweeper] removed %d stale transactions", n)
			}

		case <-ctx.Done():
			log.Println("[Sweeper] stopped")
			return
		}
	}
}

// Sweep performs one scan pass and returns the number of removed rows.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	threshold := s.now().UTC().Add(-s.window)

	expired, err := s.repo.FindExpired(ctx, threshold)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, change := range expired {
		// Delete first: only a row actually removed here is reported as
		// abandoned, so a concurrent Finalize never produces a stray event.
		deleted, err := s.repo.DeleteExpired(ctx, change.TransactionID, threshold)
		if err != nil {
			log.Printf("[Sweeper] delete failed for %s: %v", change.TransactionID, err)
			continue
		}
		if !deleted {
			continue
		}

		removed++
		metrics.PendingChangesSwept.Inc()

		ev := &event.Event{
			EventType:     event.TypeIbanUpdateFailed,
			UserID:        change.UserID,
			TransactionID: change.TransactionID,
			Details:       "Transaction expired or abandoned by user.",
			Timestamp:     change.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, event.TopicAuditLogs, ev); err != nil {
			log.Printf("[Sweeper] failed to publish abandonment for %s: %v", change.TransactionID, err)
		}
	}

	return removed, nil
}
