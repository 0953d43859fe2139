package ledger

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"payguard/internal/event"
	xerrors "payguard/pkg/xerrors"
)

const purposeIbanUpdate = "iban_update"

const lockStripes = 32

type Usecase struct {
	repo      Repository
	issuer    ChallengeIssuer
	verifier  ChallengeVerifier
	publisher event.Publisher
	now       func() time.Time

	// Finalize and ResendChallenge on the same transaction must not
	// interleave; stripe by transaction id.
	locks [lockStripes]sync.Mutex
}

func NewUsecase(repo Repository, issuer ChallengeIssuer, verifier ChallengeVerifier, publisher event.Publisher) *Usecase {
	return &Usecase{
		repo:      repo,
		issuer:    issuer,
		verifier:  verifier,
		publisher: publisher,
		now:       time.Now,
	}
}

func (uc *Usecase) lockFor(transactionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(transactionID))
	return &uc.locks[h.Sum32()%lockStripes]
}

// InitiateUpdate stages a proposed IBAN and requests a step-up challenge for
// it. The staging row survives an issuer failure; the sweeper reclaims it if
// the user never completes the flow.
func (uc *Usecase) InitiateUpdate(ctx context.Context, userID, newIBAN string) (string, error) {
	if err := validateIBAN(newIBAN); err != nil {
		return "", err
	}

	transactionID := uuid.NewString()
	change := &PendingChange{
		TransactionID: transactionID,
		UserID:        userID,
		NewIBAN:       newIBAN,
		CreatedAt:     uc.now().UTC(),
	}
	if err := uc.repo.Create(ctx, change); err != nil {
		return "", err
	}

	if err := uc.issuer.IssueChallenge(ctx, userID, transactionID, purposeIbanUpdate); err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	return transactionID, nil
}

// FinalizeUpdate verifies the code and, on success, applies the staged IBAN
// and removes the staging row. Verifier failures propagate unchanged and
// leave the row intact so the caller can retry before expiry.
func (uc *Usecase) FinalizeUpdate(ctx context.Context, userID, transactionID, code string) (string, error) {
	mu := uc.lockFor(transactionID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := uc.repo.Get(ctx, userID, transactionID); err != nil {
		return "", err
	}

	if err := uc.verifier.VerifyChallenge(ctx, userID, transactionID, code); err != nil {
		return "", err
	}

	change, err := uc.repo.Apply(ctx, userID, transactionID)
	if err != nil {
		return "", err
	}

	ev := &event.Event{
		EventType:     event.TypeIbanUpdated,
		UserID:        userID,
		TransactionID: transactionID,
		NewIBAN:       change.NewIBAN,
		Timestamp:     uc.now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, event.TopicAuditLogs, ev); err != nil {
		log.Printf("[Ledger] failed to publish IBAN_UPDATED for user %s: %v", userID, err)
	}

	return change.NewIBAN, nil
}

// ResendChallenge re-issues the challenge for an existing staged change,
// replacing the previous code and resetting its expiry window.
func (uc *Usecase) ResendChallenge(ctx context.Context, userID, transactionID string) error {
	mu := uc.lockFor(transactionID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := uc.repo.Get(ctx, userID, transactionID); err != nil {
		return err
	}

	if err := uc.issuer.IssueChallenge(ctx, userID, transactionID, purposeIbanUpdate); err != nil {
		return fmt.Errorf("failed to resend OTP: %w", err)
	}
	return nil
}

func validateIBAN(iban string) error {
	if iban == "" {
		return xerrors.ErrIBANRequired
	}
	if len(iban) < 15 || len(iban) > 34 {
		return xerrors.ErrInvalidIBAN
	}
	for i, ch := range iban {
		switch {
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
			if i < 2 {
				return xerrors.ErrInvalidIBAN
			}
		default:
			return xerrors.ErrInvalidIBAN
		}
	}
	return nil
}
