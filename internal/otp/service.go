package otp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"time"

	"payguard/internal/event"
	"payguard/internal/metrics"
	xerrors "payguard/pkg/xerrors"
)

const defaultPurpose = "transaction_approval"

// Notifier hands a freshly issued code to the out-of-band delivery channel.
type Notifier interface {
	PublishOtpGenerated(ctx context.Context, msg *event.OtpGeneratedMessage) error
}

type Service struct {
	store     Store
	publisher event.Publisher
	notifier  Notifier
	ttl       time.Duration
	now       func() time.Time
}

func NewService(store Store, publisher event.Publisher, notifier Notifier, ttl time.Duration) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		ttl:       ttl,
		now:       time.Now,
	}
}

type IssueResult struct {
	TransactionID    string    `json:"transactionId"`
	ExpiresInSeconds int       `json:"expiresInSeconds"`
	ExpiresAt        time.Time `json:"expiresAt"`
	SentByEmail      bool      `json:"sentByEmail"`
}

func buildKey(userID, transactionID string) string {
	return userID + ":" + transactionID
}

// Issue generates a new challenge for (userID, transactionID), replacing any
// previous one for the same pair. The code is forwarded to the notifier only
// when an email is supplied and is never returned to the caller.
func (s *Service) Issue(ctx context.Context, userID, transactionID, purpose, email string) (*IssueResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", xerrors.ErrInvalidInput)
	}
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", xerrors.ErrTransactionRequired)
	}
	if purpose == "" {
		purpose = defaultPurpose
	}

	code, err := randomCode(codeLength)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expiry := now.Add(s.ttl)

	s.store.Put(buildKey(userID, transactionID), Entry{
		Code:    code,
		Expiry:  expiry,
		Purpose: purpose,
	})
	metrics.OtpIssued.Inc()

	sent := false
	if email != "" && s.notifier != nil {
		msg := &event.OtpGeneratedMessage{
			Type:          "OtpGenerated",
			UserID:        userID,
			Email:         email,
			TransactionID: transactionID,
			Code:          code,
			Expiry:        expiry,
			Timestamp:     now,
		}
		if err := s.notifier.PublishOtpGenerated(ctx, msg); err != nil {
			log.Printf("[OTP] delivery publish failed for user %s: %v", userID, err)
		}
		sent = true
	}

	return &IssueResult{
		TransactionID:    transactionID,
		ExpiresInSeconds: int(s.ttl.Seconds()),
		ExpiresAt:        expiry,
		SentByEmail:      sent,
	}, nil
}

// Validate checks a submitted code. Every outcome emits exactly one event on
// the validation stream before returning; emission failures never fail the
// call. An invalid code leaves the entry in place so the caller may retry
// until expiry.
func (s *Service) Validate(ctx context.Context, userID, transactionID, code string) error {
	key := buildKey(userID, transactionID)

	entry, ok := s.store.Get(key)
	if !ok {
		s.emitOutcome(ctx, userID, transactionID, event.StatusFailedNotFound)
		return xerrors.ErrOTPNotFound
	}

	if s.now().After(entry.Expiry) {
		s.store.CompareAndDelete(key, entry.Code)
		s.emitOutcome(ctx, userID, transactionID, event.StatusFailedExpired)
		return xerrors.ErrExpiredOTP
	}

	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) != 1 {
		s.emitOutcome(ctx, userID, transactionID, event.StatusFailedInvalidCode)
		return xerrors.ErrInvalidOTP
	}

	// A concurrent Validate may have consumed the entry between the read and
	// the delete; treat the loser as not-found so the code stays single-use.
	if !s.store.CompareAndDelete(key, code) {
		s.emitOutcome(ctx, userID, transactionID, event.StatusFailedNotFound)
		return xerrors.ErrOTPNotFound
	}

	s.emitOutcome(ctx, userID, transactionID, event.StatusSuccess)
	return nil
}

func (s *Service) emitOutcome(ctx context.Context, userID, transactionID, status string) {
	metrics.OtpValidations.WithLabelValues(status).Inc()

	ev := &event.Event{
		EventType:     event.TypeOtpValidated,
		UserID:        userID,
		TransactionID: transactionID,
		Status:        status,
		Timestamp:     s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event.TopicOtpValidated, ev); err != nil {
		log.Printf("[OTP] failed to publish %s outcome for user %s: %v", status, userID, err)
	}
}
