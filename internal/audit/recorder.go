package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"payguard/internal/event"
	"payguard/internal/metrics"
)

const fraudAlertWindow = 30 * time.Second

// Recorder turns raw stream messages into audit records and answers queries
// over them. Delivery is at-least-once; duplicates are stored as-is.
type Recorder struct {
	repo Repository
	now  func() time.Time
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// HandleMessage is the consumer entry point. A payload that cannot be decoded
// is logged and skipped; the loop never dies on bad input.
func (rec *Recorder) HandleMessage(ctx context.Context, topic string, data []byte) {
	var ev event.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		metrics.EventsMalformed.Inc()
		log.Printf("[AuditRecorder] skipping undecodable message on %s: %v", topic, err)
		return
	}
	if ev.EventType == "" {
		metrics.EventsMalformed.Inc()
		log.Printf("[AuditRecorder] skipping message without EventType on %s", topic)
		return
	}

	record := rec.Classify(&ev)
	if err := rec.repo.Insert(ctx, record); err != nil {
		log.Printf("[AuditRecorder] failed to save record for %s: %v", record.UserID, err)
		return
	}
	log.Printf("[AuditRecorder] saved log for %s: %s at %s", record.UserID, record.Action, record.Timestamp.Format(time.RFC3339))
}

// Classify maps an event envelope to its stored action and human-readable
// details line.
func (rec *Recorder) Classify(ev *event.Event) *AuditRecord {
	action := ev.EventType
	details := "UNKNOWN"

	switch ev.EventType {
	case event.TypeIbanUpdated:
		iban := ev.NewIBAN
		if iban == "" {
			iban = "Unknown"
		}
		details = fmt.Sprintf("Changed IBAN to %s", iban)
	case event.TypeIbanUpdateFailed:
		details = ev.Details
		if details == "" {
			details = "Update failed/expired"
		}
	case event.TypeUserLogin:
		details = "User logged into the system."
	case event.TypePayrollExport:
		details = "Exported full payroll history (Excel)."
	case event.TypePayslipDownload:
		ref := ev.Reference
		if ref == "" {
			ref = "N/A"
		}
		details = fmt.Sprintf("Downloaded payslip: %s", ref)
	case event.TypeFraudDetected:
		details = ev.Details
	case event.TypeOtpValidated:
		// Validation outcomes keep the status as the action so the trail
		// reads SUCCESS / FAILED_INVALID_CODE / ...
		if ev.Status != "" {
			action = ev.Status
		}
		details = otpOutcomeDetails(ev.Status)
	}

	timestamp := ev.Timestamp
	if timestamp.IsZero() {
		timestamp = rec.now().UTC()
	}

	return &AuditRecord{
		UserID:    ev.UserID,
		Action:    action,
		Details:   details,
		Timestamp: timestamp,
	}
}

func otpOutcomeDetails(status string) string {
	switch status {
	case event.StatusSuccess:
		return "OTP verified successfully."
	case event.StatusFailedNotFound:
		return "OTP validation failed: no active challenge."
	case event.StatusFailedExpired:
		return "OTP validation failed: code expired."
	case event.StatusFailedInvalidCode:
		return "OTP validation failed: invalid code."
	default:
		return "OTP validation attempt."
	}
}

// ListPage is the paginated query envelope returned to clients.
type ListPage struct {
	Data       []*AuditRecord `json:"data"`
	TotalCount int64          `json:"totalCount"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

func (rec *Recorder) List(ctx context.Context, userID string, q Query) (*ListPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}
	if q.EventType == "ALL" {
		q.EventType = ""
	}

	records, total, err := rec.repo.List(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*AuditRecord{}
	}

	return &ListPage{
		Data:       records,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

// RecentFraud is the polling fallback for clients that reconnect after a
// missed broadcast.
func (rec *Recorder) RecentFraud(ctx context.Context, userID string) (*AuditRecord, error) {
	since := rec.now().UTC().Add(-fraudAlertWindow)
	return rec.repo.LatestFraud(ctx, userID, since)
}
