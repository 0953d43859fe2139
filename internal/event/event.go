package event

import "time"

// Kafka topics and the Redis pub/sub channel making up the event backbone.
const (
	TopicAuditLogs    = "audit-logs"
	TopicOtpValidated = "otp.validated"

	ChannelOtpGenerated = "otp.generated"
)

// Event types carried on the audit stream. Consumers must tolerate values
// outside this list.
const (
	TypeOtpValidated     = "OTP_VALIDATED"
	TypeIbanUpdated      = "IBAN_UPDATED"
	TypeIbanUpdateFailed = "IBAN_UPDATE_FAILED"
	TypeUserLogin        = "USER_LOGIN"
	TypePayrollExport    = "PAYROLL_EXPORT"
	TypePayslipDownload  = "PAYSLIP_DOWNLOAD"
	TypeFraudDetected    = "FRAUD_DETECTED"
)

// OTP validation outcomes, recorded verbatim as audit actions.
const (
	StatusSuccess           = "SUCCESS"
	StatusFailedNotFound    = "FAILED_NOT_FOUND"
	StatusFailedExpired     = "FAILED_EXPIRED"
	StatusFailedInvalidCode = "FAILED_INVALID_CODE"
)

// Event is the generic envelope published to the audit stream. Field names
// follow the established wire format; unknown fields are ignored by consumers.
type Event struct {
	EventType     string    `json:"EventType"`
	UserID        string    `json:"UserId"`
	TransactionID string    `json:"TransactionId,omitempty"`
	Status        string    `json:"Status,omitempty"`
	NewIBAN       string    `json:"NewIban,omitempty"`
	Details       string    `json:"Details,omitempty"`
	Reference     string    `json:"Reference,omitempty"`
	Timestamp     time.Time `json:"Timestamp"`
}

// OtpGeneratedMessage carries a freshly issued code to the out-of-band
// notifier over the Redis exchange. It never touches the audit stream.
type OtpGeneratedMessage struct {
	Type          string    `json:"Type"`
	UserID        string    `json:"UserId"`
	Email         string    `json:"Email"`
	TransactionID string    `json:"TransactionId"`
	Code          string    `json:"Code"`
	Expiry        time.Time `json:"Expiry"`
	Timestamp     time.Time `json:"Timestamp"`
}
