package xerrors

import "errors"

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input provided")
)

// OTP verification
var (
	ErrOTPNotFound = errors.New("OTP not found or expired")
	ErrExpiredOTP  = errors.New("OTP has expired")
	ErrInvalidOTP  = errors.New("invalid OTP")
)

// Pending change ledger
var (
	ErrIBANRequired        = errors.New("IBAN is required")
	ErrInvalidIBAN         = errors.New("invalid IBAN format")
	ErrNoPendingUpdate     = errors.New("no pending update found for this transaction")
	ErrTransactionRequired = errors.New("transaction ID is required")
)

// Side channels
var (
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
