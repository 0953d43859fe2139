package ledger

import "context"

// ChallengeIssuer requests a step-up challenge for a staged change. In
// production this is an HTTP call to the OTP service; tests swap in a fake.
type ChallengeIssuer interface {
	IssueChallenge(ctx context.Context, userID, transactionID, purpose string) error
}

// ChallengeVerifier checks a submitted code against the live challenge.
// Failures surface as the OTP sentinel errors from pkg/xerrors.
type ChallengeVerifier interface {
	VerifyChallenge(ctx context.Context, userID, transactionID, code string) error
}
