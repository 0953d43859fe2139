package otpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"payguard/pkg/middleware"
	xerrors "payguard/pkg/xerrors"
)

func TestIssueChallenge(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cli := NewClient(srv.URL)
	ctx := context.WithValue(context.Background(), middleware.ContextToken, "tok123")

	if err := cli.IssueChallenge(ctx, "u1", "tx-1", "iban_update"); err != nil {
		t.Fatalf("IssueChallenge: %v", err)
	}
	if gotPath != "/otp/request" {
		t.Errorf("path = %s", gotPath)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want forwarded bearer", gotAuth)
	}
	if gotBody["transactionId"] != "tx-1" || gotBody["purpose"] != "iban_update" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestIssueChallengeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cli := NewClient(srv.URL)
	if err := cli.IssueChallenge(context.Background(), "u1", "tx-1", ""); !errors.Is(err, xerrors.ErrUpstreamUnavailable) {
		t.Fatalf("IssueChallenge = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestVerifyChallengeStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"ok", http.StatusOK, `{"success":true}`, nil},
		{"not found", http.StatusNotFound, `{"errorMessage":"OTP not found or expired"}`, xerrors.ErrOTPNotFound},
		{"expired", http.StatusBadRequest, `{"errorMessage":"OTP has expired"}`, xerrors.ErrExpiredOTP},
		{"invalid", http.StatusBadRequest, `{"errorMessage":"invalid OTP"}`, xerrors.ErrInvalidOTP},
		{"bad request no body", http.StatusBadRequest, ``, xerrors.ErrInvalidOTP},
		{"upstream down", http.StatusBadGateway, ``, xerrors.ErrUpstreamUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				if tc.body != "" {
					w.Write([]byte(tc.body))
				}
			}))
			defer srv.Close()

			cli := NewClient(srv.URL)
			err := cli.VerifyChallenge(context.Background(), "u1", "tx-1", "123456")
			if tc.want == nil {
				if err != nil {
					t.Fatalf("VerifyChallenge = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("VerifyChallenge = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestConnectionFailure(t *testing.T) {
	// Nothing listens on this address.
	cli := NewClient("http://127.0.0.1:1")
	if err := cli.VerifyChallenge(context.Background(), "u1", "tx-1", "123456"); !errors.Is(err, xerrors.ErrUpstreamUnavailable) {
		t.Fatalf("VerifyChallenge = %v, want ErrUpstreamUnavailable", err)
	}
}
