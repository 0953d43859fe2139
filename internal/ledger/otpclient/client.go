// Package otpclient adapts the OTP service's HTTP API to the ledger's
// challenge ports.
package otpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"payguard/pkg/middleware"
	xerrors "payguard/pkg/xerrors"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	// The caller's bearer token is forwarded so the OTP service sees the same
	// identity.
	if token, ok := middleware.GetToken(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

func (c *Client) IssueChallenge(ctx context.Context, userID, transactionID, purpose string) error {
	resp, err := c.post(ctx, "/otp/request", map[string]string{
		"transactionId": transactionID,
		"purpose":       purpose,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: otp request returned %d", xerrors.ErrUpstreamUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) VerifyChallenge(ctx context.Context, userID, transactionID, code string) error {
	resp, err := c.post(ctx, "/otp/verify", map[string]string{
		"transactionId": transactionID,
		"code":          code,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return xerrors.ErrOTPNotFound
	case http.StatusBadRequest:
		var body struct {
			ErrorMessage string `json:"errorMessage"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if strings.Contains(strings.ToLower(body.ErrorMessage), "expired") {
			return xerrors.ErrExpiredOTP
		}
		return xerrors.ErrInvalidOTP
	default:
		return fmt.Errorf("%w: otp verify returned %d", xerrors.ErrUpstreamUnavailable, resp.StatusCode)
	}
}
