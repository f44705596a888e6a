// Package bank talks to the external bank-validation service.
package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable is returned when the bank-validation service reports that
// it is down. It is the only bank failure callers are expected to handle
// specially.
var ErrUnavailable = fmt.Errorf("bank validation service is not available")

// ValidationRequest is the payload sent to the bank for authorization.
type ValidationRequest struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	Currency   string `json:"currency"`
	Amount     int64  `json:"amount"`
	CVV        string `json:"cvv"`
}

// ValidationResponse is the bank's authorization decision.
type ValidationResponse struct {
	Authorized        bool   `json:"authorized"`
	AuthorizationCode string `json:"authorization_code"`
}

type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Validate sends the request to the bank and returns its decision. A 503
// from the bank maps to ErrUnavailable; any other non-2xx status is a
// generic error. The call is aborted when ctx is canceled.
func (c *Client) Validate(ctx context.Context, req ValidationRequest) (ValidationResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return ValidationResponse{}, fmt.Errorf("marshaling validation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/payments", bytes.NewReader(payload))
	if err != nil {
		return ValidationResponse{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ValidationResponse{}, fmt.Errorf("calling bank: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return ValidationResponse{}, ErrUnavailable
	}

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return ValidationResponse{}, fmt.Errorf("bank returned status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var validation ValidationResponse
	if err := json.NewDecoder(resp.Body).Decode(&validation); err != nil {
		return ValidationResponse{}, fmt.Errorf("decoding validation response: %w", err)
	}

	return validation, nil
}
