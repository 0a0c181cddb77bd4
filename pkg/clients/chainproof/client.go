// Package chainproof is the HTTP client for the external wallet-proof
// verifier. The engine never talks to a chain itself; ownership checks are
// delegated here or to the in-process EVM verifier.
package chainproof

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"github.com/MohamedAshiq09/authentify/pkg/clients"
	"github.com/MohamedAshiq09/authentify/pkg/errs"
	"github.com/MohamedAshiq09/authentify/pkg/models"
)

// APIError is a non-2xx response from the verifier
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chainproof returned status: %d", e.StatusCode)
}

// Client calls the external proof verifier over HTTP
type Client struct {
	baseURL      string
	client       *http.Client
	httpExecutor failsafe.Executor[*http.Response]
}

// Option configures a Client
type Option func(*Client)

// NewClient creates a verifier client with retry and bounded timeouts
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		client:       &http.Client{Timeout: 10 * time.Second},
		httpExecutor: clients.NewHTTPExecutor(clients.DefaultHTTPExecutorConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// WithHTTPExecutorConfig overrides retry behavior
func WithHTTPExecutorConfig(cfg clients.HTTPExecutorConfig) Option {
	return func(c *Client) {
		c.httpExecutor = clients.NewHTTPExecutor(cfg)
	}
}

type verifyRequest struct {
	WalletAddress string `json:"wallet_address"`
	Message       string `json:"message"`
	Signature     string `json:"signature"`
}

type verifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Verify checks wallet ownership with the external verifier. A rejected
// proof maps to InvalidCredentials; verifier outages map to Unavailable so
// callers can retry with backoff.
func (c *Client) Verify(ctx context.Context, walletAddress string, proof models.WalletProof) error {
	payload, err := json.Marshal(verifyRequest{
		WalletAddress: walletAddress,
		Message:       proof.Message,
		Signature:     proof.Signature,
	})
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to encode proof request", err)
	}

	resp, err := clients.ExecuteHTTP(ctx, c.httpExecutor, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/verify", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.client.Do(req)
	})
	if err != nil {
		return errs.Wrap(errs.Unavailable, "wallet verifier unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return errs.Wrap(errs.Unavailable, "wallet verifier unavailable", &APIError{StatusCode: resp.StatusCode})
	}
	if resp.StatusCode != http.StatusOK {
		return errs.Wrap(errs.InvalidCredentials, "wallet proof rejected", &APIError{StatusCode: resp.StatusCode})
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return errs.Wrap(errs.Unavailable, "wallet verifier returned malformed response", err)
	}
	if !result.Valid {
		return errs.E(errs.InvalidCredentials, "wallet proof rejected")
	}

	return nil
}
