// Package relay wraps the backend relay's HTTP API: create-session,
// place-bet, revoke-session and the session status query. It is a thin
// transport; retry policy belongs to the callers, since blind resubmission of
// signed, deadline-bound payloads can double-execute a trade.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rangebet/rangebet-api/internal/constants"
	"github.com/rangebet/rangebet-api/internal/logger"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// RejectedError is a relay-side rejection: the request reached the relay and
// it answered with status "error". The relay's message is authoritative and
// is propagated verbatim.
type RejectedError struct {
	Endpoint string
	Message  string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// TransportError is an HTTP/connection failure reaching the relay. Unlike a
// rejection it implies unknown server-side state: the request may or may not
// have been processed, so callers must not assume failure and must not retry.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("relay transport failure on %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CreateSessionRequest registers a signed delegation with the relay.
// Numeric uint256 fields travel as decimal strings; timestamps are Unix seconds.
type CreateSessionRequest struct {
	User                string `json:"user"`
	SessionKey          string `json:"session_key"`
	Expiry              int64  `json:"expiry"`
	Nonce               string `json:"nonce"`
	DelegationSignature string `json:"delegation_signature"`
}

// PlaceBetRequest submits a session-key-signed order. The nonce rides outside
// the signed message and serves relay-side idempotency/ordering.
type PlaceBetRequest struct {
	User           string `json:"user"`
	TimeperiodID   uint64 `json:"timeperiod_id"`
	PriceMin       string `json:"price_min"`
	PriceMax       string `json:"price_max"`
	Amount         string `json:"amount"`
	OrderSignature string `json:"order_signature"`
	Nonce          string `json:"nonce"`
	Deadline       int64  `json:"deadline"`
}

// SessionRecord is the relay's view of a registered session.
type SessionRecord struct {
	SessionKey string `json:"session_key"`
	Expiry     int64  `json:"expiry"`
}

// API is the relay surface the session manager depends on.
type API interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) error
	PlaceBet(ctx context.Context, req PlaceBetRequest) (string, error)
	RevokeSession(ctx context.Context, user string) error
	GetSession(ctx context.Context, user string) (*SessionRecord, error)
}

// Client is the HTTP implementation of API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a relay client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Log,
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Error   string          `json:"error"`
	TxHash  string          `json:"tx_hash"`
	Session json.RawMessage `json:"session"`
}

// CreateSession registers a delegation via POST /create-session.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) error {
	_, err := c.post(ctx, "/create-session", req)
	return err
}

// PlaceBet submits a signed order via POST /place-bet and returns the relay's
// transaction reference.
func (c *Client) PlaceBet(ctx context.Context, req PlaceBetRequest) (string, error) {
	env, err := c.post(ctx, "/place-bet", req)
	if err != nil {
		return "", err
	}
	return env.TxHash, nil
}

// RevokeSession revokes the user's session via POST /revoke-session.
func (c *Client) RevokeSession(ctx context.Context, user string) error {
	_, err := c.post(ctx, "/revoke-session", map[string]string{"user": user})
	return err
}

// GetSession queries the relay's session record for the user. A nil record
// with nil error means the relay knows of no session.
func (c *Client) GetSession(ctx context.Context, user string) (*SessionRecord, error) {
	env, err := c.post(ctx, "/get-session", map[string]string{"user": user})
	if err != nil {
		return nil, err
	}
	if len(env.Session) == 0 || string(env.Session) == "null" {
		return nil, nil
	}
	var record SessionRecord
	if err := json.Unmarshal(env.Session, &record); err != nil {
		return nil, errors.Wrap(err, "decode relay session record")
	}
	return &record, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body interface{}) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s request", endpoint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, errors.Wrapf(err, "create %s request", endpoint)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("relay request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// An HTML error page from a proxy in front of the relay says
			// nothing about relay-side state; treat it like a lost connection.
			return nil, &TransportError{
				Endpoint: endpoint,
				Err:      fmt.Errorf("status %d with non-envelope body", resp.StatusCode),
			}
		}
		// A 2xx answer outside the envelope; surface what the relay said.
		return nil, &RejectedError{Endpoint: endpoint, Message: string(respBody)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Status != constants.StatusOK {
		message := env.Error
		if message == "" {
			message = fmt.Sprintf("relay returned status %d", resp.StatusCode)
		}
		c.logger.Warn("relay rejected request",
			zap.String("endpoint", endpoint),
			zap.Int("http_status", resp.StatusCode),
			zap.String("error", message))
		return nil, &RejectedError{Endpoint: endpoint, Message: message}
	}

	c.logger.Debug("relay request ok", zap.String("endpoint", endpoint))
	return &env, nil
}
