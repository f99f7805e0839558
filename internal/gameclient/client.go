// Package gameclient talks to the game service's account and command
// endpoints over its JSON HTTP protocol.
package gameclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcoot/guildtracker/internal/dependencies/gameapi"
	"github.com/mcoot/guildtracker/internal/model"
)

// Errors returned by the client; the first three map service error codes
var (
	ErrInvalidCredentials = errors.New("invalid account credentials")
	ErrSessionExpired     = errors.New("session is invalid or expired")
	ErrUnknownCommand     = errors.New("command not understood by the service")
	ErrEmptyResponse      = errors.New("empty response from the service")
)

// Service error codes
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeUnknownCommand     = "UNKNOWN_COMMAND"
)

// Config holds client settings
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RequestsPerSecond and Burst pace outgoing requests
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns sensible defaults for the client
func DefaultConfig() Config {
	return Config{
		BaseURL:           "http://localhost:8080",
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
		Burst:             2,
	}
}

// Client is an HTTP client for the game service
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Ensure Client implements Authenticator
var _ gameapi.Authenticator = (*Client)(nil)

// New creates a new game service client
func New(cfg Config, logger *slog.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger,
	}
}

// APIError is an error response from the game service
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap maps well-known codes onto the package sentinel errors
func (e *APIError) Unwrap() error {
	switch e.Code {
	case CodeInvalidCredentials:
		return ErrInvalidCredentials
	case CodeUnauthorized:
		return ErrSessionExpired
	case CodeUnknownCommand:
		return ErrUnknownCommand
	default:
		return nil
	}
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// Login authenticates the account and opens one session per character
func (c *Client) Login(ctx context.Context, creds model.Credentials) ([]gameapi.Session, error) {
	req := loginRequest{Username: creds.Username, Password: creds.Password}
	var resp loginResponse

	if err := c.do(ctx, http.MethodPost, "/api/v1/account/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	sessions := make([]gameapi.Session, 0, len(resp.Characters))
	for _, cs := range resp.Characters {
		if cs.SessionToken == "" {
			return nil, fmt.Errorf("login: character %q returned without a session token", cs.Character.Name)
		}
		sessions = append(sessions, &Session{
			client:    c,
			token:     cs.SessionToken,
			character: cs.Character.toModel(),
		})
	}

	c.logger.Debug("logged in", slog.Int("characters", len(sessions)))
	return sessions, nil
}

// Health checks that the game service is reachable
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp healthResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", "", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// do performs an HTTP request, decoding a JSON result or error body
func (c *Client) do(ctx context.Context, method, path, token string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("game service request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			apiErr := errResp.Error
			apiErr.Status = resp.StatusCode
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if trimmed := bytes.TrimSpace(respBody); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return fmt.Errorf("%s %s: %w", method, path, ErrEmptyResponse)
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
