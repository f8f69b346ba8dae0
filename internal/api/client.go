// Package api implements the HTTP client for the remote sync endpoint and
// classifies transport failures into the engine's error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/finledger/finsync/internal/blobseal"
	"github.com/finledger/finsync/internal/syncerr"
	"github.com/finledger/finsync/pkg/api"
)

//go:generate moq -out client_mock.go . SyncAPI

// SyncAPI is the remote contract the orchestrator drives.
type SyncAPI interface {
	// Upload pushes a batch of ops; idempotent by op ID.
	Upload(ctx context.Context, req api.UploadRequest) (*api.UploadResponse, error)

	// Download fetches ops past the given server version.
	Download(ctx context.Context, since int64) (*api.DownloadResponse, error)

	// Reset wipes the remote copy; local data is untouched.
	Reset(ctx context.Context) error
}

// TokenSource supplies the bearer token for sync requests.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client is the HTTP implementation of SyncAPI.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	sealer     blobseal.Sealer
	logger     *slog.Logger
	baseURL    string
}

// NewClient creates a sync API client. sealer may be nil for unencrypted
// deployments; tokens may be nil when the server is unauthenticated.
func NewClient(baseURL string, tokens TokenSource, sealer blobseal.Sealer, logger *slog.Logger) *Client {
	if sealer == nil {
		sealer = blobseal.Passthrough{}
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		sealer:  sealer,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Upload pushes a batch of ops to POST /sync/upload.
func (c *Client) Upload(ctx context.Context, req api.UploadRequest) (*api.UploadResponse, error) {
	var resp api.UploadResponse
	if err := c.doRequest(ctx, http.MethodPost, "/sync/upload", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Download fetches ops since the given server version.
func (c *Client) Download(ctx context.Context, since int64) (*api.DownloadResponse, error) {
	var resp api.DownloadResponse
	path := fmt.Sprintf("/sync/download?since=%d", since)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reset wipes the remote copy.
func (c *Client) Reset(ctx context.Context) error {
	var resp api.ResetResponse
	if err := c.doRequest(ctx, http.MethodPost, "/sync/reset", nil, &resp); err != nil {
		return err
	}
	if !resp.Confirmed {
		return &syncerr.NetworkError{Op: "reset", Err: fmt.Errorf("server did not confirm reset")}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return err
		}
		// An already-expired token is an auth failure we can detect
		// without spending a round trip.
		if err := CheckTokenExpiry(token, time.Now()); err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &syncerr.NetworkError{Op: method + " " + path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &syncerr.NetworkError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.classifyStatus(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// classifyStatus maps HTTP failures into the error taxonomy: 401/403 are
// auth failures, 408/429 and 5xx are retryable network errors, remaining
// 4xx are validation failures.
func (c *Client) classifyStatus(status int, body []byte) error {
	message := string(body)
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		message = errResp.Message
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &syncerr.AuthError{Reason: message}
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return &syncerr.NetworkError{Op: "sync request", Err: fmt.Errorf("server error (%d): %s", status, message)}
	default:
		return &syncerr.ValidationError{Reason: fmt.Sprintf("server rejected request (%d): %s", status, message)}
	}
}
