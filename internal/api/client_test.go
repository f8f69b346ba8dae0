package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/finsync/internal/blobseal"
	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/syncerr"
	"github.com/finledger/finsync/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestClient_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sync/upload", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req api.UploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dev-1", req.DeviceID)
		require.Len(t, req.Ops, 1)

		resp := api.UploadResponse{ServerVersion: 5}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil, testLogger())
	resp, err := client.Upload(context.Background(), api.UploadRequest{
		DeviceID: "dev-1",
		Ops:      []api.WireOp{{ID: "op-1", Entity: models.EntityTransaction}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.ServerVersion)
	assert.Empty(t, resp.Rejected)
}

func TestClient_DownloadPassesCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync/download", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("since"))

		resp := api.DownloadResponse{ServerVersion: 43, ServerTimeMs: 1700000000000}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil, testLogger())
	resp, err := client.Download(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(43), resp.ServerVersion)
	assert.Equal(t, int64(1700000000000), resp.ServerTimeMs)
}

func TestClient_SendsBearerToken(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		require.NoError(t, json.NewEncoder(w).Encode(api.DownloadResponse{}))
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticTokenSource(token), nil, testLogger())
	_, err := client.Download(context.Background(), 0)
	require.NoError(t, err)
}

func TestClient_ExpiredTokenFailsWithoutRoundTrip(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	expired := signedToken(t, time.Now().Add(-time.Hour))
	client := NewClient(server.URL, StaticTokenSource(expired), nil, testLogger())

	_, err := client.Download(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, syncerr.IsAuth(err))
	assert.False(t, called, "expired token must short-circuit before the request")
}

func TestClient_OpaqueTokenPassesPreCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer opaque-api-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewEncoder(w).Encode(api.DownloadResponse{}))
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticTokenSource("opaque-api-key"), nil, testLogger())
	_, err := client.Download(context.Background(), 0)
	require.NoError(t, err)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		check  func(t *testing.T, err error)
		name   string
		status int
	}{
		{
			name:   "401 is an auth error",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.True(t, syncerr.IsAuth(err))
				assert.False(t, syncerr.IsRetryable(err))
			},
		},
		{
			name:   "403 is an auth error",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				assert.True(t, syncerr.IsAuth(err))
			},
		},
		{
			name:   "429 is retryable",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				assert.True(t, syncerr.IsRetryable(err))
			},
		},
		{
			name:   "503 is retryable",
			status: http.StatusServiceUnavailable,
			check: func(t *testing.T, err error) {
				assert.True(t, syncerr.IsRetryable(err))
				assert.Equal(t, "network", syncerr.Category(err))
			},
		},
		{
			name:   "400 is a validation error",
			status: http.StatusBadRequest,
			check: func(t *testing.T, err error) {
				assert.False(t, syncerr.IsRetryable(err))
				assert.Equal(t, "validation", syncerr.Category(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer server.Close()

			client := NewClient(server.URL, nil, nil, testLogger())
			_, err := client.Download(context.Background(), 0)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_ConnectionRefusedIsRetryable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil, nil, testLogger())

	_, err := client.Download(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, syncerr.IsRetryable(err))
}

func TestClient_ResetRequiresConfirmation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(api.ResetResponse{Confirmed: false}))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil, testLogger())
	err := client.Reset(context.Background())
	require.Error(t, err)
	assert.True(t, syncerr.IsRetryable(err))
}

func TestEncodeDecodeOp(t *testing.T) {
	sealer, err := blobseal.NewXChaCha(make([]byte, 32))
	require.NoError(t, err)

	op := &models.Operation{
		ID:            "op-1",
		EntityType:    models.EntityTransaction,
		EntityID:      "tx-1",
		Kind:          models.OpUpsert,
		Timestamp:     100,
		DeviceID:      "dev-1",
		Fields:        map[string]any{"amount": 10.5},
		SchemaVersion: models.SchemaVersion,
	}

	wire, err := EncodeOp(op, sealer)
	require.NoError(t, err)
	assert.Equal(t, "op-1", wire.ID)
	assert.NotContains(t, string(wire.Body), "amount", "payload must be sealed")

	decoded, err := DecodeOp(wire, sealer)
	require.NoError(t, err)
	assert.Equal(t, op.Fields, decoded.Fields)
	assert.Equal(t, op.Timestamp, decoded.Timestamp)
}

func TestEncodeOp_DeleteHasNoBody(t *testing.T) {
	op := &models.Operation{
		ID:         "op-1",
		EntityType: models.EntityTransaction,
		EntityID:   "tx-1",
		Kind:       models.OpDelete,
		Timestamp:  100,
		DeviceID:   "dev-1",
	}

	wire, err := EncodeOp(op, blobseal.Passthrough{})
	require.NoError(t, err)
	assert.Empty(t, wire.Body)

	decoded, err := DecodeOp(wire, blobseal.Passthrough{})
	require.NoError(t, err)
	assert.Equal(t, models.OpDelete, decoded.Kind)
	assert.Empty(t, decoded.Fields)
}
