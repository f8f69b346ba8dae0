package syncerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	netErr := &NetworkError{Op: "download", Err: errors.New("timeout")}

	assert.True(t, IsRetryable(netErr))
	assert.True(t, IsRetryable(fmt.Errorf("cycle: %w", netErr)), "wrapping preserves the class")
	assert.False(t, IsRetryable(&AuthError{Reason: "expired"}))
	assert.False(t, IsRetryable(&StorageError{Op: "append", Err: errors.New("disk full")}))
	assert.False(t, IsRetryable(nil))
}

func TestIsAuth(t *testing.T) {
	assert.True(t, IsAuth(&AuthError{Reason: "expired"}))
	assert.True(t, IsAuth(fmt.Errorf("upload: %w", &AuthError{Reason: "revoked"})))
	assert.False(t, IsAuth(&NetworkError{Op: "upload", Err: errors.New("refused")}))
}

func TestCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"network", &NetworkError{Op: "upload", Err: errors.New("reset")}, "network"},
		{"auth", &AuthError{Reason: "expired"}, "auth"},
		{"validation", &ValidationError{OpID: "op-1", Reason: "bad currency"}, "validation"},
		{"storage", &StorageError{Op: "save", Err: errors.New("io")}, "storage"},
		{"wrapped", fmt.Errorf("cycle: %w", &StorageError{Op: "save", Err: errors.New("io")}), "storage"},
		{"plain error", errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Category(tt.err))
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NetworkError{Op: "probe", Err: cause}
	assert.ErrorIs(t, err, cause)

	storageCause := errors.New("readonly fs")
	assert.ErrorIs(t, &StorageError{Op: "open", Err: storageCause}, storageCause)
}
