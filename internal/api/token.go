package api

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/finledger/finsync/internal/syncerr"
)

// StaticTokenSource returns a fixed token; used by the CLI and tests.
type StaticTokenSource string

func (s StaticTokenSource) AccessToken(ctx context.Context) (string, error) {
	return string(s), nil
}

// CheckTokenExpiry parses the token without verifying its signature
// (verification is the server's job) and reports an AuthError when the
// exp claim has already passed.
func CheckTokenExpiry(token string, now time.Time) error {
	if token == "" {
		return nil
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		// Opaque non-JWT tokens pass through; the server decides.
		return nil
	}

	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return nil
	}

	if expiry.Before(now) {
		return &syncerr.AuthError{
			Reason: fmt.Sprintf("access token expired at %s", expiry.Format(time.RFC3339)),
		}
	}
	return nil
}
