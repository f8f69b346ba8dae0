package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/finledger/finsync/internal/models"
)

// HTTPProber measures round-trip latency against the server's ping
// endpoint. It satisfies the network monitor's Prober interface.
type HTTPProber struct {
	httpClient *http.Client
	baseURL    string
}

func NewHTTPProber(baseURL string) *HTTPProber {
	return &HTTPProber{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *HTTPProber) Probe(ctx context.Context) (models.NetworkQualitySample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/ping", nil)
	if err != nil {
		return models.NetworkQualitySample{}, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return models.NetworkQualitySample{}, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusInternalServerError {
		return models.NetworkQualitySample{}, fmt.Errorf("probe got status %d", resp.StatusCode)
	}

	return models.NetworkQualitySample{
		MeasuredAt: start,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
