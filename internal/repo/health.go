package repo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HealthProber checks the monitored target's health endpoint.
type HealthProber struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHealthProber constructs a prober for the target health URL.
func NewHealthProber(url string, timeout time.Duration, logger *slog.Logger) *HealthProber {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HealthProber{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Healthy issues one bounded probe. Only a 200 within the timeout counts
// as recovered.
func (p *HealthProber) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.logger.Error("health probe build failed", slog.Any("error", err))
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("health endpoint unreachable", slog.String("url", p.url), slog.Any("error", err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("health probe returned non-OK status", slog.String("status", resp.Status))
		return false
	}
	return true
}
