package monitor

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Fetcher queries public-IP lookup providers
type Fetcher struct {
	providers []string
	client    *http.Client
	logger    *zap.Logger
}

// NewFetcher creates a fetcher over the given provider URLs
func NewFetcher(providers []string, logger *zap.Logger) *Fetcher {
	// HTTP client with timeouts and connection pooling
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Fetcher{
		providers: providers,
		client: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		logger: logger,
	}
}

// FetchIP returns the current public IP address. Providers are tried in
// order and the first valid answer wins.
func (f *Fetcher) FetchIP(ctx context.Context) (string, error) {
	var lastErr error

	for _, provider := range f.providers {
		ip, duration, err := f.fetchFrom(ctx, provider)
		if err != nil {
			lastErr = err
			f.logger.Debug("Provider request failed",
				zap.String("provider", provider),
				zap.Duration("duration", duration),
				zap.Error(err))
			continue
		}

		f.logger.Debug("Got public IP",
			zap.String("provider", provider),
			zap.String("ip", ip),
			zap.Duration("duration", duration))
		return ip, nil
	}

	return "", fmt.Errorf("all providers failed, last error: %w", lastErr)
}

// fetchFrom fetches the public IP from a specific provider
func (f *Fetcher) fetchFrom(ctx context.Context, provider string) (string, time.Duration, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider, nil)
	if err != nil {
		return "", time.Since(start), fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "ipbot/1.0")
	req.Header.Set("Accept", "text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", time.Since(start), fmt.Errorf("request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			f.logger.Error("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", time.Since(start), fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	// Read response with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", time.Since(start), fmt.Errorf("failed to read response: %w", err)
	}

	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", time.Since(start), fmt.Errorf("invalid IP address: %q", ip)
	}

	return ip, time.Since(start), nil
}
