package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/domain"
)

const userAgent = "pricewatch/1.0"

const defaultTimeout = 10 * time.Second

// tickerRe gates the exchange-ticker adapters (Yahoo, AlphaVantage,
// Finnhub) against symbols that cannot be a listed ticker.
var tickerRe = regexp.MustCompile(`^[A-Z0-9.\-=]{1,12}$`)

// client is the shared HTTP plumbing for all source adapters: one bounded
// request per call, fixed identification, uniform error classification.
type client struct {
	http   *http.Client
	logger *zap.Logger
}

func newClient(timeout time.Duration, logger *zap.Logger) *client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

// getBody performs one GET and returns the response body. Transport faults
// and HTTP statuses are mapped onto the adapter error taxonomy.
func (c *client) getBody(ctx context.Context, source, url string, headers http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("User-Agent", userAgent)
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("provider request failed",
			zap.String("source", source),
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("provider request complete",
		zap.String("source", source),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, source)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s status %d", domain.ErrUpstream, source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, classifyTransportError(err)
	}
	return body, nil
}

// getJSON performs one GET and decodes the JSON body into out.
func (c *client) getJSON(ctx context.Context, source, url string, headers http.Header, out any) error {
	body, err := c.getBody(ctx, source, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s decode: %v", domain.ErrUpstream, source, err)
	}
	return nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
}

func unsupported(source, symbol string) error {
	return fmt.Errorf("%w: %s does not carry %q", domain.ErrUnsupportedSymbol, source, symbol)
}
