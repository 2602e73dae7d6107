package statsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/dcgrid/teamcomp/internal/domain/stats"
	"github.com/dcgrid/teamcomp/internal/domain/user"
	"github.com/dcgrid/teamcomp/internal/platform/logging"
	"github.com/dcgrid/teamcomp/internal/platform/resilience"
	"github.com/dcgrid/teamcomp/internal/usecase"
)

const (
	defaultBaseURL  = "https://api.foldingstats.example.org/v1"
	maxResponseSize = 1 << 20
)

var errTransient = crerr.New("stats source transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches raw lifetime counters from the upstream contribution API.
// The passkey authenticates the user upstream and never reaches logs in full.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

type userStatsPayload struct {
	Earned int64 `json:"earned"`
	Units  int64 `json:"units"`
}

// FetchRawStats returns the upstream lifetime counters for one account.
func (c *Client) FetchRawStats(ctx context.Context, accountName, passkey string) (stats.RawStats, error) {
	accountName = strings.TrimSpace(accountName)
	if accountName == "" {
		return stats.RawStats{}, fmt.Errorf("%w: account name is required", usecase.ErrInvalidInput)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "stats source circuit breaker rejected request", "state", string(c.breaker.State()))
			return stats.RawStats{}, fmt.Errorf("%w: stats source is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	query := url.Values{}
	query.Set("passkey", passkey)
	fullURL := c.baseURL + "/user/" + url.PathEscape(accountName) + "/stats?" + query.Encode()

	raw, err := c.executeRequest(ctx, fullURL, passkey)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return stats.RawStats{}, err
	}

	var payload userStatsPayload
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return stats.RawStats{}, fmt.Errorf("decode stats payload account=%s: %w", accountName, err)
	}
	if payload.Earned < 0 || payload.Units < 0 {
		return stats.RawStats{}, fmt.Errorf("upstream returned negative counters account=%s", accountName)
	}

	return stats.RawStats{Points: payload.Earned, Units: payload.Units}, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL, passkey string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Wrapf(errTransient, "send request: %s", redactPasskey(err.Error(), passkey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Wrapf(errTransient, "read response body: %v", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case retryableStatus(resp.StatusCode):
				lastErr = crerr.Wrapf(errTransient, "upstream status=%d", resp.StatusCode)
			default:
				return nil, fmt.Errorf("upstream status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("upstream request failed")
	}
	c.logger.WarnContext(ctx, "stats source request failed",
		"url", redactPasskey(fullURL, passkey),
		"error", lastErr,
	)
	return nil, lastErr
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func redactPasskey(text, passkey string) string {
	if passkey == "" {
		return text
	}
	return strings.ReplaceAll(text, passkey, user.MaskPasskey(passkey))
}
