package attribution

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"affibot/internal/cache"
	"affibot/internal/metrics"

	"github.com/google/uuid"
)

const cacheKeyPrefix = "af:report:"

// ErrUpstream indicates the attribution service rejected or failed the request.
var ErrUpstream = errors.New("attribution request failed")

// Report identifies an AppsFlyer raw-data report kind.
type Report string

// Raw-data report endpoints, versioned v5.
const (
	ReportInstalls        Report = "installs_report"
	ReportInAppEvents     Report = "in_app_events_report"
	ReportPostAttribution Report = "fraud-post-inapps"
)

// Params carries per-request report parameters.
type Params struct {
	AppID       string
	From        string // YYYY-MM-DD
	To          string // YYYY-MM-DD
	EventName   string
	MediaSource string
	// AdditionalFields selects extra CSV columns on reports that support them.
	AdditionalFields []string
}

// Client pulls raw delimited-text datasets from the AppsFlyer raw-data API.
type Client struct {
	logger   *slog.Logger
	baseURL  string
	apiKey   string
	timezone string
	http     *http.Client
	metrics  *metrics.Metrics
	cache    *cache.Redis
	cacheTTL time.Duration
}

// Config holds attribution client configuration.
type Config struct {
	BaseURL  string
	APIKey   string
	Timezone string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// New creates a new attribution client.
func New(cfg Config, logger *slog.Logger, metricRegistry *metrics.Metrics, redis *cache.Redis) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://hq1.appsflyer.com/api/raw-data/export/app"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timezone := cfg.Timezone
	if timezone == "" {
		timezone = "Europe/Moscow"
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		logger:   logger.With("component", "attribution"),
		baseURL:  base,
		apiKey:   cfg.APIKey,
		timezone: timezone,
		http:     &http.Client{Timeout: timeout},
		metrics:  metricRegistry,
		cache:    redis,
		cacheTTL: ttl,
	}
}

// Fetch pulls one raw CSV report. Responses are cached by report and parameters
// so repeated analyses over the same range do not re-hit the API.
func (c *Client) Fetch(ctx context.Context, report Report, p Params) ([]byte, error) {
	if p.AppID == "" {
		return nil, fmt.Errorf("attribution fetch: app id is empty")
	}

	key := cacheKey(report, p)
	if c.cache != nil {
		data, ok, err := c.cache.GetBytes(ctx, key)
		if err != nil {
			c.logger.Warn("read report cache failed", "error", err)
		} else if ok {
			return data, nil
		}
	}

	data, err := c.do(ctx, report, p)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetBytes(ctx, key, data, c.cacheTTL); err != nil {
			c.logger.Warn("set report cache failed", "error", err)
		}
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, report Report, p Params) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s/%s/v5", c.baseURL, url.PathEscape(p.AppID), report)

	query := url.Values{}
	query.Set("from", p.From)
	query.Set("to", p.To)
	query.Set("timezone", c.timezone)
	if p.EventName != "" {
		query.Set("event_name", p.EventName)
	}
	if p.MediaSource != "" {
		query.Set("media_source", p.MediaSource)
	}
	if len(p.AdditionalFields) > 0 {
		query.Set("additional_fields", strings.Join(p.AdditionalFields, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/csv")

	requestID := uuid.NewString()
	c.logger.Info("attribution request",
		"request_id", requestID,
		"report", string(report),
		"app_id", p.AppID,
		"from", p.From,
		"to", p.To,
		"media_source", p.MediaSource,
	)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.observe(report, "error", start)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	statusLabel := fmt.Sprintf("%d", res.StatusCode)
	c.observe(report, statusLabel, start)

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode >= 400 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		c.logger.Error("attribution request rejected",
			"request_id", requestID,
			"report", string(report),
			"status", res.StatusCode,
			"body", snippet,
		)
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrUpstream, res.StatusCode, snippet)
	}

	c.logger.Info("attribution response",
		"request_id", requestID,
		"report", string(report),
		"bytes", len(body),
	)
	return body, nil
}

func (c *Client) observe(report Report, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.AppsFlyerRequests.WithLabelValues(string(report), status).Inc()
	c.metrics.AppsFlyerLatency.WithLabelValues(string(report), status).Observe(time.Since(start).Seconds())
}

// FlushCache drops all cached report payloads.
func (c *Client) FlushCache(ctx context.Context) (int64, error) {
	if c.cache == nil {
		return 0, nil
	}
	return c.cache.DeletePrefix(ctx, cacheKeyPrefix)
}

func cacheKey(report Report, p Params) string {
	key := strings.Join([]string{
		cacheKeyPrefix + string(report),
		p.AppID,
		p.From,
		p.To,
		p.EventName,
		p.MediaSource,
	}, ":")
	// The column selection changes the payload, so it must split the cache.
	// The full field list is too long for a key; a digest stands in for it.
	if len(p.AdditionalFields) > 0 {
		sum := sha256.Sum256([]byte(strings.Join(p.AdditionalFields, ",")))
		key += ":" + hex.EncodeToString(sum[:8])
	}
	return key
}
