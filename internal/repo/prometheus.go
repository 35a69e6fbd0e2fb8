package repo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sentinelstack/sentinel-observer/internal/models"
	"github.com/sentinelstack/sentinel-observer/internal/utils"
)

// PrometheusClient issues instant queries against the metrics store.
// Transport failures never escape this boundary; they degrade to a
// missing sample so the loop can retry on its normal cadence.
type PrometheusClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPrometheusClient constructs a client targeting the configured store.
func NewPrometheusClient(baseURL string, timeout time.Duration, logger *slog.Logger) *PrometheusClient {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PrometheusClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// instantQueryResponse mirrors the store's instant query envelope.
type instantQueryResponse struct {
	Status string `json:"status"`
	Data   struct {
		Result []struct {
			Value [2]json.RawMessage `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

// Query evaluates a PromQL expression at the current instant. An empty
// result set reads as zero; an unreachable store or malformed envelope
// reads as a missing sample.
func (c *PrometheusClient) Query(ctx context.Context, expr string) models.MetricSample {
	endpoint := c.baseURL + "/api/v1/query?query=" + url.QueryEscape(expr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Error("prometheus request build failed", slog.Any("error", err))
		return models.NoSample()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("prometheus unreachable", slog.Any("error", utils.NewAppError("prometheus.query", expr, err)))
		return models.NoSample()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("prometheus query failed", slog.String("status", resp.Status), slog.String("query", expr))
		return models.NoSample()
	}

	var envelope instantQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.logger.Error("prometheus response malformed", slog.Any("error", err))
		return models.NoSample()
	}
	if envelope.Status != "success" {
		c.logger.Error("prometheus query rejected", slog.String("status", envelope.Status), slog.String("query", expr))
		return models.NoSample()
	}
	if len(envelope.Data.Result) == 0 {
		return models.Sample(0)
	}

	value, err := parseScalar(envelope.Data.Result[0].Value[1])
	if err != nil {
		c.logger.Error("prometheus scalar malformed", slog.Any("error", err))
		return models.NoSample()
	}
	return models.Sample(value)
}

// parseScalar decodes the second element of an instant-query value pair.
// The store encodes scalars as strings, including "NaN".
func parseScalar(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
