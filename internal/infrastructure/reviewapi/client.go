// Package reviewapi pulls review pages from an HTTP JSON provider.
package reviewapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	"ReviewScanner/internal/config"
	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/source"
)

// Client implements the "api" source strategy. Transient failures are retried
// with backoff inside the HTTP layer; the caller's context bounds the total
// wait so a hung fetch surfaces as an ordinary fetch failure.
type Client struct {
	http        *resty.Client
	endpoint    string
	apiKey      string
	marketplace string
	logger      *slog.Logger
}

var _ source.Strategy = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.APISourceConfig, logger *slog.Logger) *Client {
	httpClient := resty.New()
	httpClient.SetTimeout(cfg.Timeout)
	httpClient.SetRetryCount(cfg.Retries)
	httpClient.SetRetryWaitTime(cfg.RetryBackoff)
	httpClient.SetRetryMaxWaitTime(cfg.RetryBackoffUp)
	httpClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() == http.StatusTooManyRequests ||
			r.StatusCode() >= http.StatusInternalServerError
	})

	return &Client{
		http:        httpClient,
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		marketplace: cfg.Marketplace,
		logger:      logger,
	}
}

// Name identifies the strategy inside the registry.
func (c *Client) Name() string {
	return "api"
}

// FetchPage requests one page of reviews for the entity. An empty page means
// pagination is exhausted.
func (c *Client) FetchPage(ctx context.Context, entityID string, page int) ([]domain.Review, error) {
	var result source.Page

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":       c.apiKey,
			"type":          "review",
			"amazon_domain": "amazon." + c.marketplace,
			"asin":          entityID,
			"page":          strconv.Itoa(page),
		}).
		SetResult(&result).
		Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d for %s: %w", page, entityID, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch page %d for %s: provider returned %s", page, entityID, resp.Status())
	}

	records := make([]domain.Review, 0, len(result.Records))
	for _, raw := range result.Records {
		records = append(records, raw.ToDomain(entityID))
	}

	if c.logger != nil {
		c.logger.Debug("page fetched", "entity", entityID, "page", page, "records", len(records))
	}
	return records, nil
}
