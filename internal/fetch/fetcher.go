// Package fetch retrieves the listing page through the ScraperAPI proxy
// and extracts listing URLs from it.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"funda-listing-notifier/config"
)

// listingSelector matches the card containers on the Funda result page;
// the first anchor inside each carries the listing URL.
const listingSelector = "div.flex.justify-between"

// Error wraps a fetch fault with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("fetch %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

type ScraperAPIClient struct {
	httpClient  *http.Client
	logger      *zap.SugaredLogger
	endpoint    string
	apiKey      string
	countryCode string
	deviceType  string
}

type NewScraperAPIClientParams struct {
	fx.In

	Cfg    config.Config
	Logger *zap.SugaredLogger
}

func NewScraperAPIClient(p NewScraperAPIClientParams) *ScraperAPIClient {
	return &ScraperAPIClient{
		httpClient:  &http.Client{Timeout: 90 * time.Second},
		logger:      p.Logger,
		endpoint:    p.Cfg.ScraperAPIURL,
		apiKey:      p.Cfg.ScraperAPIKey,
		countryCode: p.Cfg.CountryCode,
		deviceType:  p.Cfg.DeviceType,
	}
}

// Fetch issues one GET through the proxy for targetURL and returns the
// extracted listing URLs in document order. Single best-effort attempt;
// no retry or pagination.
func (c *ScraperAPIClient) Fetch(ctx context.Context, targetURL string) ([]string, error) {
	reqURL, err := c.proxyURL(targetURL)
	if err != nil {
		return nil, &Error{Op: "build_request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Op: "build_request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: "get", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: "get", Err: fmt.Errorf("proxy returned status %d", resp.StatusCode)}
	}

	links, err := ExtractListingURLs(resp.Body)
	if err != nil {
		return nil, &Error{Op: "parse", Err: err}
	}

	c.logger.Infow("listing_page_fetched", "target", targetURL, "links", len(links))
	return links, nil
}

func (c *ScraperAPIClient) proxyURL(targetURL string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid proxy endpoint %q: %w", c.endpoint, err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	q.Set("url", targetURL)
	q.Set("country_code", c.countryCode)
	q.Set("device_type", c.deviceType)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
