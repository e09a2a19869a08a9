// Package marketdata fetches per-ticker quote and dividend data as opaque
// JSON. Payloads are passed through to the dashboard unparsed; the cache
// keeps the last good payload per ticker.
package marketdata

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/clientdata"
)

// Client fetches quotes and dividend histories from the market-data endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *clientdata.Repository
	log     zerolog.Logger
}

// NewClient creates a new market data client
func NewClient(baseURL string, cache *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
		log:   log.With().Str("client", "marketdata").Logger(),
	}
}

// Quote returns the latest quote payload for a ticker.
func (c *Client) Quote(ticker string) (json.RawMessage, error) {
	return c.cachedFetch("market_quotes", ticker, "/quote", clientdata.TTLQuote)
}

// DividendData returns the dividend history payload for a ticker.
func (c *Client) DividendData(ticker string) (json.RawMessage, error) {
	return c.cachedFetch("dividend_data", ticker, "/dividends", clientdata.TTLDividendData)
}

func (c *Client) cachedFetch(table, ticker, path string, ttl time.Duration) (json.RawMessage, error) {
	if raw, err := c.cache.GetIfFresh(table, ticker); err == nil && raw != nil {
		return raw, nil
	}

	payload, err := c.fetch(path, ticker)
	if err != nil {
		// Serve stale before failing
		if raw, cerr := c.cache.Get(table, ticker); cerr == nil && raw != nil {
			c.log.Warn().Str("ticker", ticker).Str("table", table).Err(err).Msg("Fetch failed, serving stale data")
			return raw, nil
		}
		return nil, err
	}

	if err := c.cache.Store(table, ticker, json.RawMessage(payload), ttl); err != nil {
		c.log.Warn().Str("ticker", ticker).Err(err).Msg("Failed to cache market data")
	}
	return payload, nil
}

func (c *Client) fetch(path, ticker string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s%s?symbol=%s", c.baseURL, path, url.QueryEscape(ticker))

	resp, err := c.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("market data API returned status %d: %s", resp.StatusCode, string(body))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read market data response: %w", err)
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("market data API returned invalid JSON")
	}
	return payload, nil
}
