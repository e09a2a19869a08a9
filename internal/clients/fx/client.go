// Package fx fetches spot FX rates with cache-first behavior. Fresh rates
// come from the configured HTTPS endpoint; on upstream failure a stale cached
// rate is served rather than failing the request.
package fx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/clientdata"
)

// Client is a spot-rate client over an exchangerate-style JSON API.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *clientdata.Repository
	log     zerolog.Logger
}

// NewClient creates a new FX client. baseURL is the provider root; the
// client appends /latest?base=&symbols= itself.
func NewClient(baseURL string, cache *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
		log:   log.With().Str("client", "fx").Logger(),
	}
}

// rateResponse is the upstream payload: {"base":"EUR","rates":{"USD":1.0945}}
type rateResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

type cachedRate struct {
	Rate      float64 `json:"rate"`
	FetchedAt int64   `json:"fetched_at"`
}

// GetSpotRate returns the rate converting one unit of fromCurrency into
// toCurrency. Implements domain.FXRateProvider.
func (c *Client) GetSpotRate(fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return 1.0, nil
	}
	pair := fromCurrency + toCurrency

	if raw, err := c.cache.GetIfFresh("fx_rates", pair); err == nil && raw != nil {
		var cached cachedRate
		if json.Unmarshal(raw, &cached) == nil {
			return cached.Rate, nil
		}
	}

	rate, err := c.fetchRate(fromCurrency, toCurrency)
	if err != nil {
		// Serve stale before failing
		if raw, cerr := c.cache.Get("fx_rates", pair); cerr == nil && raw != nil {
			var cached cachedRate
			if json.Unmarshal(raw, &cached) == nil {
				c.log.Warn().Str("pair", pair).Err(err).Msg("FX fetch failed, serving stale rate")
				return cached.Rate, nil
			}
		}
		return 0, err
	}

	cached := cachedRate{Rate: rate, FetchedAt: time.Now().Unix()}
	if err := c.cache.Store("fx_rates", pair, cached, clientdata.TTLFXRate); err != nil {
		c.log.Warn().Str("pair", pair).Err(err).Msg("Failed to cache FX rate")
	}
	return rate, nil
}

func (c *Client) fetchRate(fromCurrency, toCurrency string) (float64, error) {
	endpoint := fmt.Sprintf("%s/latest?base=%s&symbols=%s",
		c.baseURL, url.QueryEscape(fromCurrency), url.QueryEscape(toCurrency))

	resp, err := c.client.Get(endpoint)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch FX rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("FX API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode FX response: %w", err)
	}

	rate, ok := parsed.Rates[toCurrency]
	if !ok {
		return 0, fmt.Errorf("FX response missing rate for %s", toCurrency)
	}
	return rate, nil
}
