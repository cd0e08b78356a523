package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jellydator/ttlcache/v3"

	"github.com/avosseler/reimbursement-copilot/dto"
)

const maxRateFetchTries = 3

// rateQuote is a cached 1-unit exchange rate into EUR.
type rateQuote struct {
	Rate float64
	Date string
}

// FrankfurterClient converts invoice amounts into EUR using the ECB
// reference rates published by api.frankfurter.app. Rates are cached
// per currency; they only change once per business day.
type FrankfurterClient struct {
	baseURL    string
	httpClient *http.Client
	cache      *ttlcache.Cache[string, rateQuote]
	log        *slog.Logger
}

func NewFrankfurterClient(baseURL string, cacheTTL time.Duration, log *slog.Logger) *FrankfurterClient {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, rateQuote](cacheTTL),
	)
	go cache.Start()

	return &FrankfurterClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
		log:        log,
	}
}

// Convert converts an amount from the given currency into EUR. EUR
// input passes through untouched with a "Not Applicable" rate date.
func (c *FrankfurterClient) Convert(ctx context.Context, amount float64, fromCurrency string) (dto.ConversionResult, error) {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	if from == "EUR" {
		return dto.ConversionResult{EURAmount: amount, RateDate: "Not Applicable"}, nil
	}

	quote, err := c.rate(ctx, from)
	if err != nil {
		return dto.ConversionResult{}, err
	}

	converted := math.Round(amount*quote.Rate*100) / 100
	c.log.Debug("currency converted", "amount", amount, "from", from, "eur", converted, "rateDate", quote.Date)

	return dto.ConversionResult{EURAmount: converted, RateDate: quote.Date}, nil
}

// rate returns the cached 1-unit rate for a currency, fetching it from
// the API when missing or expired.
func (c *FrankfurterClient) rate(ctx context.Context, from string) (rateQuote, error) {
	if item := c.cache.Get(from); item != nil {
		return item.Value(), nil
	}

	quote, err := backoff.Retry(ctx, func() (rateQuote, error) {
		return c.fetchRate(ctx, from)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxRateFetchTries))
	if err != nil {
		return rateQuote{}, fmt.Errorf("failed to fetch exchange rate for %s: %w", from, err)
	}

	c.cache.Set(from, quote, ttlcache.DefaultTTL)
	return quote, nil
}

func (c *FrankfurterClient) fetchRate(ctx context.Context, from string) (rateQuote, error) {
	params := url.Values{}
	params.Set("amount", "1")
	params.Set("from", from)
	params.Set("to", "EUR")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+params.Encode(), nil)
	if err != nil {
		return rateQuote{}, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rateQuote{}, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return rateQuote{}, fmt.Errorf("frankfurter returned status %d: %s", resp.StatusCode, string(b))
	}

	var out struct {
		Date  string             `json:"date"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return rateQuote{}, fmt.Errorf("failed to decode rate response: %w", err)
	}

	rate, ok := out.Rates["EUR"]
	if !ok {
		return rateQuote{}, fmt.Errorf("no EUR rate in response for %s", from)
	}

	return rateQuote{Rate: rate, Date: out.Date}, nil
}

// Stop releases the cache janitor goroutine.
func (c *FrankfurterClient) Stop() {
	c.cache.Stop()
}
