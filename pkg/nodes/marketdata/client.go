// Package marketdata fetches short-interest and quote data for tickers.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/flowrun/pkg/nodes"
)

// Providers.
const (
	ProviderYahoo        = "yahoo"
	ProviderAlphaVantage = "alphavantage"
	ProviderFintel       = "fintel"
	ProviderCustom       = "custom"
)

const userAgent = "SqueezeWeasel/1.0"

var (
	ErrFintelKey         = errors.New("Fintel API key is required")
	ErrAlphaVantageKey   = errors.New("Alpha Vantage API key is required")
	ErrCustomEndpoint    = errors.New("Custom endpoint is required for custom provider")
	ErrInvalidYahooReply = errors.New("Invalid response from Yahoo Finance")
)

// StockData is the normalized quote of one ticker. Providers fill the fields
// they know about.
type StockData struct {
	Ticker            string   `json:"ticker"`
	ShortInterest     *float64 `json:"shortInterest,omitempty"`
	Float             *float64 `json:"float,omitempty"`
	SharesOutstanding *float64 `json:"sharesOutstanding,omitempty"`
	MarketCap         *float64 `json:"marketCap,omitempty"`
	BorrowFee         *float64 `json:"borrowFee,omitempty"`
	Utilization       *float64 `json:"utilization,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	Volume            *float64 `json:"volume,omitempty"`
	LastUpdated       string   `json:"lastUpdated,omitempty"`
}

// Endpoints are the provider base URLs.
type Endpoints struct {
	Yahoo        string
	AlphaVantage string
	Fintel       string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Yahoo:        "https://query1.finance.yahoo.com",
		AlphaVantage: "https://www.alphavantage.co",
		Fintel:       "https://api.fintel.io",
	}
}

// Request selects the provider used for a fetch.
type Request struct {
	Ticker         string
	Provider       string
	APIKey         string
	CustomEndpoint string
}

type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	now        nodes.Clock
}

func NewClient(httpClient *http.Client, endpoints Endpoints) *Client {
	defaults := DefaultEndpoints()

	if endpoints.Yahoo == "" {
		endpoints.Yahoo = defaults.Yahoo
	}

	if endpoints.AlphaVantage == "" {
		endpoints.AlphaVantage = defaults.AlphaVantage
	}

	if endpoints.Fintel == "" {
		endpoints.Fintel = defaults.Fintel
	}

	return &Client{httpClient: httpClient, endpoints: endpoints, now: time.Now}
}

// Fetch returns the data of one ticker. Unknown providers fall back to Yahoo.
func (c *Client) Fetch(ctx context.Context, req Request) (*StockData, error) {
	switch req.Provider {
	case ProviderFintel:
		return c.fetchFintel(ctx, req.Ticker, req.APIKey)
	case ProviderAlphaVantage:
		return c.fetchAlphaVantage(ctx, req.Ticker, req.APIKey)
	case ProviderCustom:
		if req.CustomEndpoint == "" {
			return nil, ErrCustomEndpoint
		}

		return c.fetchCustom(ctx, req.Ticker, req.CustomEndpoint, req.APIKey)
	default:
		return c.fetchYahoo(ctx, req.Ticker)
	}
}

func (c *Client) fetchFintel(ctx context.Context, ticker, apiKey string) (*StockData, error) {
	if apiKey == "" {
		return nil, ErrFintelKey
	}

	endpoint := fmt.Sprintf("%s/v1/stock/%s/short-interest", c.endpoints.Fintel, url.PathEscape(ticker))

	var data map[string]any
	if err := c.getJSON(ctx, endpoint, "Fintel", apiKey, &data); err != nil {
		return nil, fmt.Errorf("Failed to fetch from Fintel: %w", err)
	}

	return &StockData{
		Ticker:            ticker,
		ShortInterest:     number(data, "shortInterest"),
		Float:             number(data, "float"),
		SharesOutstanding: number(data, "sharesOutstanding"),
		BorrowFee:         number(data, "borrowFee"),
		Utilization:       number(data, "utilization"),
		LastUpdated:       c.timestamp(),
	}, nil
}

func (c *Client) fetchAlphaVantage(ctx context.Context, ticker, apiKey string) (*StockData, error) {
	if apiKey == "" {
		return nil, ErrAlphaVantageKey
	}

	query := url.Values{}
	query.Set("function", "OVERVIEW")
	query.Set("symbol", ticker)
	query.Set("apikey", apiKey)

	endpoint := fmt.Sprintf("%s/query?%s", c.endpoints.AlphaVantage, query.Encode())

	var data map[string]any
	if err := c.getJSON(ctx, endpoint, "Alpha Vantage", "", &data); err != nil {
		return nil, fmt.Errorf("Failed to fetch from Alpha Vantage: %w", err)
	}

	return &StockData{
		Ticker:            ticker,
		SharesOutstanding: number(data, "SharesOutstanding"),
		MarketCap:         number(data, "MarketCapitalization"),
		LastUpdated:       c.timestamp(),
	}, nil
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta map[string]any `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

func (c *Client) fetchYahoo(ctx context.Context, ticker string) (*StockData, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", c.endpoints.Yahoo, url.PathEscape(ticker))

	var chart yahooChart
	if err := c.getJSON(ctx, endpoint, "Yahoo Finance", "", &chart); err != nil {
		return nil, fmt.Errorf("Failed to fetch from Yahoo Finance: %w", err)
	}

	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("Failed to fetch from Yahoo Finance: %w", ErrInvalidYahooReply)
	}

	meta := chart.Chart.Result[0].Meta

	return &StockData{
		Ticker:            ticker,
		Price:             number(meta, "regularMarketPrice"),
		Volume:            number(meta, "regularMarketVolume"),
		MarketCap:         number(meta, "marketCap"),
		SharesOutstanding: number(meta, "sharesOutstanding"),
		LastUpdated:       c.timestamp(),
	}, nil
}

func (c *Client) fetchCustom(ctx context.Context, ticker, endpoint, apiKey string) (*StockData, error) {
	target := strings.Replace(endpoint, "{ticker}", url.PathEscape(ticker), 1)

	var data map[string]any
	if err := c.getJSON(ctx, target, "Custom", apiKey, &data); err != nil {
		return nil, fmt.Errorf("Failed to fetch from custom endpoint: %w", err)
	}

	lastUpdated := nodes.FirstString(nodes.String(data, "lastUpdated"), nodes.String(data, "last_updated"))
	if lastUpdated == "" {
		lastUpdated = c.timestamp()
	}

	return &StockData{
		Ticker:            ticker,
		ShortInterest:     number(data, "shortInterest", "short_interest", "shortInterestPercent"),
		Float:             number(data, "float", "sharesFloat"),
		SharesOutstanding: number(data, "sharesOutstanding", "shares_outstanding"),
		MarketCap:         number(data, "marketCap", "market_cap"),
		BorrowFee:         number(data, "borrowFee", "borrow_fee"),
		Utilization:       number(data, "utilization"),
		Price:             number(data, "price", "currentPrice"),
		Volume:            number(data, "volume"),
		LastUpdated:       lastUpdated,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, provider, bearer string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", userAgent)

	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s API error: %d %s", provider, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%s API returned invalid JSON: %w", provider, err)
	}

	return nil
}

// number returns the first non-zero numeric field among keys. Numeric
// strings are parsed.
func number(data map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		switch v := data[key].(type) {
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil && parsed != 0 {
				return &parsed
			}
		default:
			if parsed, ok := nodes.Number(v); ok && parsed != 0 {
				return &parsed
			}
		}
	}

	return nil
}

func (c *Client) timestamp() string {
	return nodes.Timestamp(c.now())
}

