package marketdata

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/runctx"
)

var ErrTickerRequired = errors.New("Ticker is required for stock data operation")

// Node fetches one or more tickers. The ticker comes from the config or the
// input; a comma-separated value or an input "tickers" list fans out into
// concurrent fetches whose failures are dropped from the result.
type Node struct {
	client *Client
	config models.MarketDataConfig
	logger *slog.Logger
}

func NewNode(client *Client, config *models.MarketDataConfig, logger *slog.Logger) *Node {
	stockConfig := *config
	if stockConfig.Provider == "" {
		stockConfig.Provider = ProviderYahoo
	}

	return &Node{client: client, config: stockConfig, logger: logger}
}

func (n *Node) Execute(ctx context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	tickers := n.tickers(input)
	if len(tickers) == 0 {
		return nil, ErrTickerRequired
	}

	if len(tickers) == 1 {
		data, err := n.client.Fetch(ctx, n.request(tickers[0]))
		if err != nil {
			return nil, err
		}

		return map[string]any{"ticker": tickers[0], "data": data}, nil
	}

	results := make([]*StockData, len(tickers))

	var wg sync.WaitGroup

	for i, ticker := range tickers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			data, err := n.client.Fetch(ctx, n.request(ticker))
			if err != nil {
				n.logger.WarnContext(ctx, "Failed to fetch ticker", "ticker", ticker, "error", err)

				return
			}

			results[i] = data
		}()
	}

	wg.Wait()

	data := make([]*StockData, 0, len(results))

	for _, result := range results {
		if result != nil {
			data = append(data, result)
		}
	}

	return map[string]any{"tickers": tickers, "data": data, "count": len(data)}, nil
}

func (n *Node) request(ticker string) Request {
	return Request{
		Ticker:         ticker,
		Provider:       n.config.Provider,
		APIKey:         n.config.APIKey,
		CustomEndpoint: n.config.CustomEndpoint,
	}
}

func (n *Node) tickers(input map[string]any) []string {
	var raw []string

	switch list := input["tickers"].(type) {
	case []string:
		raw = list
	case []any:
		for _, item := range list {
			if ticker, ok := item.(string); ok {
				raw = append(raw, ticker)
			}
		}
	}

	if len(raw) == 0 {
		ticker := nodes.FirstString(n.config.Ticker, nodes.String(input, "ticker"))
		raw = strings.Split(ticker, ",")
	}

	tickers := make([]string, 0, len(raw))

	for _, ticker := range raw {
		if ticker = strings.TrimSpace(ticker); ticker != "" {
			tickers = append(tickers, ticker)
		}
	}

	return tickers
}
