package marketdata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/protocol"
)

type Factory struct {
	client *Client
	logger *slog.Logger
}

func NewFactory(client *Client, logger *slog.Logger) protocol.NodeFactory {
	return &Factory{client: client, logger: logger.With("module", "marketdata")}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	stockConfig, ok := config.(*models.MarketDataConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	return NewNode(f.client, stockConfig, f.logger.With("node_id", node.ID)), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeMarketData
}

func (f *Factory) Name() string {
	return "Stock data"
}

func (f *Factory) Description() string {
	return "Fetches short interest, float and quote data for one or more tickers"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticker": map[string]any{
				"type":        "string",
				"description": "Ticker or comma-separated tickers",
				"examples":    []string{"GME", "GME,AMC"},
			},
			"provider": map[string]any{
				"type":    "string",
				"enum":    []string{ProviderYahoo, ProviderAlphaVantage, ProviderFintel, ProviderCustom},
				"default": ProviderYahoo,
			},
			"apiKey":         map[string]any{"type": "string"},
			"customEndpoint": map[string]any{"type": "string", "description": "URL with a {ticker} placeholder"},
		},
	}
}
