package feed

import (
	"context"
	"fmt"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/protocol"
)

type Factory struct {
	client *Client
}

func NewFactory(client *Client) protocol.NodeFactory {
	return &Factory{client: client}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	feedConfig, ok := config.(*models.FeedConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	return NewNode(f.client, feedConfig), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeFeed
}

func (f *Factory) Name() string {
	return "Reddit"
}

func (f *Factory) Description() string {
	return "Fetches or searches subreddit posts and post comments"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":    "string",
				"enum":    []string{models.FeedFetchPosts, models.FeedFetchComments, models.FeedSearchPosts},
				"default": models.FeedFetchPosts,
			},
			"subreddit":  map[string]any{"type": "string", "examples": []string{"shortsqueeze"}},
			"sort":       map[string]any{"type": "string", "enum": []string{"hot", "new", "top", "rising"}, "default": DefaultSort},
			"limit":      map[string]any{"type": "integer", "minimum": 1, "maximum": 100, "default": DefaultLimit},
			"timeFilter": map[string]any{"type": "string", "enum": []string{"hour", "day", "week", "month", "year", "all"}, "default": DefaultTimeFilter},
			"permalink":  map[string]any{"type": "string"},
			"query":      map[string]any{"type": "string"},
		},
	}
}
