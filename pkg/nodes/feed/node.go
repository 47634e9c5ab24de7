package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/runctx"
)

const (
	DefaultSort       = "hot"
	DefaultLimit      = 25
	DefaultTimeFilter = "day"
)

var (
	ErrSubredditRequired = errors.New("Subreddit is required for Reddit fetchPosts operation")
	ErrPermalinkRequired = errors.New("Permalink is required for Reddit fetchComments operation")
	ErrSearchRequired    = errors.New("Subreddit and query are required for Reddit searchPosts operation")
)

// Node runs one feed operation. subreddit, permalink and query may come from
// the input when the configuration leaves them empty.
type Node struct {
	client *Client
	config models.FeedConfig
}

func NewNode(client *Client, config *models.FeedConfig) *Node {
	feedConfig := *config

	if feedConfig.Operation == "" {
		feedConfig.Operation = models.FeedFetchPosts
	}

	if feedConfig.Sort == "" {
		feedConfig.Sort = DefaultSort
	}

	if feedConfig.Limit == 0 {
		feedConfig.Limit = DefaultLimit
	}

	if feedConfig.TimeFilter == "" {
		feedConfig.TimeFilter = DefaultTimeFilter
	}

	return &Node{client: client, config: feedConfig}
}

func (n *Node) Execute(ctx context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	switch n.config.Operation {
	case models.FeedFetchPosts:
		subreddit := nodes.FirstString(n.config.Subreddit, nodes.String(input, "subreddit"))
		if subreddit == "" {
			return nil, ErrSubredditRequired
		}

		posts, after, err := n.client.FetchPosts(ctx, FetchOptions{
			Subreddit:  subreddit,
			Sort:       n.config.Sort,
			Limit:      n.config.Limit,
			TimeFilter: n.config.TimeFilter,
		})
		if err != nil {
			return nil, err
		}

		return map[string]any{"posts": posts, "after": after, "count": len(posts)}, nil
	case models.FeedFetchComments:
		permalink := nodes.FirstString(n.config.Permalink, nodes.String(input, "permalink"))
		if permalink == "" {
			return nil, ErrPermalinkRequired
		}

		comments, err := n.client.FetchComments(ctx, permalink)
		if err != nil {
			return nil, err
		}

		return map[string]any{"comments": comments, "count": len(comments)}, nil
	case models.FeedSearchPosts:
		subreddit := nodes.FirstString(n.config.Subreddit, nodes.String(input, "subreddit"))
		query := nodes.FirstString(n.config.Query, nodes.String(input, "query"))

		if subreddit == "" || query == "" {
			return nil, ErrSearchRequired
		}

		posts, err := n.client.SearchPosts(ctx, subreddit, query, n.config.Limit)
		if err != nil {
			return nil, err
		}

		return map[string]any{"posts": posts, "count": len(posts)}, nil
	default:
		return nil, fmt.Errorf("Unknown Reddit operation: %s", n.config.Operation)
	}
}
