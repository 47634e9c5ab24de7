// Package feed fetches posts and comments from Reddit's public JSON API.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL = "https://www.reddit.com"
	UserAgent      = "SqueezeWeasel/1.0 (Automation Tool)"
)

// Post is a submission in a subreddit.
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"numComments"`
	CreatedUTC  float64 `json:"createdUtc"`
	Selftext    string  `json:"selftext,omitempty"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
}

// Comment is one comment of a post thread, replies flattened depth first.
type Comment struct {
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"createdUtc"`
	ParentID   string  `json:"parentId"`
}

// FetchOptions selects a subreddit listing.
type FetchOptions struct {
	Subreddit  string
	Sort       string
	Limit      int
	TimeFilter string
	After      string
}

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string    `json:"kind"`
	Data thingData `json:"data"`
}

type thingData struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Subreddit   string          `json:"subreddit"`
	Score       int             `json:"score"`
	NumComments int             `json:"num_comments"`
	CreatedUTC  float64         `json:"created_utc"`
	Selftext    string          `json:"selftext"`
	URL         string          `json:"url"`
	Permalink   string          `json:"permalink"`
	Body        string          `json:"body"`
	ParentID    string          `json:"parent_id"`
	Replies     json.RawMessage `json:"replies"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{httpClient: httpClient, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// FetchPosts returns a listing page and the cursor of the next one.
func (c *Client) FetchPosts(ctx context.Context, opts FetchOptions) ([]Post, string, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(opts.Limit))

	if opts.Sort == "top" && opts.TimeFilter != "" {
		query.Set("t", opts.TimeFilter)
	}

	if opts.After != "" {
		query.Set("after", opts.After)
	}

	endpoint := fmt.Sprintf("%s/r/%s/%s.json?%s", c.baseURL, url.PathEscape(opts.Subreddit), opts.Sort, query.Encode())

	var page listing
	if err := c.get(ctx, endpoint, &page); err != nil {
		return nil, "", fmt.Errorf("Failed to fetch Reddit posts: %w", err)
	}

	return c.posts(page), page.Data.After, nil
}

// FetchComments returns every comment of the thread at permalink.
func (c *Client) FetchComments(ctx context.Context, permalink string) ([]Comment, error) {
	path := permalink
	if parsed, err := url.Parse(permalink); err == nil && parsed.IsAbs() {
		path = parsed.Path
	}

	endpoint := fmt.Sprintf("%s/%s.json", c.baseURL, strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/"))

	var thread []listing
	if err := c.get(ctx, endpoint, &thread); err != nil {
		return nil, fmt.Errorf("Failed to fetch Reddit comments: %w", err)
	}

	comments := []Comment{}

	if len(thread) > 1 {
		comments = collectComments(thread[1].Data.Children, comments)
	}

	return comments, nil
}

// SearchPosts searches within one subreddit.
func (c *Client) SearchPosts(ctx context.Context, subreddit, search string, limit int) ([]Post, error) {
	query := url.Values{}
	query.Set("q", search)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("restrict_sr", "1")

	endpoint := fmt.Sprintf("%s/r/%s/search.json?%s", c.baseURL, url.PathEscape(subreddit), query.Encode())

	var page listing
	if err := c.get(ctx, endpoint, &page); err != nil {
		return nil, fmt.Errorf("Failed to search Reddit posts: %w", err)
	}

	return c.posts(page), nil
}

func (c *Client) get(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Reddit API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("Reddit API returned invalid JSON: %w", err)
	}

	return nil
}

func (c *Client) posts(page listing) []Post {
	posts := make([]Post, 0, len(page.Data.Children))

	for _, child := range page.Data.Children {
		post := child.Data
		posts = append(posts, Post{
			ID:          post.ID,
			Title:       post.Title,
			Author:      post.Author,
			Subreddit:   post.Subreddit,
			Score:       post.Score,
			NumComments: post.NumComments,
			CreatedUTC:  post.CreatedUTC,
			Selftext:    post.Selftext,
			URL:         post.URL,
			Permalink:   DefaultBaseURL + post.Permalink,
		})
	}

	return posts
}

func collectComments(children []thing, comments []Comment) []Comment {
	for _, child := range children {
		if child.Kind != "t1" {
			continue
		}

		comment := child.Data
		comments = append(comments, Comment{
			ID:         comment.ID,
			Author:     comment.Author,
			Body:       comment.Body,
			Score:      comment.Score,
			CreatedUTC: comment.CreatedUTC,
			ParentID:   comment.ParentID,
		})

		// replies is "" when a comment has none.
		var replies listing
		if len(comment.Replies) > 0 && json.Unmarshal(comment.Replies, &replies) == nil {
			comments = collectComments(replies.Data.Children, comments)
		}
	}

	return comments
}
