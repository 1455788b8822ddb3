package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/acmecommerce/shopflow/pkg/apperror"
)

// Post is one record of the upstream posts API.
type Post struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Client calls the external posts API. Failures of any kind surface as
// upstream errors so the HTTP layer maps them to 502.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) FetchPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.get(ctx, c.baseURL+"/posts", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) FetchPostByID(ctx context.Context, id int) (Post, error) {
	var post Post
	if err := c.get(ctx, fmt.Sprintf("%s/posts/%d", c.baseURL, id), &post); err != nil {
		return Post{}, err
	}
	return post, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperror.Upstream(err, "external API request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.Upstream(err, "external API unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperror.Upstream(nil, "external API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.Upstream(err, "external API response")
	}
	return nil
}
