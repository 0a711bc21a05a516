package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.twitter.com/2"

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. The client is used as-is, so it
// must add the Authorization header itself.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// Client is a Twitter API v2 client authenticated with an app-only bearer token.
type Client struct {
	baseURL    string
	httpClient HTTPClient
}

// NewClient creates a new Twitter API client with the given bearer token.
func NewClient(bearerToken string, opts ...ClientOption) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: bearerToken,
		TokenType:   "Bearer",
	})
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: oauth2.NewClient(context.Background(), src),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchUser calls a user lookup endpoint such as /users/by/username/{name}.
func (c *Client) FetchUser(ctx context.Context, path string, params url.Values) (*UserResponse, error) {
	var resp UserResponse
	if err := c.call(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchTweets calls an endpoint returning a tweet collection: user timelines,
// recent search, list timelines and the /tweets batch lookup.
func (c *Client) FetchTweets(ctx context.Context, path string, params url.Values) (*TweetsResponse, error) {
	var resp TweetsResponse
	if err := c.call(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "failed to parse response from %s", path)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "twitter API request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleAPIError(resp.StatusCode)
	}

	return body, nil
}

func (c *Client) handleAPIError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("Twitter API authentication failed - check your bearer token or run 'tweetfeed auth'")
	case http.StatusForbidden:
		return fmt.Errorf("Twitter API access denied - check your developer project access level")
	case http.StatusNotFound:
		return fmt.Errorf("Twitter API endpoint not found")
	case http.StatusTooManyRequests:
		return fmt.Errorf("Twitter API rate limit exceeded - please try again later")
	case http.StatusServiceUnavailable:
		return fmt.Errorf("Twitter API temporarily unavailable - please try again in a few minutes")
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return fmt.Errorf("Twitter API server error - please try again later")
	default:
		return fmt.Errorf("Twitter API error (status %d) - please try again", statusCode)
	}
}
