package mgmtsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultPageSize is the per_page value used for paginated endpoints. The
// provider caps it at 100.
const DefaultPageSize = 100

// maxPages guards against a provider that keeps reporting more results.
const maxPages = 50

// TokenSource supplies bearer tokens to the Client.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Client reads from the Management API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	PageSize   int

	tokens TokenSource
}

// NewClient creates a client for the tenant at baseURL. tokens may be nil
// when callers always pass tokens explicitly.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		PageSize: DefaultPageSize,
		tokens:   tokens,
	}
}

// Token returns a Management API token from the configured TokenSource.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", ErrMissingCredentials
	}
	return c.tokens.Token(ctx)
}

func (c *Client) url(path string, query url.Values) string {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// getJSON performs an authenticated GET and decodes a 200 body into target.
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, token string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, query), nil)
	if err != nil {
		return &UpstreamFetchError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &UpstreamFetchError{Op: op, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamFetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
			c.tokens.Invalidate()
		}
		return &UpstreamFetchError{
			Op:      op,
			Status:  resp.StatusCode,
			Payload: truncate(body),
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return &UpstreamFetchError{Op: op, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
	}
	return nil
}

// listPages walks a paginated endpoint requested with include_totals=true.
// The provider answers with an envelope whose items live under itemsKey.
// A bare JSON array is taken as the complete result.
func listPages[T any](ctx context.Context, c *Client, op, path, itemsKey, token string) ([]T, error) {
	perPage := c.PageSize
	if perPage <= 0 || perPage > DefaultPageSize {
		perPage = DefaultPageSize
	}

	out := []T{}
	for page := 0; page < maxPages; page++ {
		query := url.Values{
			"page":           {strconv.Itoa(page)},
			"per_page":       {strconv.Itoa(perPage)},
			"include_totals": {"true"},
		}

		var body json.RawMessage
		if err := c.getJSON(ctx, op, path, query, token, &body); err != nil {
			return nil, err
		}

		if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
			var items []T
			if err := json.Unmarshal(trimmed, &items); err != nil {
				return nil, &UpstreamFetchError{Op: op, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
			}
			return append(out, items...), nil
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, &UpstreamFetchError{Op: op, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
		}

		raw, ok := envelope[itemsKey]
		if !ok {
			return nil, &UpstreamFetchError{Op: op, Err: fmt.Errorf("%w: missing %q", ErrMalformedResponse, itemsKey)}
		}
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, &UpstreamFetchError{Op: op, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
		}

		var total int
		if rawTotal, ok := envelope["total"]; ok {
			if err := json.Unmarshal(rawTotal, &total); err != nil {
				return nil, &UpstreamFetchError{Op: op, Err: fmt.Errorf("%w: total: %w", ErrMalformedResponse, err)}
			}
		}

		out = append(out, items...)
		if len(items) < perPage || len(out) >= total {
			break
		}
	}
	return out, nil
}
