// Package wiki wraps the MediaWiki "parse" API: it fetches a page title
// and hands back the rendered HTML fragment as a parsed DOM tree.
package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/efdb-export/internal/fetcher"
	"github.com/IshaanNene/efdb-export/internal/types"
)

// Client fetches rendered wiki pages through a Fetcher.
type Client struct {
	base    *url.URL
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// parseResponse mirrors the envelope of api.php?action=parse&format=json.
// The rendered HTML lives under parse.text["*"].
type parseResponse struct {
	Parse struct {
		Text map[string]string `json:"text"`
	} `json:"parse"`
}

// NewClient creates a wiki client for the given origin.
func NewClient(baseURL string, f fetcher.Fetcher, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid wiki base URL %q: %w", baseURL, err)
	}
	return &Client{
		base:    base,
		fetcher: f,
		logger:  logger.With("component", "wiki_client"),
	}, nil
}

// BaseURL returns the wiki origin.
func (c *Client) BaseURL() *url.URL {
	return c.base
}

// PageFragment fetches a page by display name and returns its rendered
// HTML fragment. Spaces in the title are replaced by underscores,
// matching the wiki's canonical page naming.
func (c *Client) PageFragment(ctx context.Context, title string) ([]byte, error) {
	pageURL := c.apiURL(types.PageID(title))

	resp, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	payload, err := apiPayload(resp.Body)
	if err != nil {
		return nil, &types.ParseError{Page: title, Detail: "api envelope", Err: err}
	}

	var envelope parseResponse
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, &types.ParseError{Page: title, Detail: "api envelope", Err: err}
	}

	fragment, ok := envelope.Parse.Text["*"]
	if !ok || fragment == "" {
		return nil, &types.ParseError{Page: title, Err: types.ErrNoParseText}
	}

	c.logger.Debug("page fetched", "title", title, "bytes", len(fragment))
	return []byte(fragment), nil
}

// PageHTML fetches a page by display name and returns its rendered HTML
// as a parsed document.
func (c *Client) PageHTML(ctx context.Context, title string) (*html.Node, error) {
	fragment, err := c.PageFragment(ctx, title)
	if err != nil {
		return nil, err
	}

	doc, err := htmlquery.Parse(strings.NewReader(string(fragment)))
	if err != nil {
		return nil, &types.ParseError{Page: title, Detail: "html", Err: err}
	}
	return doc, nil
}

// apiPayload returns the raw JSON document from an API response body.
// A browser fetcher hands back the rendered DOM instead of the raw
// bytes, with the JSON shown inside the viewer's pre block; that text is
// recovered here so both fetcher types feed the same decoder.
func apiPayload(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return trimmed, nil
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rendered api response: %w", err)
	}
	pre := htmlquery.FindOne(doc, `//pre`)
	if pre == nil {
		return nil, fmt.Errorf("rendered api response has no pre block")
	}
	return []byte(htmlquery.InnerText(pre)), nil
}

// apiURL builds the parse-API URL for a canonical page title.
func (c *Client) apiURL(pageID string) string {
	api := *c.base
	api.Path = strings.TrimSuffix(api.Path, "/") + "/api.php"

	q := url.Values{}
	q.Set("action", "parse")
	q.Set("page", pageID)
	q.Set("format", "json")
	api.RawQuery = q.Encode()

	return api.String()
}
