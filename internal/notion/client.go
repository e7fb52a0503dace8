package notion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secondbrain/internal/config"
	"github.com/fyrsmithlabs/secondbrain/internal/logging"
)

const notionVersion = "2022-06-28"

// Client is the low-level Notion REST client. Store and InboxLog are
// built on top of it.
type Client struct {
	httpClient *http.Client
	apiRoot    string
	apiKey     config.Secret
	log        *logging.Logger
}

// NewClient returns a client for the configured Notion workspace.
func NewClient(cfg config.NotionConfig, log *logging.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiRoot:    cfg.APIRoot,
		apiKey:     cfg.APIKey,
		log:        log.Named("notion"),
	}
}

// do issues one API request and returns the response body. Non-2xx
// responses become errors carrying Notion's message field.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiRoot+path, reader)
	if err != nil {
		return nil, fmt.Errorf("notion: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey.Value())
	req.Header.Set("Notion-Version", notionVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("notion: read response: %w", err)
	}

	c.log.Trace(ctx, "notion api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(respBody, "message").String()
		if msg == "" {
			msg = string(respBody)
		}
		return nil, fmt.Errorf("notion: %s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	return respBody, nil
}

// queryDatabase runs one database query, following pagination until
// exhausted. filter is raw JSON or nil for no filter. The callback is
// invoked once per result page object.
func (c *Client) queryDatabase(ctx context.Context, databaseID string, filter []byte, visit func(page gjson.Result)) error {
	cursor := ""
	for {
		body, err := queryBody(filter, cursor)
		if err != nil {
			return err
		}
		respBody, err := c.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", body)
		if err != nil {
			return err
		}
		gjson.GetBytes(respBody, "results").ForEach(func(_, page gjson.Result) bool {
			visit(page)
			return true
		})
		if !gjson.GetBytes(respBody, "has_more").Bool() {
			return nil
		}
		cursor = gjson.GetBytes(respBody, "next_cursor").String()
	}
}

// createPage creates a page in the given database and returns its id.
func (c *Client) createPage(ctx context.Context, databaseID string, properties []byte) (string, error) {
	body, err := createPageBody(databaseID, properties)
	if err != nil {
		return "", err
	}
	respBody, err := c.do(ctx, http.MethodPost, "/pages", body)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(respBody, "id").String()
	if id == "" {
		return "", fmt.Errorf("notion: create page: response missing id")
	}
	return id, nil
}

// updatePage patches a page's properties.
func (c *Client) updatePage(ctx context.Context, pageID string, properties []byte) error {
	body, err := createPageProperties(properties)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPatch, "/pages/"+pageID, body)
	return err
}

// retrieveDatabase fetches a database definition.
func (c *Client) retrieveDatabase(ctx context.Context, databaseID string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/databases/"+databaseID, nil)
}
