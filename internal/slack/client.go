package slack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secondbrain/internal/config"
	"github.com/fyrsmithlabs/secondbrain/internal/logging"
)

// Messenger is the outbound surface the assistant core depends on.
type Messenger interface {
	// PostReply posts into the thread anchored at threadKey, broadcast to
	// the channel.
	PostReply(ctx context.Context, channel, threadKey, text string) error
	// PostDM sends a direct message to the configured user.
	PostDM(ctx context.Context, text string) error
	// PostMessage posts a plain channel message and returns its ts, which
	// can anchor a new conversation thread.
	PostMessage(ctx context.Context, channel, text string) (string, error)
	// DownloadFile fetches a private attachment. The caller owns closing
	// the returned reader.
	DownloadFile(ctx context.Context, url string) (io.ReadCloser, error)
}

// Client implements Messenger over the Slack Web API.
type Client struct {
	httpClient *http.Client
	apiRoot    string
	botToken   config.Secret
	userID     string
	log        *logging.Logger
}

// NewClient returns a client for the configured workspace.
func NewClient(cfg config.SlackConfig, log *logging.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiRoot:    cfg.APIRoot,
		botToken:   cfg.BotToken,
		userID:     cfg.UserID,
		log:        log.Named("slack"),
	}
}

func (c *Client) PostReply(ctx context.Context, channel, threadKey, text string) error {
	body, err := messageBody(channel, text)
	if err == nil {
		body, err = sjson.SetBytes(body, "thread_ts", threadKey)
	}
	if err == nil {
		body, err = sjson.SetBytes(body, "reply_broadcast", true)
	}
	if err != nil {
		return fmt.Errorf("slack: build reply: %w", err)
	}
	_, err = c.postMessage(ctx, body)
	return err
}

func (c *Client) PostDM(ctx context.Context, text string) error {
	if c.userID == "" {
		return fmt.Errorf("slack: no user id configured for direct messages")
	}
	body, err := messageBody(c.userID, text)
	if err != nil {
		return fmt.Errorf("slack: build dm: %w", err)
	}
	_, err = c.postMessage(ctx, body)
	return err
}

func (c *Client) PostMessage(ctx context.Context, channel, text string) (string, error) {
	body, err := messageBody(channel, text)
	if err != nil {
		return "", fmt.Errorf("slack: build message: %w", err)
	}
	return c.postMessage(ctx, body)
}

func messageBody(channel, text string) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "channel", channel)
	if err == nil {
		body, err = sjson.SetBytes(body, "text", text)
	}
	return body, err
}

// postMessage calls chat.postMessage and returns the new message's ts.
// Slack reports API failures in the body with HTTP 200, so the ok flag is
// the real status.
func (c *Client) postMessage(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiRoot+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("slack: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken.Value())
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack: post message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("slack: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("slack: post message: status %d", resp.StatusCode)
	}
	if !gjson.GetBytes(respBody, "ok").Bool() {
		apiErr := gjson.GetBytes(respBody, "error").String()
		return "", fmt.Errorf("slack: post message: %s", apiErr)
	}

	ts := gjson.GetBytes(respBody, "ts").String()
	c.log.Trace(ctx, "posted message",
		zap.String("channel", gjson.GetBytes(body, "channel").String()),
		zap.String("ts", ts))
	return ts, nil
}

func (c *Client) DownloadFile(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("slack: build download: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken.Value())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack: download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("slack: download file: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
