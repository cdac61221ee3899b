package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/verdane/duelbot/internal/domain"
)

// HeaderProvider allows injecting per-request headers (auth tokens etc).
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendMessageRequest struct {
	ChannelID string   `json:"channel_id"`
	Text      string   `json:"text"`
	Color     int      `json:"color,omitempty"`
	Reactions []string `json:"reactions,omitempty"`
	Ephemeral bool     `json:"ephemeral,omitempty"`
}

type editMessageRequest struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
	Color     int    `json:"color,omitempty"`
}

type memberResponse struct {
	Present bool `json:"present"`
}

// SendMessage posts content into a channel and returns the created message
// reference. Reactions listed in the content are seeded by the relay.
func (c *Client) SendMessage(ctx context.Context, channelID string, content domain.Content) (*domain.MessageRef, error) {
	req := sendMessageRequest{
		ChannelID: channelID,
		Text:      content.Text,
		Color:     content.Color,
		Reactions: content.Reactions,
	}
	var ref domain.MessageRef
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/messages", req, &ref, false); err != nil {
		return nil, err
	}
	return &ref, nil
}

// EditMessage replaces the content of a previously sent message.
func (c *Client) EditMessage(ctx context.Context, ref *domain.MessageRef, content domain.Content) error {
	if ref == nil {
		return errors.New("nil message ref")
	}
	req := editMessageRequest{
		ChannelID: ref.ChannelID,
		MessageID: ref.ID,
		Text:      content.Text,
		Color:     content.Color,
	}
	return c.doJSON(ctx, fasthttp.MethodPatch, "/messages", req, nil, false)
}

// ReplyToInteraction acknowledges a structured interaction with content and
// returns the message the relay created for it. Ephemeral asks the relay to
// show the reply only to the invoking member.
func (c *Client) ReplyToInteraction(ctx context.Context, interactionID string, content domain.Content, ephemeral bool) (*domain.MessageRef, error) {
	req := sendMessageRequest{
		Text:      content.Text,
		Color:     content.Color,
		Reactions: content.Reactions,
		Ephemeral: ephemeral,
	}
	var ref domain.MessageRef
	path := "/interactions/" + strings.TrimSpace(interactionID) + "/reply"
	if err := c.doJSON(ctx, fasthttp.MethodPost, path, req, &ref, false); err != nil {
		return nil, err
	}
	return &ref, nil
}

// ChannelHasMember reports whether a member can see the given channel.
// Lookups are retried, the relay occasionally times out on cold caches.
func (c *Client) ChannelHasMember(ctx context.Context, channelID, memberID string) (bool, error) {
	var resp memberResponse
	path := fmt.Sprintf("/channels/%s/members/%s", strings.TrimSpace(channelID), strings.TrimSpace(memberID))
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &resp, true); err != nil {
		return false, err
	}
	return resp.Present, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	url := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			body := string(resp.Body())
			err := fmt.Errorf("relay api error: status=%d body=%s", status, truncate(body, 512))
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
