package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwy87/kaoyan/internal/bubbles"
	"github.com/jwy87/kaoyan/internal/generation"
)

const defaultTimeout = 25 * time.Second

// Client talks to the blessing API. Its methods never return errors: failures
// are logged and mapped to empty or fallback values so a wall keeps running
// while the server is offline.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client rooted at baseURL, e.g. http://localhost:8080.
func New(baseURL string, logger *zerolog.Logger, opts ...Option) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchBlessings returns the community blessings, or an empty list on any failure.
func (c *Client) FetchBlessings(ctx context.Context) []string {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/api/blessings", nil, &out); err != nil {
		c.log.Warn().Err(err).Msg("could not fetch blessings, server might be offline")
		return []string{}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// SaveBlessing submits a blessing and reports whether the server accepted it.
func (c *Client) SaveBlessing(ctx context.Context, content string) bool {
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/api/blessings", body, nil); err != nil {
		c.log.Warn().Err(err).Msg("could not save blessing")
		return false
	}
	return true
}

type generateRequest struct {
	UserInfo *bubbles.UserInfo `json:"userInfo,omitempty"`
}

// GenerateBlessing asks the server for a blessing, falling back to a local
// message when the server cannot be reached.
func (c *Client) GenerateBlessing(ctx context.Context, user *bubbles.UserInfo) generation.Result {
	var res generation.Result
	if err := c.do(ctx, http.MethodPost, "/api/generateBlessing", generateRequest{UserInfo: user}, &res); err != nil {
		c.log.Warn().Err(err).Msg("using offline fallback blessing")
		return generation.Result{Text: generation.Fallback(), Fallback: true}
	}
	if strings.TrimSpace(res.Text) == "" {
		return generation.Result{Text: generation.Fallback(), Fallback: true}
	}
	return res
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("client: %s %s: unexpected status %s: %s", method, path, resp.Status, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
