package mocktools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultURL is where the mock tool server listens by default.
const DefaultURL = "http://localhost:3001"

// Client is the episode runner's view of a running mock tool server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL (empty means
// [DefaultURL]).
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetScenario resets the server to a scenario, clearing recorded calls.
func (c *Client) SetScenario(ctx context.Context, scenario string) error {
	return c.post(ctx, "/set_scenario/"+scenario, nil, nil)
}

// SetUserContext pushes the user context for {{KEY}} substitution in served
// files.
func (c *Client) SetUserContext(ctx context.Context, userContext map[string]string) error {
	return c.post(ctx, "/set_user_context", userContext, nil)
}

// ToolCalls returns the calls recorded since the last scenario reset.
func (c *Client) ToolCalls(ctx context.Context) ([]ToolCallEntry, error) {
	var out struct {
		Calls []ToolCallEntry `json:"calls"`
	}
	if err := c.get(ctx, "/tool_calls", &out); err != nil {
		return nil, err
	}
	return out.Calls, nil
}

// AllRequests returns every recorded request including failures.
func (c *Client) AllRequests(ctx context.Context) (RequestLog, error) {
	var out RequestLog
	err := c.get(ctx, "/all_requests", &out)
	return out, err
}

// CallTool invokes a tool directly, bypassing the agent. Used by fixture
// smoke tests.
func (c *Client) CallTool(ctx context.Context, tool string, args map[string]any) (map[string]any, error) {
	var out map[string]any
	if err := c.post(ctx, "/tools/"+tool, args, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Healthy reports whether the server's health endpoint answers 200.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	return resp.StatusCode == http.StatusOK
}

// Health returns the health payload, for status displays.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.get(ctx, "/health", &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(text)))
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
