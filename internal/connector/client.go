// Package connector talks to the companion plugin installed on every managed
// WordPress site. All calls are POSTs to {site}/wp-json/wphub/v1/{action}
// carrying the site's shared api_key in the JSON body.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	routePrefix       = "/wp-json/wphub/v1/"
	defaultTimeout    = 30 * time.Second
	responseBodyLimit = 4 << 20
	errorBodySnippet  = 512
)

const (
	actionTest      = "testConnection"
	actionInstalled = "getInstalledPlugins"
	actionInstall   = "installPlugin"
	actionToggle    = "togglePlugin"
	actionUninstall = "uninstallPlugin"

	statusActive   = "active"
	statusInactive = "inactive"
)

var (
	ErrUnauthorized = errors.New("connector rejected the api key")
	ErrRemote       = errors.New("connector reported failure")
)

// Target identifies a managed site.
type Target struct {
	URL    string
	APIKey string
}

type Client struct {
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ConnectionInfo struct {
	WPVersion    string `json:"wp_version"`
	PluginsCount int    `json:"plugins_count"`
	SiteURL      string `json:"site_url"`
	Timestamp    string `json:"timestamp"`
}

type InstalledPlugin struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Author      string `json:"author"`
	IsActive    bool   `json:"is_active"`
}

func (c *Client) TestConnection(ctx context.Context, t Target) (*ConnectionInfo, error) {
	var out struct {
		envelope
		ConnectionInfo
	}
	if err := c.call(ctx, t, actionTest, nil, &out); err != nil {
		return nil, err
	}
	return &out.ConnectionInfo, nil
}

func (c *Client) InstalledPlugins(ctx context.Context, t Target) ([]InstalledPlugin, error) {
	var out struct {
		envelope
		Plugins []InstalledPlugin `json:"plugins"`
		Total   int               `json:"total"`
	}
	if err := c.call(ctx, t, actionInstalled, nil, &out); err != nil {
		return nil, err
	}
	return out.Plugins, nil
}

func (c *Client) InstallPlugin(ctx context.Context, t Target, slug, fileURL string) error {
	var out envelope
	return c.call(ctx, t, actionInstall, map[string]any{
		"plugin_slug": slug,
		"file_url":    fileURL,
	}, &out)
}

// TogglePlugin flips activation and reports whether the plugin is now active.
func (c *Client) TogglePlugin(ctx context.Context, t Target, slug string) (bool, error) {
	var out struct {
		envelope
		NewStatus string `json:"new_status"`
	}
	if err := c.call(ctx, t, actionToggle, map[string]any{"plugin_slug": slug}, &out); err != nil {
		return false, err
	}
	switch out.NewStatus {
	case statusActive:
		return true, nil
	case statusInactive:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unexpected status %q", ErrRemote, out.NewStatus)
	}
}

func (c *Client) UninstallPlugin(ctx context.Context, t Target, slug string) error {
	var out envelope
	return c.call(ctx, t, actionUninstall, map[string]any{"plugin_slug": slug}, &out)
}

func (c *Client) call(ctx context.Context, t Target, action string, params map[string]any, out any) error {
	if t.URL == "" {
		return errors.New("site url is required")
	}
	body := map[string]any{"api_key": t.APIKey}
	for k, v := range params {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", action, err)
	}

	endpoint := strings.TrimRight(t.URL, "/") + routePrefix + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return fmt.Errorf("read %s response: %w", action, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s returned %d: %s", ErrRemote, action, resp.StatusCode, snippet(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	if !env.Success {
		return fmt.Errorf("%w: %s: %s", ErrRemote, action, env.Message)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	return nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > errorBodySnippet {
		return s[:errorBodySnippet]
	}
	return s
}
