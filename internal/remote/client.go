// Package remote talks to the navigation-tree and document service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Aman-CERP/palicanon/internal/config"
	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

// maxBody caps how much of a response is read.
const maxBody = 32 << 20

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration // Per request, applied through the context
	UserAgent string
	Retry     pcerrors.RetryConfig
}

// Client is an HTTP client for the remote service.
type Client struct {
	base   *url.URL
	http   *http.Client
	cfg    Config
	logger *slog.Logger
}

// NewClient creates a Client for cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, pcerrors.ConfigError(fmt.Sprintf("invalid remote base URL %q", cfg.BaseURL), err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	// No http.Client.Timeout: the per-request context deadline governs.
	return &Client{
		base:   base,
		http:   &http.Client{Transport: &http.Transport{IdleConnTimeout: 30 * time.Second}},
		cfg:    cfg,
		logger: slog.Default(),
	}, nil
}

// NewClientFromConfig creates a Client from the remote section of cfg.
func NewClientFromConfig(cfg *config.Config) (*Client, error) {
	retry := pcerrors.DefaultRetryConfig()
	retry.MaxRetries = cfg.Remote.MaxRetries
	return NewClient(Config{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   cfg.RemoteTimeout(),
		UserAgent: cfg.Remote.UserAgent,
		Retry:     retry,
	})
}

// MenuRoots fetches the top-level navigation nodes.
func (c *Client) MenuRoots(ctx context.Context) ([]json.RawMessage, error) {
	raw, err := c.getWithRetry(ctx, c.endpoint(nil, "menu"))
	if err != nil {
		return nil, err
	}
	var nodes []json.RawMessage
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, decodeError("menu", err)
	}
	return nodes, nil
}

// Menu fetches the navigation document for uid.
func (c *Client) Menu(ctx context.Context, uid string) (json.RawMessage, error) {
	raw, err := c.getWithRetry(ctx, c.endpoint(nil, "menu", uid))
	if err != nil {
		return nil, err
	}
	return single(raw, "menu/"+uid)
}

// TranslationRef is one entry of a document's translation list.
type TranslationRef struct {
	AuthorUID   string `json:"author_uid"`
	Author      string `json:"author"`
	AuthorShort string `json:"author_short"`
	Lang        string `json:"lang"`
	Title       string `json:"title"`
	Segmented   bool   `json:"segmented"`
}

type suttaplex struct {
	UID          string           `json:"uid"`
	Translations []TranslationRef `json:"translations"`
}

// Translations fetches the translation list for uid.
func (c *Client) Translations(ctx context.Context, uid string) ([]TranslationRef, error) {
	raw, err := c.get(ctx, c.endpoint(nil, "suttaplex", uid))
	if err != nil {
		return nil, err
	}
	doc, err := single(raw, "suttaplex/"+uid)
	if err != nil {
		return nil, err
	}
	var sp suttaplex
	if err := json.Unmarshal(doc, &sp); err != nil {
		return nil, decodeError("suttaplex/"+uid, err)
	}
	return sp.Translations, nil
}

// Document is the translated text of one document, as served: Text is HTML.
type Document struct {
	UID    string `json:"uid"`
	Author string `json:"author_uid"`
	Lang   string `json:"lang"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

type documentResponse struct {
	Translation *Document `json:"translation"`
}

// Document fetches the translation of uid by author in lang.
func (c *Client) Document(ctx context.Context, uid, author, lang string) (*Document, error) {
	q := url.Values{}
	if lang != "" {
		q.Set("lang", lang)
	}
	raw, err := c.get(ctx, c.endpoint(q, "suttas", uid, author))
	if err != nil {
		return nil, err
	}
	doc, err := single(raw, "suttas/"+uid)
	if err != nil {
		return nil, err
	}
	var resp documentResponse
	if err := json.Unmarshal(doc, &resp); err != nil {
		return nil, decodeError("suttas/"+uid, err)
	}
	if resp.Translation == nil {
		return &Document{UID: uid, Author: author, Lang: lang}, nil
	}
	d := resp.Translation
	if d.UID == "" {
		d.UID = uid
	}
	if d.Author == "" {
		d.Author = author
	}
	if d.Lang == "" {
		d.Lang = lang
	}
	return d, nil
}

func (c *Client) endpoint(q url.Values, parts ...string) string {
	u := *c.base
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.Join(parts, "/")
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) getWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	return pcerrors.RetryWithResult(ctx, c.cfg.Retry, func() ([]byte, error) {
		return c.get(ctx, endpoint)
	})
}

// get performs one GET. Transport failures and 5xx are retryable upstream errors;
// other non-2xx statuses are not.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pcerrors.Upstream("remote request failed", err).WithDetail("url", endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, pcerrors.Upstream("failed to read response", err).WithDetail("url", endpoint)
	}

	c.logger.Debug("remote fetch",
		slog.String("url", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := pcerrors.Upstream(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).
			WithDetail("url", endpoint).
			WithDetail("body", truncate(string(body), 200))
		e.Retryable = resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, e
	}
	return body, nil
}

// single unwraps a response that is either one JSON value or an array holding it.
func single(raw []byte, what string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nonRetryable(fmt.Sprintf("empty response for %s", what))
	}
	if trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, decodeError(what, fmt.Errorf("invalid JSON"))
		}
		return json.RawMessage(trimmed), nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, decodeError(what, err)
	}
	if len(items) == 0 {
		return nil, nonRetryable(fmt.Sprintf("empty response for %s", what))
	}
	return items[0], nil
}

func decodeError(what string, err error) error {
	e := pcerrors.Upstream(fmt.Sprintf("malformed response for %s", what), err)
	e.Retryable = false
	return e
}

func nonRetryable(msg string) error {
	e := pcerrors.Upstream(msg, nil)
	e.Retryable = false
	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
