package confluence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"confluence-mcp/config"

	"github.com/bytedance/sonic"
)

// Client reads and rewrites a single Confluence page.
type Client struct {
	baseURL  string
	pageID   string
	username string
	token    string
	hc       *http.Client
	l        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.l = l
	}
}

func NewClient(conf *config.Config, opts ...Option) *Client {
	timeout := conf.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	c := &Client{
		baseURL:  strings.TrimRight(conf.ConfluenceURL, "/"),
		pageID:   conf.PageID,
		username: conf.ConfluenceUsername,
		token:    conf.ConfluenceAPIToken,
		hc:       &http.Client{Timeout: timeout},
		l:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.l = c.l.With("component", "confluence", "page_id", c.pageID)
	return c
}

// PageURL is the content resource both calls are made against.
func (c *Client) PageURL() string {
	return fmt.Sprintf("%s/rest/api/content/%s", c.baseURL, url.PathEscape(c.pageID))
}

func (c *Client) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.PageURL(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// GetPage fetches the current state of the page.
func (c *Client) GetPage(ctx context.Context) (*Page, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "get page", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	var page Page
	if err := sonic.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	if page.Version == nil {
		return nil, ErrNoVersion
	}
	return &page, nil
}

// PutPage submits a new version of the page.
func (c *Client) PutPage(ctx context.Context, update *PageUpdate) error {
	data, err := sonic.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode page update: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPut, bytes.NewReader(data))
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to put page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Op: "put page", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Update rewrites the page with the rendered template, one version past the
// version read. A write racing with another editor is not detected here; the
// server rejects it if the version was already taken.
func (c *Client) Update(ctx context.Context, header, content string) error {
	page, err := c.GetPage(ctx)
	if err != nil {
		return err
	}
	current := page.Version.Number
	c.l.Debug("current page version", "version", current)

	update := &PageUpdate{
		Version: Version{Number: current + 1},
		Title:   header,
		Type:    PageType,
		Body: BodyWrapper{
			Storage: Storage{
				Value:          RenderPage(header, content),
				Representation: RepresentationWiki,
			},
		},
	}
	if err := c.PutPage(ctx, update); err != nil {
		return err
	}
	c.l.Info("page updated", "version", update.Version.Number)
	return nil
}

// UpdatePage reports whether the page was updated. Failures are logged, not returned.
func (c *Client) UpdatePage(ctx context.Context, header, content string) bool {
	if err := c.Update(ctx, header, content); err != nil {
		c.l.Error("failed to update page", "err", err)
		return false
	}
	return true
}

func readBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, config.MaxErrorBodySize))
	if err != nil {
		return fmt.Sprintf("<unreadable body: %v>", err)
	}
	return string(data)
}
