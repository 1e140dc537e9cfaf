// Package api provides a client for the music backend: the song list,
// lyrics files and media assets.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when the backend has no such resource.
var ErrNotFound = errors.New("resource not found")

const (
	userAgent = "flux-music-client/1.0"

	// Some backends sit behind an ngrok tunnel that serves an interstitial
	// page unless this header is present.
	skipWarningHeader = "ngrok-skip-browser-warning"
)

// Policy is a retry policy: Attempts tries with a linear backoff of
// Delay*attempt between them.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Default retry policies per resource.
var (
	ListPolicy   = Policy{Attempts: 3, Delay: 5 * time.Second}
	LyricsPolicy = Policy{Attempts: 2, Delay: time.Second}
	AssetPolicy  = Policy{Attempts: 3, Delay: 2 * time.Second}
)

// Client is a backend API client.
type Client struct {
	base       string
	httpClient *http.Client
	log        zerolog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l.With().Str("component", "api").Logger() }
}

// WithSleep replaces the backoff sleep. Tests use it to skip waiting.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// New creates a client for the backend rooted at base.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: NormalizeBase(base),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:   zerolog.Nop(),
		sleep: sleepCtx,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the normalized API base.
func (c *Client) Base() string {
	return c.base
}

// NormalizeBase strips a trailing "/list" endpoint and trailing slashes,
// so that users can paste the list URL as the API base.
func NormalizeBase(base string) string {
	base = strings.TrimSpace(base)
	base = strings.TrimSuffix(base, "/")
	base = strings.TrimSuffix(base, "/list")
	return strings.TrimSuffix(base, "/")
}

// URL returns the absolute URL of a backend reference. Absolute references
// are returned unchanged.
func (c *Client) URL(ref string) string {
	if IsAbsolute(ref) {
		return ref
	}
	if c.base == "" {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	u, err := url.Parse(c.base)
	if err != nil {
		return c.base + ref
	}
	return u.JoinPath(ref).String()
}

// IsAbsolute reports whether ref is an http(s) URL.
func IsAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// ListSongs fetches the song list.
func (c *Client) ListSongs(ctx context.Context) ([]SongRecord, error) {
	var songs []SongRecord
	err := c.withRetry(ctx, "list", ListPolicy, func() error {
		params := url.Values{}
		params.Set("_t", strconv.FormatInt(c.now().UnixMilli(), 10))
		body, err := c.get(ctx, c.URL("/list")+"?"+params.Encode())
		if err != nil {
			return err
		}
		songs, err = decodeSongs(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return songs, nil
}

// FetchLyrics fetches the lyrics file at ref. ErrNotFound is returned
// without retrying.
func (c *Client) FetchLyrics(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", ErrNotFound
	}
	var text string
	err := c.withRetry(ctx, "lyrics", LyricsPolicy, func() error {
		body, err := c.get(ctx, c.URL(ref))
		if err != nil {
			return err
		}
		text = string(body)
		return nil
	})
	return text, err
}

// FetchAsset fetches audio, video or image bytes at ref.
func (c *Client) FetchAsset(ctx context.Context, ref string) ([]byte, error) {
	var data []byte
	err := c.withRetry(ctx, "asset", AssetPolicy, func() error {
		var err error
		data, err = c.get(ctx, c.URL(ref))
		return err
	})
	return data, err
}

// Ping checks that the backend answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.URL("/list"), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(skipWarningHeader, "true")
}
