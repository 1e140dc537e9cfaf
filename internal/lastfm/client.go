// Package lastfm scrobbles plays to Last.fm.
package lastfm

import (
	"errors"
	"fmt"

	"github.com/shkh/lastfm-go/lastfm"
)

// ErrNotAuthenticated is returned when an operation requires a session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client wraps the Last.fm API.
type Client struct {
	api        *lastfm.Api
	apiKey     string
	sessionKey string
}

// New creates a client with the given API credentials.
func New(apiKey, apiSecret string) *Client {
	return &Client{
		api:    lastfm.New(apiKey, apiSecret),
		apiKey: apiKey,
	}
}

// SetSessionKey sets the authenticated session key.
func (c *Client) SetSessionKey(key string) {
	c.sessionKey = key
	c.api.SetSession(key)
}

// IsAuthenticated returns true if a session key is set.
func (c *Client) IsAuthenticated() bool {
	return c.sessionKey != ""
}

// Token requests an authentication token.
func (c *Client) Token() (string, error) {
	token, err := c.api.GetToken()
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

// AuthURL returns the page where the user authorizes token.
func (c *Client) AuthURL(token string) string {
	return authURL(c.apiKey, token)
}

// Login exchanges an authorized token for a session key and makes the
// client use it. username is "" when the profile lookup fails.
func (c *Client) Login(token string) (username, sessionKey string, err error) {
	if err := c.api.LoginWithToken(token); err != nil {
		return "", "", fmt.Errorf("get session: %w", err)
	}
	sessionKey = c.api.GetSessionKey()
	c.sessionKey = sessionKey

	info, err := c.api.User.GetInfo(nil)
	if err != nil {
		return "", sessionKey, nil //nolint:nilerr // username is optional
	}
	return info.Name, sessionKey, nil
}

// UpdateNowPlaying announces t as the track being played.
func (c *Client) UpdateNowPlaying(t ScrobbleTrack) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if _, err := c.api.Track.UpdateNowPlaying(t.params()); err != nil {
		return fmt.Errorf("update now playing: %w", err)
	}
	return nil
}

// Scrobble submits a finished play.
func (c *Client) Scrobble(t ScrobbleTrack) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	p := t.params()
	p["timestamp"] = t.Timestamp.Unix()
	if _, err := c.api.Track.Scrobble(p); err != nil {
		return fmt.Errorf("scrobble: %w", err)
	}
	return nil
}
