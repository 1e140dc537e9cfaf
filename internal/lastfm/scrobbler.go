package lastfm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/flux/internal/playlist"
)

const (
	minScrobbleLength = 30 * time.Second
	maxScrobbleWait   = 4 * time.Minute
)

// API is the part of Client the scrobbler drives.
type API interface {
	UpdateNowPlaying(t ScrobbleTrack) error
	Scrobble(t ScrobbleTrack) error
}

var _ API = (*Client)(nil)

// ShouldScrobble reports whether a track of the given length has played
// long enough: half its length or four minutes, whichever comes first.
// Tracks of 30s or less never qualify. An unknown length needs four
// minutes.
func ShouldScrobble(length, played time.Duration) bool {
	if length == 0 {
		return played >= maxScrobbleWait
	}
	if length <= minScrobbleLength {
		return false
	}
	return played >= min(length/2, maxScrobbleWait)
}

// Scrobbler records plays to Last.fm. Each started track is announced as
// now playing, and scrobbled when the next one starts if it played long
// enough.
type Scrobbler struct {
	api API
	now func() time.Time
	log zerolog.Logger

	mu      sync.Mutex
	playing *ScrobbleTrack
}

// Option configures a Scrobbler.
type Option func(*Scrobbler)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scrobbler) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scrobbler) { s.log = l.With().Str("component", "lastfm").Logger() }
}

// NewScrobbler creates a scrobbler.
func NewScrobbler(api API, opts ...Option) *Scrobbler {
	s := &Scrobbler{api: api, now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddToHistory marks t as started now.
func (s *Scrobbler) AddToHistory(_ context.Context, t playlist.Track) error {
	now := s.now()
	cur, ok := FromTrack(t, now)

	s.mu.Lock()
	prev := s.playing
	s.playing = nil
	if ok {
		s.playing = &cur
	}
	s.mu.Unlock()

	var errs []error
	if err := s.submit(prev, now); err != nil {
		errs = append(errs, err)
	}
	if ok {
		if err := s.api.UpdateNowPlaying(cur); err != nil {
			errs = append(errs, err)
		}
	} else {
		s.log.Debug().Str("path", t.Path).Msg("not scrobbling untagged track")
	}
	return errors.Join(errs...)
}

// Flush scrobbles the playing track if it qualifies. Call it when playback
// ends for good.
func (s *Scrobbler) Flush() error {
	s.mu.Lock()
	prev := s.playing
	s.playing = nil
	s.mu.Unlock()
	return s.submit(prev, s.now())
}

func (s *Scrobbler) submit(t *ScrobbleTrack, now time.Time) error {
	if t == nil || !ShouldScrobble(t.Duration, now.Sub(t.Timestamp)) {
		return nil
	}
	if err := s.api.Scrobble(*t); err != nil {
		return err
	}
	s.log.Debug().Str("artist", t.Artist).Str("track", t.Track).Msg("scrobbled")
	return nil
}
