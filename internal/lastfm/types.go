package lastfm

import (
	"time"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/llehouerou/flux/internal/playlist"
)

// ScrobbleTrack contains track metadata for scrobbling.
type ScrobbleTrack struct {
	Artist    string
	Track     string
	Album     string
	Duration  time.Duration
	Timestamp time.Time // when playback started
}

// FromTrack builds the scrobble of t started at startedAt. ok is false
// when t lacks the artist or title Last.fm requires.
func FromTrack(t playlist.Track, startedAt time.Time) (ScrobbleTrack, bool) {
	if t.Tags.Artist == "" || t.Tags.Title == "" {
		return ScrobbleTrack{}, false
	}
	return ScrobbleTrack{
		Artist:    t.Tags.Artist,
		Track:     t.Tags.Title,
		Album:     t.Tags.Album,
		Duration:  t.Tags.Duration,
		Timestamp: startedAt,
	}, true
}

func (t ScrobbleTrack) params() lastfm.P {
	p := lastfm.P{
		"artist": t.Artist,
		"track":  t.Track,
	}
	if t.Album != "" {
		p["album"] = t.Album
	}
	if t.Duration > 0 {
		p["duration"] = int(t.Duration.Seconds())
	}
	return p
}
