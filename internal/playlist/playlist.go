// Package playlist holds the track model shared by the queue engine, the
// caches and the library provider.
package playlist

import (
	"path"
	"time"
)

// OfflineRefPrefix marks a LyricsRef that points into local download
// storage rather than at the backend.
const OfflineRefPrefix = "offline:"

// Picture is an embedded or remote cover image.
type Picture struct {
	MIMEType string `json:"mime,omitempty"`
	Data     []byte `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Tags are the optional display tags of a track.
// Any field may be empty; tags can be back-filled after the track exists.
type Tags struct {
	Title    string        `json:"title,omitempty"`
	Artist   string        `json:"artist,omitempty"`
	Album    string        `json:"album,omitempty"`
	Year     string        `json:"year,omitempty"`
	Genre    string        `json:"genre,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Picture  *Picture      `json:"picture,omitempty"`
}

// IsZero reports whether no tag is set.
func (t Tags) IsZero() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" &&
		t.Year == "" && t.Genre == "" && t.Duration == 0 && t.Picture == nil
}

// Track is a playable song. Path is its identity.
type Track struct {
	Path        string    // canonical path, stable for the session
	Tags        Tags      // display tags
	Loaded      bool      // tags have been back-filled
	LyricsRef   string    // lyrics source identifier, "" when absent
	VideoRef    string    // optional video asset
	ArtistImage string    // optional artist image reference
	AddedAt     time.Time // new-arrival ordering
}

// DisplayTitle returns the title tag or the file basename.
func (t Track) DisplayTitle() string {
	if t.Tags.Title != "" {
		return t.Tags.Title
	}
	if base := path.Base(t.Path); base != "." && base != "/" {
		return base
	}
	return "Unknown Title"
}

// DisplayArtist returns the artist tag or "Unknown Artist".
func (t Track) DisplayArtist() string {
	if t.Tags.Artist != "" {
		return t.Tags.Artist
	}
	return "Unknown Artist"
}

// WithTags returns a copy of the track with back-filled tags.
func (t Track) WithTags(tags Tags) Track {
	t.Tags = tags
	t.Loaded = true
	return t
}

// IndexOf returns the index of the track with the given path, or -1.
func IndexOf(tracks []Track, p string) int {
	for i := range tracks {
		if tracks[i].Path == p {
			return i
		}
	}
	return -1
}

// Clone returns a copy of tracks. A nil input stays nil.
func Clone(tracks []Track) []Track {
	if tracks == nil {
		return nil
	}
	result := make([]Track, len(tracks))
	copy(result, tracks)
	return result
}

// SamePaths reports whether both lists hold the same paths in the same order.
func SamePaths(a, b []Track) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Path != b[i].Path {
			return false
		}
	}
	return true
}

// Paths returns the paths of tracks in order.
func Paths(tracks []Track) []string {
	result := make([]string, len(tracks))
	for i := range tracks {
		result[i] = tracks[i].Path
	}
	return result
}
