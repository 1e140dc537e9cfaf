package playback

import (
	"time"

	"github.com/llehouerou/flux/internal/playlist"
)

// StateChange is emitted when the playing flag flips.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted whenever current is set, including when the same
// track is played again from the start.
//
// Emitted by:
//   - PlayTrack
//   - Advance/Reverse: when they select a sibling or a queued track
//   - OnTrackEnded/OnPlaybackError: through Advance
//
// NOT emitted by:
//   - Restart steps (reverse after 3s, repeat one): current is unchanged
//   - SetLibrary: tag refresh of current does not count as a change
//
// The session handles all track-related side effects (source resolution,
// lyrics, media session metadata, play records) in response to this event.
type TrackChange struct {
	Previous *playlist.Track
	Current  *playlist.Track
}

// QueueChange is emitted when the insertion queue contents change.
type QueueChange struct {
	Tracks []playlist.Track
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode RepeatMode
	Shuffle    bool
}

// PositionChange is emitted when the audio output reports a new position
// or a restart rewinds the track.
type PositionChange struct {
	Position time.Duration
}

// DurationChange is emitted when the audio output reports the length of
// the current track.
type DurationChange struct {
	Duration time.Duration
}

// ErrorEvent is emitted when the engine gives up on something.
type ErrorEvent struct {
	Operation string // e.g., "advance", "playback"
	Path      string // track path if applicable
	Err       error
}
