package playback

import (
	"time"

	"github.com/llehouerou/flux/internal/playlist"
)

// Service defines the playback queue contract.
type Service interface {
	// Navigation
	PlayTrack(track playlist.Track, context ...playlist.Track) Step
	Advance() Step
	Reverse() Step
	OnTrackEnded() Step
	OnPlaybackError(err error) Step

	// Insertion queue
	InsertNext(track playlist.Track)
	RemoveQueued(index int) bool
	ClearQueue()
	DisplayQueue(lookahead int) []playlist.Track

	// Library
	SetLibrary(tracks []playlist.Track)

	// Playback flags
	SetPlaying(playing bool)
	TogglePlay() bool
	SetVideoMode(enabled bool)

	// Audio output feedback
	SetPosition(position time.Duration)
	SetDuration(duration time.Duration)

	// Mode control
	RepeatMode() RepeatMode
	SetRepeatMode(mode RepeatMode)
	CycleRepeatMode() RepeatMode
	Shuffle() bool
	SetShuffle(enabled bool)
	ToggleShuffle() bool

	// State queries
	Current() *playlist.Track
	State() State
	History() []playlist.Track
	Snapshot() Snapshot

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}

var _ Service = (*Engine)(nil)
