package session

import (
	"context"

	"github.com/llehouerou/flux/internal/playlist"
)

// Syncer mirrors plays to a remote account. Calls run off the playback
// path and their errors are only logged.
type Syncer interface {
	AddToHistory(ctx context.Context, t playlist.Track) error
}

// NopSyncer discards every play.
type NopSyncer struct{}

func (NopSyncer) AddToHistory(context.Context, playlist.Track) error { return nil }

// Output is the audio sink driven by the session.
type Output interface {
	// Play starts uri for t from the beginning.
	Play(t playlist.Track, uri string)
	Restart()
	Stop()
}

type nopOutput struct{}

func (nopOutput) Play(playlist.Track, string) {}
func (nopOutput) Restart()                    {}
func (nopOutput) Stop()                       {}
