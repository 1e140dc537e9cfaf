// Package mpris mirrors the playback engine onto the OS media session
// (MPRIS over D-Bus on Linux) and routes media keys back into it.
//
// The Bridge is platform independent. A missing Surface turns every
// outbound update into a no-op, so headless and non-Linux builds run
// the same code path.
package mpris

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/flux/internal/playback"
	"github.com/llehouerou/flux/internal/playlist"
)

// CommandKind identifies an inbound media-session command.
type CommandKind int

const (
	CommandPlay CommandKind = iota
	CommandPause
	CommandPlayPause
	CommandStop
	CommandNext
	CommandPrevious
	CommandSetRepeat
	CommandSetShuffle
)

// String returns a human-readable command name.
func (k CommandKind) String() string {
	switch k {
	case CommandPlay:
		return "Play"
	case CommandPause:
		return "Pause"
	case CommandPlayPause:
		return "PlayPause"
	case CommandStop:
		return "Stop"
	case CommandNext:
		return "Next"
	case CommandPrevious:
		return "Previous"
	case CommandSetRepeat:
		return "SetRepeat"
	case CommandSetShuffle:
		return "SetShuffle"
	}
	return "Unknown"
}

// Command is an inbound media-session request.
// Repeat and Shuffle are only read for their matching kinds.
type Command struct {
	Kind    CommandKind
	Repeat  playback.RepeatMode
	Shuffle bool
}

// Controller is the engine surface the bridge drives.
type Controller interface {
	SetPlaying(playing bool)
	TogglePlay() bool
	Advance() playback.Step
	Reverse() playback.Step
	SetRepeatMode(mode playback.RepeatMode)
	SetShuffle(enabled bool)
	Snapshot() playback.Snapshot
	Subscribe() *playback.Subscription
}

var _ Controller = (*playback.Engine)(nil)

// Handler receives commands coming from the OS.
type Handler interface {
	Handle(cmd Command) playback.Step
}

// Metadata is the now-playing information published to the OS.
type Metadata struct {
	TrackID string
	Title   string
	Artist  string
	Album   string
	Length  time.Duration
	ArtURL  string
}

// Status is the full state published to the OS on every update.
type Status struct {
	State    playback.State
	Repeat   playback.RepeatMode
	Shuffle  bool
	Position time.Duration
	Metadata *Metadata // nil when nothing is loaded
}

// Surface publishes status to the OS media session.
type Surface interface {
	Update(s Status)
	Close() error
}

// ArtResolver maps a track to an artwork URI, "" when none.
type ArtResolver func(t playlist.Track) string

// Bridge connects a Controller to a Surface.
type Bridge struct {
	ctl     Controller
	surface Surface
	art     ArtResolver
	onStep  func(playback.Step)
	log     zerolog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithArtResolver sets how artwork URIs are derived.
func WithArtResolver(r ArtResolver) Option {
	return func(b *Bridge) { b.art = r }
}

// WithStepHandler receives the Step produced by next/previous commands
// so the audio output can act on it.
func WithStepHandler(fn func(playback.Step)) Option {
	return func(b *Bridge) { b.onStep = fn }
}

// WithLogger sets the bridge logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) { b.log = l.With().Str("component", "mpris").Logger() }
}

// NewBridge creates a bridge with no surface attached.
func NewBridge(ctl Controller, opts ...Option) *Bridge {
	b := &Bridge{ctl: ctl, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach sets the surface updates are published to. A nil surface
// detaches.
func (b *Bridge) Attach(s Surface) {
	b.surface = s
}

// Handle applies an inbound command to the controller.
func (b *Bridge) Handle(cmd Command) playback.Step {
	if b.ctl == nil {
		return playback.Step{}
	}
	b.log.Debug().Stringer("command", cmd.Kind).Msg("media command")

	var step playback.Step
	switch cmd.Kind {
	case CommandPlay:
		b.ctl.SetPlaying(true)
	case CommandPause, CommandStop:
		b.ctl.SetPlaying(false)
	case CommandPlayPause:
		b.ctl.TogglePlay()
	case CommandNext:
		step = b.ctl.Advance()
	case CommandPrevious:
		step = b.ctl.Reverse()
	case CommandSetRepeat:
		b.ctl.SetRepeatMode(cmd.Repeat)
	case CommandSetShuffle:
		b.ctl.SetShuffle(cmd.Shuffle)
	}

	if step.Action != playback.ActionNone && b.onStep != nil {
		b.onStep(step)
	}
	return step
}

// Push publishes a snapshot to the surface.
func (b *Bridge) Push(snap playback.Snapshot) {
	if b.surface == nil {
		return
	}
	b.surface.Update(b.status(snap))
}

// Run publishes every engine change until ctx is done or the engine
// closes.
func (b *Bridge) Run(ctx context.Context) {
	if b.ctl == nil {
		return
	}
	sub := b.ctl.Subscribe()
	b.Push(b.ctl.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case <-sub.StateChanged:
		case <-sub.TrackChanged:
		case <-sub.ModeChanged:
		case <-sub.PositionChanged:
		case <-sub.DurationChanged:
		case <-sub.QueueChanged:
			continue
		case ev := <-sub.Error:
			b.log.Warn().Err(ev.Err).Str("operation", ev.Operation).Msg("playback error")
		}
		b.Push(b.ctl.Snapshot())
	}
}

// Close releases the surface.
func (b *Bridge) Close() error {
	if b.surface == nil {
		return nil
	}
	return b.surface.Close()
}

func (b *Bridge) status(snap playback.Snapshot) Status {
	s := Status{
		State:    snap.State(),
		Repeat:   snap.Repeat,
		Shuffle:  snap.Shuffle,
		Position: snap.Position,
	}
	if snap.Current == nil {
		return s
	}

	t := *snap.Current
	length := snap.Duration
	if length == 0 {
		length = t.Tags.Duration
	}
	meta := &Metadata{
		TrackID: formatTrackID(t.Path),
		Title:   t.DisplayTitle(),
		Artist:  t.DisplayArtist(),
		Album:   t.Tags.Album,
		Length:  length,
	}
	if b.art != nil {
		meta.ArtURL = b.art(t)
	}
	s.Metadata = meta
	return s
}
