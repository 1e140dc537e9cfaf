//go:build linux

package mpris

import (
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/flux/internal/playback"
)

var (
	uriSchemes = []string{"file", "http", "https"}
	mimeTypes  = []string{"audio/mpeg", "audio/mp3", "audio/flac", "audio/ogg", "audio/mp4", "audio/aac"}
)

// DBusSurface serves the MPRIS interfaces over the session bus.
// Property reads are answered from the last published Status.
type DBusSurface struct {
	server *server.Server

	mu     sync.RWMutex
	status Status
}

// NewSurface starts an MPRIS server named org.mpris.MediaPlayer2.<name>.
func NewSurface(name string, h Handler) (Surface, error) {
	s := &DBusSurface{}
	s.server = server.NewServer(name,
		rootAdapter{identity: identity(name)},
		&playerAdapter{surface: s, handler: h},
	)

	go func() {
		_ = s.server.Listen()
	}()

	return s, nil
}

// Update stores the status served to D-Bus clients.
func (s *DBusSurface) Update(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Close stops the server and releases D-Bus resources.
func (s *DBusSurface) Close() error {
	return s.server.Stop()
}

func (s *DBusSurface) current() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func identity(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// rootAdapter answers the org.mpris.MediaPlayer2 interface. flux has no
// window to raise and is never quit from the desktop.
type rootAdapter struct {
	identity string
}

func (rootAdapter) Raise() error { return nil }
func (rootAdapter) Quit() error { return nil }
func (rootAdapter) CanQuit() (bool, error) { return false, nil }
func (rootAdapter) CanRaise() (bool, error) { return false, nil }
func (rootAdapter) HasTrackList() (bool, error) { return false, nil }
func (r rootAdapter) Identity() (string, error) { return r.identity, nil }
func (rootAdapter) SupportedMimeTypes() ([]string, error) { return mimeTypes, nil }

//nolint:revive // Method name required by interface.
func (rootAdapter) SupportedUriSchemes() ([]string, error) { return uriSchemes, nil }

// playerAdapter answers org.mpris.MediaPlayer2.Player including the
// LoopStatus and Shuffle properties. Transport methods become Commands for
// the Handler; everything else reads the surface status.
type playerAdapter struct {
	surface *DBusSurface
	handler Handler
}

func (p *playerAdapter) send(kind CommandKind) error {
	return p.dispatch(Command{Kind: kind})
}

func (p *playerAdapter) dispatch(cmd Command) error {
	if p.handler != nil {
		p.handler.Handle(cmd)
	}
	return nil
}

func (p *playerAdapter) loaded() bool {
	return p.surface.current().Metadata != nil
}

func (p *playerAdapter) Next() error { return p.send(CommandNext) }
func (p *playerAdapter) Previous() error { return p.send(CommandPrevious) }
func (p *playerAdapter) Pause() error { return p.send(CommandPause) }
func (p *playerAdapter) PlayPause() error { return p.send(CommandPlayPause) }
func (p *playerAdapter) Stop() error { return p.send(CommandStop) }
func (p *playerAdapter) Play() error { return p.send(CommandPlay) }

// Seeking belongs to the audio output, which is not reachable from here.
func (p *playerAdapter) Seek(types.Microseconds) error { return nil }
func (p *playerAdapter) SetPosition(string, types.Microseconds) error { return nil }
func (p *playerAdapter) CanSeek() (bool, error) { return false, nil }

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(string) error { return nil }

// Fixed rate and volume.
func (p *playerAdapter) Rate() (float64, error) { return 1, nil }
func (p *playerAdapter) SetRate(float64) error { return nil }
func (p *playerAdapter) MinimumRate() (float64, error) { return 1, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1, nil }
func (p *playerAdapter) Volume() (float64, error) { return 1, nil }
func (p *playerAdapter) SetVolume(float64) error { return nil }

func (p *playerAdapter) CanGoNext() (bool, error) { return p.loaded(), nil }
func (p *playerAdapter) CanGoPrevious() (bool, error) { return p.loaded(), nil }
func (p *playerAdapter) CanPlay() (bool, error) { return p.loaded(), nil }
func (p *playerAdapter) CanPause() (bool, error) { return true, nil }
func (p *playerAdapter) CanControl() (bool, error) { return true, nil }

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	st := p.surface.current().State
	if st.IsActive() {
		if st == playback.StatePlaying {
			return types.PlaybackStatusPlaying, nil
		}
		return types.PlaybackStatusPaused, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.surface.current().Position.Microseconds(), nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	m := p.surface.current().Metadata
	if m == nil {
		return types.Metadata{}, nil
	}
	return types.Metadata{
		TrackId: dbus.ObjectPath(m.TrackID),
		Length:  types.Microseconds(m.Length / time.Microsecond),
		Title:   m.Title,
		Artist:  []string{m.Artist},
		Album:   m.Album,
		ArtUrl:  m.ArtURL,
	}, nil
}

func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	return loopStatus(p.surface.current().Repeat), nil
}

func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	return p.dispatch(Command{Kind: CommandSetRepeat, Repeat: repeatMode(status)})
}

func (p *playerAdapter) Shuffle() (bool, error) {
	return p.surface.current().Shuffle, nil
}

func (p *playerAdapter) SetShuffle(shuffle bool) error {
	return p.dispatch(Command{Kind: CommandSetShuffle, Shuffle: shuffle})
}

var loopStatuses = map[playback.RepeatMode]types.LoopStatus{
	playback.RepeatOff: types.LoopStatusNone,
	playback.RepeatAll: types.LoopStatusPlaylist,
	playback.RepeatOne: types.LoopStatusTrack,
}

func loopStatus(m playback.RepeatMode) types.LoopStatus {
	if s, ok := loopStatuses[m]; ok {
		return s
	}
	return types.LoopStatusNone
}

func repeatMode(s types.LoopStatus) playback.RepeatMode {
	for m, ls := range loopStatuses {
		if ls == s {
			return m
		}
	}
	return playback.RepeatOff
}
