// Package session wires the playback engine to source resolution, lyrics,
// the library, connectivity, persistence and the media session.
//
// Every async resolution captures the track path when it starts and is
// dropped if the engine moved to another track by the time it finishes.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/llehouerou/flux/internal/connectivity"
	"github.com/llehouerou/flux/internal/library"
	"github.com/llehouerou/flux/internal/lyrics"
	"github.com/llehouerou/flux/internal/mpris"
	"github.com/llehouerou/flux/internal/playback"
	"github.com/llehouerou/flux/internal/playlist"
	"github.com/llehouerou/flux/internal/source"
	"github.com/llehouerou/flux/internal/state"
)

const (
	defaultPrefetch = 5
	updateBuffer    = 16
)

// NowPlaying is the resolved view of the current track.
type NowPlaying struct {
	Track       playlist.Track
	Source      source.Resolution
	SourceReady bool
	Lyrics      *lyrics.Lyrics // nil when the track has no lyrics
	LyricsReady bool
}

// Deps are the collaborators a session cannot run without.
type Deps struct {
	Engine       *playback.Engine
	Resolver     *source.Resolver
	Lyrics       *lyrics.Cache
	Library      *library.Provider
	Connectivity *connectivity.Monitor
}

// Session coordinates the collaborators for one process.
type Session struct {
	engine   *playback.Engine
	resolver *source.Resolver
	lyrics   *lyrics.Cache
	library  *library.Provider
	conn     *connectivity.Monitor

	bridge   *mpris.Bridge
	state    state.Interface
	syncer   Syncer
	output   Output
	prefetch int
	log      zerolog.Logger

	mu     sync.Mutex
	now    NowPlaying
	tracks []playlist.Track
	origin library.Origin
	subs   []chan NowPlaying
	wg     sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithBridge mirrors the engine to the OS media session.
func WithBridge(b *mpris.Bridge) Option {
	return func(s *Session) { s.bridge = b }
}

// WithState persists modes and restores them in Restore.
func WithState(st state.Interface) Option {
	return func(s *Session) { s.state = st }
}

// WithSyncer records plays remotely.
func WithSyncer(sy Syncer) Option {
	return func(s *Session) { s.syncer = sy }
}

// WithOutput sets the audio sink.
func WithOutput(o Output) Option {
	return func(s *Session) { s.output = o }
}

// WithPrefetch sets how many upcoming tracks get their lyrics prefetched.
func WithPrefetch(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.prefetch = n
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l.With().Str("component", "session").Logger() }
}

// New creates a session.
func New(d Deps, opts ...Option) *Session {
	s := &Session{
		engine:   d.Engine,
		resolver: d.Resolver,
		lyrics:   d.Lyrics,
		library:  d.Library,
		conn:     d.Connectivity,
		syncer:   NopSyncer{},
		output:   nopOutput{},
		prefetch: defaultPrefetch,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore applies the persisted repeat and shuffle modes.
func (s *Session) Restore(ctx context.Context) error {
	if s.state == nil {
		return nil
	}
	ps, err := s.state.GetPlayerState(ctx)
	if err != nil {
		return err
	}
	s.engine.SetRepeatMode(ps.Repeat)
	s.engine.SetShuffle(ps.Shuffle)
	return nil
}

// Refresh reloads the library, prunes stale lyrics and hands the tracks
// to the engine. Tags of untagged tracks are back-filled in the
// background.
func (s *Session) Refresh(ctx context.Context) (library.Result, error) {
	res, err := s.library.Load(ctx, s.conn.Offline())
	if err != nil {
		return res, err
	}

	s.mu.Lock()
	s.tracks = playlist.Clone(res.Tracks)
	s.origin = res.Origin
	s.mu.Unlock()

	if res.Origin == library.OriginNetwork {
		if n, err := s.lyrics.SyncWithSongList(ctx, res.Tracks); err != nil {
			s.log.Warn().Err(err).Msg("sync lyrics cache")
		} else if n > 0 {
			s.log.Debug().Int("dropped", n).Msg("pruned lyrics cache")
		}
	}
	s.engine.SetLibrary(res.Tracks)

	if res.Origin == library.OriginNetwork {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.backfill(ctx, res.Tracks)
		}()
	}
	return res, nil
}

func (s *Session) backfill(ctx context.Context, tracks []playlist.Track) {
	filled := make(map[string]playlist.Track)
	n, err := s.library.Backfill(ctx, tracks, func(t playlist.Track) {
		filled[t.Path] = t
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("backfill stopped")
	}
	if n == 0 {
		return
	}

	s.mu.Lock()
	for i, t := range s.tracks {
		if f, ok := filled[t.Path]; ok {
			s.tracks[i] = f
		}
	}
	merged := playlist.Clone(s.tracks)
	s.mu.Unlock()

	s.engine.SetLibrary(merged)
	s.log.Debug().Int("tracks", n).Msg("tags back-filled")
}

// Library returns the last loaded library.
func (s *Session) Library() []playlist.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return playlist.Clone(s.tracks)
}

// Now returns the resolved view of the current track.
func (s *Session) Now() NowPlaying {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Updates returns a channel receiving NowPlaying on every resolution.
func (s *Session) Updates() <-chan NowPlaying {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan NowPlaying, updateBuffer)
	s.subs = append(s.subs, ch)
	return ch
}

// Apply forwards a navigation step to the output. Play steps are started
// once their source resolves.
func (s *Session) Apply(step playback.Step) {
	switch step.Action {
	case playback.ActionRestart:
		s.output.Restart()
	case playback.ActionStop:
		s.output.Stop()
	case playback.ActionPlay, playback.ActionNone:
	}
}

// Run reacts to engine and connectivity changes until ctx is done or the
// engine closes. Background work is awaited before returning.
func (s *Session) Run(ctx context.Context) {
	sub := s.engine.Subscribe()
	connCh, unsubscribe := s.conn.Subscribe()
	defer unsubscribe()

	if s.bridge != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.bridge.Run(ctx)
		}()
	}

	if cur := s.engine.Current(); cur != nil {
		s.trackChanged(ctx, *cur)
	}

	defer s.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case ev := <-sub.TrackChanged:
			if ev.Current != nil {
				s.trackChanged(ctx, *ev.Current)
			}
		case ev := <-sub.ModeChanged:
			if s.state != nil {
				s.state.SavePlayerState(state.PlayerState{Repeat: ev.RepeatMode, Shuffle: ev.Shuffle})
			}
		case ev := <-sub.Error:
			s.log.Warn().Err(ev.Err).Str("operation", ev.Operation).Str("path", ev.Path).Msg("playback error")
		case offline := <-connCh:
			s.connectivityChanged(ctx, offline)
		case <-sub.StateChanged:
		case <-sub.PositionChanged:
		case <-sub.QueueChanged:
		}
	}
}

func (s *Session) trackChanged(ctx context.Context, t playlist.Track) {
	s.mu.Lock()
	s.now = NowPlaying{Track: t}
	s.mu.Unlock()
	s.publish()

	offline := s.conn.Offline()
	s.goResolveSource(ctx, t, offline)
	s.goResolveLyrics(ctx, t, offline)

	if s.prefetch > 0 {
		s.lyrics.Prefetch(ctx, s.engine.DisplayQueue(s.prefetch), offline)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.syncer.AddToHistory(ctx, t); err != nil {
			s.log.Warn().Err(err).Str("path", t.Path).Msg("sync play history")
		}
	}()
}

func (s *Session) connectivityChanged(ctx context.Context, offline bool) {
	s.mu.Lock()
	stale := !offline && s.origin == library.OriginDownloads
	s.mu.Unlock()

	if stale {
		if _, err := s.Refresh(ctx); err != nil {
			s.log.Warn().Err(err).Msg("refresh after reconnect")
		}
	}

	if cur := s.engine.Current(); cur != nil {
		s.goResolveSource(ctx, *cur, offline)
	}
}

func (s *Session) goResolveSource(ctx context.Context, t playlist.Track, offline bool) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res, err := s.resolver.Resolve(ctx, t, offline)
		if err != nil {
			s.log.Debug().Err(err).Str("path", t.Path).Msg("resolve source")
			return
		}
		if !s.stillCurrent(t.Path, func(n *NowPlaying) {
			n.Source = res
			n.SourceReady = true
		}) {
			return
		}
		if !res.Playable() {
			s.log.Warn().Str("path", t.Path).Msg("track unavailable offline")
			return
		}
		s.output.Play(t, res.URI)
	}()
}

func (s *Session) goResolveLyrics(ctx context.Context, t playlist.Track, offline bool) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		r := s.lyrics.Get(ctx, t.Path, t.LyricsRef, offline)
		var parsed *lyrics.Lyrics
		if r.Found {
			parsed = lyrics.Parse(r.Text)
		}
		s.stillCurrent(t.Path, func(n *NowPlaying) {
			n.Lyrics = parsed
			n.LyricsReady = true
		})
	}()
}

// stillCurrent applies fn to the NowPlaying view and publishes it when
// path is still the engine's current track. It reports whether it did.
func (s *Session) stillCurrent(path string, fn func(*NowPlaying)) bool {
	cur := s.engine.Current()

	s.mu.Lock()
	if cur == nil || cur.Path != path || s.now.Track.Path != path {
		s.mu.Unlock()
		s.log.Debug().Str("path", path).Msg("dropping stale resolution")
		return false
	}
	fn(&s.now)
	s.mu.Unlock()

	s.publish()
	return true
}

func (s *Session) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- s.now:
		default:
			// Drop if buffer full
		}
	}
}

// Wait blocks until background resolutions finished.
func (s *Session) Wait() {
	s.wg.Wait()
	s.lyrics.Wait()
}
