// Package library loads the song list from the backend, falling back to
// downloaded tracks when the backend cannot be reached.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/flux/internal/api"
	"github.com/llehouerou/flux/internal/downloads"
	"github.com/llehouerou/flux/internal/playlist"
)

const defaultBackfillWorkers = 4

// Origin says where a loaded library came from.
type Origin int

const (
	OriginNetwork Origin = iota
	OriginDownloads
)

// String returns a human-readable origin.
func (o Origin) String() string {
	switch o {
	case OriginNetwork:
		return "network"
	case OriginDownloads:
		return "downloads"
	}
	return "unknown"
}

// Result is a loaded library.
type Result struct {
	Tracks []playlist.Track
	Origin Origin
	Err    error // fetch error that caused the downloads fallback, if any
}

// Backend lists songs and fetches assets.
type Backend interface {
	ListSongs(ctx context.Context) ([]api.SongRecord, error)
	FetchAsset(ctx context.Context, ref string) ([]byte, error)
}

// Downloads provides the offline library.
type Downloads interface {
	Init()
	MaterializeAsTracks() []playlist.Track
}

// TagCache persists back-filled tags across sessions.
type TagCache interface {
	AllTags(ctx context.Context) (map[string]playlist.Tags, error)
	SaveTags(ctx context.Context, path string, tags playlist.Tags) error
}

// Provider loads and back-fills the library.
type Provider struct {
	backend   Backend
	downloads Downloads
	tags      TagCache
	workers   int
	log       zerolog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithDownloads enables the offline fallback.
func WithDownloads(d Downloads) Option {
	return func(p *Provider) { p.downloads = d }
}

// WithTagCache enables the persistent tag cache.
func WithTagCache(c TagCache) Option {
	return func(p *Provider) { p.tags = c }
}

// WithBackfillWorkers sets how many assets are fetched concurrently when
// back-filling tags.
func WithBackfillWorkers(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the provider logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.log = l.With().Str("component", "library").Logger() }
}

// New creates a provider over backend.
func New(backend Backend, opts ...Option) *Provider {
	p := &Provider{backend: backend, workers: defaultBackfillWorkers, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load returns the sorted, playable library. When offline, or when the
// backend fails, downloaded tracks are returned instead. Cached tags are
// applied to tracks the backend sent without any.
func (p *Provider) Load(ctx context.Context, offline bool) (Result, error) {
	if offline {
		return p.fromDownloads(nil)
	}

	records, err := p.backend.ListSongs(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		p.log.Warn().Err(err).Msg("list songs failed, using downloads")
		return p.fromDownloads(err)
	}

	tracks := playlist.FilterPlayable(api.Tracks(records))
	tracks = p.applyCachedTags(ctx, tracks)
	playlist.SortForLibrary(tracks)
	p.log.Debug().Int("tracks", len(tracks)).Msg("library loaded")
	return Result{Tracks: tracks, Origin: OriginNetwork}, nil
}

func (p *Provider) fromDownloads(cause error) (Result, error) {
	if p.downloads == nil {
		if cause == nil {
			cause = errors.New("offline")
		}
		return Result{}, fmt.Errorf("no library available: %w", cause)
	}
	p.downloads.Init()
	tracks := playlist.FilterPlayable(p.downloads.MaterializeAsTracks())
	playlist.SortForLibrary(tracks)
	return Result{Tracks: tracks, Origin: OriginDownloads, Err: cause}, nil
}

func (p *Provider) applyCachedTags(ctx context.Context, tracks []playlist.Track) []playlist.Track {
	if p.tags == nil {
		return tracks
	}
	cached, err := p.tags.AllTags(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("load cached tags")
		return tracks
	}
	for i, t := range tracks {
		if t.Loaded {
			continue
		}
		if tags, ok := cached[t.Path]; ok {
			tracks[i] = t.WithTags(tags)
		}
	}
	return tracks
}

// Backfill reads tags for tracks that have none by fetching their audio.
// Each filled track is passed to onFilled and saved to the tag cache.
// Per-track failures are logged and skipped. It returns the number of
// tracks filled.
func (p *Provider) Backfill(ctx context.Context, tracks []playlist.Track, onFilled func(playlist.Track)) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	filled := make(chan playlist.Track, len(tracks))
	for _, t := range tracks {
		if t.Loaded {
			continue
		}
		g.Go(func() error {
			data, err := p.backend.FetchAsset(ctx, t.Path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.log.Debug().Err(err).Str("path", t.Path).Msg("backfill fetch")
				return nil
			}
			tags := downloads.ReadTags(data)
			if tags.IsZero() {
				return nil
			}
			if p.tags != nil {
				if err := p.tags.SaveTags(ctx, t.Path, tags); err != nil {
					p.log.Warn().Err(err).Str("path", t.Path).Msg("save tags")
				}
			}
			filled <- t.WithTags(tags)
			return nil
		})
	}

	err := g.Wait()
	close(filled)

	n := 0
	for t := range filled {
		n++
		if onFilled != nil {
			onFilled(t)
		}
	}
	return n, err
}
