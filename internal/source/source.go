// Package source decides where the playable bytes of a track come from.
package source

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/llehouerou/flux/internal/playlist"
)

// Kind is the origin of a resolved track.
type Kind int

const (
	// Unavailable means the track cannot be played right now.
	Unavailable Kind = iota
	// Local means the track plays from a downloaded file.
	Local
	// Network means the track streams from the backend.
	Network
)

// String returns a human-readable kind.
func (k Kind) String() string {
	switch k {
	case Unavailable:
		return "Unavailable"
	case Local:
		return "Local"
	case Network:
		return "Network"
	}
	return "Unknown"
}

// Resolution is the outcome of Resolve. URI is empty when Kind is
// Unavailable.
type Resolution struct {
	Kind Kind
	URI  string
}

// Playable reports whether the resolution has a URI to play.
func (r Resolution) Playable() bool {
	return r.Kind != Unavailable
}

// Downloads is the download index as seen by the resolver.
type Downloads interface {
	Init()
	ResolvePlayableURI(path string) (string, bool)
}

// URLBuilder turns a track reference into a network URL.
type URLBuilder interface {
	URL(ref string) string
}

// Resolver picks a playable source for a track.
type Resolver struct {
	downloads Downloads
	urls      URLBuilder
	local     bool
	log       zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLocalDownloads enables resolution against the download index.
func WithLocalDownloads(d Downloads) Option {
	return func(r *Resolver) {
		r.downloads = d
		r.local = d != nil
	}
}

// WithLogger sets the resolver logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.log = l.With().Str("component", "source").Logger() }
}

// New creates a resolver building network URLs with urls.
func New(urls URLBuilder, opts ...Option) *Resolver {
	r := &Resolver{urls: urls, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the local URI when t is downloaded, Unavailable when
// offline without a download, and the network URL otherwise.
// The download index is re-initialised before every lookup so a first
// resolve racing store startup still sees downloaded files.
func (r *Resolver) Resolve(ctx context.Context, t playlist.Track, offline bool) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	if r.local {
		r.downloads.Init()
		if uri, ok := r.downloads.ResolvePlayableURI(t.Path); ok {
			r.log.Debug().Str("path", t.Path).Msg("resolved local")
			return Resolution{Kind: Local, URI: uri}, nil
		}
	}

	if offline {
		r.log.Debug().Str("path", t.Path).Msg("offline and not downloaded")
		return Resolution{Kind: Unavailable}, nil
	}

	if r.urls == nil {
		return Resolution{Kind: Unavailable}, nil
	}
	return Resolution{Kind: Network, URI: r.urls.URL(t.Path)}, nil
}
