package lyrics

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/flux/internal/playlist"
)

// Query identifies the lyrics being resolved.
type Query struct {
	Path    string
	Ref     string
	Offline bool
}

// Outcome is the uniform answer of a tier: Hit means the tier produced a
// final Result (which may be "no lyrics"); a miss passes to the next tier.
type Outcome struct {
	Hit    bool
	Result Result
}

func hit(r Result) Outcome { return Outcome{Hit: true, Result: r} }

var miss = Outcome{}

// Tier is one level of the lyrics resolution chain.
type Tier interface {
	Name() string
	Lookup(ctx context.Context, q Query) (Outcome, error)
}

// Entry is a stored lyrics result.
type Entry struct {
	Path     string
	Ref      string
	Result   Result
	CachedAt time.Time
}

// Store is the persistent cross-session tier. Implementations are keyed by
// path; the cache compares refs itself.
type Store interface {
	LoadLyrics(ctx context.Context, path string) (Entry, bool, error)
	SaveLyrics(ctx context.Context, e Entry) error
	DeleteLyrics(ctx context.Context, path string) error
	// PruneLyrics drops entries whose path is not in keep or whose ref
	// differs from keep[path].
	PruneLyrics(ctx context.Context, keep map[string]string) error
}

// LocalSource reads lyrics of downloaded tracks.
type LocalSource interface {
	IsDownloaded(path string) bool
	ResolveLocalLyrics(ctx context.Context, path string) (string, error)
}

// Fetcher downloads lyrics text from the backend.
type Fetcher interface {
	FetchLyrics(ctx context.Context, ref string) (string, error)
}

type storeTier struct{ store Store }

func (storeTier) Name() string { return "store" }

func (t storeTier) Lookup(ctx context.Context, q Query) (Outcome, error) {
	e, ok, err := t.store.LoadLyrics(ctx, q.Path)
	if err != nil || !ok || e.Ref != q.Ref {
		return miss, err
	}
	return hit(e.Result), nil
}

type localTier struct{ local LocalSource }

func (localTier) Name() string { return "local" }

func (t localTier) Lookup(ctx context.Context, q Query) (Outcome, error) {
	if !t.local.IsDownloaded(q.Path) {
		return miss, nil
	}
	text, err := t.local.ResolveLocalLyrics(ctx, q.Path)
	if err != nil || text == "" {
		return miss, err
	}
	return hit(Found(text)), nil
}

type offlineTier struct{}

func (offlineTier) Name() string { return "offline" }

func (offlineTier) Lookup(_ context.Context, q Query) (Outcome, error) {
	if q.Offline {
		return hit(Missing), nil
	}
	return miss, nil
}

type networkTier struct {
	fetcher Fetcher
	log     zerolog.Logger
}

func (networkTier) Name() string { return "network" }

// Lookup always hits: a failed fetch is the final "no lyrics" answer,
// except when ctx ended, which must not be cached.
func (t networkTier) Lookup(ctx context.Context, q Query) (Outcome, error) {
	if strings.HasPrefix(q.Ref, playlist.OfflineRefPrefix) {
		return hit(Missing), nil
	}
	text, err := t.fetcher.FetchLyrics(ctx, q.Ref)
	if err != nil {
		if ctx.Err() != nil {
			return miss, ctx.Err()
		}
		t.log.Debug().Err(err).Str("path", q.Path).Msg("lyrics fetch failed")
		return hit(Missing), nil
	}
	return hit(Found(text)), nil
}
