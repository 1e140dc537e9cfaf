// internal/state/interface.go
package state

import (
	"context"
	"database/sql"
	"time"

	"github.com/llehouerou/flux/internal/lyrics"
	"github.com/llehouerou/flux/internal/playlist"
)

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	lyrics.Store

	DB() *sql.DB
	RecordPlay(t playlist.Track)
	AddPlay(ctx context.Context, t playlist.Track, at time.Time) (bool, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]PlayRecord, error)
	TopSongs(ctx context.Context, period Period, limit int) ([]SongCount, error)
	TopArtists(ctx context.Context, period Period, limit int) ([]ArtistCount, error)
	LoadTags(ctx context.Context, path string) (playlist.Tags, bool, error)
	AllTags(ctx context.Context) (map[string]playlist.Tags, error)
	SaveTags(ctx context.Context, path string, tags playlist.Tags) error
	GetPlayerState(ctx context.Context) (PlayerState, error)
	SavePlayerState(ps PlayerState)
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
