// internal/state/mock.go
package state

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/llehouerou/flux/internal/lyrics"
	"github.com/llehouerou/flux/internal/playlist"
)

// Mock is an in-memory test double for Manager.
type Mock struct {
	mu     sync.Mutex
	lyrics map[string]lyrics.Entry
	tags   map[string]playlist.Tags
	plays  []playlist.Track
	player PlayerState
	saves  int
	closed bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{
		lyrics: make(map[string]lyrics.Entry),
		tags:   make(map[string]playlist.Tags),
	}
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) LoadLyrics(_ context.Context, path string) (lyrics.Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lyrics[path]
	return e, ok, nil
}

func (m *Mock) SaveLyrics(_ context.Context, e lyrics.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lyrics[e.Path] = e
	return nil
}

func (m *Mock) DeleteLyrics(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lyrics, path)
	return nil
}

func (m *Mock) PruneLyrics(_ context.Context, keep map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p, e := range m.lyrics {
		if ref, ok := keep[p]; !ok || ref != e.Ref {
			delete(m.lyrics, p)
		}
	}
	return nil
}

func (m *Mock) RecordPlay(t playlist.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays = append(m.plays, t)
}

func (m *Mock) AddPlay(_ context.Context, t playlist.Track, _ time.Time) (bool, error) {
	m.RecordPlay(t)
	return true, nil
}

func (m *Mock) RecentlyPlayed(_ context.Context, _ int) ([]PlayRecord, error) {
	return nil, nil
}

func (m *Mock) TopSongs(_ context.Context, _ Period, _ int) ([]SongCount, error) {
	return nil, nil
}

func (m *Mock) TopArtists(_ context.Context, _ Period, _ int) ([]ArtistCount, error) {
	return nil, nil
}

func (m *Mock) LoadTags(_ context.Context, path string) (playlist.Tags, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[path]
	return t, ok, nil
}

func (m *Mock) AllTags(_ context.Context) (map[string]playlist.Tags, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]playlist.Tags, len(m.tags))
	for k, v := range m.tags {
		out[k] = v
	}
	return out, nil
}

func (m *Mock) SaveTags(_ context.Context, path string, tags playlist.Tags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[path] = tags
	return nil
}

func (m *Mock) GetPlayerState(_ context.Context) (PlayerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.player, nil
}

func (m *Mock) SavePlayerState(ps PlayerState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.player = ps
	m.saves++
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// Plays returns the recorded plays.
func (m *Mock) Plays() []playlist.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return playlist.Clone(m.plays)
}

// PlayerSaves returns how many times SavePlayerState was called.
func (m *Mock) PlayerSaves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
