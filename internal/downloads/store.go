// Package downloads keeps the index of tracks fetched for offline playback
// and the files behind it.
package downloads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/llehouerou/flux/internal/playlist"
)

const (
	// IndexFile is the name of the persisted index at the FS root.
	IndexFile = "downloaded_index.json"
	// AudioDir holds downloaded audio and lyrics files.
	AudioDir = "audio"
)

var (
	// ErrIndexNotPersisted is returned when the files were written and the
	// entry exists in memory, but the index could not be saved.
	ErrIndexNotPersisted = errors.New("download index not persisted")
	// ErrNotDownloaded is returned for paths missing from the index.
	ErrNotDownloaded = errors.New("track not downloaded")
)

// Fetcher fetches remote assets.
type Fetcher interface {
	FetchAsset(ctx context.Context, ref string) ([]byte, error)
	FetchLyrics(ctx context.Context, ref string) (string, error)
}

// Progress reports downloads still to finish out of the current batch.
type Progress struct {
	Remaining int
	Total     int
}

// Store is the download index. It is the only reader and writer of the
// index file and of the audio directory.
type Store struct {
	fs      FS
	fetcher Fetcher
	now     func() time.Time
	log     zerolog.Logger

	initOnce sync.Once
	group    singleflight.Group

	mu      sync.RWMutex
	entries map[string]Entry
	active  int // downloads running
	queued  int // downloads announced by SetTotal but not started
	total   int
	subs    []chan struct{}

	saveMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for filenames and DownloadedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l.With().Str("component", "downloads").Logger() }
}

// New creates a store on fsys. Call Init, or let any method call it.
func New(fsys FS, fetcher Fetcher, opts ...Option) *Store {
	s := &Store{
		fs:      fsys,
		fetcher: fetcher,
		now:     time.Now,
		log:     zerolog.Nop(),
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the index. It runs once; concurrent callers wait for that
// single load. A missing or unreadable index is an empty store.
func (s *Store) Init() {
	s.initOnce.Do(s.load)
}

func (s *Store) load() {
	if err := s.fs.MkdirAll(AudioDir); err != nil {
		s.log.Warn().Err(err).Msg("create audio directory")
	}

	data, err := s.fs.ReadFile(IndexFile)
	if err != nil {
		s.log.Debug().Err(err).Msg("no download index")
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return
	}

	var list []Entry
	if err := json.Unmarshal(data, &list); err != nil {
		s.log.Warn().Err(err).Msg("corrupt download index, starting empty")
		return
	}

	s.mu.Lock()
	for _, e := range list {
		if e.SourcePath == "" || e.LocalAudio == "" {
			continue
		}
		s.entries[e.SourcePath] = e
	}
	n := len(s.entries)
	s.mu.Unlock()

	s.log.Info().Int("tracks", n).Msg("download index loaded")
}

// IsDownloaded reports whether path is in the index.
func (s *Store) IsDownloaded(path string) bool {
	s.Init()
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[path]
	return ok
}

// Entry returns the index entry for path.
func (s *Store) Entry(path string) (Entry, bool) {
	s.Init()
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[path]
	return e, ok
}

// Entries returns all entries ordered by download time then path.
func (s *Store) Entries() []Entry {
	s.Init()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// List returns the downloaded paths ordered like Entries.
func (s *Store) List() []string {
	entries := s.Entries()
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.SourcePath
	}
	return paths
}

// Len returns the number of downloaded tracks.
func (s *Store) Len() int {
	s.Init()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) sortedLocked() []Entry {
	list := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].DownloadedAt != list[j].DownloadedAt {
			return list[i].DownloadedAt < list[j].DownloadedAt
		}
		return list[i].SourcePath < list[j].SourcePath
	})
	return list
}

// MaterializeAsTracks rebuilds playable tracks from the index alone.
// Entries without a tag snapshot get tags read from the local file, and
// the file basename as a last resort title.
func (s *Store) MaterializeAsTracks() []playlist.Track {
	entries := s.Entries()
	tracks := make([]playlist.Track, 0, len(entries))
	for _, e := range entries {
		var tags playlist.Tags
		if e.Tags != nil {
			tags = *e.Tags
		}
		if tags.IsZero() {
			tags = s.readLocalTags(e)
		}
		if tags.Title == "" {
			tags.Title = path.Base(e.SourcePath)
		}

		t := playlist.Track{
			Path:        e.SourcePath,
			Tags:        tags,
			Loaded:      true,
			ArtistImage: e.ArtistImage,
		}
		if e.LocalLyrics != "" {
			t.LyricsRef = playlist.OfflineRefPrefix + e.LocalLyrics
		}
		tracks = append(tracks, t)
	}
	return tracks
}

func (s *Store) readLocalTags(e Entry) playlist.Tags {
	data, err := s.fs.ReadFile(path.Join(AudioDir, e.LocalAudio))
	if err != nil {
		return playlist.Tags{}
	}
	return ReadTags(data)
}

// ReadTags reads embedded tags from audio bytes. Unreadable data yields
// empty tags.
func ReadTags(data []byte) playlist.Tags {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return playlist.Tags{}
	}

	tags := playlist.Tags{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
		Genre:  m.Genre(),
	}
	if tags.Artist == "" {
		tags.Artist = m.AlbumArtist()
	}
	if y := m.Year(); y > 0 {
		tags.Year = fmt.Sprintf("%d", y)
	}
	if p := m.Picture(); p != nil && len(p.Data) > 0 {
		tags.Picture = &playlist.Picture{MIMEType: p.MIMEType, Data: p.Data}
	}
	return tags
}

// Download fetches the audio of t and, when t has a lyrics ref, its lyrics,
// then records the entry. It is a no-op for tracks already downloaded, and
// concurrent calls for the same path share one download.
func (s *Store) Download(ctx context.Context, t playlist.Track) error {
	s.Init()
	if s.IsDownloaded(t.Path) {
		s.skipQueued()
		return nil
	}

	// Only the caller whose function runs the download consumes its slot
	// through begin; joiners and late no-ops give theirs back here.
	started := false
	_, err, _ := s.group.Do(t.Path, func() (any, error) {
		if s.IsDownloaded(t.Path) {
			return nil, nil
		}
		started = true
		return nil, s.download(ctx, t)
	})
	if !started {
		s.skipQueued()
	}
	return err
}

func (s *Store) download(ctx context.Context, t playlist.Track) error {
	s.begin()
	defer s.end()

	ts := s.now()
	safe := sanitizeFilename(t.Path)
	if safe == "" {
		safe = fmt.Sprintf("song_%d", ts.UnixMilli())
	}
	audioName := fmt.Sprintf("%d_%s", ts.UnixMilli(), safe)

	data, err := s.fetcher.FetchAsset(ctx, t.Path)
	if err != nil {
		return fmt.Errorf("fetch audio: %w", err)
	}
	if err := s.fs.WriteFile(path.Join(AudioDir, audioName), data); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}

	lyricsName := s.downloadLyrics(ctx, t, audioName+".lrc")

	e := Entry{
		SourcePath:   t.Path,
		LocalAudio:   audioName,
		LocalLyrics:  lyricsName,
		ArtistImage:  t.ArtistImage,
		DownloadedAt: ts.UnixMilli(),
	}
	if !t.Tags.IsZero() {
		tags := t.Tags
		e.Tags = &tags
	}

	s.mu.Lock()
	s.entries[t.Path] = e
	s.mu.Unlock()

	s.log.Info().Str("path", t.Path).Str("file", audioName).Msg("track downloaded")

	if err := s.saveIndex(); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexNotPersisted, err)
	}
	return nil
}

// downloadLyrics returns the local lyrics filename, or "" when the track
// has no lyrics or fetching them failed.
func (s *Store) downloadLyrics(ctx context.Context, t playlist.Track, name string) string {
	if t.LyricsRef == "" || strings.HasPrefix(t.LyricsRef, playlist.OfflineRefPrefix) {
		return ""
	}
	text, err := s.fetcher.FetchLyrics(ctx, t.LyricsRef)
	if err != nil {
		s.log.Warn().Err(err).Str("path", t.Path).Msg("lyrics not downloaded")
		return ""
	}
	if err := s.fs.WriteFile(path.Join(AudioDir, name), []byte(text)); err != nil {
		s.log.Warn().Err(err).Str("path", t.Path).Msg("write lyrics")
		return ""
	}
	return name
}

// Delete removes the local files of path and its index entry. File
// removal is best effort.
func (s *Store) Delete(_ context.Context, p string) error {
	s.Init()

	s.mu.Lock()
	e, ok := s.entries[p]
	if ok {
		delete(s.entries, p)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNotDownloaded
	}

	if err := s.fs.Remove(path.Join(AudioDir, e.LocalAudio)); err != nil {
		s.log.Warn().Err(err).Str("path", p).Msg("remove audio file")
	}
	if e.LocalLyrics != "" {
		if err := s.fs.Remove(path.Join(AudioDir, e.LocalLyrics)); err != nil {
			s.log.Warn().Err(err).Str("path", p).Msg("remove lyrics file")
		}
	}

	err := s.saveIndex()
	s.notify()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexNotPersisted, err)
	}
	return nil
}

// ResolvePlayableURI returns the local URI of a downloaded track.
func (s *Store) ResolvePlayableURI(p string) (string, bool) {
	e, ok := s.Entry(p)
	if !ok {
		return "", false
	}
	return s.fs.URI(path.Join(AudioDir, e.LocalAudio)), true
}

// ResolveLocalLyrics returns the downloaded lyrics of path, or "" when
// there are none.
func (s *Store) ResolveLocalLyrics(_ context.Context, p string) (string, error) {
	e, ok := s.Entry(p)
	if !ok || e.LocalLyrics == "" {
		return "", nil
	}
	data, err := s.fs.ReadFile(path.Join(AudioDir, e.LocalLyrics))
	if err != nil {
		return "", fmt.Errorf("read local lyrics: %w", err)
	}
	return string(data), nil
}

// saveIndex writes the index through a temporary file and a rename so a
// crash never leaves a truncated index.
func (s *Store) saveIndex() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	list := s.sortedLocked()
	s.mu.RUnlock()

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	tmp := IndexFile + ".tmp"
	if err := s.fs.WriteFile(tmp, data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := s.fs.Rename(tmp, IndexFile); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}
