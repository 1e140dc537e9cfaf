//nolint:goconst // test file with repeated string literals
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	var sleeps []time.Duration
	c := New(srv.URL+"/list/", WithSleep(func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}))
	return c, &sleeps
}

func TestNormalizeBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://host:8080", "http://host:8080"},
		{"http://host:8080/", "http://host:8080"},
		{"http://host:8080/list", "http://host:8080"},
		{"http://host:8080/list/", "http://host:8080"},
		{" http://host/api/list ", "http://host/api"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeBase(tt.in); got != tt.want {
			t.Errorf("NormalizeBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClient_URL(t *testing.T) {
	c := New("http://host/api/")

	tests := []struct {
		ref  string
		want string
	}{
		{"/music/a.mp3", "http://host/api/music/a.mp3"},
		{"music/a b.mp3", "http://host/api/music/a%20b.mp3"},
		{"https://cdn.example.com/a.mp3", "https://cdn.example.com/a.mp3"},
	}
	for _, tt := range tests {
		if got := c.URL(tt.ref); got != tt.want {
			t.Errorf("URL(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestClient_ListSongs(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("_t"))
		assert.Equal(t, "true", r.Header.Get(skipWarningHeader))
		_, _ = w.Write([]byte(`[
			{"path": "/music/a.mp3", "title": "A", "artist": "X", "lrc": "/lyrics/a.lrc", "date": 1700000000000},
			{"path": "/music/b.mp3", "tags": {"title": "B", "artist": "Y", "duration": 61.5}}
		]`))
	}))

	songs, err := c.ListSongs(context.Background())
	require.NoError(t, err)
	require.Len(t, songs, 2)

	tracks := Tracks(songs)
	assert.Equal(t, "A", tracks[0].Tags.Title)
	assert.Equal(t, "/lyrics/a.lrc", tracks[0].LyricsRef)
	assert.Equal(t, int64(1700000000000), tracks[0].AddedAt.UnixMilli())
	assert.Equal(t, "Y", tracks[1].Tags.Artist)
	assert.Equal(t, unknownAlbum, tracks[1].Tags.Album)
	assert.Equal(t, 61500*time.Millisecond, tracks[1].Tags.Duration)
}

func TestClient_ListSongs_RetriesWithLinearBackoff(t *testing.T) {
	var calls atomic.Int32
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))

	songs, err := c.ListSongs(context.Background())

	require.NoError(t, err)
	assert.Empty(t, songs)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, *sleeps)
}

func TestClient_ListSongs_GivesUp(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.ListSongs(context.Background())

	require.Error(t, err)
	assert.Equal(t, int32(ListPolicy.Attempts), calls.Load())
}

func TestClient_FetchLyrics_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))

	_, err := c.FetchLyrics(context.Background(), "/lyrics/missing.lrc")

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, *sleeps)
}

func TestClient_FetchLyrics_EmptyRef(t *testing.T) {
	c := New("http://unused")

	_, err := c.FetchLyrics(context.Background(), "")

	require.ErrorIs(t, err, ErrNotFound)
}

func TestClient_FetchAsset(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/music/a.mp3", r.URL.Path)
		_, _ = w.Write([]byte("ID3"))
	}))

	data, err := c.FetchAsset(context.Background(), "/music/a.mp3")

	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), data)
}

func TestClient_Retry_StopsOnCanceledContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	c := New(srv.URL, WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := c.FetchAsset(ctx, "/a.mp3")

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}
