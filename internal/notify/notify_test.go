package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/flux/internal/playlist"
)

type fakeNotifier struct {
	sent   []Notification
	closed []uint32
	nextID uint32
	err    error
}

func (f *fakeNotifier) Notify(n Notification) (uint32, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, n)
	if n.ReplacesID != 0 {
		return n.ReplacesID, nil
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeNotifier) Close(id uint32) error {
	f.closed = append(f.closed, id)
	return nil
}

func TestUrgencyValues(t *testing.T) {
	assert.Equal(t, Urgency(0), UrgencyLow)
	assert.Equal(t, Urgency(1), UrgencyNormal)
	assert.Equal(t, Urgency(2), UrgencyCritical)
}

func TestTracks_Announce(t *testing.T) {
	f := &fakeNotifier{}
	art := func(tr playlist.Track) string { return "file:///art/" + tr.Tags.Title }
	tracks := NewTracks(f, art)

	tr := playlist.Track{Path: "/a.mp3", Tags: playlist.Tags{Title: "Song", Artist: "Band", Album: "Record"}}
	require.NoError(t, tracks.Announce(tr))

	require.Len(t, f.sent, 1)
	n := f.sent[0]
	assert.Equal(t, "Song", n.Title)
	assert.Equal(t, "Band - Record", n.Body)
	assert.Equal(t, "file:///art/Song", n.Icon)
	assert.Equal(t, uint32(0), n.ReplacesID)
	assert.Equal(t, UrgencyLow, n.Urgency)
}

func TestTracks_AnnounceReplacesPrevious(t *testing.T) {
	f := &fakeNotifier{}
	tracks := NewTracks(f, nil)

	require.NoError(t, tracks.Announce(playlist.Track{Path: "/a.mp3"}))
	require.NoError(t, tracks.Announce(playlist.Track{Path: "/b.mp3"}))

	require.Len(t, f.sent, 2)
	assert.Equal(t, uint32(1), f.sent[1].ReplacesID)
	assert.Equal(t, "Unknown Artist", f.sent[1].Body)
	assert.Empty(t, f.sent[1].Icon)
}

func TestTracks_AnnounceSameTrackOnce(t *testing.T) {
	f := &fakeNotifier{}
	tracks := NewTracks(f, nil)

	tr := playlist.Track{Path: "/a.mp3"}
	require.NoError(t, tracks.Announce(tr))
	require.NoError(t, tracks.Announce(tr))

	assert.Len(t, f.sent, 1)
}

func TestTracks_AnnounceErrorIsRetried(t *testing.T) {
	f := &fakeNotifier{err: errors.New("bus gone")}
	tracks := NewTracks(f, nil)
	tr := playlist.Track{Path: "/a.mp3"}

	require.Error(t, tracks.Announce(tr))

	f.err = nil
	require.NoError(t, tracks.Announce(tr))
	assert.Len(t, f.sent, 1)
}

func TestTracks_Dismiss(t *testing.T) {
	f := &fakeNotifier{}
	tracks := NewTracks(f, nil)

	require.NoError(t, tracks.Dismiss())
	assert.Empty(t, f.closed, "nothing to dismiss yet")

	require.NoError(t, tracks.Announce(playlist.Track{Path: "/a.mp3"}))
	require.NoError(t, tracks.Dismiss())
	assert.Equal(t, []uint32{1}, f.closed)

	require.NoError(t, tracks.Announce(playlist.Track{Path: "/a.mp3"}))
	assert.Len(t, f.sent, 2, "a dismissed track is announced again")
}
