package mpris

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/flux/internal/playback"
	"github.com/llehouerou/flux/internal/playlist"
)

type fakeSurface struct {
	mu      sync.Mutex
	updates []Status
	closed  bool
}

func (f *fakeSurface) Update(s Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, s)
}

func (f *fakeSurface) Close() error {
	f.closed = true
	return nil
}

func (f *fakeSurface) last() (Status, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return Status{}, 0
	}
	return f.updates[len(f.updates)-1], len(f.updates)
}

func library() []playlist.Track {
	return []playlist.Track{
		{Path: "/s1.mp3", Tags: playlist.Tags{Title: "One", Artist: "A", Album: "X"}},
		{Path: "/s2.mp3", Tags: playlist.Tags{Title: "Two", Artist: "A", Album: "X"}},
		{Path: "/s3.mp3", Tags: playlist.Tags{Title: "Three", Artist: "B", Album: "Y"}},
	}
}

func newEngine(t *testing.T) *playback.Engine {
	t.Helper()
	e := playback.New()
	e.SetLibrary(library())
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestBridge_Handle_NextPrevious(t *testing.T) {
	e := newEngine(t)
	e.PlayTrack(library()[0])

	var steps []playback.Step
	b := NewBridge(e, WithStepHandler(func(s playback.Step) { steps = append(steps, s) }))

	step := b.Handle(Command{Kind: CommandNext})
	require.Equal(t, playback.ActionPlay, step.Action)
	assert.Equal(t, "/s2.mp3", step.Track.Path)

	step = b.Handle(Command{Kind: CommandPrevious})
	require.Equal(t, playback.ActionPlay, step.Action)
	assert.Equal(t, "/s1.mp3", step.Track.Path)

	assert.Len(t, steps, 2)
}

func TestBridge_Handle_PlayPause(t *testing.T) {
	e := newEngine(t)
	e.PlayTrack(library()[0])
	b := NewBridge(e)

	b.Handle(Command{Kind: CommandPause})
	assert.Equal(t, playback.StatePaused, e.State())

	b.Handle(Command{Kind: CommandPlay})
	assert.Equal(t, playback.StatePlaying, e.State())

	b.Handle(Command{Kind: CommandPlayPause})
	assert.Equal(t, playback.StatePaused, e.State())
}

func TestBridge_Handle_Modes(t *testing.T) {
	e := newEngine(t)
	b := NewBridge(e)

	b.Handle(Command{Kind: CommandSetRepeat, Repeat: playback.RepeatOne})
	assert.Equal(t, playback.RepeatOne, e.RepeatMode())

	b.Handle(Command{Kind: CommandSetShuffle, Shuffle: true})
	assert.True(t, e.Shuffle())
}

func TestBridge_NilController(t *testing.T) {
	b := NewBridge(nil)

	step := b.Handle(Command{Kind: CommandNext})

	assert.Equal(t, playback.ActionNone, step.Action)
	b.Run(context.Background())
}

func TestBridge_NoSurface_IsNoop(t *testing.T) {
	e := newEngine(t)
	b := NewBridge(e)

	b.Push(e.Snapshot())
	require.NoError(t, b.Close())
}

func TestBridge_Push_Metadata(t *testing.T) {
	e := newEngine(t)
	e.PlayTrack(library()[2])
	e.SetDuration(3 * time.Minute)
	e.SetPosition(10 * time.Second)

	surface := &fakeSurface{}
	b := NewBridge(e, WithArtResolver(func(t playlist.Track) string { return "art:" + t.Path }))
	b.Attach(surface)

	b.Push(e.Snapshot())

	st, n := surface.last()
	require.Equal(t, 1, n)
	assert.Equal(t, playback.StatePlaying, st.State)
	assert.Equal(t, 10*time.Second, st.Position)
	require.NotNil(t, st.Metadata)
	assert.Equal(t, "Three", st.Metadata.Title)
	assert.Equal(t, "B", st.Metadata.Artist)
	assert.Equal(t, "Y", st.Metadata.Album)
	assert.Equal(t, 3*time.Minute, st.Metadata.Length)
	assert.Equal(t, "art:/s3.mp3", st.Metadata.ArtURL)
	assert.Equal(t, formatTrackID("/s3.mp3"), st.Metadata.TrackID)
}

func TestBridge_Push_NothingLoaded(t *testing.T) {
	e := newEngine(t)
	surface := &fakeSurface{}
	b := NewBridge(e)
	b.Attach(surface)

	b.Push(e.Snapshot())

	st, _ := surface.last()
	assert.Equal(t, playback.StateStopped, st.State)
	assert.Nil(t, st.Metadata)
}

func TestBridge_Run_PublishesChanges(t *testing.T) {
	e := newEngine(t)
	surface := &fakeSurface{}
	b := NewBridge(e)
	b.Attach(surface)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, n := surface.last()
		return n >= 1
	}, time.Second, 5*time.Millisecond)

	e.PlayTrack(library()[1])

	require.Eventually(t, func() bool {
		st, _ := surface.last()
		return st.Metadata != nil && st.Metadata.Title == "Two"
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	require.NoError(t, b.Close())
	assert.True(t, surface.closed)
}

func TestBridge_Run_PublishesDuration(t *testing.T) {
	e := newEngine(t)
	surface := &fakeSurface{}
	b := NewBridge(e)
	b.Attach(surface)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	e.PlayTrack(library()[0])
	require.Eventually(t, func() bool {
		st, _ := surface.last()
		return st.Metadata != nil && st.Metadata.Title == "One"
	}, time.Second, 5*time.Millisecond)

	e.SetDuration(3 * time.Minute)

	require.Eventually(t, func() bool {
		st, _ := surface.last()
		return st.Metadata != nil && st.Metadata.Length == 3*time.Minute
	}, time.Second, 5*time.Millisecond)
}

func TestBridge_Run_StopsOnEngineClose(t *testing.T) {
	e := playback.New()
	b := NewBridge(e)

	done := make(chan struct{})
	go func() {
		b.Run(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		_ = e.Close()
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestCommandKind_String(t *testing.T) {
	assert.Equal(t, "Next", CommandNext.String())
	assert.Equal(t, "Unknown", CommandKind(99).String())
}
