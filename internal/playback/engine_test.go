//nolint:goconst // test file with repeated string literals
package playback

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/flux/internal/playlist"
)

var (
	s1 = playlist.Track{Path: "/music/s1.mp3", Tags: playlist.Tags{Artist: "A", Title: "S1"}}
	s2 = playlist.Track{Path: "/music/s2.mp3", Tags: playlist.Tags{Artist: "A", Title: "S2"}}
	s3 = playlist.Track{Path: "/music/s3.mp3", Tags: playlist.Tags{Artist: "B", Title: "S3"}}
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type recorderFunc func(playlist.Track)

func (f recorderFunc) RecordPlay(t playlist.Track) { f(t) }

func newTestEngine(t *testing.T, library ...playlist.Track) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	e := New(WithRand(rand.New(rand.NewPCG(1, 2))), WithClock(clock.Now))
	e.SetLibrary(library)
	return e, clock
}

func makeTracks(n int) []playlist.Track {
	tracks := make([]playlist.Track, n)
	for i := range tracks {
		tracks[i] = playlist.Track{Path: fmt.Sprintf("/music/%02d.mp3", i)}
	}
	return tracks
}

func currentPath(e *Engine) string {
	if cur := e.Current(); cur != nil {
		return cur.Path
	}
	return ""
}

func TestEngine_Advance_WrapsThroughLibrary(t *testing.T) {
	e, _ := newTestEngine(t, s1, s2, s3)

	e.PlayTrack(s1)

	for _, want := range []string{s2.Path, s3.Path, s1.Path} {
		step := e.Advance()
		require.Equal(t, ActionPlay, step.Action)
		assert.Equal(t, want, step.Track.Path)
		assert.Equal(t, want, currentPath(e))
	}
}

func TestEngine_Advance_ContextGoverns(t *testing.T) {
	e, _ := newTestEngine(t, s1, s2, s3)

	e.PlayTrack(s2, s2, s3)

	e.Advance()
	assert.Equal(t, s3.Path, currentPath(e))
	e.Advance()
	assert.Equal(t, s2.Path, currentPath(e), "should wrap inside the context")
}

func TestEngine_PlayTrack_WithoutContextClearsIt(t *testing.T) {
	e, _ := newTestEngine(t, s1, s2, s3)

	e.PlayTrack(s2, s2, s3)
	e.PlayTrack(s3)

	assert.Nil(t, e.Snapshot().Context)
	e.Advance()
	assert.Equal(t, s1.Path, currentPath(e), "library order should govern again")
}

func TestEngine_PlayTrack_StartsPlaying(t *testing.T) {
	e, _ := newTestEngine(t, s1)

	step := e.PlayTrack(s1)

	assert.Equal(t, ActionPlay, step.Action)
	assert.Equal(t, StatePlaying, e.State())
	assert.Equal(t, []string{s1.Path}, playlist.Paths(e.History()))
}

func TestEngine_Advance_EmptyListIsNoop(t *testing.T) {
	e, _ := newTestEngine(t)

	step := e.Advance()

	assert.Equal(t, ActionNone, step.Action)
	assert.Nil(t, e.Current())
}

func TestEngine_Advance_NoCurrentPlaysFirst(t *testing.T) {
	e, _ := newTestEngine(t, s1, s2, s3)

	step := e.Advance()

	require.Equal(t, ActionPlay, step.Action)
	assert.Equal(t, s1.Path, step.Track.Path)
}

func TestEngine_AdvanceReverse_RoundTrip(t *testing.T) {
	tracks := makeTracks(5)

	for i := range tracks {
		t.Run(tracks[i].Path, func(t *testing.T) {
			e, _ := newTestEngine(t, tracks...)
			e.PlayTrack(tracks[i])

			e.Advance()
			assert.Equal(t, tracks[(i+1)%len(tracks)].Path, currentPath(e))

			e.Reverse()
			assert.Equal(t, tracks[i].Path, currentPath(e))
		})
	}
}

func TestEngine_Reverse_WrapsAtStart(t *testing.T) {
	tracks := makeTracks(4)
	e, _ := newTestEngine(t, tracks...)
	e.PlayTrack(tracks[0])

	e.Reverse()

	assert.Equal(t, tracks[3].Path, currentPath(e))
}

func TestEngine_Reverse_RestartsAfterThreeSeconds(t *testing.T) {
	e, _ := newTestEngine(t, s1, s2, s3)
	e.PlayTrack(s2)
	e.SetPosition(3*time.Second + time.Millisecond)

	step := e.Reverse()

	require.Equal(t, ActionRestart, step.Action)
	assert.Equal(t, s2.Path, step.Track.Path)
	assert.Equal(t, s2.Path, currentPath(e))
	assert.Equal(t, time.Duration(0), e.Snapshot().Position)
}

func TestEngine_Reverse_AtThreeSecondsMovesBack(t *testing.T) {
	e, _ := newTestEngine(t, s1, s2, s3)
	e.PlayTrack(s2)
	e.SetPosition(3 * time.Second)

	step := e.Reverse()

	require.Equal(t, ActionPlay, step.Action)
	assert.Equal(t, s1.Path, currentPath(e))
}

func TestEngine_NotFoundFallbacks(t *testing.T) {
	t.Run("advance falls back to first", func(t *testing.T) {
		e, _ := newTestEngine(t, s1, s2, s3)
		e.PlayTrack(s2)
		e.SetLibrary([]playlist.Track{s1, s3})

		e.Advance()

		assert.Equal(t, s1.Path, currentPath(e))
	})

	t.Run("reverse falls back to last", func(t *testing.T) {
		e, _ := newTestEngine(t, s1, s2, s3)
		e.PlayTrack(s2)
		e.SetLibrary([]playlist.Track{s1, s3})

		e.Reverse()

		assert.Equal(t, s3.Path, currentPath(e))
	})
}

func TestEngine_InsertNext_LastInsertedPlaysFirst(t *testing.T) {
	a := playlist.Track{Path: "/queued/a.mp3"}
	b := playlist.Track{Path: "/queued/b.mp3"}
	e, _ := newTestEngine(t, s1, s2, s3)
	e.PlayTrack(s1)

	e.InsertNext(a)
	e.InsertNext(b)

	e.Advance()
	assert.Equal(t, b.Path, currentPath(e))
	e.Advance()
	assert.Equal(t, a.Path, currentPath(e))
	e.Advance()
	assert.Equal(t, s2.Path, currentPath(e), "should resume after the pre-insert track")
}

func TestEngine_InsertNext_DoesNotTouchContext(t *testing.T) {
	a := playlist.Track{Path: "/queued/a.mp3"}
	e, _ := newTestEngine(t, s1, s2, s3)
	e.PlayTrack(s2, s2, s3)
	e.InsertNext(a)

	e.Advance()

	assert.Equal(t, playlist.Paths([]playlist.Track{s2, s3}), playlist.Paths(e.Snapshot().Context))
}

func TestEngine_Reverse_FromQueuedTrack(t *testing.T) {
	t.Run("outside the list goes to last", func(t *testing.T) {
		a := playlist.Track{Path: "/queued/a.mp3"}
		e, _ := newTestEngine(t, s1, s2, s3)
		e.PlayTrack(s1)
		e.InsertNext(a)
		e.Advance()

		e.Reverse()

		assert.Equal(t, s3.Path, currentPath(e))
	})

	t.Run("inside the list goes to its predecessor", func(t *testing.T) {
		e, _ := newTestEngine(t, s1, s2, s3)
		e.PlayTrack(s1)
		e.InsertNext(s3)
		e.Advance()

		e.Reverse()

		assert.Equal(t, s2.Path, currentPath(e))
	})
}

func TestEngine_Reverse_NoCurrentIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, s1, s2, s3)

	step := e.Reverse()

	assert.Equal(t, ActionNone, step.Action)
	assert.Nil(t, e.Current())
}

func TestEngine_OnTrackEnded(t *testing.T) {
	t.Run("repeat one restarts", func(t *testing.T) {
		e, _ := newTestEngine(t, s1, s2, s3)
		e.PlayTrack(s1)
		e.InsertNext(s3)
		e.SetRepeatMode(RepeatOne)

		step := e.OnTrackEnded()

		assert.Equal(t, ActionRestart, step.Action)
		assert.Equal(t, s1.Path, currentPath(e))
		assert.Len(t, e.Snapshot().InsertionQueue, 1, "queue should not be consulted")
	})

	for _, mode := range []RepeatMode{RepeatOff, RepeatAll} {
		t.Run("repeat "+mode.String()+" advances", func(t *testing.T) {
			e, _ := newTestEngine(t, s1, s2, s3)
			e.PlayTrack(s3)
			e.SetRepeatMode(mode)

			step := e.OnTrackEnded()

			require.Equal(t, ActionPlay, step.Action)
			assert.Equal(t, s1.Path, currentPath(e))
		})
	}
}

func TestEngine_OnPlaybackError_TripsAfterFiveInWindow(t *testing.T) {
	e, clock := newTestEngine(t, makeTracks(10)...)
	e.Advance()

	for i := range 4 {
		clock.Advance(500 * time.Millisecond)
		step := e.OnPlaybackError(errors.New("decode"))
		require.Equal(t, ActionPlay, step.Action, "error %d should skip", i+1)
	}

	sub := e.Subscribe()
	clock.Advance(500 * time.Millisecond)
	step := e.OnPlaybackError(errors.New("decode"))

	assert.Equal(t, ActionStop, step.Action)
	assert.False(t, e.Snapshot().IsPlaying)
	select {
	case ev := <-sub.Error:
		assert.ErrorIs(t, ev.Err, ErrTooManyErrors)
	default:
		t.Error("expected an error event")
	}

	clock.Advance(500 * time.Millisecond)
	step = e.OnPlaybackError(errors.New("decode"))
	assert.Equal(t, ActionPlay, step.Action, "counter should reset after tripping")
}

func TestEngine_OnPlaybackError_GapResetsCounter(t *testing.T) {
	e, clock := newTestEngine(t, makeTracks(10)...)
	e.Advance()

	e.OnPlaybackError(errors.New("decode"))
	clock.Advance(4 * time.Second)
	step := e.OnPlaybackError(errors.New("decode"))

	assert.Equal(t, ActionPlay, step.Action)
	assert.True(t, e.Snapshot().IsPlaying)

	for range 3 {
		clock.Advance(time.Second)
		step = e.OnPlaybackError(errors.New("decode"))
	}
	assert.Equal(t, ActionPlay, step.Action, "five errors but the first run was reset")
}

func TestEngine_Shuffle_ProducesPermutations(t *testing.T) {
	tracks := makeTracks(20)
	e, _ := newTestEngine(t, tracks...)

	require.True(t, e.ToggleShuffle())
	first := playlist.Paths(e.Snapshot().ShuffledOrder)
	require.False(t, e.ToggleShuffle())
	assert.Empty(t, e.Snapshot().ShuffledOrder)
	require.True(t, e.ToggleShuffle())
	second := playlist.Paths(e.Snapshot().ShuffledOrder)

	assert.ElementsMatch(t, playlist.Paths(tracks), first)
	assert.ElementsMatch(t, playlist.Paths(tracks), second)
	assert.NotEqual(t, first, second)
}

func TestEngine_Shuffle_AdvanceFollowsShuffledOrder(t *testing.T) {
	tracks := makeTracks(10)
	e, _ := newTestEngine(t, tracks...)
	e.SetShuffle(true)
	order := e.Snapshot().ShuffledOrder
	e.PlayTrack(order[3])

	e.Advance()

	assert.Equal(t, order[4].Path, currentPath(e))
}

func TestEngine_Shuffle_ReshufflesWhenBaseChanges(t *testing.T) {
	e, _ := newTestEngine(t, makeTracks(10)...)
	e.SetShuffle(true)

	e.PlayTrack(s2, s2, s3)

	assert.ElementsMatch(t, []string{s2.Path, s3.Path}, playlist.Paths(e.Snapshot().ShuffledOrder))
}

func TestEngine_CycleRepeatMode(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.Equal(t, RepeatAll, e.CycleRepeatMode())
	assert.Equal(t, RepeatOne, e.CycleRepeatMode())
	assert.Equal(t, RepeatOff, e.CycleRepeatMode())
}

func TestEngine_DisplayQueue(t *testing.T) {
	tracks := makeTracks(5)
	q := playlist.Track{Path: "/queued/q.mp3"}

	t.Run("queue then successors", func(t *testing.T) {
		e, _ := newTestEngine(t, tracks...)
		e.PlayTrack(tracks[1])
		e.InsertNext(q)

		got := playlist.Paths(e.DisplayQueue(2))

		assert.Equal(t, []string{q.Path, tracks[2].Path, tracks[3].Path}, got)
	})

	t.Run("lookahead clipped at list end", func(t *testing.T) {
		e, _ := newTestEngine(t, tracks...)
		e.PlayTrack(tracks[3])

		assert.Equal(t, []string{tracks[4].Path}, playlist.Paths(e.DisplayQueue(0)))
	})

	t.Run("current from queue returns remaining queue only", func(t *testing.T) {
		a := playlist.Track{Path: "/queued/a.mp3"}
		e, _ := newTestEngine(t, tracks...)
		e.PlayTrack(tracks[0])
		e.InsertNext(q)
		e.InsertNext(a)
		e.Advance()

		assert.Equal(t, []string{q.Path}, playlist.Paths(e.DisplayQueue(10)))
	})

	t.Run("current not found returns queue only", func(t *testing.T) {
		e, _ := newTestEngine(t, tracks...)
		e.PlayTrack(playlist.Track{Path: "/elsewhere.mp3"})
		e.InsertNext(q)

		assert.Equal(t, []string{q.Path}, playlist.Paths(e.DisplayQueue(10)))
	})
}

func TestEngine_SetLibrary_RefreshesCurrentTags(t *testing.T) {
	e, _ := newTestEngine(t, playlist.Track{Path: s1.Path})
	e.PlayTrack(playlist.Track{Path: s1.Path})

	e.SetLibrary([]playlist.Track{s1.WithTags(playlist.Tags{Title: "Back-filled"})})

	cur := e.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "Back-filled", cur.Tags.Title)
}

func TestEngine_TogglePlay(t *testing.T) {
	e, _ := newTestEngine(t, s1)

	assert.False(t, e.TogglePlay(), "no current track")

	e.PlayTrack(s1)
	assert.False(t, e.TogglePlay())
	assert.Equal(t, StatePaused, e.State())
	assert.True(t, e.TogglePlay())
	assert.Equal(t, StatePlaying, e.State())
}

func TestEngine_RecordsPlays(t *testing.T) {
	var recorded []string
	e := New(WithRecorder(recorderFunc(func(t playlist.Track) {
		recorded = append(recorded, t.Path)
	})))
	e.SetLibrary([]playlist.Track{s1, s2})

	e.PlayTrack(s1)
	e.Advance()

	assert.Equal(t, []string{s1.Path, s2.Path}, recorded)
}

func TestEngine_Subscribe_ReceivesTrackAndState(t *testing.T) {
	e, _ := newTestEngine(t, s1, s2)
	sub := e.Subscribe()

	e.PlayTrack(s1)

	select {
	case ev := <-sub.TrackChanged:
		assert.Nil(t, ev.Previous)
		require.NotNil(t, ev.Current)
		assert.Equal(t, s1.Path, ev.Current.Path)
	default:
		t.Fatal("expected a track change")
	}
	select {
	case ev := <-sub.StateChanged:
		assert.Equal(t, StatePlaying, ev.Current)
	default:
		t.Fatal("expected a state change")
	}

	require.NoError(t, e.Close())
	<-sub.Done
}

func TestEngine_SetDuration_EmitsChange(t *testing.T) {
	e, _ := newTestEngine(t, s1)
	e.PlayTrack(s1)
	sub := e.Subscribe()

	e.SetDuration(3 * time.Minute)
	e.SetDuration(3 * time.Minute)

	require.Len(t, sub.DurationChanged, 1, "unchanged duration should not be re-emitted")
	assert.Equal(t, 3*time.Minute, (<-sub.DurationChanged).Duration)
	assert.Equal(t, 3*time.Minute, e.Snapshot().Duration)
}
