package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/llehouerou/flux/internal/library"
	"github.com/llehouerou/flux/internal/playback"
	"github.com/llehouerou/flux/internal/playlist"
	"github.com/llehouerou/flux/internal/session"
)

const consoleHelp = `commands:
  play [n|words]   resume, or play library track n or the first match
  queue <words>    play the first match next
  pause, toggle    pause or toggle playback
  next, prev       skip forward or back
  ended            report that the current track finished
  failed           report that the current track could not play
  shuffle          toggle shuffle
  repeat [mode]    set off, all or one, or cycle
  list [n]         show the next n tracks
  find <words>     search the library
  status           show the current track
  quit`

const listLen = 10

var errReported = errors.New("reported from console")

// console maps text commands to engine operations.
type console struct {
	engine  *playback.Engine
	apply   func(playback.Step)
	library func() []playlist.Track
	now     func() session.NowPlaying
	out     io.Writer
}

// exec runs one command line and reports whether the console should quit.
func (c *console) exec(line string) bool {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "":
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	case "play", "p":
		c.play(arg)
	case "queue":
		c.queue(arg)
	case "pause":
		c.engine.SetPlaying(false)
	case "toggle":
		c.engine.TogglePlay()
	case "next", "n":
		c.apply(c.engine.Advance())
	case "prev", "previous":
		c.apply(c.engine.Reverse())
	case "ended":
		c.apply(c.engine.OnTrackEnded())
	case "failed":
		c.apply(c.engine.OnPlaybackError(errReported))
	case "shuffle":
		fmt.Fprintf(c.out, "shuffle: %t\n", c.engine.ToggleShuffle())
	case "repeat":
		c.repeat(arg)
	case "list", "ls":
		c.list(arg)
	case "find":
		c.find(arg)
	case "status":
		c.status()
	default:
		fmt.Fprintf(c.out, "unknown command %q, type help\n", name)
	}
	return false
}

func (c *console) play(arg string) {
	if arg == "" {
		if c.engine.Current() == nil {
			c.apply(c.engine.Advance())
			return
		}
		c.engine.SetPlaying(true)
		return
	}

	tracks := c.library()
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(tracks) {
			fmt.Fprintf(c.out, "no track %d, library has %d\n", n, len(tracks))
			return
		}
		c.apply(c.engine.PlayTrack(tracks[n-1]))
		return
	}

	matches := library.Search(tracks, arg)
	if len(matches) == 0 {
		fmt.Fprintf(c.out, "nothing matches %q\n", arg)
		return
	}
	c.apply(c.engine.PlayTrack(matches[0], matches...))
}

func (c *console) queue(arg string) {
	if arg == "" {
		fmt.Fprintln(c.out, "usage: queue <words>")
		return
	}
	matches := library.Search(c.library(), arg)
	if len(matches) == 0 {
		fmt.Fprintf(c.out, "nothing matches %q\n", arg)
		return
	}
	c.engine.InsertNext(matches[0])
	fmt.Fprintf(c.out, "next: %s - %s\n", matches[0].DisplayArtist(), matches[0].DisplayTitle())
}

func (c *console) repeat(arg string) {
	if arg == "" {
		fmt.Fprintf(c.out, "repeat: %s\n", c.engine.CycleRepeatMode())
		return
	}
	mode, err := playback.ParseRepeatMode(arg)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	c.engine.SetRepeatMode(mode)
	fmt.Fprintf(c.out, "repeat: %s\n", mode)
}

func (c *console) list(arg string) {
	n := listLen
	if v, err := strconv.Atoi(arg); err == nil && v > 0 {
		n = v
	}
	upNext := c.engine.DisplayQueue(n)
	if len(upNext) == 0 {
		fmt.Fprintln(c.out, "nothing up next")
		return
	}
	for i, t := range upNext {
		fmt.Fprintf(c.out, "%2d. %s - %s\n", i+1, t.DisplayArtist(), t.DisplayTitle())
	}
}

func (c *console) find(arg string) {
	tracks := c.library()
	matches := library.Search(tracks, arg)
	for _, m := range matches {
		fmt.Fprintf(c.out, "%4d. %s - %s\n", playlist.IndexOf(tracks, m.Path)+1, m.DisplayArtist(), m.DisplayTitle())
	}
	if len(matches) == 0 {
		fmt.Fprintf(c.out, "nothing matches %q\n", arg)
	}
}

func (c *console) status() {
	snap := c.engine.Snapshot()
	if snap.Current == nil {
		fmt.Fprintln(c.out, "stopped")
		return
	}
	np := c.now()
	state := "paused"
	if snap.IsPlaying {
		state = "playing"
	}
	fmt.Fprintf(c.out, "%s: %s - %s [%s/%s] shuffle=%t repeat=%s\n",
		state, snap.Current.DisplayArtist(), snap.Current.DisplayTitle(),
		playlist.FormatDuration(snap.Position), playlist.FormatDuration(snap.Duration),
		snap.Shuffle, snap.Repeat)
	if np.SourceReady && np.Track.Path == snap.Current.Path {
		fmt.Fprintf(c.out, "source: %s %s\n", np.Source.Kind, np.Source.URI)
	}
}
