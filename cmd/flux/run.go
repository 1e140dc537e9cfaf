package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llehouerou/flux/internal/errmsg"
	"github.com/llehouerou/flux/internal/mpris"
	"github.com/llehouerou/flux/internal/notify"
	"github.com/llehouerou/flux/internal/playback"
	"github.com/llehouerou/flux/internal/playlist"
	"github.com/llehouerou/flux/internal/session"
	"github.com/llehouerou/flux/internal/source"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a headless player controlled from stdin and MPRIS",
	Long: `Run a headless player session.

Commands are read from stdin, one per line; type "help" for the list.
The session is also exposed to the desktop as an MPRIS media player.`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

var desktopNotify bool

func init() {
	runCmd.Flags().BoolVar(&desktopNotify, "notify", true, "show a desktop notification on track change")
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	engine := playback.New(playback.WithRecorder(a.state), playback.WithLogger(a.log))
	defer engine.Close()

	resolverOpts := []source.Option{source.WithLogger(a.log)}
	if a.downloads != nil {
		resolverOpts = append(resolverOpts, source.WithLocalDownloads(a.downloads))
	}

	art := mpris.ArtCache{Dir: filepath.Join(a.cfg.DownloadsDir(), "art"), Resolve: a.client.URL}
	sessOpts := []session.Option{
		session.WithState(a.state),
		session.WithOutput(printOutput{w: out}),
		session.WithLogger(a.log),
	}
	if sc := a.scrobbler(cmd); sc != nil {
		sessOpts = append(sessOpts, session.WithSyncer(sc))
		defer func() {
			if err := sc.Flush(); err != nil {
				a.log.Warn().Err(err).Msg("scrobble last track")
			}
		}()
	}

	var sess *session.Session
	bridge := mpris.NewBridge(engine,
		mpris.WithArtResolver(art.ArtURL),
		mpris.WithStepHandler(func(s playback.Step) { sess.Apply(s) }),
		mpris.WithLogger(a.log),
	)
	sess = session.New(session.Deps{
		Engine:       engine,
		Resolver:     source.New(a.client, resolverOpts...),
		Lyrics:       a.lyrics,
		Library:      a.library,
		Connectivity: a.conn,
	}, append(sessOpts, session.WithBridge(bridge))...)

	surface, err := mpris.NewSurface("flux", bridge)
	if err != nil {
		a.log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpMediaSession, err))
	} else if surface != nil {
		bridge.Attach(surface)
		defer bridge.Close()
	}

	if err := sess.Restore(ctx); err != nil {
		a.log.Warn().Err(err).Msg("restore player state")
	}
	res, err := sess.Refresh(ctx)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpLibraryLoad, err))
	}
	fmt.Fprintf(out, "%d tracks loaded from %s\n", len(res.Tracks), res.Origin)

	if a.cfg.HasAPIBase() && !forceOffline {
		go a.conn.Run(ctx, a.client, a.cfg.ProbeInterval())
	}
	go printUpdates(ctx, out, sess.Updates())
	if desktopNotify {
		if n, err := notify.New(); err == nil {
			tracks := notify.NewTracks(n, art.ArtURL)
			defer tracks.Dismiss() //nolint:errcheck // best effort on exit
			go announceTracks(ctx, tracks, sess.Updates(), a.log)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(ctx)
	}()

	c := &console{
		engine:  engine,
		apply:   sess.Apply,
		library: sess.Library,
		now:     sess.Now,
		out:     out,
	}
	err = c.serve(ctx, cmd.InOrStdin())

	stop()
	<-done
	sess.Wait()
	return err
}

// printOutput stands in for an audio sink by reporting what would play.
type printOutput struct {
	w io.Writer
}

func (o printOutput) Play(t playlist.Track, uri string) {
	fmt.Fprintf(o.w, "> %s - %s [%s]\n", t.DisplayArtist(), t.DisplayTitle(), uri)
}

func (o printOutput) Restart() { fmt.Fprintln(o.w, "> restart") }
func (o printOutput) Stop()    { fmt.Fprintln(o.w, "> stopped") }

func printUpdates(ctx context.Context, w io.Writer, updates <-chan session.NowPlaying) {
	var lastUnavailable, lastLyrics string
	for {
		select {
		case <-ctx.Done():
			return
		case np := <-updates:
			path := np.Track.Path
			if np.SourceReady && !np.Source.Playable() && lastUnavailable != path {
				lastUnavailable = path
				fmt.Fprintf(w, "! %s is not available offline\n", np.Track.DisplayTitle())
			}
			if np.LyricsReady && np.Lyrics != nil && lastLyrics != path {
				lastLyrics = path
				fmt.Fprintf(w, "  lyrics: %d lines\n", len(np.Lyrics.Lines))
			}
		}
	}
}

func announceTracks(ctx context.Context, tracks *notify.Tracks, updates <-chan session.NowPlaying, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case np := <-updates:
			if np.Track.Path == "" {
				continue
			}
			if err := tracks.Announce(np.Track); err != nil {
				log.Debug().Err(err).Msg("desktop notification")
			}
		}
	}
}

// serve reads commands until quit, EOF or ctx is done.
func (c *console) serve(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			if c.exec(line) {
				return nil
			}
		}
	}
}
