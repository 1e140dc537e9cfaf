package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/llehouerou/flux/internal/errmsg"
	"github.com/llehouerou/flux/internal/library"
	"github.com/llehouerou/flux/internal/playlist"
)

var (
	librarySearch string
	libraryNew    time.Duration
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List the song library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.library.Load(ctx, a.offline())
		if err != nil {
			return errors.New(errmsg.Format(errmsg.OpLibraryLoad, err))
		}

		tracks := res.Tracks
		if libraryNew > 0 {
			tracks = playlist.NewArrivals(tracks, time.Now().Add(-libraryNew))
		}
		tracks = library.Search(tracks, librarySearch)

		out := cmd.OutOrStdout()
		printTracks(out, tracks, a.isDownloaded)
		if res.Origin == library.OriginDownloads {
			fmt.Fprintf(out, "\n%d downloaded tracks (server unreachable)\n", len(tracks))
		}
		return nil
	},
}

func init() {
	libraryCmd.Flags().StringVarP(&librarySearch, "search", "s", "", "only show tracks matching every word")
	libraryCmd.Flags().DurationVar(&libraryNew, "new", 0, "only show tracks added within this duration, newest first")
	rootCmd.AddCommand(libraryCmd)
}

func (a *app) isDownloaded(path string) bool {
	return a.downloads != nil && a.downloads.IsDownloaded(path)
}

func printTracks(w io.Writer, tracks []playlist.Track, downloaded func(string) bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, t := range tracks {
		mark := " "
		if downloaded(t.Path) {
			mark = "↓"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, mark, t.DisplayArtist(), t.DisplayTitle(), t.Tags.Album, playlist.FormatDuration(t.Tags.Duration))
	}
	_ = tw.Flush()
}
