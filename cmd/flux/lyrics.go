package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/flux/internal/lyrics"
	"github.com/llehouerou/flux/internal/playlist"
)

var rawLyrics bool

var lyricsCmd = &cobra.Command{
	Use:   "lyrics <path>",
	Short: "Show the lyrics of a track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		t := a.lookup(ctx, args)[0]
		res := a.lyrics.Get(ctx, t.Path, t.LyricsRef, a.offline())

		out := cmd.OutOrStdout()
		if !res.Found {
			fmt.Fprintf(out, "No lyrics for %s\n", t.DisplayTitle())
			return nil
		}
		if rawLyrics {
			fmt.Fprint(out, res.Text)
			return nil
		}

		l := lyrics.Parse(res.Text)
		synced := l.IsSynced()
		for _, line := range l.Lines {
			if synced {
				fmt.Fprintf(out, "[%s] %s\n", playlist.FormatDuration(line.Time), line.Text)
				continue
			}
			fmt.Fprintln(out, line.Text)
		}
		return nil
	},
}

func init() {
	lyricsCmd.Flags().BoolVar(&rawLyrics, "raw", false, "print the LRC text unparsed")
	rootCmd.AddCommand(lyricsCmd)
}
