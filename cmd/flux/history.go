package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/flux/internal/errmsg"
	"github.com/llehouerou/flux/internal/state"
)

var (
	historyTop     bool
	historyArtists bool
	historyPeriod  string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show play history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		period, err := state.ParsePeriod(historyPeriod)
		if err != nil {
			return err
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer tw.Flush()

		switch {
		case historyArtists:
			rows, err := a.state.TopArtists(ctx, period, historyLimit)
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpHistoryLoad, err))
			}
			for i, r := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, r.Artist, plays(r.Count))
			}
		case historyTop:
			rows, err := a.state.TopSongs(ctx, period, historyLimit)
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpHistoryLoad, err))
			}
			for i, r := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, r.Artist, r.Title, plays(r.Count))
			}
		default:
			rows, err := a.state.RecentlyPlayed(ctx, historyLimit)
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpHistoryLoad, err))
			}
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", humanize.Time(r.PlayedAt), r.Artist, r.Title)
			}
		}
		return nil
	},
}

func plays(n int) string {
	if n == 1 {
		return "1 play"
	}
	return humanize.Comma(int64(n)) + " plays"
}

func init() {
	historyCmd.Flags().BoolVar(&historyTop, "top", false, "most played songs")
	historyCmd.Flags().BoolVar(&historyArtists, "artists", false, "most played artists")
	historyCmd.Flags().StringVar(&historyPeriod, "period", string(state.PeriodAll), "aggregate period for --top and --artists: all or month")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of rows")
	rootCmd.AddCommand(historyCmd)
}
