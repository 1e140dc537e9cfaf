package main

import (
	"errors"
	"fmt"
	"sync"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/flux/internal/errmsg"
)

const downloadWorkers = 3

var errDownloadsDisabled = errors.New("local downloads are disabled (local_downloads = false)")

var downloadCmd = &cobra.Command{
	Use:   "download <path>...",
	Short: "Download tracks for offline playback",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.downloads == nil {
			return errDownloadsDisabled
		}
		if a.offline() {
			return errors.New(errmsg.Format(errmsg.OpDownloadTrack, errors.New("offline")))
		}

		tracks := a.lookup(ctx, args)
		a.downloads.SetTotal(len(tracks))
		defer a.downloads.ResetProgress()

		out := cmd.OutOrStdout()
		var (
			mu     sync.Mutex
			failed int
			g      errgroup.Group
		)
		g.SetLimit(downloadWorkers)
		for _, t := range tracks {
			g.Go(func() error {
				err := a.downloads.Download(ctx, t)

				mu.Lock()
				defer mu.Unlock()
				p := a.downloads.Progress()
				if err != nil {
					failed++
					fmt.Fprintln(out, errmsg.FormatWith(errmsg.OpDownloadTrack, t.Path, err))
					return nil
				}
				fmt.Fprintf(out, "[%d/%d] %s - %s\n", p.Total-p.Remaining, p.Total, t.DisplayArtist(), t.DisplayTitle())
				return nil
			})
		}
		_ = g.Wait()

		if failed > 0 {
			return fmt.Errorf("%d of %d downloads failed", failed, len(tracks))
		}
		return nil
	},
}

var verifyDownloads bool

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "List downloaded tracks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if a.downloads == nil {
			return errDownloadsDisabled
		}

		out := cmd.OutOrStdout()
		entries := a.downloads.Entries()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No downloaded tracks.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		if !verifyDownloads {
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\n", e.SourcePath, humanize.Time(e.DownloadedTime()))
			}
			_ = tw.Flush()
			fmt.Fprintf(out, "\n%d tracks\n", len(entries))
			return nil
		}

		var total uint64
		var missing int
		for _, r := range a.downloads.Verify() {
			status := humanize.IBytes(uint64(r.Size))
			if !r.Exists {
				status = "missing"
				missing++
			}
			lrc := ""
			if r.LyricsFound {
				lrc = "lyrics"
			}
			total += uint64(r.Size)
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Path, status, lrc)
		}
		_ = tw.Flush()
		fmt.Fprintf(out, "\n%d tracks, %s on disk\n", len(entries), humanize.IBytes(total))
		if missing > 0 {
			return errors.New(errmsg.Format(errmsg.OpDownloadVerify,
				fmt.Errorf("%d audio files missing, delete and download them again", missing)))
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <path>...",
	Short: "Delete downloaded tracks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.downloads == nil {
			return errDownloadsDisabled
		}

		var errs []error
		for _, p := range args {
			if err := a.downloads.Delete(ctx, p); err != nil {
				errs = append(errs, errors.New(errmsg.FormatWith(errmsg.OpDownloadDelete, p, err)))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", p)
		}
		return errors.Join(errs...)
	},
}

func init() {
	downloadsCmd.Flags().BoolVar(&verifyDownloads, "verify", false, "check files on disk and show their sizes")
	rootCmd.AddCommand(downloadCmd, downloadsCmd, deleteCmd)
}
