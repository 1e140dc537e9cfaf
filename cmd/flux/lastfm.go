package main

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/flux/internal/lastfm"
)

var errLastfmNotConfigured = errors.New("set lastfm.api_key and lastfm.api_secret in config.toml first")

var lastfmCmd = &cobra.Command{
	Use:   "lastfm",
	Short: "Manage Last.fm scrobbling",
}

var lastfmLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Link a Last.fm account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if !a.cfg.HasLastfmConfig() {
			return errLastfmNotConfigured
		}

		client := lastfm.New(a.cfg.Lastfm.APIKey, a.cfg.Lastfm.APISecret)
		token, err := client.Token()
		if err != nil {
			return err
		}
		url := client.AuthURL(token)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Authorize flux at:\n  %s\nthen press Enter.\n", url)
		if err := lastfm.OpenBrowser(url); err != nil {
			a.log.Debug().Err(err).Msg("open browser")
		}
		if _, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n'); err != nil {
			return err
		}

		username, key, err := client.Login(token)
		if err != nil {
			return err
		}
		if err := a.state.SaveLastfmSession(ctx, username, key); err != nil {
			return err
		}
		fmt.Fprintf(out, "Linked Last.fm account %s\n", username)
		return nil
	},
}

var lastfmLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Unlink the Last.fm account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.state.DeleteLastfmSession(cmd.Context())
	},
}

var lastfmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the linked Last.fm account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.state.GetLastfmSession(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if s == nil {
			fmt.Fprintln(out, "Not linked.")
			return nil
		}
		fmt.Fprintf(out, "Linked as %s %s\n", s.Username, humanize.Time(s.LinkedAt))
		return nil
	},
}

func init() {
	lastfmCmd.AddCommand(lastfmLoginCmd, lastfmLogoutCmd, lastfmStatusCmd)
	rootCmd.AddCommand(lastfmCmd)
}

// scrobbler returns a scrobbler for the linked account, or nil when
// Last.fm is not configured or not linked.
func (a *app) scrobbler(cmd *cobra.Command) *lastfm.Scrobbler {
	if !a.cfg.HasLastfmConfig() {
		return nil
	}
	s, err := a.state.GetLastfmSession(cmd.Context())
	if err != nil {
		a.log.Warn().Err(err).Msg("load last.fm session")
		return nil
	}
	if s == nil {
		return nil
	}
	client := lastfm.New(a.cfg.Lastfm.APIKey, a.cfg.Lastfm.APISecret)
	client.SetSessionKey(s.SessionKey)
	return lastfm.NewScrobbler(client, lastfm.WithLogger(a.log))
}
