package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	forceOffline bool
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:           "flux",
	Short:         "Music client with an offline download cache",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&forceOffline, "offline", false, "never contact the server")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
