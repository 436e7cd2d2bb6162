// Package cmd provides command-line interface functionality for the spotseed application.
//
// This package implements the root command and manages the command-line interface
// using the cobra library. It handles configuration, logging setup, and command
// execution for the spotseed application.
//
// The package integrates with several components:
//   - Configuration management through pkg/config
//   - The curation workflow through internal/session
//   - Manual pages through pkg/man
//   - Version information through pkg/version
//
// Example usage:
//
//	import cmd "github.com/toozej/spotseed/cmd/spotseed"
//
//	func main() {
//		cmd.Execute()
//	}
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/spotseed/pkg/config"
	"github.com/toozej/spotseed/pkg/man"
	"github.com/toozej/spotseed/pkg/version"
)

var (
	// conf holds the application configuration loaded from environment variables.
	conf config.Config
	// debug controls the logging level for the application.
	debug bool
	// logFile receives a copy of the log when SPOTSEED_LOG_FILE is set.
	logFile *os.File
)

// rootCmd defines the base command for the spotseed CLI application.
var rootCmd = &cobra.Command{
	Use:   "spotseed",
	Short: "Curate a Spotify playlist from your listening history",
	Long: `spotseed builds recommendation seeds from your top genres, artists, tracks
or saved tracks, filters the recommendations against your blacklist and writes
them to a playlist with a generated cover. The playlist is reused on the next
run while it still exists and is public.`,
	Args:              cobra.ExactArgs(0),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: rootCmdPreRun,
	Run:               rootCmdRun,
}

// rootCmdRun points the user at the subcommands.
func rootCmdRun(cmd *cobra.Command, args []string) {
	log.Info("Use 'spotseed generate --top-genres' to build a playlist from your top genres")
	log.Info("Use 'spotseed auth' to authorize spotseed with Spotify")
}

// rootCmdPreRun loads configuration and configures logging before any command runs.
func rootCmdPreRun(cmd *cobra.Command, args []string) error {
	var err error
	conf, err = config.Load()
	if err != nil {
		return err
	}

	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if conf.Store.LogFile != "" && logFile == nil {
		logFile, err = os.OpenFile(conf.Store.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

// Execute starts the command-line interface execution.
// SIGINT and SIGTERM cancel the command context; any error exits with status 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if logFile != nil {
		_ = logFile.Close()
	}
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// create rootCmd-level flags
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug-level logging")

	// add sub-commands
	rootCmd.AddCommand(
		newGenerateCmd(),
		newAuthCmd(),
		newBlacklistCmd(),
		newPresetCmd(),
		newDeviceCmd(),
		newPlaylistCmd(),
		newPrintCmd(),
		newLikeCmd(true),
		newLikeCmd(false),
		man.NewManCmd(),
		version.Command(),
	)
}
