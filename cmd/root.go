package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/issuetrack/cmd/show"
	syncissues "github.com/scan-io-git/issuetrack/cmd/sync-issues"
	"github.com/scan-io-git/issuetrack/cmd/track"
	"github.com/scan-io-git/issuetrack/cmd/version"
	"github.com/scan-io-git/issuetrack/pkg/shared/config"
	issueerrors "github.com/scan-io-git/issuetrack/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "issuetrack [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Issuetrack keeps stable identities for static analysis findings.",
		Long: `Issuetrack follows static analysis findings across analyzer runs and code edits,
	so that each finding keeps its identity, creation date and server status.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(track.TrackCmd)
	rootCmd.AddCommand(show.ShowCmd)
	rootCmd.AddCommand(syncissues.SyncCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		var cmdErr *issueerrors.CommandError
		if errors.As(err, &cmdErr) {
			return cmdErr.ExitCode
		}
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing config file function is crashed - %v \n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	track.Init(AppConfig)
	show.Init(AppConfig)
	syncissues.Init(AppConfig)
}
