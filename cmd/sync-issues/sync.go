package syncissues

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/issuetrack/pkg/shared"
	"github.com/scan-io-git/issuetrack/pkg/shared/config"
	"github.com/scan-io-git/issuetrack/pkg/shared/errors"
	"github.com/scan-io-git/issuetrack/pkg/shared/logger"
)

// RunOptions holds flags for the sync-issues command.
type RunOptions struct {
	SourceFolder string   `json:"source_folder,omitempty"`
	StorePath    string   `json:"store_path,omitempty"`
	Project      string   `json:"project,omitempty"`
	Branch       string   `json:"branch,omitempty"`
	Refresh      bool     `json:"refresh,omitempty"`
	Files        []string `json:"files,omitempty"`
}

var (
	AppConfig *config.Config
	opts      RunOptions

	// SyncCmd reconciles tracked issues with the remote server.
	SyncCmd = &cobra.Command{
		Use:                   "sync-issues --project KEY [--branch NAME] [--source-folder PATH] [--store PATH] [--file PATH]... [--refresh]",
		Short:                 "Reconcile tracked issues with the server",
		Example:               "issuetrack sync-issues --project my-project --source-folder /path/to/repo",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
				return cmd.Help()
			}

			if err := validate(AppConfig, &opts); err != nil {
				return errors.NewCommandError(opts, err, 1)
			}

			lg := logger.NewLogger(AppConfig, "sync-issues")

			synced, err := run(cmd.Context(), AppConfig, opts, lg)
			if err != nil {
				lg.Error("server reconciliation failed", "error", err)
				return errors.NewCommandError(opts, err, 2)
			}

			lg.Info("server reconciliation completed", "files", synced)
			fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d files with %s\n", synced, AppConfig.Server.URL)
			return nil
		},
	}
)

// Init wires config into this command.
func Init(cfg *config.Config) { AppConfig = cfg }

func init() {
	SyncCmd.Flags().StringVar(&opts.SourceFolder, "source-folder", ".", "Root of the analyzed sources")
	SyncCmd.Flags().StringVar(&opts.StorePath, "store", "", "Store location, overrides the configured one")
	SyncCmd.Flags().StringVar(&opts.Project, "project", "", "Server project key")
	SyncCmd.Flags().StringVar(&opts.Branch, "branch", "", "Server branch, detected from CI or git when empty")
	SyncCmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "Bypass cached server issues")
	SyncCmd.Flags().StringArrayVar(&opts.Files, "file", nil, "Only reconcile this source-relative file, repeatable")
	SyncCmd.Flags().BoolP("help", "h", false, "Show help for sync-issues command.")
}

func validate(cfg *config.Config, o *RunOptions) error {
	if o.Project == "" {
		return fmt.Errorf("--project is required")
	}
	if o.SourceFolder == "" {
		return fmt.Errorf("--source-folder must not be empty")
	}
	if cfg == nil || cfg.Server.URL == "" {
		return fmt.Errorf("server.url must be configured")
	}
	return nil
}
