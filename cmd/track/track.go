package track

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/issuetrack/pkg/shared"
	"github.com/scan-io-git/issuetrack/pkg/shared/config"
	"github.com/scan-io-git/issuetrack/pkg/shared/errors"
	"github.com/scan-io-git/issuetrack/pkg/shared/logger"
)

// RunOptions holds flags for the track command.
type RunOptions struct {
	SarifPath      string `json:"sarif_path,omitempty"`
	SourceFolder   string `json:"source_folder,omitempty"`
	StorePath      string `json:"store_path,omitempty"`
	NoSuppressions bool   `json:"no_suppressions,omitempty"`
}

// Summary counts what a track run did.
type Summary struct {
	Files   int `json:"files"`
	Tracked int `json:"tracked"`
	New     int `json:"new"`
	// Emptied counts stored files whose last findings disappeared in this run.
	Emptied int `json:"emptied"`
	// Unreadable counts reported files that could not be loaded.
	Unreadable int `json:"unreadable"`
}

var (
	AppConfig *config.Config
	opts      RunOptions

	// TrackCmd feeds an analyzer report into the tracker and persists the result.
	TrackCmd = &cobra.Command{
		Use:                   "track --sarif PATH [--source-folder PATH] [--store PATH] [--no-suppressions]",
		Short:                 "Track SARIF findings across analyzer runs",
		Example:               "issuetrack track --sarif results.sarif --source-folder /path/to/repo",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
				return cmd.Help()
			}

			if err := validate(&opts); err != nil {
				return errors.NewCommandError(opts, err, 1)
			}

			lg := logger.NewLogger(AppConfig, "track")

			summary, err := run(AppConfig, opts, lg)
			if err != nil {
				lg.Error("tracking failed", "error", err)
				return errors.NewCommandError(opts, err, 2)
			}

			lg.Info("tracking completed", "files", summary.Files, "tracked", summary.Tracked, "new", summary.New)
			fmt.Fprintf(cmd.OutOrStdout(), "Tracked %d issues in %d files (%d new, %d files without findings, %d unreadable)\n",
				summary.Tracked, summary.Files, summary.New, summary.Emptied, summary.Unreadable)
			return nil
		},
	}
)

// Init wires config into this command.
func Init(cfg *config.Config) { AppConfig = cfg }

func init() {
	TrackCmd.Flags().StringVar(&opts.SarifPath, "sarif", "", "Path to the SARIF report")
	TrackCmd.Flags().StringVar(&opts.SourceFolder, "source-folder", ".", "Root of the analyzed sources")
	TrackCmd.Flags().StringVar(&opts.StorePath, "store", "", "Store location, overrides the configured one")
	TrackCmd.Flags().BoolVar(&opts.NoSuppressions, "no-suppressions", false, "Ignore results suppressed in the report")
	TrackCmd.Flags().BoolP("help", "h", false, "Show help for track command.")
}

func validate(o *RunOptions) error {
	if o.SarifPath == "" {
		return fmt.Errorf("--sarif is required")
	}
	if o.SourceFolder == "" {
		return fmt.Errorf("--source-folder must not be empty")
	}
	return nil
}
