package show

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/issuetrack/pkg/shared/config"
	"github.com/scan-io-git/issuetrack/pkg/shared/errors"
	"github.com/scan-io-git/issuetrack/pkg/shared/logger"
)

// RunOptions holds flags for the show command.
type RunOptions struct {
	SourceFolder string `json:"source_folder,omitempty"`
	StorePath    string `json:"store_path,omitempty"`
	File         string `json:"file,omitempty"`
	NoColor      bool   `json:"no_color,omitempty"`
}

var (
	AppConfig *config.Config
	opts      RunOptions

	// ShowCmd prints tracked issues with their location in the current sources.
	ShowCmd = &cobra.Command{
		Use:                   "show [--source-folder PATH] [--store PATH] [--file PATH]",
		Short:                 "Show tracked issues",
		Example:               "issuetrack show --source-folder /path/to/repo --file src/main.go",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.SourceFolder == "" {
				return errors.NewCommandError(opts, fmt.Errorf("--source-folder must not be empty"), 1)
			}

			lg := logger.NewLogger(AppConfig, "show")

			if err := run(cmd.OutOrStdout(), AppConfig, opts, lg); err != nil {
				lg.Error("failed to show issues", "error", err)
				return errors.NewCommandError(opts, err, 2)
			}
			return nil
		},
	}
)

// Init wires config into this command.
func Init(cfg *config.Config) { AppConfig = cfg }

func init() {
	ShowCmd.Flags().StringVar(&opts.SourceFolder, "source-folder", ".", "Root of the analyzed sources")
	ShowCmd.Flags().StringVar(&opts.StorePath, "store", "", "Store location, overrides the configured one")
	ShowCmd.Flags().StringVar(&opts.File, "file", "", "Only show issues of this source-relative file")
	ShowCmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	ShowCmd.Flags().BoolP("help", "h", false, "Show help for show command.")
}
