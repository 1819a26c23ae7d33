package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/issuetrack/pkg/shared"
)

// These variables are overridden at build time via -ldflags.
var (
	CoreVersion   = "unknown"
	GolangVersion = runtime.Version()
	BuildTime     = "unknown"
)

var (
	jsonOutput   bool
	versionColor = color.New(color.FgGreen, color.Bold)
)

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application",
		RunE: func(cmd *cobra.Command, args []string) error {
			versionInfo := shared.Versions{
				Version:       CoreVersion,
				GolangVersion: GolangVersion,
				BuildTime:     BuildTime,
			}
			if jsonOutput {
				data, err := json.MarshalIndent(versionInfo, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			printVersionInfo(cmd, &versionInfo)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print version information as JSON.")
	return cmd
}

// printVersionInfo prints the version information for the application.
func printVersionInfo(cmd *cobra.Command, versions *shared.Versions) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Core Version: %s\n", versionColor.Sprint("v"+versions.Version))
	fmt.Fprintf(out, "Go Version: %s\n", versions.GolangVersion)
	fmt.Fprintf(out, "Build Time: %s\n", versions.BuildTime)
}
