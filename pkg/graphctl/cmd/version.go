package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/graphctl/pkg/graphctl/output"
	"github.com/telekom/graphctl/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show graphctl version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()

			// Get runtime if available (for custom writer), but don't fail if missing
			rt, _ := getRuntime(cmd)
			writer := cmd.OutOrStdout()
			format := output.FormatTable
			if rt != nil {
				writer = rt.Writer()
				format = rt.Format()
			}

			if format == output.FormatTable {
				_, _ = fmt.Fprintf(writer, "graphctl %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildDate)
				return nil
			}
			return output.WriteObject(writer, format, info)
		},
	}
}
