package commands

import (
	"fmt"
	"io"

	"github.com/de-tools/stats-report/pkg/services/stats"
	"github.com/spf13/cobra"
)

func NewURLCmd(load ConfigLoader, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the statistics request URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd.Context())
			if err != nil {
				return err
			}
			u, err := stats.BuildRequestURL(cfg.API.URL, cfg.ReportQuery())
			if err != nil {
				return fmt.Errorf("failed to build request url: %w", err)
			}
			fmt.Fprintln(out, u)
			return nil
		},
	}
}
