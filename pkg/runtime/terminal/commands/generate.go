package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/de-tools/stats-report/pkg/runtime/export"
	"github.com/de-tools/stats-report/pkg/services/report"
	"github.com/spf13/cobra"
)

type GenerateCmd struct {
	open        Opener
	reporter    *export.Reporter
	out         io.Writer
	preview     bool
	requestedBy string
}

func NewGenerateCmd(open Opener, reporter *export.Reporter, out io.Writer) *cobra.Command {
	gc := &GenerateCmd{open: open, reporter: reporter, out: out}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fetch statistics and save them as an xlsx report",
		Args:  cobra.NoArgs,
		RunE:  gc.run,
	}

	cmd.Flags().BoolVar(&gc.preview, "preview", false, "Print a text preview of the report table")
	cmd.Flags().StringVar(&gc.requestedBy, "requested-by", "cli", "Requester recorded in the run history")

	return cmd
}

func (gc *GenerateCmd) run(cmd *cobra.Command, _ []string) error {
	s, err := gc.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.Generator.GenerateReport(s.Ctx, gc.requestedBy)
	if errors.Is(err, report.ErrNoData) {
		fmt.Fprintln(gc.out, "No data for the selected period.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if gc.preview {
		if err := gc.reporter.Handle(res.Path, res.Table); err != nil {
			return fmt.Errorf("failed to render preview: %w", err)
		}
		return nil
	}

	fmt.Fprintln(gc.out, res.Path)
	return nil
}
