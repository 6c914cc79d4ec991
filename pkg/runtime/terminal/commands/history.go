package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

type HistoryCmd struct {
	open  Opener
	out   io.Writer
	limit int
}

func NewHistoryCmd(open Opener, out io.Writer) *cobra.Command {
	hc := &HistoryCmd{open: open, out: out}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent report runs",
		Args:  cobra.NoArgs,
		RunE:  hc.run,
	}

	cmd.Flags().IntVar(&hc.limit, "limit", 20, "Number of runs to show")

	return cmd
}

func (hc *HistoryCmd) run(cmd *cobra.Command, _ []string) error {
	if hc.limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", hc.limit)
	}

	s, err := hc.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	if s.History == nil {
		return fmt.Errorf("run history is disabled: set HISTORY_DB")
	}

	runs, err := s.History.List(s.Ctx, hc.limit)
	if err != nil {
		return fmt.Errorf("failed to list report runs: %w", err)
	}

	tw := tabwriter.NewWriter(hc.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tSTATUS\tREQUESTED BY\tROWS\tFILE\tSUMMED\tERROR")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			run.CreatedAt.Local().Format(time.DateTime),
			run.Status,
			run.RequestedBy,
			run.Rows,
			dash(run.FileName),
			dash(strings.Join(run.SummedColumns, ",")),
			dash(run.Error),
		)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
