package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the history store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCtx, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer appCtx.Logger.Close()

			st, err := openStore(cmd.Context(), appCtx)
			if err != nil {
				return withCode(exitInput, err)
			}
			if st == nil {
				return withCode(exitInput, errors.New("run history is disabled, set --history-driver"))
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tDOWNLOADED\tMOVED\tTARGET")
			for _, r := range runs {
				target := r.Target
				if target == "" {
					target = r.Folder
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
					r.ID, humanize.Time(r.StartedAt), r.Status, r.Completed, r.Total,
					humanize.Bytes(uint64(max(r.BytesMoved, 0))), target)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show, 0 for all")
	return cmd
}
