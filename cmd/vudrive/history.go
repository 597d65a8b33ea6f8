package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/torosent/vudrive/internal/history"
)

func newHistoryCmd(stdout io.Writer) *cobra.Command {
	var (
		file  string
		limit int
		show  string
	)
	cmd := &cobra.Command{
		Use:   "history --history-file PATH",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.NewStore(file)
			if err != nil {
				return err
			}
			if show != "" {
				rec, err := store.Get(show)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			entries, err := store.List()
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			return printHistory(stdout, entries)
		},
	}
	cmd.Flags().StringVar(&file, "history-file", "", "JSONL history file written by 'vudrive run --history-file'")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the most recent N runs (0 shows all)")
	cmd.Flags().StringVar(&show, "show", "", "Print the full record with this id as JSON")
	_ = cmd.MarkFlagRequired("history-file")
	return cmd
}

func printHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tTARGET\tVUS\tREQUESTS\tERRORS\tRPS\tP95(ms)")
	for _, e := range entries {
		id := e.ID
		if e.Incomplete {
			id += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%.2f\t%.2f\n",
			id, e.StartedAt.Local().Format(time.DateTime), e.Target, e.Concurrency,
			e.Total, e.Errors, e.RequestsPerSec, e.P95LatencyMs)
	}
	return tw.Flush()
}
