package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelsort/internal/journal"
)

const timeRounding = time.Second

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := journal.Open(cfg.JournalPath())
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				return printRunTransfers(cmd, store, runID)
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				cmd.Println("No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				mode := "organize"
				if run.DryRun {
					mode = "dry run"
				}
				duration := "-"
				if !run.FinishedAt.IsZero() {
					duration = run.FinishedAt.Sub(run.StartedAt).Round(timeRounding).String()
				}
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					mode,
					formatInt(run.UnitsFound),
					formatInt(run.Transferred),
					formatInt(run.Kept),
					formatInt(run.Skipped),
					formatInt(run.Failed),
					duration,
				})
			}
			cmd.Println(renderTable(
				[]string{"Run", "Started", "Mode", "Found", "Transferred", "Kept", "Skipped", "Failed", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show the transfers of a single run")
	return cmd
}

func printRunTransfers(cmd *cobra.Command, store *journal.Store, runID string) error {
	transfers, err := store.RunTransfers(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(transfers) == 0 {
		cmd.Println("No transfers recorded for this run.")
		return nil
	}

	rows := make([][]string, 0, len(transfers))
	for _, rec := range transfers {
		detail := rec.Detail
		if rec.Error != "" {
			detail = rec.Error
		}
		rows = append(rows, []string{
			rec.Title,
			yearColumn(rec.Year),
			rec.Action,
			rec.Status,
			detail,
		})
	}
	cmd.Println(renderTable(
		[]string{"Title", "Year", "Action", "Status", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}
