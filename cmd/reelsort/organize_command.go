package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelsort/internal/organizer"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Scan sources and file every detected film into the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			org, err := organizer.New(cfg, logger, dryRun)
			if err != nil {
				return err
			}
			defer org.Close()

			report, err := org.Run(cmd.Context())
			if err != nil {
				return err
			}

			printRunReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report every decision without moving anything")
	return cmd
}

func printRunReport(cmd *cobra.Command, report *organizer.RunReport) {
	if len(report.Units) > 0 {
		rows := make([][]string, 0, len(report.Units))
		for _, unit := range report.Units {
			detail := unit.Detail
			if unit.Err != nil {
				detail = unit.Err.Error()
			}
			rows = append(rows, []string{
				unit.Unit.Info.Title,
				yearColumn(unit.Unit.Info.Year),
				unit.Unit.Info.Resolution.String(),
				humanize.Bytes(uint64(unit.Unit.Size)),
				unit.Action,
				detail,
			})
		}
		cmd.Println(renderTable(
			[]string{"Title", "Year", "Resolution", "Size", "Action", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
		))
	}

	prefix := "Run"
	if report.DryRun {
		prefix = "Dry run"
	}
	cmd.Printf("%s complete: %d found, %d transferred, %d kept, %d skipped, %d failed (%s)\n",
		prefix,
		report.Summary.UnitsFound,
		report.Summary.Transferred,
		report.Summary.Kept,
		report.Summary.Skipped,
		report.Summary.Failed,
		report.Duration.Round(timeRounding))
	if report.Recovered > 0 {
		cmd.Printf("Recovered %d interrupted transfer(s) before the run\n", report.Recovered)
	}
}

func yearColumn(year int) string {
	if year == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", year)
}
