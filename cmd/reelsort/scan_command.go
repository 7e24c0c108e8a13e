package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelsort/internal/organizer"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Detect film units in the sources without moving anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			org, err := organizer.New(cfg, logger, true)
			if err != nil {
				return err
			}
			defer org.Close()

			units, err := org.ScanOnly(cmd.Context())
			if err != nil {
				return err
			}

			if len(units) == 0 {
				cmd.Println("No film units detected.")
				return nil
			}

			rows := make([][]string, 0, len(units))
			for _, unit := range units {
				status := "verified"
				if unit.Unverified {
					status = "unverified"
				}
				rows = append(rows, []string{
					unit.Info.Title,
					yearColumn(unit.Info.Year),
					unit.Info.Resolution.String(),
					unit.Info.Media.String(),
					humanize.Bytes(uint64(unit.Size)),
					status,
					unit.Root,
				})
			}
			cmd.Println(renderTable(
				[]string{"Title", "Year", "Resolution", "Media", "Size", "Status", "Path"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
