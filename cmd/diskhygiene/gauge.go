package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newGaugeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gauge",
		Short: "Show potential, staged and freed space for the current window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			triple, err := fac.GaugeState(cmdCtx())
			if err != nil {
				return err
			}
			fmt.Printf("window:          %s to %s\n", triple.WindowStart.Format("2006-01-02"), triple.WindowEnd.Format("2006-01-02"))
			fmt.Printf("potential today: %s\n", humanize.Bytes(uint64(triple.PotentialToday)))
			fmt.Printf("staged:          %s\n", humanize.Bytes(uint64(triple.StagedWindow)))
			fmt.Printf("freed:           %s\n", humanize.Bytes(uint64(triple.FreedWindow)))
			return nil
		},
	}
}
