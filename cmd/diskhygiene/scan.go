package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Start, rescan and check on scans",
	}
	cmd.AddCommand(newScanStartCmd(), newScanAllCmd(), newScanStatusCmd())
	return cmd
}

func newScanStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [path...]",
		Short: "Scan the given paths, or every watched root if none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := fac.StartScan(cmdCtx(), args); err != nil {
				return err
			}
			fmt.Println(color.GreenString("scan queued"))
			return nil
		},
	}
}

func newScanAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Rescan every watched root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := fac.RescanAll(cmdCtx()); err != nil {
				return err
			}
			fmt.Println(color.GreenString("full rescan queued"))
			return nil
		},
	}
}

func newScanStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current scan status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := fac.ScanStatus()
			fmt.Printf("state:    %s\n", st.State)
			if st.RunID != "" {
				fmt.Printf("run id:   %s\n", st.RunID)
			}
			fmt.Printf("scanned:  %d\n", st.Scanned)
			fmt.Printf("skipped:  %d\n", st.Skipped)
			fmt.Printf("errors:   %d\n", st.Errors)
			if st.CurrentPath != "" {
				fmt.Printf("current:  %s\n", st.CurrentPath)
			}
			if st.LastError != "" {
				fmt.Println(color.YellowString("last error: %s", st.LastError))
			}
			return nil
		},
	}
}
