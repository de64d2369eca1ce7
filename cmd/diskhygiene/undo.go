package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calebandcode/diskhygiene/internal/ops"
)

func newUndoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Restore a previously archived or deleted batch",
	}
	cmd.AddCommand(newUndoLastCmd(), newUndoBatchCmd(), newUndoListCmd())
	return cmd
}

func newUndoLastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Restore the most recent undoable batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := fac.UndoLast(cmdCtx())
			if err != nil {
				return err
			}
			printUndoResult(res)
			return nil
		},
	}
}

func newUndoBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <batch-id>",
		Short: "Restore a specific batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := fac.UndoBatch(cmdCtx(), args[0])
			if err != nil {
				return err
			}
			printUndoResult(res)
			return nil
		},
	}
}

func newUndoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List undoable batches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batches, err := fac.ListUndoableBatches(cmdCtx())
			if err != nil {
				return err
			}
			for _, b := range batches {
				fmt.Printf("%s  %s  %d file(s)  %s\n", b.ID, b.Kind, b.FileCount, b.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func printUndoResult(res ops.UndoResult) {
	if res.RollbackPerformed {
		fmt.Println(color.YellowString("undo rolled back: %s", res.Errors[len(res.Errors)-1].Message))
		return
	}
	fmt.Printf("%s batch %s: %d file(s) restored\n", color.GreenString("restored"), res.BatchID, res.FilesRestored)
	for _, e := range res.Errors {
		fmt.Println(color.RedString("  failed: %s (%s)", e.Path, e.Message))
	}
}
