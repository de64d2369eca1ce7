package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calebandcode/diskhygiene/internal/ops"
)

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <file-id...>",
		Short: "Move files into the dated archive folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseFileIDs(args)
			if err != nil {
				return err
			}
			out, ferr := fac.ArchiveFiles(cmdCtx(), ids)
			if ferr != nil {
				return ferr
			}
			printOutcome("archived", out)
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	var toTrash bool
	cmd := &cobra.Command{
		Use:   "delete <file-id...>",
		Short: "Delete files, to trash by default",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseFileIDs(args)
			if err != nil {
				return err
			}
			out, ferr := fac.DeleteFiles(cmdCtx(), ids, toTrash)
			if ferr != nil {
				return ferr
			}
			printOutcome("deleted", out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&toTrash, "trash", true, "Move to the platform trash instead of permanently deleting")
	return cmd
}

func parseFileIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid file id %q: %w", a, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printOutcome(verb string, out ops.Outcome) {
	fmt.Printf("%s %d file(s) in batch %s\n", color.GreenString(verb), len(out.Succeeded), out.BatchID)
	for _, e := range out.Errors {
		fmt.Println(color.RedString("  failed: %s (%s)", e.Path, e.Message))
	}
}
