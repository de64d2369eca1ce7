package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calebandcode/diskhygiene/internal/types"
)

func newStageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Manage staged (archived-but-undoable) files",
	}
	cmd.AddCommand(newStageAddCmd(), newStageListCmd(), newStageRestoreCmd(), newStageEmptyCmd())
	return cmd
}

func newStageAddCmd() *cobra.Command {
	var note string
	var expiresDays int
	cmd := &cobra.Command{
		Use:   "add <file-id...>",
		Short: "Mark files as staged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseFileIDs(args)
			if err != nil {
				return err
			}
			var expiresAt *time.Time
			if expiresDays > 0 {
				t := time.Now().AddDate(0, 0, expiresDays)
				expiresAt = &t
			}
			if ferr := fac.StageFiles(cmdCtx(), ids, expiresAt, note); ferr != nil {
				return ferr
			}
			fmt.Println(color.GreenString("staged"))
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "Optional note to attach to the staged record")
	cmd.Flags().IntVar(&expiresDays, "expires-days", 0, "Days until the staged record expires (0 = no expiry)")
	return cmd
}

func newStageListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List staged records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []types.StagedStatus
			if status != "" {
				statuses = []types.StagedStatus{types.StagedStatus(status)}
			}
			recs, err := fac.ListStaged(cmdCtx(), statuses)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Printf("file #%d  %s  staged %s  %s\n", r.FileID, r.Status, r.StagedAt.Format("2006-01-02"), r.Note)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (staged, restored, emptied)")
	return cmd
}

func newStageRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file-id>",
		Short: "Mark a staged file as restored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid file id %q: %w", args[0], err)
			}
			if ferr := fac.RestoreStaged(cmdCtx(), id); ferr != nil {
				return ferr
			}
			fmt.Println(color.GreenString("restored"))
			return nil
		},
	}
}

func newStageEmptyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "empty <file-id...>",
		Short: "Permanently dispose of staged files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseFileIDs(args)
			if err != nil {
				return err
			}
			out, ferr := fac.EmptyStaged(cmdCtx(), ids)
			if ferr != nil {
				return ferr
			}
			printOutcome("emptied", out)
			return nil
		},
	}
}
