package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newFoldersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Manage watched folders",
	}
	cmd.AddCommand(newFoldersAddCmd(), newFoldersListCmd(), newFoldersRemoveCmd())
	return cmd
}

func newFoldersAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Register a folder to watch and scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := fac.AddFolder(cmdCtx(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s watched root #%d: %s\n", color.GreenString("added"), root.ID, root.Path)
			return nil
		},
	}
}

func newFoldersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List watched folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := fac.ListFolders(cmdCtx())
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				fmt.Println("no watched folders")
				return nil
			}
			for _, r := range roots {
				fmt.Printf("#%d  %s  (since %s)\n", r.ID, r.Path, r.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func newFoldersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Stop watching a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid folder id %q: %w", args[0], err)
			}
			if ferr := fac.RemoveFolder(cmdCtx(), id); ferr != nil {
				return ferr
			}
			fmt.Println(color.GreenString("removed"))
			return nil
		},
	}
}
