package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Get or set preferences",
	}
	cmd.AddCommand(newPrefsGetCmd(), newPrefsSetCmd())
	return cmd
}

func newPrefsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "List every stored preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := fac.GetPrefs(cmdCtx())
			if err != nil {
				return err
			}
			for k, v := range prefs {
				fmt.Printf("%s = %s\n", k, v)
			}
			return nil
		},
	}
}

func newPrefsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a preference value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := fac.SetPrefs(cmdCtx(), map[string]string{args[0]: args[1]}); err != nil {
				return err
			}
			fmt.Println(color.GreenString("saved"))
			return nil
		},
	}
}
