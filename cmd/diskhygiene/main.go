// Command diskhygiene is the disk hygiene engine's CLI surface, one cobra
// subcommand per entry in the command table: folders, scanning, candidates,
// archive/delete/undo, the gauge, and preferences. It replaces a single
// flag-parsed entrypoint with cobra subcommands, keeping the same
// "resolve root, build config dir, build logger, build store, run" shape.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/calebandcode/diskhygiene/internal/apperr"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if ae, ok := err.(*apperr.Error); ok {
			p := apperr.Present(ae.Kind, ae.Message)
			fmt.Fprintln(os.Stderr, color.RedString("%s: %s", p.Title, p.Body))
			if p.Suggestion != "" {
				fmt.Fprintln(os.Stderr, color.YellowString("  %s", p.Suggestion))
			}
		} else {
			fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		}
		os.Exit(1)
	}
}
