package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calebandcode/diskhygiene/internal/selector"
)

func newCandidatesCmd() *cobra.Command {
	var limit int
	var bucket string

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List ranked disposal candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if bucket == "" {
				cands, err := fac.GetCandidates(cmdCtx(), limit)
				if err != nil {
					return err
				}
				printCandidates(cands)
				return nil
			}

			result, err := fac.GetCandidatesBucketed(cmdCtx(), []selector.Bucket{selector.Bucket(bucket)}, limit)
			if err != nil {
				return err
			}
			for b, cands := range result.ByBucket {
				sum := result.Summaries[b]
				fmt.Printf("%s  (%d files, %s)\n", color.CyanString(string(b)), sum.Count, humanize.Bytes(uint64(sum.TotalBytes)))
				printCandidates(cands)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of candidates to return")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Restrict to one bucket (screenshot, big_download, old_desktop, duplicate)")
	return cmd
}

func printCandidates(cands []selector.Candidate) {
	for _, c := range cands {
		fmt.Printf("  [%s] score=%.2f conf=%.2f  %s  %s  — %s\n",
			c.Bucket, c.Score, c.Confidence, humanize.Bytes(uint64(c.SizeBytes)), c.Path, c.PreviewHint)
	}
}

func newDuplicatesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "List duplicate-content file groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := fac.GetDuplicateGroups(cmdCtx(), limit)
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Printf("%s  (%d copies)\n", color.CyanString(g.FullDigest[:12]), len(g.Files))
				for _, f := range g.Files {
					fmt.Printf("  %s  %s\n", humanize.Bytes(uint64(f.SizeBytes)), f.Path)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of duplicate groups to return")
	return cmd
}
