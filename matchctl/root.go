package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/unihaven/unihaven/backend/compat"
)

func newRootCmd() *cobra.Command {
	var asJSON bool
	root := &cobra.Command{
		Use:   "matchctl",
		Short: "Score roommate profiles offline",
		Long: `Score and rank roommate profiles stored as JSON files, using the same
rules as the UniHaven backend.

Examples:
  matchctl score me.json them.json --explain
  matchctl rank me.json pool.json --limit 5
  matchctl rank me.json pool.json --json`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	root.AddCommand(scoreCmd(&asJSON))
	root.AddCommand(rankCmd(&asJSON))
	return root
}

func scoreCmd(asJSON *bool) *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "score VIEWER.json CANDIDATE.json",
		Short: "Score one candidate against a viewer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var viewer, candidate compat.Profile
			if err := readJSON(args[0], &viewer); err != nil {
				return err
			}
			if err := readJSON(args[1], &candidate); err != nil {
				return err
			}

			b := compat.Explain(viewer, candidate)
			res := b.Result()
			out := cmd.OutOrStdout()
			if *asJSON {
				payload := map[string]any{"score": res.Score, "label": res.Label}
				if explain {
					payload["breakdown"] = b
				}
				return writeJSON(out, payload)
			}

			fmt.Fprintf(out, "%d %s\n", res.Score, res.Label)
			if explain {
				printBreakdown(out, b)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "Show the points each rule awarded")
	return cmd
}

func rankCmd(asJSON *bool) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "rank VIEWER.json CANDIDATES.json",
		Short: "Rank a pool of candidates for a viewer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			var viewer compat.Profile
			var pool []compat.Profile
			if err := readJSON(args[0], &viewer); err != nil {
				return err
			}
			if err := readJSON(args[1], &pool); err != nil {
				return err
			}

			ranked := compat.Rank(viewer, pool)
			if limit > 0 && len(ranked) > limit {
				ranked = ranked[:limit]
			}
			out := cmd.OutOrStdout()
			if *asJSON {
				return writeJSON(out, ranked)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tUSER\tNAME\tSCORE\tLABEL")
			for i, m := range ranked {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\n", i+1, m.Profile.UserID, m.Profile.DisplayName, m.Score, m.Label)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most N candidates (0 = all)")
	return cmd
}

func printBreakdown(w io.Writer, b compat.Breakdown) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  budget\t%d\n", b.Budget)
	fmt.Fprintf(tw, "  university\t%d\n", b.University)
	fmt.Fprintf(tw, "  faculty\t%d\n", b.Faculty)
	fmt.Fprintf(tw, "  department\t%d\n", b.Department)
	fmt.Fprintf(tw, "  lifestyle\t%d\n", b.Lifestyle)
	fmt.Fprintf(tw, "  interests\t%d (%d shared)\n", b.Interests, b.SharedInterests)
	fmt.Fprintf(tw, "  total\t%d\n", b.Total())
	_ = tw.Flush()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
