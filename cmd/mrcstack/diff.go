// File: cmd/mrcstack/diff.go
// Brief: Unified diff between two star files, for reviewing what a rewrite changed.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
)

func newDiffCommand() *cobra.Command {
	var contextLines int
	cmd := &cobra.Command{
		Use:   "diff <OLD_STAR> <NEW_STAR>",
		Short: "Show a unified diff between two star files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			after, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			ud := difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(before)),
				B:        difflib.SplitLines(string(after)),
				FromFile: args[0],
				ToFile:   args[1],
				Context:  contextLines,
			}
			text, err := difflib.GetUnifiedDiffString(ud)
			if err != nil {
				return fmt.Errorf("compute diff: %w", err)
			}
			if text == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Star files are identical.")
				return nil
			}
			writeColoredDiff(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().IntVar(&contextLines, "context", 3, "Context lines around each hunk")
	return cmd
}

func writeColoredDiff(w io.Writer, text string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)
	for _, line := range strings.SplitAfter(text, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			hunk.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			added.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			removed.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
}
