// File: cmd/mrcstack/confirm.go
// Brief: Shared confirmation prompt for overwriting existing output files.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// confirmOverwrite refuses to clobber existing output paths unless the user
// passed --yes or answers the prompt at an interactive terminal.
func confirmOverwrite(cmd *cobra.Command, assumeYes bool, paths ...string) error {
	var existing []string
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 || assumeYes {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("refusing to overwrite %s without confirmation; rerun with --yes", strings.Join(existing, ", "))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Overwrite %s? [y/N] ", strings.Join(existing, ", "))
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	if answer != "y" && answer != "yes" {
		return errors.New("aborted; output files left untouched")
	}
	return nil
}
