// File: cmd/mrcstack/combine.go
// Brief: The combine command: load, concatenate, and renumber particle stacks.

package main

import (
	"fmt"

	"github.com/example/mrcstack/internal/combine"
	"github.com/example/mrcstack/internal/config"
	"github.com/example/mrcstack/internal/logging"
	"github.com/spf13/cobra"
)

func newCombineCommand() *cobra.Command {
	opts := config.NewOptions()
	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Combine the referenced MRC stacks into one and rewrite the star file",
		Long: "combine loads every frame named by the star file's image column, in row\n" +
			"order, concatenates them into a single MRC stack, and writes a star file\n" +
			"whose references point into that stack. Source stacks are opened once\n" +
			"each no matter how many rows reference them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			logger, err := logging.New(opts.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := confirmOverwrite(cmd, opts.AssumeYes, opts.OutputStack, opts.OutputStar); err != nil {
				return err
			}

			runner := &combine.Runner{
				StarFile:    opts.StarFile,
				InputDir:    opts.InputDir,
				OutputStack: opts.OutputStack,
				OutputStar:  opts.OutputStar,
				ImageColumn: opts.ImageColumn,
				IndexWidth:  opts.IndexWidth,
				Log:         logger,
			}
			if err := runner.Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Combined stack written to %s\n", opts.OutputStack)
			fmt.Fprintf(cmd.OutOrStdout(), "Rewritten star file written to %s\n", opts.OutputStar)
			return nil
		},
	}
	opts.RegisterFlags(cmd)
	return cmd
}
