// File: internal/config/config.go
// Brief: Flag plumbing and runtime options for the combine command.

// Package config translates Cobra/Viper flag values into the strongly typed
// struct the stacking pipeline consumes.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// DefaultImageColumn is the star column Relion uses for particle images.
const DefaultImageColumn = "rlnImageName"

// Options holds all CLI configuration used by the combine pipeline.
type Options struct {
	StarFile    string
	InputDir    string
	OutputStack string
	OutputStar  string
	ImageColumn string
	IndexWidth  int
	AssumeYes   bool
	LogLevel    string
}

// NewOptions returns Options with defaults applied.
func NewOptions() *Options {
	return &Options{
		ImageColumn: DefaultImageColumn,
		LogLevel:    "info",
	}
}

// RegisterFlags attaches the combine flag surface to cmd.
func (o *Options) RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.StarFile, "star-file", o.StarFile, "Input Relion star file")
	flags.StringVar(&o.InputDir, "input-dir", o.InputDir, "Directory the star file's image references resolve against")
	flags.StringVar(&o.OutputStack, "output-stack", o.OutputStack, "Path for the combined MRC stack")
	flags.StringVar(&o.OutputStar, "output-star", o.OutputStar, "Path for the rewritten star file")
	flags.StringVar(&o.ImageColumn, "image-column", o.ImageColumn, "Star column holding the index@filename references")
	flags.IntVar(&o.IndexWidth, "index-width", o.IndexWidth, "Zero-pad rewritten frame indices to this many digits (0 = width of the final frame count)")
	flags.BoolVarP(&o.AssumeYes, "yes", "y", o.AssumeYes, "Overwrite existing output files without prompting")
	flags.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log verbosity (debug, info, warn, or error)")
}

// Validate reports the first missing or inconsistent option before any file
// is touched.
func (o *Options) Validate() error {
	switch {
	case strings.TrimSpace(o.StarFile) == "":
		return errors.New("--star-file is required")
	case strings.TrimSpace(o.InputDir) == "":
		return errors.New("--input-dir is required")
	case strings.TrimSpace(o.OutputStack) == "":
		return errors.New("--output-stack is required")
	case strings.TrimSpace(o.OutputStar) == "":
		return errors.New("--output-star is required")
	case strings.TrimSpace(o.ImageColumn) == "":
		return errors.New("--image-column must not be empty")
	}
	if o.IndexWidth < 0 {
		return fmt.Errorf("--index-width must be >= 0, got %d", o.IndexWidth)
	}
	if o.OutputStack == o.OutputStar {
		return errors.New("--output-stack and --output-star must be different paths")
	}
	return nil
}
