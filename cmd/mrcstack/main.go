// main.go bootstraps mrcstack: it builds the root Cobra command, wires Viper
// configuration, and executes with a signal-aware context.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/example/mrcstack/internal/combine"
	"github.com/example/mrcstack/internal/starfile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mrcstack",
		Short:         "Consolidate MRC particle stacks referenced by a Relion star file",
		Long: "mrcstack combines the MRC stacks referenced by a star file's image\n" +
			"column into a single stack and rewrites the star file so every\n" +
			"reference points at its new frame in the combined stack.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	combineCmd := newCombineCommand()
	cmd.AddCommand(combineCmd)
	cmd.AddCommand(newDiffCommand())
	cmd.AddCommand(newVersionCommand())
	cmd.Example = `  # Consolidate every particle referenced by particles.star into one stack
  mrcstack combine --star-file particles.star --input-dir Extract/job007 \
      --output-stack combined.mrcs --output-star combined.star

  # Review what a rewrite changed
  mrcstack diff particles.star combined.star`
	bindViper(combineCmd)
	return cmd
}

func bindViper(commands ...*cobra.Command) {
	if len(commands) == 0 {
		return
	}
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("MRCSTACK")
	v.AutomaticEnv()
	configFile := os.Getenv("MRCSTACK_CONFIG")
	configureConfigFile(v, configFile)

	cobra.OnInitialize(func() {
		for _, cmd := range commands {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				cobra.CheckErr(err)
			}
		}
		if err := readConfigFile(v, configFile != ""); err != nil {
			cobra.CheckErr(err)
		}
		for _, cmd := range commands {
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					return
				}
				if !v.IsSet(f.Name) {
					return
				}
				val := fmt.Sprintf("%v", v.Get(f.Name))
				if val != "" {
					_ = f.Value.Set(val)
				}
			})
		}
	})
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("config")
	for _, dir := range configSearchDirs() {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if errors.As(err, &cfgErr) && !strict {
			return nil
		}
		return err
	}
	return nil
}

func configSearchDirs() []string {
	added := make(map[string]struct{})
	var dirs []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := added[path]; ok {
			return
		}
		added[path] = struct{}{}
		dirs = append(dirs, path)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		add(filepath.Join(xdg, "mrcstack"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		add(filepath.Join(home, ".config", "mrcstack"))
		add(filepath.Join(home, ".mrcstack"))
	}
	add(".")
	return dirs
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	var refErr *starfile.ReferenceError
	var missingErr *combine.MissingStackError
	var indexErr *combine.IndexError
	var shapeErr *combine.ShapeError
	switch {
	case errors.As(err, &refErr):
		message = fmt.Sprintf("%s\nHint: no output was written. Fix the reference in the star file and rerun.", err)
	case errors.As(err, &missingErr):
		message = fmt.Sprintf("%s\nHint: confirm --input-dir points at the directory the star file's references are relative to.", err)
	case errors.As(err, &indexErr):
		message = fmt.Sprintf("%s\nHint: the star file references more frames than the source stack holds; it may belong to a different extraction run.", err)
	case errors.As(err, &shapeErr):
		message = fmt.Sprintf("%s\nHint: every source stack must share one box size. Re-extract the particles with a uniform box.", err)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}
