package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QTest-hq/jjsast/internal/config"
)

var version = "dev"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	dir         string
	logLevel    string
	sources     []string
	exclude     []string
	closedWorld bool
	workers     int
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "jjsast",
		Short:   "jjsast - method model and JsInterop resolver for Java sources",
		Long:    `jjsast compiles Java sources into a linked method model, answers JsInterop queries about it and stores snapshots of it.`,
		Version: version,

		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setupLogging()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&o.dir, "dir", "C", ".", "Project directory")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringSliceVarP(&o.sources, "source", "s", nil, "Source root, relative to the project directory (repeatable)")
	flags.StringSliceVarP(&o.exclude, "exclude", "x", nil, "Gitignore-style exclude pattern (repeatable)")
	flags.BoolVar(&o.closedWorld, "closed-world", false, "Treat the sources as the whole program")
	flags.IntVarP(&o.workers, "workers", "w", 0, "Parser workers")

	rootCmd.AddCommand(compileCmd(o))
	rootCmd.AddCommand(inspectCmd(o))
	rootCmd.AddCommand(saveCmd(o))
	rootCmd.AddCommand(loadCmd(o))
	rootCmd.AddCommand(pushCmd(o))
	rootCmd.AddCommand(pullCmd(o))
	rootCmd.AddCommand(snapshotsCmd(o))
	rootCmd.AddCommand(configCmd(o))

	return rootCmd
}

// setupLogging applies --log-level, falling back to the project file
func (o *rootOptions) setupLogging() error {
	name := o.logLevel
	if name == "" {
		if cfg, err := config.LoadProjectConfig(o.dir); err == nil {
			name = cfg.LogLevel
		}
	}
	if name == "" {
		name = "info"
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

// project loads the project file and applies command-line overrides
func (o *rootOptions) project() (*config.ProjectConfig, error) {
	cfg, err := config.LoadProjectConfig(o.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	cfg.Merge(o.overrides())
	return cfg, nil
}

// overrides are the project settings given on the command line
func (o *rootOptions) overrides() *config.ProjectConfig {
	return &config.ProjectConfig{
		Sources:     o.sources,
		Exclude:     o.exclude,
		ClosedWorld: o.closedWorld,
		Workers:     o.workers,
		LogLevel:    o.logLevel,
	}
}
