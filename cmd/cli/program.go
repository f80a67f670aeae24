package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QTest-hq/jjsast/internal/compile"
	"github.com/QTest-hq/jjsast/internal/config"
	"github.com/QTest-hq/jjsast/internal/inspect"
	"github.com/QTest-hq/jjsast/internal/persist"
	"github.com/QTest-hq/jjsast/pkg/ast"
	"github.com/QTest-hq/jjsast/pkg/intern"
)

func (o *rootOptions) compile(ctx context.Context, cfg *config.ProjectConfig) (*compile.Result, error) {
	return compile.Compile(ctx, compile.Options{
		Roots:       cfg.SourceRoots(o.dir),
		Exclude:     cfg.Exclude,
		Workers:     cfg.Workers,
		ClosedWorld: cfg.ClosedWorld,
	})
}

// resolve interprets path relative to the project directory
func (o *rootOptions) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(o.dir, path)
}

// snapshotName picks the name snapshots of this project are stored under
func (o *rootOptions) snapshotName(cfg *config.ProjectConfig, override string) string {
	switch {
	case override != "":
		return override
	case cfg.Snapshot.Name != "":
		return cfg.Snapshot.Name
	}
	abs, err := filepath.Abs(o.dir)
	if err != nil {
		return filepath.Base(o.dir)
	}
	return filepath.Base(abs)
}

// compileSnapshot compiles the project and encodes the result
func (o *rootOptions) compileSnapshot(ctx context.Context, cfg *config.ProjectConfig, name string) (*persist.Snapshot, error) {
	res, err := o.compile(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return persist.Encode(res.Program, persist.EncodeOptions{
		Name:           o.snapshotName(cfg, name),
		SourceRevision: res.SourceRevision(),
	})
}

// program compiles the project, or decodes the snapshot at path when set
func (o *rootOptions) program(ctx context.Context, path string) (*ast.Program, error) {
	if path != "" {
		snap, err := persist.ReadFile(path, persist.FormatFor(path))
		if err != nil {
			return nil, err
		}
		return persist.Decode(snap)
	}

	cfg, err := o.project()
	if err != nil {
		return nil, err
	}
	res, err := o.compile(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return res.Program, nil
}

func compileCmd(o *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile and link the project, then print totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutput(output)
			if err != nil {
				return err
			}
			cfg, err := o.project()
			if err != nil {
				return err
			}
			res, err := o.compile(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			types := inspect.SummarizeTypes(res.Program, true)
			totals := inspect.Count(types, inspect.SummarizeProgram(res.Program))
			return printValue(cmd.OutOrStdout(), format, totals, func(tw *tableWriter) {
				tw.row("FILES", res.Files)
				tw.row("OVERRIDE EDGES", res.Link.OverrideEdges)
				printTotals(tw, totals)
				if rev := res.SourceRevision(); rev != "" {
					tw.row("REVISION", rev)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, yaml, json)")
	return cmd
}

// report is what inspect prints in yaml and json
type report struct {
	Totals  inspect.Totals          `json:"totals" yaml:"totals"`
	Types   []inspect.TypeSummary   `json:"types,omitempty" yaml:"types,omitempty"`
	Methods []inspect.MethodSummary `json:"methods" yaml:"methods"`
}

func inspectCmd(o *rootOptions) *cobra.Command {
	var (
		snapshot  string
		output    string
		withTypes bool
		external  bool
		filter    inspect.Filter
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Answer JsInterop and override queries for every method",
		Long: `Compile the project (or load --snapshot) and print one row per method:
its JS name and qualified JS name, exports, entry points and override edges.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutput(output)
			if err != nil {
				return err
			}
			p, err := o.program(cmd.Context(), snapshot)
			if err != nil {
				return err
			}

			types := inspect.SummarizeTypes(p, external)
			all := inspect.SummarizeProgram(p)
			rep := report{
				Totals:  inspect.Count(types, all),
				Methods: filter.Apply(all),
			}
			if withTypes {
				rep.Types = types
			}

			return printValue(cmd.OutOrStdout(), format, rep, func(tw *tableWriter) {
				if withTypes {
					printTypes(tw, rep.Types)
					tw.blank()
				}
				printMethods(tw, rep.Methods)
			})
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Read this snapshot file instead of compiling")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, yaml, json)")
	cmd.Flags().BoolVar(&withTypes, "types", false, "Also list types")
	cmd.Flags().BoolVar(&external, "external", false, "Include external types in the type list")
	cmd.Flags().StringVarP(&filter.Type, "type", "t", "", "Only methods declared on this type")
	cmd.Flags().StringVarP(&filter.Name, "name", "n", "", "Only methods with this name")
	cmd.Flags().BoolVar(&filter.Exported, "exported", false, "Only exported methods")
	cmd.Flags().BoolVar(&filter.EntryPoint, "entry-points", false, "Only JsInterop entry points")
	cmd.Flags().BoolVar(&filter.JsOnly, "js", false, "Only methods with a JS name")

	return cmd
}

func saveCmd(o *rootOptions) *cobra.Command {
	var (
		out    string
		format string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Compile the project and write a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.project()
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = cfg.Snapshot.Path
			}
			if path == "" {
				return fmt.Errorf("no snapshot path: pass --out or set snapshot.path")
			}
			path = o.resolve(path)
			if format == "" {
				format = cfg.Snapshot.Format
			}
			f := persist.FormatFor(path)
			if format != "" {
				if f, err = persist.ParseFormat(format); err != nil {
					return err
				}
			}

			snap, err := o.compileSnapshot(cmd.Context(), cfg, name)
			if err != nil {
				return err
			}
			if err := persist.WriteFile(path, snap, f); err != nil {
				return err
			}

			log.Info().Str("path", path).Str("id", snap.ID).Int("methods", len(snap.Methods)).Msg("snapshot saved")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Snapshot file (default: snapshot.path from the project file)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Snapshot format (yaml, json); default by extension")
	cmd.Flags().StringVar(&name, "name", "", "Snapshot name (default: project directory name)")
	return cmd
}

func loadCmd(o *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "load <snapshot> [<library-snapshot>...]",
		Short: "Decode a snapshot and print its totals",
		Long: `Decode a snapshot. When library snapshots follow it, external method stubs
of the first snapshot are resolved against the methods they define.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutput(output)
			if err != nil {
				return err
			}

			in := intern.New()
			progs := make([]*ast.Program, len(args))
			for i, path := range args {
				snap, err := persist.ReadFile(path, persist.FormatFor(path))
				if err != nil {
					return err
				}
				if progs[i], err = persist.Decode(snap, ast.WithInterner(in)); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			resolved := 0
			if len(progs) > 1 {
				if resolved, err = persist.ResolveExternal(progs[0], persist.ProgramLookup(progs[1:]...)); err != nil {
					return err
				}
				log.Info().Int("resolved", resolved).Msg("external methods stitched")
			}

			p := progs[0]
			totals := inspect.Count(inspect.SummarizeTypes(p, true), inspect.SummarizeProgram(p))
			return printValue(cmd.OutOrStdout(), format, totals, func(tw *tableWriter) {
				printTotals(tw, totals)
				if len(progs) > 1 {
					tw.row("STITCHED", resolved)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, yaml, json)")
	return cmd
}
