// Package compile runs the front end over a Java source tree: discovery,
// parsing, building, override linking and specialization resolution.
package compile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/jjsast/internal/javasrc"
	"github.com/QTest-hq/jjsast/internal/link"
	"github.com/QTest-hq/jjsast/pkg/ast"
	"github.com/QTest-hq/jjsast/pkg/intern"
)

// Options configures a compilation
type Options struct {
	// Roots are source directories; every .java file below them is compiled
	Roots   []string
	Exclude []string
	Workers int

	ClosedWorld bool
	// Interner is shared with other programs of the same run when set
	Interner *intern.Interner
}

// Result is a linked program with statistics about how it was built
type Result struct {
	RunID           uuid.UUID
	Program         *ast.Program
	Files           int
	Link            *link.Stats
	Specializations int
	Revision        *javasrc.Revision
	Duration        time.Duration
}

// Compile builds and links the program rooted at opts.Roots
func Compile(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Roots) == 0 {
		return nil, fmt.Errorf("no source roots")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	res := &Result{RunID: uuid.New()}
	start := time.Now()
	logger := log.With().Str("run_id", res.RunID.String()).Logger()

	var paths []string
	for _, root := range opts.Roots {
		files, err := javasrc.Discover(root, opts.Exclude)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
		for _, f := range files {
			paths = append(paths, filepath.Join(root, filepath.FromSlash(f)))
		}
		logger.Debug().Str("root", root).Int("files", len(files)).Msg("discovered sources")
	}
	res.Files = len(paths)

	units, err := javasrc.ParseFiles(ctx, paths, opts.Workers)
	if err != nil {
		return nil, err
	}

	progOpts := []ast.Option{ast.WithClosedWorld(opts.ClosedWorld)}
	if opts.Interner != nil {
		progOpts = append(progOpts, ast.WithInterner(opts.Interner))
	}
	p, err := javasrc.Build(units, progOpts...)
	if err != nil {
		return nil, err
	}

	if res.Link, err = link.Link(p); err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}
	if res.Specializations, err = link.ResolveSpecializations(p); err != nil {
		return nil, err
	}

	rev, err := javasrc.ReadRevision(opts.Roots[0])
	if err != nil {
		logger.Warn().Err(err).Msg("could not read source revision")
	}
	res.Revision = rev
	res.Program = p
	res.Duration = time.Since(start)

	logger.Info().
		Int("files", res.Files).
		Int("types", res.Link.Types).
		Int("methods", res.Link.Methods).
		Int("override_edges", res.Link.OverrideEdges).
		Int("specializations", res.Specializations).
		Dur("duration", res.Duration).
		Msg("compiled")

	return res, nil
}

// SourceRevision renders the revision for snapshot metadata, empty outside git
func (r *Result) SourceRevision() string {
	if r.Revision == nil {
		return ""
	}
	return r.Revision.String()
}
