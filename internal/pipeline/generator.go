package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/plcdoc/internal/collect"
	"github.com/dgallion1/plcdoc/internal/doctree"
	"github.com/dgallion1/plcdoc/internal/parser"
	"github.com/dgallion1/plcdoc/internal/report"
)

// Options describe one build.
type Options struct {
	Input   string
	Output  string
	Format  report.Format // empty picks the format from Output's extension
	Ignore  []string      // glob patterns relative to Input
	Workers int           // parallel extractions, <= 0 means NumCPU
	Report  report.Options
}

// Summary describes a finished build.
type Summary struct {
	Found     int
	Extracted int
	Failures  []*parser.ParseError
	Format    report.Format
	Output    string
	Elapsed   time.Duration
}

// Generator runs collection, extraction and rendering. Console lines go to
// the console writer; diagnostics go to the logger.
type Generator struct {
	log      *slog.Logger
	console  io.Writer
	progress Progress
	stats    *ExtractStats
}

func NewGenerator(log *slog.Logger, console io.Writer, progress Progress) *Generator {
	if progress == nil {
		progress = NopProgress{}
	}
	return &Generator{
		log:      log,
		console:  console,
		progress: progress,
		stats:    NewExtractStats(time.Hour),
	}
}

// Run performs one build. Files that fail extraction are reported and left
// out; collection and rendering failures abort the build.
func (g *Generator) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	log := g.log.With("input", opts.Input, "output", opts.Output)

	c, err := collect.New(opts.Input, opts.Ignore)
	if err != nil {
		return nil, fmt.Errorf("create collector: %w", err)
	}
	root, err := c.Collect()
	if err != nil {
		return nil, fmt.Errorf("collect files: %w", err)
	}

	sum := &Summary{Found: root.FileCount(), Output: opts.Output}
	fmt.Fprintf(g.console, "Found %d TwinCAT files\n", sum.Found)

	failures, err := g.extractAll(ctx, root, opts.Workers)
	if err != nil {
		return nil, err
	}
	for _, pe := range failures {
		fmt.Fprintf(g.console, "Error processing %s: %v\n", pe.Path, pe.Err)
		log.Warn("extraction failed", "path", pe.Path, "error", pe.Err)
	}
	sum.Failures = failures
	sum.Extracted = root.UnitCount()

	snap := g.stats.Snapshot()
	log.Info("extraction complete",
		"files", sum.Found,
		"extracted", sum.Extracted,
		"failed", len(failures),
		"count", snap.Count,
		"min", snap.Min,
		"avg", snap.Avg,
		"p50", snap.P50,
		"p95", snap.P95,
		"max", snap.Max,
	)

	sum.Format = opts.Format
	if sum.Format == "" {
		sum.Format = report.FormatFor(opts.Output)
	}
	r := report.NewRenderer(opts.Report, log)
	if err := r.Build(root, sum.Format, opts.Output); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	sum.Elapsed = time.Since(start)
	fmt.Fprintf(g.console, "%s generated successfully: %s\n", sum.Format.DisplayName(), opts.Output)
	log.Info("report written", "format", sum.Format, "elapsed", sum.Elapsed)
	return sum, nil
}

// extractAll parses every collected file with bounded parallelism and
// attaches the units to their folders in discovery order, whatever order
// the workers finish in.
func (g *Generator) extractAll(ctx context.Context, root *doctree.Folder, workers int) ([]*parser.ParseError, error) {
	type job struct {
		folder *doctree.Folder
		path   string
	}
	var jobs []job
	root.Walk(func(f *doctree.Folder) bool {
		f.Units = nil
		for _, p := range f.Files {
			jobs = append(jobs, job{folder: f, path: p})
		}
		return true
	})

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	units := make([]*doctree.Unit, len(jobs))
	errs := make([]error, len(jobs))

	g.progress.Start(len(jobs))
	defer g.progress.Finish()

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, j := range jobs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t0 := time.Now()
			u, err := parser.ParseFile(j.path)
			g.stats.Record(time.Since(t0))
			g.progress.Done()

			units[i], errs[i] = u, err
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("extract files: %w", err)
	}

	var failures []*parser.ParseError
	for i, j := range jobs {
		if errs[i] != nil {
			var pe *parser.ParseError
			if !errors.As(errs[i], &pe) {
				pe = &parser.ParseError{Path: j.path, Err: errs[i]}
			}
			failures = append(failures, pe)
			continue
		}
		u := units[i]
		u.Folder = j.folder.Path
		j.folder.Units = append(j.folder.Units, u)
	}
	return failures, nil
}
