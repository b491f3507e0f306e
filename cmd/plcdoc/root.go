package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/plcdoc/internal/collect"
	"github.com/dgallion1/plcdoc/internal/config"
	"github.com/dgallion1/plcdoc/internal/pipeline"
	"github.com/dgallion1/plcdoc/internal/report"
	"github.com/dgallion1/plcdoc/internal/watcher"
)

const usage = "Usage: plcdoc <input_folder> <output_pdf>"

var errUsage = errors.New("usage")

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stdout, usage)
		return 1
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		cfgFile string
		quiet   bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "plcdoc <input_folder> <output_pdf>",
		Short: "Render a TwinCAT PLC project as a highlighted PDF report",
		Long: `plcdoc collects the TwinCAT source files (.TcPOU, .TcDUT, .TcGVL, .TcIO)
below an input folder, extracts their declarations and implementations and
writes one document with a title page, a numbered table of contents and
syntax-highlighted code.

The output format follows the destination extension (.pdf, .docx, .md, .html)
unless --format is given. Settings are read from .plcdoc.yaml and PLCDOC_*
environment variables; flags win over both.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errUsage
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			loader := config.NewLoader(wd)
			loader.File = cfgFile
			loader.Flags = cmd.Flags()
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			if quiet {
				cfg.Progress = false
			}

			log := newLogger(stderr, cfg.Log)
			var progress pipeline.Progress = pipeline.NopProgress{}
			if cfg.Progress {
				progress = pipeline.NewBarProgress(stderr)
			}
			gen := pipeline.NewGenerator(log, stdout, progress)

			opts := pipeline.Options{
				Input:   args[0],
				Output:  args[1],
				Format:  report.Format(cfg.Format),
				Ignore:  cfg.Ignore,
				Workers: cfg.Workers,
				Report:  cfg.ReportOptions(),
			}
			if _, err := gen.Run(cmd.Context(), opts); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchAndRebuild(cmd.Context(), gen, opts, log)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ./"+config.DefaultFileName+")")
	f.BoolVarP(&quiet, "quiet", "q", false, "disable the progress bar")
	f.BoolVarP(&watch, "watch", "w", false, "rebuild when input files change")
	f.IntP("workers", "j", 0, "parallel file extractions (default: number of CPUs)")
	f.StringSlice("ignore", nil, "glob of input paths to skip, relative to the input folder (repeatable)")
	f.String("format", "", "output format: pdf, docx, md or html (default: from output extension)")
	f.String("layout", "", "table of contents layout: flat or nested (default flat)")
	f.Bool("progress", true, "show a progress bar on stderr")
	f.String("title", "", "title page heading (default \""+report.DefaultTitle+"\")")
	f.String("label", "", "title page label (default \"Generated on: <timestamp>\")")
	f.String("page-size", "", "page size: A4, A3, Letter or Legal (default A4)")
	f.String("code-font", "", "TrueType font for PDF code listings (default Courier, cp1252 only)")
	f.Int("tab-width", 0, "tab stop width in code listings (default 4)")
	f.String("log-level", "", "log level: debug, info, warn or error (default info)")
	f.String("log-format", "", "log format: text or json (default text)")

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// watchAndRebuild regenerates the report after each settled burst of input
// changes until ctx is done. Failed rebuilds are logged and watching goes on.
func watchAndRebuild(ctx context.Context, gen *pipeline.Generator, opts pipeline.Options, log *slog.Logger) error {
	c, err := collect.New(opts.Input, opts.Ignore)
	if err != nil {
		return fmt.Errorf("create collector: %w", err)
	}
	w, err := watcher.New(opts.Input, c.Ignored, log)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	log.Info("watching for changes", "input", opts.Input)
	return w.Run(ctx, func(ctx context.Context, changed []string) {
		log.Debug("rebuilding", "changed", changed)
		if _, err := gen.Run(ctx, opts); err != nil {
			log.Error("rebuild failed", "error", err)
		}
	})
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}
