package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/dgallion1/plcdoc/internal/report"
)

// Config is the complete plcdoc configuration. It can be loaded from
// .plcdoc.yaml with PLCDOC_* environment and flag overrides.
type Config struct {
	Workers  int          `mapstructure:"workers"`  // parallel file extractions
	Ignore   []string     `mapstructure:"ignore"`   // glob patterns relative to the input root
	Format   string       `mapstructure:"format"`   // pdf, docx, md or html; empty follows the output extension
	Layout   string       `mapstructure:"layout"`   // flat or nested
	Progress bool         `mapstructure:"progress"` // progress bar on stderr
	Report   ReportConfig `mapstructure:"report"`
	Log      LogConfig    `mapstructure:"log"`
}

// ReportConfig controls the rendered document.
type ReportConfig struct {
	Title        string  `mapstructure:"title"`
	Label        string  `mapstructure:"label"` // empty means "Generated on: <timestamp>"
	PageSize     string  `mapstructure:"page_size"`
	Margin       float64 `mapstructure:"margin"` // points
	CodeFontSize float64 `mapstructure:"code_font_size"`
	CodeLeading  float64 `mapstructure:"code_leading"`
	CodeFont     string  `mapstructure:"code_font"` // TrueType file for PDF code listings
	TabWidth     int     `mapstructure:"tab_width"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn or error
	Format string `mapstructure:"format"` // text or json
}

// Default returns the built-in configuration.
func Default() *Config {
	ro := report.DefaultOptions()
	return &Config{
		Workers:  runtime.NumCPU(),
		Ignore:   []string{},
		Layout:   string(report.LayoutFlat),
		Progress: true,
		Report: ReportConfig{
			Title:        ro.Title,
			PageSize:     ro.PageSize,
			Margin:       ro.Margin,
			CodeFontSize: ro.CodeFontSize,
			CodeLeading:  ro.CodeLeading,
			TabWidth:     ro.TabWidth,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var pageSizes = []string{"A3", "A4", "Letter", "Legal"}

// Validate rejects unknown enum values and non-positive sizes. Workers
// below one are clamped to the CPU count and names are normalized.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}

	f, err := report.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	c.Format = string(f)

	l, err := report.ParseLayout(c.Layout)
	if err != nil {
		return err
	}
	c.Layout = string(l)

	if err := c.Report.validate(); err != nil {
		return err
	}
	return c.Log.validate()
}

func (r *ReportConfig) validate() error {
	found := false
	for _, s := range pageSizes {
		if strings.EqualFold(s, r.PageSize) {
			r.PageSize = s
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("report.page_size must be one of %s, got %q", strings.Join(pageSizes, ", "), r.PageSize)
	}
	if r.Margin <= 0 {
		return fmt.Errorf("report.margin must be positive, got %v", r.Margin)
	}
	if r.CodeFontSize <= 0 {
		return fmt.Errorf("report.code_font_size must be positive, got %v", r.CodeFontSize)
	}
	if r.CodeLeading <= 0 {
		return fmt.Errorf("report.code_leading must be positive, got %v", r.CodeLeading)
	}
	if r.TabWidth <= 0 {
		return fmt.Errorf("report.tab_width must be positive, got %d", r.TabWidth)
	}
	if r.CodeFont != "" {
		info, err := os.Stat(r.CodeFont)
		if err != nil {
			return fmt.Errorf("report.code_font: %w", err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("report.code_font %s is not a file", r.CodeFont)
		}
	}
	return nil
}

func (l *LogConfig) validate() error {
	l.Level = strings.ToLower(l.Level)
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", l.Level)
	}
	l.Format = strings.ToLower(l.Format)
	if l.Format != "text" && l.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", l.Format)
	}
	return nil
}

// ReportOptions maps the report section onto renderer options.
func (c *Config) ReportOptions() report.Options {
	return report.Options{
		Title:        c.Report.Title,
		Label:        c.Report.Label,
		Layout:       report.Layout(c.Layout),
		PageSize:     c.Report.PageSize,
		Margin:       c.Report.Margin,
		CodeFontSize: c.Report.CodeFontSize,
		CodeLeading:  c.Report.CodeLeading,
		CodeFont:     c.Report.CodeFont,
		TabWidth:     c.Report.TabWidth,
	}
}
