package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultFileName is looked up in the working directory when no config
// file is given.
const DefaultFileName = ".plcdoc.yaml"

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"workers":    "workers",
	"ignore":     "ignore",
	"format":     "format",
	"layout":     "layout",
	"progress":   "progress",
	"title":      "report.title",
	"label":      "report.label",
	"page-size":  "report.page_size",
	"code-font":  "report.code_font",
	"tab-width":  "report.tab_width",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// Loader loads configuration with the following priority (highest first):
//  1. Flags that were set on the command line
//  2. Environment variables (PLCDOC_*)
//  3. Config file (File, else .plcdoc.yaml in WorkDir)
//  4. Default values
type Loader struct {
	WorkDir string
	File    string
	Flags   *pflag.FlagSet
}

func NewLoader(workDir string) *Loader {
	return &Loader{WorkDir: workDir}
}

func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	if l.File != "" {
		v.SetConfigFile(l.File)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, ".yaml"))
		v.AddConfigPath(l.WorkDir)
	}
	v.SetConfigType("yaml")

	// PLCDOC_REPORT_PAGE_SIZE overrides report.page_size.
	v.SetEnvPrefix("PLCDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if l.Flags != nil {
		for name, key := range flagKeys {
			f := l.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Only an explicit file has to exist.
		var notFound viper.ConfigFileNotFoundError
		if l.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during
// Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("workers", d.Workers)
	v.SetDefault("ignore", d.Ignore)
	v.SetDefault("format", d.Format)
	v.SetDefault("layout", d.Layout)
	v.SetDefault("progress", d.Progress)

	v.SetDefault("report.title", d.Report.Title)
	v.SetDefault("report.label", d.Report.Label)
	v.SetDefault("report.page_size", d.Report.PageSize)
	v.SetDefault("report.margin", d.Report.Margin)
	v.SetDefault("report.code_font_size", d.Report.CodeFontSize)
	v.SetDefault("report.code_leading", d.Report.CodeLeading)
	v.SetDefault("report.code_font", d.Report.CodeFont)
	v.SetDefault("report.tab_width", d.Report.TabWidth)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
