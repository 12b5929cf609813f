package main

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ccollins476ad/mdlocal/download"
	"github.com/ccollins476ad/mdlocal/fileutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Source        string        `yaml:"source"`         // Directory containing source markdown documents.
	DestDir       string        `yaml:"dest"`           // Directory to write rewritten documents to.
	ImagesDir     string        `yaml:"images"`         // Directory to save images to.
	Pattern       string        `yaml:"pattern"`        // Selects documents in Source.
	BaseURL       string        `yaml:"base_url"`       // Resolves relative references; optional.
	Jobs          int           `yaml:"jobs"`           // Number of fetches to run in parallel per document.
	Timeout       time.Duration `yaml:"timeout"`        // Bounds each fetch.
	RelativeLinks bool          `yaml:"relative_links"` // Link images relative to the output document.
	NoResolve     bool          `yaml:"no_resolve"`     // Don't translate image host page urls.
	Verbose       bool          `yaml:"verbose"`        // True for verbose output.

	baseURL *url.URL // Parsed BaseURL; set by Validate.
}

func defaultConfig() *Config {
	return &Config{
		Source:    "source_markdowns",
		DestDir:   "output",
		ImagesDir: "images",
		Pattern:   "*.md",
		Jobs:      1,
		Timeout:   download.DefaultTimeout,
	}
}

// Validate checks the configuration and prepares derived fields.
func (cfg *Config) Validate() error {
	if cfg.Jobs < 1 {
		return errors.Errorf("invalid jobs value: have=%d want>=1", cfg.Jobs)
	}
	if cfg.Timeout <= 0 {
		return errors.Errorf("invalid timeout: have=%s want>0", cfg.Timeout)
	}
	if !doublestar.ValidatePattern(cfg.Pattern) {
		return errors.Errorf("invalid document pattern: %q", cfg.Pattern)
	}

	cfg.baseURL = nil
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return errors.Errorf("invalid base url: %w", err)
		}
		if !u.IsAbs() || u.Host == "" {
			return errors.Errorf("base url must be absolute: %s", cfg.BaseURL)
		}
		cfg.baseURL = u
	}

	return nil
}

// readConfigFile overlays the settings in a yaml file onto cfg.
func readConfigFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return errors.Errorf("parsing config file: path=%s: %w", path, err)
	}

	return nil
}

// options holds the command line settings. Flags only override the config
// file when given explicitly.
type options struct {
	configFile string
	flags      Config
}

func addRootFlags(cmd *cobra.Command, o *options) {
	cmd.PersistentFlags().StringVarP(&o.configFile, "config", "c", "", "yaml config file")
	cmd.PersistentFlags().BoolVarP(&o.flags.Verbose, "verbose", "v", false, "verbose output")
}

func addFetchFlags(fs *pflag.FlagSet, o *options) {
	def := defaultConfig()
	fs.StringVar(&o.flags.ImagesDir, "images", def.ImagesDir, "directory to save images to")
	fs.StringVar(&o.flags.BaseURL, "base-url", def.BaseURL, "url to resolve relative image references against")
	fs.IntVarP(&o.flags.Jobs, "jobs", "j", def.Jobs, "number of images to fetch in parallel")
	fs.DurationVar(&o.flags.Timeout, "timeout", def.Timeout, "timeout for each image fetch")
	fs.BoolVar(&o.flags.RelativeLinks, "relative-links", def.RelativeLinks, "link images relative to the output document")
	fs.BoolVar(&o.flags.NoResolve, "no-resolve", def.NoResolve, "don't translate image host page urls to image urls")
}

func addBatchFlags(fs *pflag.FlagSet, o *options) {
	def := defaultConfig()
	addFetchFlags(fs, o)
	fs.StringVar(&o.flags.Source, "source", def.Source, "directory containing markdown documents")
	fs.StringVar(&o.flags.DestDir, "dest", def.DestDir, "directory to write processed documents to")
	fs.StringVar(&o.flags.Pattern, "pattern", def.Pattern, "pattern selecting documents in the source directory")
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then explicitly set flags.
func loadConfig(cmd *cobra.Command, o *options) (*Config, error) {
	cfg := defaultConfig()

	if o.configFile != "" {
		if err := readConfigFile(cfg, o.configFile); err != nil {
			return nil, err
		}
	}

	overrides := map[string]func(){
		"source":         func() { cfg.Source = o.flags.Source },
		"dest":           func() { cfg.DestDir = o.flags.DestDir },
		"images":         func() { cfg.ImagesDir = o.flags.ImagesDir },
		"pattern":        func() { cfg.Pattern = o.flags.Pattern },
		"base-url":       func() { cfg.BaseURL = o.flags.BaseURL },
		"jobs":           func() { cfg.Jobs = o.flags.Jobs },
		"timeout":        func() { cfg.Timeout = o.flags.Timeout },
		"relative-links": func() { cfg.RelativeLinks = o.flags.RelativeLinks },
		"no-resolve":     func() { cfg.NoResolve = o.flags.NoResolve },
		"verbose":        func() { cfg.Verbose = o.flags.Verbose },
	}
	for name, apply := range overrides {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			apply()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func checkSourceDir(dir string) error {
	if !fileutil.IsDir(dir) {
		return errors.Errorf("source directory does not exist: %s", dir)
	}
	return nil
}

// defaultOutputPath is where the fetch command writes its result unless told
// otherwise: next to the source, with a _preprocessed suffix.
func defaultOutputPath(source string) string {
	return source[:len(source)-len(filepath.Ext(source))] + "_preprocessed.md"
}
