// Package config parses environment and flags for the CORDIS commands.
package config

import (
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings shared by the API server and the CLI.
type Config struct {
	Addr        string            `env:"CORDIS_ADDR" envDefault:":8080"`
	DBPath      string            `env:"CORDIS_DB_PATH" envDefault:"cordis.db"`
	OutputDir   string            `env:"CORDIS_OUTPUT_DIR" envDefault:"output"`
	CacheSize   int               `env:"CORDIS_CACHE_SIZE" envDefault:"4"`
	TopN        int               `env:"CORDIS_TOP_N" envDefault:"10"`
	LoadTimeout time.Duration     `env:"CORDIS_LOAD_TIMEOUT" envDefault:"5m"`
	Datasets    map[string]string `env:"CORDIS_DATASETS" envKeyValSeparator:"=" envDefault:"organismes=jointure_resultat.xlsx,total=cleanbasefinal_with_keywords_v2_virgule_separe.xlsx"`
}

// ParseConfig parses environment and flags into Config. Flags win over the
// environment.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	datasets := datasetFlag{values: cfg.Datasets}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Directory for exported files")
	fs.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "Number of normalized datasets kept in memory")
	fs.IntVar(&cfg.TopN, "top", cfg.TopN, "Length of ranked views")
	fs.DurationVar(&cfg.LoadTimeout, "load-timeout", cfg.LoadTimeout, "Timeout for loading a dataset")
	fs.Var(&datasets, "dataset", "Dataset as name=path, repeatable; replaces the environment list")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if datasets.set {
		cfg.Datasets = datasets.values
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("cache size must be positive, got %d", c.CacheSize))
	}
	if c.TopN < 1 {
		errs = append(errs, fmt.Errorf("top N must be positive, got %d", c.TopN))
	}
	if c.LoadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("load timeout must be positive, got %v", c.LoadTimeout))
	}
	for name, path := range c.Datasets {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(path) == "" {
			errs = append(errs, fmt.Errorf("dataset %q: name and path are required", name))
		}
	}
	return errors.Join(errs...)
}

// DatasetNames returns the configured dataset names sorted.
func (c Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Datasets))
	for name := range c.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// datasetFlag collects repeated -dataset name=path flags.
type datasetFlag struct {
	values map[string]string
	set    bool
}

func (d *datasetFlag) String() string {
	parts := make([]string, 0, len(d.values))
	for name, path := range d.values {
		parts = append(parts, name+"="+path)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (d *datasetFlag) Set(s string) error {
	name, path, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("dataset must be name=path, got %q", s)
	}
	if !d.set {
		d.values = make(map[string]string)
		d.set = true
	}
	d.values[strings.TrimSpace(name)] = strings.TrimSpace(path)
	return nil
}
