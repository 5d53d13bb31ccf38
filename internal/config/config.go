// Package config loads colscan settings from YAML and validates them against
// an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config holds the settings shared by every command.
type Config struct {
	DataDir    string   `yaml:"data_dir" json:"data_dir"`
	OutputDir  string   `yaml:"output_dir" json:"output_dir"`
	HistoryDB  string   `yaml:"history_db" json:"history_db"`
	SortedCSV  string   `yaml:"sorted_csv" json:"sorted_csv"`
	MinArea    float64  `yaml:"min_area" json:"min_area"`
	IndexCache bool     `yaml:"index_cache" json:"index_cache"`
	Strategies []string `yaml:"strategies" json:"strategies"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		DataDir:    "column_store",
		OutputDir:  "output",
		HistoryDB:  "output/history.db",
		SortedCSV:  "output/SortedResalePrices.csv",
		MinArea:    80,
		IndexCache: true,
		Strategies: []string{"normal", "zm", "ss", "zmss"},
	}
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// fields are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = Default().Strategies
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := def.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
