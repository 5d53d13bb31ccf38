package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/colscan/internal/column"
	"github.com/roach88/colscan/internal/config"
	"github.com/roach88/colscan/internal/offsets"
	"github.com/roach88/colscan/internal/scan"
	"github.com/roach88/colscan/internal/zone"
)

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}
	return cfg, nil
}

// session is the read-only state shared by every query of one command:
// the offset store, the zone map and the engine over them.
type session struct {
	cfg    config.Config
	store  *offsets.Store
	zones  *zone.Map
	engine *scan.Engine
}

// openSession indexes the configured column store.
func openSession(ctx context.Context, cfg config.Config) (*session, error) {
	dir := column.Dir(cfg.DataDir)
	store := offsets.NewStore(dir, offsets.WithSidecar(cfg.IndexCache))
	if err := store.Build(ctx); err != nil {
		return nil, fmt.Errorf("index column store %s: %w", cfg.DataDir, err)
	}
	zones, err := zone.Build(dir.Path(column.Month))
	if err != nil {
		return nil, fmt.Errorf("build zone map: %w", err)
	}
	if !zones.Sorted() {
		slog.Warn("month column is not sorted; zoned strategies will scan the full range", "dir", cfg.DataDir)
	}
	slog.Debug("session ready", "rows", store.Rows(), "zones", zones.Len())

	return &session{
		cfg:    cfg,
		store:  store,
		zones:  zones,
		engine: scan.NewEngine(scan.NewScanner(store), zones),
	}, nil
}

// strategies resolves a --strategy value. "all" selects the configured list.
func (s *session) strategies(name string) ([]scan.Strategy, error) {
	names := []string{name}
	if name == "" || name == "all" {
		names = s.cfg.Strategies
	}
	out := make([]scan.Strategy, 0, len(names))
	for _, n := range names {
		st, err := scan.ParseStrategy(n)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
