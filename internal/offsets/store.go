package offsets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/colscan/internal/column"
)

// Store holds the offset tables of one column store for a query session.
// A Store is read-only after Build returns and may be shared by any number of
// sequential scans.
type Store struct {
	dir     column.Dir
	sidecar bool
	tables  map[column.Name]*Table
	rows    int
}

// Option configures a Store.
type Option func(*Store)

// WithSidecar enables loading and saving cached tables next to the column
// files.
func WithSidecar(enabled bool) Option {
	return func(s *Store) { s.sidecar = enabled }
}

// NewStore creates an empty store for dir.
func NewStore(dir column.Dir, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		tables: make(map[column.Name]*Table),
		rows:   -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the column store directory.
func (s *Store) Dir() column.Dir {
	return s.dir
}

// Build indexes the named columns, one goroutine per column. All tables must
// have the same length; a mismatch means the column files are not row-aligned
// and Build fails without changing the store.
func (s *Store) Build(ctx context.Context, names ...column.Name) error {
	if len(names) == 0 {
		names = column.Queried
	}

	built := make([]*Table, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := s.buildOne(name)
			if err != nil {
				return err
			}
			built[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rows := s.rows
	for _, t := range built {
		if rows < 0 {
			rows = t.Len()
			continue
		}
		if t.Len() != rows {
			return &column.Error{
				Code:   column.ErrCodeMisaligned,
				Column: t.Column(),
				Row:    -1,
				Err:    fmt.Errorf("has %d rows, expected %d", t.Len(), rows),
			}
		}
	}

	for _, t := range built {
		s.tables[t.Column()] = t
	}
	s.rows = rows
	return nil
}

func (s *Store) buildOne(name column.Name) (*Table, error) {
	path := s.dir.Path(name)

	if s.sidecar {
		t, err := LoadSidecar(name, path)
		switch {
		case err == nil:
			slog.Debug("offset table loaded from sidecar", "column", name, "rows", t.Len())
			return t, nil
		case errors.Is(err, os.ErrNotExist):
		case errors.Is(err, ErrStaleSidecar):
			slog.Debug("offset sidecar stale, rebuilding", "column", name)
		case column.IsIOFailure(err):
			return nil, err
		default:
			slog.Warn("offset sidecar unreadable, rebuilding", "column", name, "error", err)
		}
	}

	t, err := Build(name, path)
	if err != nil {
		return nil, err
	}
	slog.Debug("offset table built", "column", name, "rows", t.Len())

	if s.sidecar {
		if err := SaveSidecar(t, path); err != nil {
			slog.Warn("failed to save offset sidecar", "column", name, "error", err)
		}
	}
	return t, nil
}

// Table returns the offset table for a column.
func (s *Store) Table(name column.Name) (*Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, column.NewMissingIndexError(name, -1)
	}
	return t, nil
}

// Rows returns the common row count of the indexed columns, or -1 before
// the first successful Build.
func (s *Store) Rows() int {
	return s.rows
}
