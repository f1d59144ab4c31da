package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-pagelayout/internal/logging"
	"github.com/goliatone/go-pagelayout/pkg/interfaces"
	"github.com/uptrace/bun"
)

const trackingTable = "pagelayout_migrations"

// Migration is one ordered schema step.
type Migration struct {
	Name string
	SQL  string
}

// Load reads every .sql file under dir in fsys and returns them sorted by
// filename, which encodes the apply order.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: read %s: %w", dir, err)
	}

	out := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		raw, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migrations: read %s: %w", entry.Name(), err)
		}
		out = append(out, Migration{Name: entry.Name(), SQL: string(raw)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Runner applies migrations at startup and tracks them in a bookkeeping
// table, so schema setup happens once per database instead of lazily on the
// write path.
type Runner struct {
	db     *bun.DB
	logger interfaces.Logger
	now    func() time.Time
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithLogger attaches a logger to the runner.
func WithLogger(logger interfaces.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner builds a migration runner for the supplied database.
func NewRunner(db *bun.DB, opts ...RunnerOption) *Runner {
	runner := &Runner{
		db:     db,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Apply runs every migration from fsys/dir that has not been applied yet.
// Each migration executes inside its own transaction together with its
// bookkeeping row.
func (r *Runner) Apply(ctx context.Context, fsys fs.FS, dir string) error {
	if r.db == nil {
		return fmt.Errorf("migrations: database not configured")
	}

	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, applied_at TIMESTAMP NOT NULL)", trackingTable,
	)); err != nil {
		return fmt.Errorf("migrations: ensure tracking table: %w", err)
	}

	steps, err := Load(fsys, dir)
	if err != nil {
		return err
	}

	applied, err := r.appliedSet(ctx)
	if err != nil {
		return err
	}

	for _, step := range steps {
		if applied[step.Name] {
			continue
		}
		if err := r.applyOne(ctx, step); err != nil {
			return fmt.Errorf("migrations: apply %s: %w", step.Name, err)
		}
		r.logger.Info("migration applied", "name", step.Name)
	}
	return nil
}

func (r *Runner) appliedSet(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT name FROM %s", trackingTable))
	if err != nil {
		return nil, fmt.Errorf("migrations: list applied: %w", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func (r *Runner) applyOne(ctx context.Context, step Migration) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, statement := range splitStatements(step.SQL) {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (name, applied_at) VALUES (?, ?)", trackingTable),
			step.Name, r.now().UTC(),
		)
		return err
	})
}

// splitStatements breaks a migration file into individual statements. The
// files use one top-level statement per semicolon and carry no procedural
// bodies, so a plain split is sufficient.
func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
