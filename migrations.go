package pagelayout

import (
	"context"
	"embed"
	"errors"
	"io/fs"

	"github.com/goliatone/go-pagelayout/internal/logging"
	"github.com/goliatone/go-pagelayout/internal/migrations"
)

//go:embed data/sql/migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "data/sql/migrations"

// GetMigrationsFS exposes the embedded schema migrations so hosts that run
// their own migration tooling can fold them in.
func GetMigrationsFS() fs.FS {
	return migrationsFS
}

// ApplyMigrations creates or upgrades the module's schema on the configured
// database. It is idempotent: already applied steps are skipped.
func (m *Module) ApplyMigrations(ctx context.Context) error {
	if m == nil || m.db == nil {
		return errors.New("pagelayout: migrations require a database")
	}
	runner := migrations.NewRunner(m.db, migrations.WithLogger(logging.ModuleLogger(m.provider, "pagelayout.migrations")))
	return runner.Apply(ctx, migrationsFS, migrationsDir)
}
