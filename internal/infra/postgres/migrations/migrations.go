package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations holds every schema change. Each numbered file registers its own
// step from init, so the file name is the migration name.
var Migrations = migrate.NewMigrations()

// execSQL runs a script as one migration step.
func execSQL(script string) migrate.MigrationFunc {
	return func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, script)
		return err
	}
}
