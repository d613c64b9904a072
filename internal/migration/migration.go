package migration

import (
	"database/sql"
	"embed"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

func source() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "sql",
	}
}

// Run applies every pending migration and returns how many were applied.
func Run(db *sql.DB, log *zap.Logger) (int, error) {
	n, err := migrate.Exec(db, "postgres", source(), migrate.Up)
	if err != nil {
		return 0, err
	}

	log.Info("Applied database migrations", zap.Int("count", n))
	return n, nil
}

// Rollback reverts at most max migrations. A max of 0 reverts all of them.
func Rollback(db *sql.DB, max int, log *zap.Logger) (int, error) {
	n, err := migrate.ExecMax(db, "postgres", source(), migrate.Down, max)
	if err != nil {
		return 0, err
	}

	log.Info("Rolled back database migrations", zap.Int("count", n))
	return n, nil
}
