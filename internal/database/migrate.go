package database

import (
	"embed"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func migrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// Migrate applies every pending up migration.
func (s *DB) Migrate() error {
	log := s.log.Function("Migrate")

	sqlDB, err := s.SQL.DB()
	if err != nil {
		return log.Err("failed to get database from GORM", err)
	}

	migrate.SetTable("schema_migrations")
	applied, err := migrate.Exec(sqlDB, "sqlite3", migrationSource(), migrate.Up)
	if err != nil {
		return log.Err("failed to apply migrations", err)
	}

	log.Info("Migrations applied", "count", applied)
	return nil
}

// Rollback reverts the most recent max migrations; max <= 0 reverts all.
func (s *DB) Rollback(max int) (int, error) {
	log := s.log.Function("Rollback")

	sqlDB, err := s.SQL.DB()
	if err != nil {
		return 0, log.Err("failed to get database from GORM", err)
	}

	migrate.SetTable("schema_migrations")
	reverted, err := migrate.ExecMax(sqlDB, "sqlite3", migrationSource(), migrate.Down, max)
	if err != nil {
		return 0, log.Err("failed to roll back migrations", err, "max", max)
	}

	return reverted, nil
}
