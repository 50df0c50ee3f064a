package database

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"time"

	"arena-tracker/internal/config"
	"arena-tracker/internal/constants"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// New opens the achievement database, applies pragmas and migrations. A
// file that fails to open or migrate is quarantined (renamed alongside the
// original) and replaced with a fresh database: availability wins over an
// unreadable file, but the quarantined copy keeps the data inspectable.
func New(cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	db, err := open(cfg.DBPath, logger)
	if err == nil {
		return db, nil
	}

	if _, statErr := os.Stat(cfg.DBPath); statErr != nil {
		return nil, err
	}

	quarantine := fmt.Sprintf("%s.corrupt-%d", cfg.DBPath, time.Now().Unix())
	logger.Error().
		Err(err).
		Str("path", cfg.DBPath).
		Str("quarantine", quarantine).
		Msg("database unreadable, quarantining file and starting fresh")

	if renameErr := os.Rename(cfg.DBPath, quarantine); renameErr != nil {
		return nil, fmt.Errorf("quarantine corrupt database: %w", renameErr)
	}

	return open(cfg.DBPath, logger)
}

func open(path string, logger zerolog.Logger) (*sql.DB, error) {
	logger.Info().Str("path", path).Msg("connecting to database")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(constants.DBMaxOpenConns)
	db.SetMaxIdleConns(constants.DBMaxIdleConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBMaxIdleTime)

	if err := optimizeSQLite(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize SQLite: %w", err)
	}
	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Msg("database connection established and optimized")
	return db, nil
}

func runMigrations(db *sql.DB, logger zerolog.Logger) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	logger.Info().Msg("migrations completed successfully")
	return nil
}

func optimizeSQLite(sqlDB *sql.DB, logger zerolog.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"cache_size", "-64000"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
		{"temp_store", "MEMORY"},
	}

	for _, pragma := range pragmas {
		query := fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)
		if _, err := sqlDB.Exec(query); err != nil {
			logger.Warn().
				Err(err).
				Str("pragma", pragma.name).
				Str("value", pragma.value).
				Msg("failed to set pragma")
			return fmt.Errorf("failed to set PRAGMA %s: %w", pragma.name, err)
		}
	}

	return nil
}
