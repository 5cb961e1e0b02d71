package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/linemk/shop/internal/config"
	"github.com/linemk/shop/internal/lib/logger"
)

const migrationsTable = "migrations"

func main() {
	// флаги объявляются до config.MustLoad, который вызывает flag.Parse
	var migrationsPathFlag string
	var down bool
	flag.StringVar(&migrationsPathFlag, "migrations-path", "", "path to migration files")
	flag.BoolVar(&down, "down", false, "roll back all migrations")

	cfg := config.MustLoad()
	log := logger.SetupLogger(cfg.Env)

	migrationsPath := cfg.Migrations.Path
	if migrationsPathFlag != "" {
		migrationsPath = migrationsPathFlag
	}

	if err := run(log, cfg, migrationsPath, down); err != nil {
		log.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg *config.Config, migrationsPath string, down bool) error {
	dsn := cfg.Database.DSN()

	m, err := migrate.New("file://"+migrationsPath, dsn+"&x-migrations-table="+migrationsTable)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	apply, direction := m.Up, "up"
	if down {
		apply, direction = m.Down, "down"
	}

	if err := apply(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate %s: %w", direction, err)
		}
		log.Info("no migrations to apply", slog.String("direction", direction))
	} else {
		log.Info("migrations applied", slog.String("direction", direction), slog.String("path", migrationsPath))
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tables, err := listTables(db)
	if err != nil {
		return err
	}
	log.Info("current tables", slog.Any("tables", tables))
	return nil
}

func listTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
