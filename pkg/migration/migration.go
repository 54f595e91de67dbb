// Package migration применяет встроенные SQL миграции схемы поверх пула pgx.
package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

const lockTimeout = 30 * time.Second

// Config задает источник миграций.
type Config struct {
	MigrationsPath string
	MigrationsFS   fs.FS
}

// Migrator применяет и откатывает миграции базы данных.
type Migrator struct {
	config Config
	pool   *pgxpool.Pool
}

// NewMigrator создает Migrator поверх существующего пула соединений.
func NewMigrator(config Config, pool *pgxpool.Pool) *Migrator {
	return &Migrator{
		config: config,
		pool:   pool,
	}
}

// Up применяет все недостающие миграции. Отсутствие новых миграций
// ошибкой не считается.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, "up", func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down откатывает все миграции.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, "down", func(mg *migrate.Migrate) error { return mg.Down() })
}

func (m *Migrator) run(_ context.Context, direction string, step func(*migrate.Migrate) error) error {
	migrator, err := m.newMigrate()
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	if err := step(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Str("direction", direction).Msg("database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to run %s migrations: %w", direction, err)
	}

	log.Info().Str("direction", direction).Msg("database migrations applied")
	return nil
}

func (m *Migrator) newMigrate() (*migrate.Migrate, error) {
	db := stdlib.OpenDBFromPool(m.pool)

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(m.config.MigrationsFS, m.config.MigrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, err
	}
	migrator.LockTimeout = lockTimeout

	return migrator, nil
}
