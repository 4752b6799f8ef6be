// Package migration applies the embedded schema with golang-migrate.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Config содержит настройки для миграций
type Config struct {
	MigrationsPath string
	MigrationsFS   fs.FS
}

// Migrator выполняет миграции базы данных
type Migrator struct {
	config Config
	name   string
	// openDriver открывает новый драйвер на каждый запуск: migrate закрывает его вместе с *sql.DB.
	openDriver func() (database.Driver, error)
	logger     *zap.Logger
}

// NewPostgresMigrator migrates through a database/sql view of the pgx pool.
func NewPostgresMigrator(config Config, pool *pgxpool.Pool, logger *zap.Logger) *Migrator {
	return &Migrator{
		config: config,
		name:   "postgres",
		openDriver: func() (database.Driver, error) {
			db := stdlib.OpenDBFromPool(pool)
			driver, err := postgres.WithInstance(db, &postgres.Config{
				MigrationsTable:       "schema_migrations",
				MigrationsTableQuoted: true,
			})
			if err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to create postgres driver: %w", err)
			}
			return driver, nil
		},
		logger: logger.Named("Migrator"),
	}
}

// NewSQLiteMigrator opens its own connection by DSN so that the application's *sql.DB stays open.
func NewSQLiteMigrator(config Config, dsn string, logger *zap.Logger) *Migrator {
	return &Migrator{
		config: config,
		name:   "sqlite",
		openDriver: func() (database.Driver, error) {
			db, err := sql.Open("sqlite", dsn)
			if err != nil {
				return nil, fmt.Errorf("failed to open sqlite db: %w", err)
			}
			driver, err := sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: "schema_migrations"})
			if err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
			}
			return driver, nil
		},
		logger: logger.Named("Migrator"),
	}
}

// Up применяет все доступные миграции
func (m *Migrator) Up() error {
	migrator, err := m.createMigrator()
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	m.logger.Info("Database migrations applied",
		zap.String("driver", m.name),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Down откатывает все миграции
func (m *Migrator) Down() error {
	migrator, err := m.createMigrator()
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}
	m.logger.Info("Database migrations rolled back", zap.String("driver", m.name))
	return nil
}

// Version возвращает текущую версию миграции
func (m *Migrator) Version() (uint, bool, error) {
	migrator, err := m.createMigrator()
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) createMigrator() (*migrate.Migrate, error) {
	source, err := iofs.New(m.config.MigrationsFS, m.config.MigrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	driver, err := m.openDriver()
	if err != nil {
		_ = source.Close()
		return nil, err
	}

	migrator, err := migrate.NewWithInstance("iofs", source, m.name, driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	migrator.LockTimeout = 30 * time.Second
	return migrator, nil
}
