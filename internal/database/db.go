package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/multilingual-news-api/internal/config"
	"github.com/rs/zerolog"
)

const maxConnectBackoff = 10 * time.Second

// DB is the article store's connection pool plus schema helpers
type DB struct {
	*sqlx.DB
	log zerolog.Logger
}

// New opens the pool and waits for PostgreSQL to answer, retrying up to
// cfg.ConnectAttempts times with doubling backoff.
func New(cfg *config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	wrapper := &DB{
		DB:  db,
		log: log.With().Str("component", "database").Logger(),
	}

	if err := wrapper.waitReady(cfg.ConnectAttempts); err != nil {
		db.Close()
		return nil, err
	}

	wrapper.log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Name).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Database connection established")

	return wrapper, nil
}

func (db *DB) waitReady(attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	backoff := time.Second
	var err error
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}

		db.log.Warn().Err(err).Int("attempt", i).Dur("retry_in", backoff).Msg("Database not ready")
		time.Sleep(backoff)
		if backoff *= 2; backoff > maxConnectBackoff {
			backoff = maxConnectBackoff
		}
	}
	return fmt.Errorf("failed to ping database after %d attempts: %w", attempts, err)
}

// RunMigrations applies every pending migration under migrationsPath
func (db *DB) RunMigrations(migrationsPath string) error {
	return db.migrate(migrationsPath, "up", func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// MigrateDown rolls back the last migration
func (db *DB) MigrateDown(migrationsPath string) error {
	return db.migrate(migrationsPath, "down", func(m *migrate.Migrate) error {
		return m.Steps(-1)
	})
}

// MigrateToVersion moves the schema up or down to version
func (db *DB) MigrateToVersion(migrationsPath string, version uint) error {
	return db.migrate(migrationsPath, fmt.Sprintf("goto %d", version), func(m *migrate.Migrate) error {
		return m.Migrate(version)
	})
}

// SchemaVersion reports the applied migration version. A fresh database
// reports version 0.
func (db *DB) SchemaVersion(migrationsPath string) (uint, bool, error) {
	m, err := db.migrator(migrationsPath)
	if err != nil {
		return 0, false, err
	}
	return currentVersion(m)
}

// migrate runs step and logs the resulting schema version. ErrNoChange is
// not an error.
func (db *DB) migrate(migrationsPath, action string, step func(*migrate.Migrate) error) error {
	db.log.Info().Str("path", migrationsPath).Str("action", action).Msg("Running database migrations")

	m, err := db.migrator(migrationsPath)
	if err != nil {
		return err
	}

	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", action, err)
	}

	version, dirty, err := currentVersion(m)
	if err != nil {
		return err
	}
	db.log.Info().
		Str("action", action).
		Uint("version", version).
		Bool("dirty", dirty).
		Msg("Migrations completed")
	return nil
}

func (db *DB) migrator(migrationsPath string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func currentVersion(m *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}

// HealthCheck pings the database
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Stats returns connection pool statistics for /metrics
func (db *DB) Stats() sql.DBStats {
	return db.DB.DB.Stats()
}
