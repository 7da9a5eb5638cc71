package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mbsadvocates/site/internal/config"
	"github.com/mbsadvocates/site/internal/domain"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 10 * time.Minute
	pingTimeout     = 5 * time.Second
)

// Open connects to the configured datastore. It returns (nil, nil) when no
// DATABASE_URL is set so callers can run in degraded mode.
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	if cfg.URL == "" {
		log.Warn().Msg("DATABASE_URL not set, datastore unavailable")
		return nil, nil
	}

	var dialector gorm.Dialector
	if cfg.IsPostgres() {
		log.Info().Msg("connecting to PostgreSQL datastore")
		dialector = postgres.Open(cfg.GetPostgresDSN())
	} else {
		log.Info().Msg("connecting to SQLite datastore")
		sqlDB, err := sql.Open("sqlite", cfg.GetSQLitePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		dialector = sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        cfg.GetSQLitePath(),
			Conn:       sqlDB,
		}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		// Never log SQL: submissions carry personal data.
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.IsPostgres() {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
		log.Info().Int("max_open", maxOpenConns).Int("max_idle", maxIdleConns).Msg("connection pool configured")
	} else {
		// A single connection keeps in-memory SQLite databases coherent.
		sqlDB.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database connection test failed: ping failed: %w", err)
	}

	if cfg.AutoMigrate {
		log.Warn().Msg("DB_AUTO_MIGRATE set, migrating tables (development only)")
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	log.Info().Msg("datastore connected")
	return db, nil
}

// Migrate creates the four site tables. Production schemas are owned by the
// hosted datastore; this exists for local SQLite files and tests.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.ContactSubmission{},
		&domain.Testimonial{},
		&domain.TeamMember{},
		&domain.Service{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
