package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pawpack/backend/internal/config"
	"github.com/pawpack/backend/internal/logger"
	"github.com/pawpack/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormWriter sends gorm's SQL error lines through the application logger.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.GetLogger().WithField("component", "gorm").Errorf(format, args...)
}

// GormConfig is shared by every connection. TranslateError maps driver unique
// violations to gorm.ErrDuplicatedKey, which the answer insert relies on.
// Lookups that find nothing are a normal outcome and are not logged.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Error,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	}
}

// Connect opens the Postgres connection.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logger.Info("Database connected successfully", map[string]interface{}{
		"host": cfg.Host,
		"name": cfg.Name,
	})
	return conn, nil
}

// Migrate creates or updates every table the application uses, one model at a time.
func Migrate(conn *gorm.DB) error {
	steps := []struct {
		name  string
		model interface{}
	}{
		{"User", &models.User{}},
		{"Dog", &models.Dog{}},
		{"HealthRecord", &models.HealthRecord{}},
		{"ExpertQuestion", &models.ExpertQuestion{}},
		{"ExpertAnswer", &models.ExpertAnswer{}},
		{"SafetyAlert", &models.SafetyAlert{}},
	}

	for _, step := range steps {
		if err := conn.AutoMigrate(step.model); err != nil {
			return fmt.Errorf("%s migration failed: %w", step.name, err)
		}
		logger.Debug("Table migrated", map[string]interface{}{"model": step.name})
	}

	logger.Info("All database migrations completed successfully", nil)
	return nil
}

// EnsureDatabase creates the configured database when it does not exist yet.
func EnsureDatabase(cfg config.DatabaseConfig) error {
	maint, err := sql.Open("postgres", cfg.MaintenanceDSN())
	if err != nil {
		return fmt.Errorf("failed to open maintenance connection: %w", err)
	}
	defer maint.Close()

	var exists bool
	err = maint.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check database %q: %w", cfg.Name, err)
	}
	if exists {
		return nil
	}

	if _, err := maint.Exec("CREATE DATABASE " + pq.QuoteIdentifier(cfg.Name)); err != nil {
		return fmt.Errorf("failed to create database %q: %w", cfg.Name, err)
	}
	logger.Info("Database created", map[string]interface{}{"name": cfg.Name})
	return nil
}

// Ping reports whether the connection is alive.
func Ping(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("database connection not initialized")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
