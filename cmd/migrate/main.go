package main

import (
	"flag"

	"github.com/joho/godotenv"
	"github.com/pawpack/backend/internal/config"
	"github.com/pawpack/backend/internal/db"
	"github.com/pawpack/backend/internal/logger"
)

func main() {
	createDB := flag.Bool("create-db", false, "create the configured database if it does not exist")
	flag.Parse()

	envErr := godotenv.Load()
	logger.Initialize()
	if envErr != nil {
		logger.Warn("No .env file found, using system environment variables", nil)
	}

	cfg := config.Load()

	if *createDB {
		if err := db.EnsureDatabase(cfg.Database); err != nil {
			logger.Fatal("Failed to ensure database exists", map[string]interface{}{"error": err.Error()})
		}
	}

	conn, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Running database migrations...", nil)
	if err := db.Migrate(conn); err != nil {
		logger.Fatal("Database migration failed", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Database migrations completed successfully", nil)
}
