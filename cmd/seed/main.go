package main

import (
	"flag"

	"github.com/joho/godotenv"
	"github.com/pawpack/backend/internal/config"
	"github.com/pawpack/backend/internal/db"
	"github.com/pawpack/backend/internal/logger"
	"github.com/pawpack/backend/internal/seed"
)

func main() {
	usersFile := flag.String("users", "", "path to the seed users JSON file")
	flag.Parse()

	envErr := godotenv.Load()
	logger.Initialize()
	if envErr != nil {
		logger.Warn("No .env file found, using system environment variables", nil)
	}

	cfg := config.Load()
	conn, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Running database migrations...", nil)
	if err := db.Migrate(conn); err != nil {
		logger.Fatal("Database migration failed", map[string]interface{}{"error": err.Error()})
	}

	paths := seed.DefaultUsersPaths
	if *usersFile != "" {
		paths = []string{*usersFile}
	}
	users, err := seed.LoadUsers(paths...)
	if err != nil {
		logger.Fatal("Failed to load seed users", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Seeding database with sample data...", nil)
	if err := seed.Run(conn, users); err != nil {
		logger.Fatal("Seeding failed", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Database seeding completed successfully", nil)
}
