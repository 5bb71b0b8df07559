package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/smartcache/smartcache/pkg/config"
	"github.com/smartcache/smartcache/pkg/infra/database"
	infraLogger "github.com/smartcache/smartcache/pkg/infra/logger"
	_ "github.com/smartcache/smartcache/pkg/infra/migrations"
)

func main() {
	rollback := flag.Bool("rollback", false, "revert the most recently applied migration")
	flag.Parse()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewConsoleLogger()

	if err := config.Load("../../config"); err != nil {
		if !errors.Is(err, config.ErrConfigFileNotFound) {
			logger.Fatalf("failed to load config: %v", err)
		}
		logger.WithError(err).Warn("config file not found")
	}
	cfg := config.GetConfig()

	db, err := database.NewDB(logger, &database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if *rollback {
		id, err := database.NewMigrationsManager(db.DB).RollbackLast(ctx)
		if err != nil {
			logger.Fatalf("rollback failed: %v", err)
		}
		if id == "" {
			logger.Info("no applied migrations to roll back")
			return
		}
		logger.WithField("migration", id).Info("migration rolled back")
		return
	}

	if err := db.Migrate(ctx); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}
}
