package main

import (
	"context"
	"os"

	"github.com/autokat/backend/internal/admin"
	"github.com/autokat/backend/internal/config"
	"github.com/autokat/backend/internal/database"
	"github.com/autokat/backend/internal/logger"
)

func main() {
	// Initialize configuration
	cfg := config.Load()
	if err := logger.Init("", cfg.LogLevel); err != nil {
		logger.Log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	log := logger.Log

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required to seed operator accounts")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	name := os.Getenv("OPERATOR_NAME")
	if name == "" {
		name = admin.DefaultOperator
		log.Infof("Using default operator name: %s", name)
	}

	token := os.Getenv("OPERATOR_TOKEN")
	if token == "" {
		token = "change-me-in-production"
		log.Warn("WARNING: Using default operator token. Set OPERATOR_TOKEN env var in production!")
	}

	displayName := os.Getenv("OPERATOR_DISPLAY_NAME")
	if displayName == "" {
		displayName = "Operator"
	}

	if err := admin.CreateOperatorAccount(ctx, db, name, displayName, token); err != nil {
		log.Fatalf("Failed to create operator account: %v", err)
	}

	log.Info("Operator account created/updated successfully")
	log.Infof("  Name: %s", name)
	log.Infof("  Display Name: %s", displayName)
	log.Info("Log in with POST /api/v1/operator/login {\"name\", \"token\"}")
}
