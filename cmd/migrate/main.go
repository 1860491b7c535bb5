package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/academyhub/paycore/internal/config"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/postgres"
)

func main() {
	// Parse command line flags
	dryRun := flag.Bool("dry-run", false, "List pending migrations without executing them")
	flag.Parse()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)

	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	logger.Info("Running database migrations...")

	pending, err := db.Migrate(ctx, *dryRun)
	if err != nil {
		logger.Fatalw("Failed to apply migrations", "error", err)
	}

	if *dryRun {
		for _, name := range pending {
			fmt.Println(name)
		}
		fmt.Printf("%d migrations pending\n", len(pending))
		return
	}

	fmt.Printf("Migration process completed, %d applied\n", len(pending))
}
