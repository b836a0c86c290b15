package commands

import (
	"fmt"
	"os"

	"github.com/benvon/smart-planner/internal/config"
	"github.com/benvon/smart-planner/internal/database"
	"github.com/google/uuid"
)

func openDatabase() (*config.Config, *database.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return cfg, db, closeFn, nil
}

func parseUserFlag(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("--user is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id %q: %w", value, err)
	}
	return id, nil
}
