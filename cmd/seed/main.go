package main

import (
	"log"

	"go.uber.org/zap"

	"rbacadmin/internal/config"
	"rbacadmin/internal/db"
	"rbacadmin/internal/logging"
	"rbacadmin/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	if err := db.AutoMigrate(gdb); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	if err := seed.Run(gdb, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}
