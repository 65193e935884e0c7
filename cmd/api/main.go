package main

import (
	"log"

	"go.uber.org/zap"

	"rbacadmin/internal/config"
	"rbacadmin/internal/db"
	"rbacadmin/internal/httpapi"
	"rbacadmin/internal/logging"
	"rbacadmin/internal/token"
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

	codec := token.NewCodec(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	api, err := httpapi.New(gdb, logger, codec)
	if err != nil {
		logger.Fatal("api setup failed", zap.Error(err))
	}
	guard := httpapi.NewGuard(gdb, codec, api.Resolver(), logger)

	r := httpapi.NewRouter(api, guard, logger, cfg.Debug)
	logger.Info("server listening", zap.String("port", cfg.AppPort))
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
