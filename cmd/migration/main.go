package main

import (
	"carelink-service/internal/app/config"
	"carelink-service/internal/app/drivers/database"
	"carelink-service/internal/app/drivers/logger"
	"carelink-service/internal/migration"
	"database/sql"
	"flag"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	maxSteps := flag.Int("max", 1, "maximum migrations to roll back when direction is down, 0 for all")
	flag.Parse()

	internalConfig, err := config.NewInternalConfig()
	if err != nil {
		log.Fatalf("Error loading internal config: %v", err)
	}
	driverConfig := config.NewDriverConfig()

	zapLogger := logger.NewZapLogger(driverConfig, internalConfig)
	defer zapLogger.Sync()

	db, err := sql.Open("pgx", database.BuildPostgresDSN(driverConfig))
	if err != nil {
		zapLogger.Fatal("Failed to open postgres connection", zap.Error(err))
	}
	defer db.Close()

	switch *direction {
	case "up":
		_, err = migration.Run(db, zapLogger)
	case "down":
		_, err = migration.Rollback(db, *maxSteps, zapLogger)
	default:
		zapLogger.Fatal("Unknown migration direction", zap.String("direction", *direction))
	}
	if err != nil {
		zapLogger.Fatal("Failed to execute migrations", zap.Error(err))
	}
}
