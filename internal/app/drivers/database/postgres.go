package database

import (
	"carelink-service/internal/app/config"
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func BuildPostgresDSN(driverConfig *config.DriverConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		driverConfig.Postgres.Username,
		driverConfig.Postgres.Password,
		driverConfig.Postgres.Host,
		driverConfig.Postgres.Port,
		driverConfig.Postgres.DbName,
		driverConfig.Postgres.SSLMode,
	)
}

func NewPostgresPool(ctx context.Context, driverConfig *config.DriverConfig, log *zap.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(BuildPostgresDSN(driverConfig))
	if err != nil {
		log.Fatal("Failed to parse postgres connection config", zap.Error(err))
	}
	poolConfig.MaxConns = int32(driverConfig.Postgres.MaxConns)
	poolConfig.MinConns = int32(driverConfig.Postgres.MinConns)
	poolConfig.MaxConnLifetime = time.Duration(driverConfig.Postgres.MaxConnLifetime) * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to open postgres connection pool", zap.Error(err))
	}

	err = pool.Ping(ctx)
	if err != nil {
		log.Fatal("Failed to connect to postgres database", zap.Error(err))
	}

	log.Info("Successfully connected to postgres database")
	return pool
}
