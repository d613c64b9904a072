package config

import (
	"context"
	"errors"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Bootstrap struct {
	Router         *chi.Mux
	Postgres       *pgxpool.Pool
	Redis          *redis.Client
	Minio          *minio.Client
	Logger         *zap.Logger
	RabbitMQ       *amqp091.Connection
	InternalConfig *InternalConfig
	DriverConfig   *DriverConfig
	// WorkerStop stops the magic link reaper when set.
	WorkerStop func()
}

// Shutdown releases every driver that was opened and keeps going past
// individual failures so later resources still get closed.
func (b *Bootstrap) Shutdown(ctx context.Context) error {
	var errs []error

	if b.WorkerStop != nil {
		b.WorkerStop()
		b.Logger.Info("Successfully stopped background workers")
	}

	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			errs = append(errs, err)
		} else {
			b.Logger.Info("Successfully closing Redis")
		}
	}

	if b.RabbitMQ != nil && !b.RabbitMQ.IsClosed() {
		if err := b.RabbitMQ.Close(); err != nil {
			errs = append(errs, err)
		} else {
			b.Logger.Info("Successfully closing RabbitMQ")
		}
	}

	if b.Postgres != nil {
		b.Postgres.Close()
		b.Logger.Info("Successfully closing Postgres")
	}

	if ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}

	b.Logger.Info("Successfully closing Logger")
	// Sync on stdout/stderr returns EINVAL on some platforms.
	_ = b.Logger.Sync()

	return errors.Join(errs...)
}
