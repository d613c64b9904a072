package config

import (
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/utils"
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

const ephemeralSecretBytes = 32

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		Postgres: Postgres{
			Host:            utils.GetEnvString("POSTGRES_HOST", "localhost"),
			Port:            utils.GetEnvString("POSTGRES_PORT", "5432"),
			Username:        utils.GetEnvString("POSTGRES_USERNAME", "postgres"),
			Password:        utils.GetEnvString("POSTGRES_PASSWORD", "postgres"),
			DbName:          utils.GetEnvString("POSTGRES_DB_NAME", "carelink"),
			SSLMode:         utils.GetEnvString("POSTGRES_SSL_MODE", "disable"),
			MaxConns:        utils.GetEnvInt("POSTGRES_MAX_CONNS", 10),
			MinConns:        utils.GetEnvInt("POSTGRES_MIN_CONNS", 1),
			MaxConnLifetime: utils.GetEnvInt("POSTGRES_MAX_CONN_LIFETIME_IN_MINUTES", 30),
		},
		Redis: Redis{
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", ""),
			DB:       utils.GetEnvInt("REDIS_DB", 0),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
		RabbitMQ: RabbitMQ{
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "guest"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "guest"),
		},
		Minio: Minio{
			Port:     utils.GetEnvString("MINIO_PORT", "9000"),
			Host:     utils.GetEnvString("MINIO_HOST", "localhost"),
			Username: utils.GetEnvString("MINIO_USERNAME", "minioadmin"),
			Password: utils.GetEnvString("MINIO_PASSWORD", "minioadmin"),
			UseSSL:   utils.GetEnvBool("MINIO_USE_SSL", false),
		},
		SMTP: SMTP{
			Host:     utils.GetEnvString("SMTP_HOST", "localhost"),
			Port:     utils.GetEnvInt("SMTP_PORT", 2525),
			Username: utils.GetEnvString("SMTP_USERNAME", ""),
			Password: utils.GetEnvString("SMTP_PASSWORD", ""),
		},
	}
}

// NewInternalConfig reads application settings once. Signing secrets left
// empty are replaced by random values outside production and rejected in
// production.
func NewInternalConfig() (*InternalConfig, error) {
	cfg := &InternalConfig{
		App: App{
			Env:                        utils.GetEnvString("APP_ENV", constvars.APP_ENV_DEVELOPMENT),
			Port:                       utils.GetEnvString("APP_PORT", "8080"),
			Version:                    utils.GetEnvString("APP_VERSION", constvars.DEFAULT_APP_VERSION),
			Origin:                     strings.TrimRight(utils.GetEnvString("APP_ORIGIN", "http://localhost:3000"), "/"),
			EndpointPrefix:             utils.GetEnvString("APP_ENDPOINT_PREFIX", constvars.DEFAULT_APP_ENDPOINT_PREFIX),
			AllowedOrigins:             utils.GetEnvStringSlice("APP_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			MaxRequests:                utils.GetEnvInt("APP_MAX_REQUEST", 20),
			ShutdownTimeoutInSeconds:   utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT", 10),
			RequestBodyLimitInKilobyte: utils.GetEnvInt("APP_REQUEST_BODY_LIMIT_IN_KILOBYTE", 16),
			TrustProxyHeaders:          utils.GetEnvBool("APP_TRUST_PROXY_HEADERS", false),
			AutoMigrate:                utils.GetEnvBool("APP_AUTO_MIGRATE", false),
		},
		Auth: AppAuth{
			MagicLinkSecret:   utils.GetEnvString("AUTH_MAGIC_LINK_SECRET", ""),
			SessionSecret:     utils.GetEnvString("AUTH_SESSION_SECRET", ""),
			TokenIssuer:       utils.GetEnvString("AUTH_TOKEN_ISSUER", "carelink-service"),
			TokenAudience:     utils.GetEnvString("AUTH_TOKEN_AUDIENCE", "carelink-app"),
			MagicLinkTTL:      constvars.MagicLinkTTL,
			SessionTTL:        constvars.SessionTTL,
			CookieDomain:      utils.GetEnvString("AUTH_COOKIE_DOMAIN", ""),
			CookieCrossSite:   utils.GetEnvBool("AUTH_COOKIE_CROSS_SITE", false),
			VerifyRatePerMin:  utils.GetEnvInt("AUTH_VERIFY_RATE_PER_MINUTE", 30),
			VerifyBurst:       utils.GetEnvInt("AUTH_VERIFY_BURST", 10),
			VerifyBlockPeriod: utils.GetEnvDuration("AUTH_VERIFY_BLOCK_PERIOD", constvars.IssuanceRateLimitWindow),
		},
		Mailer: AppMailer{
			Driver:      utils.GetEnvString("MAILER_DRIVER", constvars.MailerDriverRabbitMQ),
			EmailSender: utils.GetEnvString("MAILER_EMAIL_SENDER", "no-reply@carelink.local"),
		},
		RabbitMQ: AppRabbitMQ{
			MailerQueue: utils.GetEnvString("RABBITMQ_MAILER_QUEUE", "mailer"),
		},
		Reaper: AppReaper{
			Enabled:              utils.GetEnvBool("REAPER_ENABLED", true),
			IntervalInMinutes:    utils.GetEnvInt("REAPER_INTERVAL_MINUTES", 60),
			RetentionInHours:     utils.GetEnvInt("REAPER_RETENTION_HOURS", 24*30),
			LockKey:              utils.GetEnvString("REAPER_LOCK_KEY", "lock:magic_link_reaper"),
			LockTTLInSeconds:     utils.GetEnvInt("REAPER_LOCK_TTL_SECONDS", 300),
			ArchiveBucket:        utils.GetEnvString("REAPER_ARCHIVE_BUCKET", "magic-link-archive"),
			ArchiveObjectPrefix:  utils.GetEnvString("REAPER_ARCHIVE_PREFIX", "magic_links"),
			SweepTimeoutInSecond: utils.GetEnvInt("REAPER_SWEEP_TIMEOUT_SECONDS", 60),
			BatchSize:            utils.GetEnvInt("REAPER_BATCH_SIZE", 500),
		},
	}

	err := cfg.Auth.resolveSecrets(cfg.App.IsProduction())
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *AppAuth) resolveSecrets(isProduction bool) error {
	secrets := []struct {
		name  string
		value *string
	}{
		{name: "AUTH_MAGIC_LINK_SECRET", value: &a.MagicLinkSecret},
		{name: "AUTH_SESSION_SECRET", value: &a.SessionSecret},
	}

	for _, secret := range secrets {
		if *secret.value != "" {
			continue
		}
		if isProduction {
			return fmt.Errorf("%s must be set in production", secret.name)
		}
		generated, err := utils.GenerateRandomSecret(ephemeralSecretBytes)
		if err != nil {
			return fmt.Errorf("generate ephemeral %s: %w", secret.name, err)
		}
		*secret.value = generated
		a.EphemeralSecrets = append(a.EphemeralSecrets, secret.name)
	}

	if a.MagicLinkSecret == a.SessionSecret {
		return errors.New("AUTH_MAGIC_LINK_SECRET and AUTH_SESSION_SECRET must differ")
	}
	return nil
}
