package config

import (
	"carelink-service/internal/pkg/constvars"
	"time"
)

type InternalConfig struct {
	App      App         `mapstructure:"app"`
	Auth     AppAuth     `mapstructure:"auth"`
	Mailer   AppMailer   `mapstructure:"mailer"`
	RabbitMQ AppRabbitMQ `mapstructure:"rabbitmq"`
	Reaper   AppReaper   `mapstructure:"reaper"`
}

type App struct {
	Env                        string   `mapstructure:"env"`
	Port                       string   `mapstructure:"port"`
	Version                    string   `mapstructure:"version"`
	Origin                     string   `mapstructure:"origin"`
	EndpointPrefix             string   `mapstructure:"endpoint_prefix"`
	AllowedOrigins             []string `mapstructure:"allowed_origins"`
	MaxRequests                int      `mapstructure:"max_requests"`
	ShutdownTimeoutInSeconds   int      `mapstructure:"shutdown_timeout_in_seconds"`
	RequestBodyLimitInKilobyte int      `mapstructure:"request_body_limit_in_kilobyte"`
	// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP the client address.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
	AutoMigrate       bool `mapstructure:"auto_migrate"`
}

func (a App) IsProduction() bool {
	return a.Env == constvars.APP_ENV_PRODUCTION
}

type AppAuth struct {
	MagicLinkSecret   string        `mapstructure:"magic_link_secret"`
	SessionSecret     string        `mapstructure:"session_secret"`
	TokenIssuer       string        `mapstructure:"token_issuer"`
	TokenAudience     string        `mapstructure:"token_audience"`
	MagicLinkTTL      time.Duration `mapstructure:"magic_link_ttl"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	CookieDomain      string        `mapstructure:"cookie_domain"`
	CookieCrossSite   bool          `mapstructure:"cookie_cross_site"`
	VerifyRatePerMin  int           `mapstructure:"verify_rate_per_minute"`
	VerifyBurst       int           `mapstructure:"verify_burst"`
	VerifyBlockPeriod time.Duration `mapstructure:"verify_block_period"`
	// EphemeralSecrets names every secret generated at startup because its env var was empty.
	EphemeralSecrets []string `mapstructure:"-"`
}

type AppMailer struct {
	Driver      string `mapstructure:"driver"`
	EmailSender string `mapstructure:"email_sender"`
}

type AppRabbitMQ struct {
	MailerQueue string `mapstructure:"mailer_queue"`
}

type AppReaper struct {
	Enabled              bool   `mapstructure:"enabled"`
	IntervalInMinutes    int    `mapstructure:"interval_in_minutes"`
	RetentionInHours     int    `mapstructure:"retention_in_hours"`
	LockKey              string `mapstructure:"lock_key"`
	LockTTLInSeconds     int    `mapstructure:"lock_ttl_in_seconds"`
	ArchiveBucket        string `mapstructure:"archive_bucket"`
	ArchiveObjectPrefix  string `mapstructure:"archive_object_prefix"`
	SweepTimeoutInSecond int    `mapstructure:"sweep_timeout_in_second"`
	BatchSize            int    `mapstructure:"batch_size"`
}
