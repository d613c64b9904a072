package main

import (
	"carelink-service/internal/app/config"
	"carelink-service/internal/app/delivery/http/controllers"
	"carelink-service/internal/app/delivery/http/middlewares"
	"carelink-service/internal/app/delivery/http/routers"
	"carelink-service/internal/app/drivers/database"
	"carelink-service/internal/app/drivers/logger"
	mailerDriver "carelink-service/internal/app/drivers/mailer"
	"carelink-service/internal/app/drivers/messaging"
	storageDriver "carelink-service/internal/app/drivers/storage"
	"carelink-service/internal/app/services/core/magiclinks"
	"carelink-service/internal/app/services/shared/cookiebinder"
	"carelink-service/internal/app/services/shared/locker"
	"carelink-service/internal/app/services/shared/mailer"
	"carelink-service/internal/app/services/shared/ratelimiter"
	"carelink-service/internal/app/services/shared/redis"
	"carelink-service/internal/app/services/shared/storage"
	"carelink-service/internal/app/services/shared/tokensigner"
	"carelink-service/internal/migration"
	"carelink-service/internal/pkg/constvars"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig, err := config.NewInternalConfig()
	if err != nil {
		log.Fatalf("Error loading internal config: %v", err)
	}

	zapLogger := logger.NewZapLogger(driverConfig, internalConfig)
	for _, name := range internalConfig.Auth.EphemeralSecrets {
		zapLogger.Warn("Signing secret not configured, using a random one for this process",
			zap.String("env_var", name),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bootstrap := config.Bootstrap{
		Router:         chi.NewRouter(),
		Postgres:       database.NewPostgresPool(ctx, driverConfig, zapLogger),
		Logger:         zapLogger,
		InternalConfig: internalConfig,
		DriverConfig:   driverConfig,
	}

	if internalConfig.App.AutoMigrate {
		db := stdlib.OpenDBFromPool(bootstrap.Postgres)
		_, err := migration.Run(db, zapLogger)
		db.Close()
		if err != nil {
			zapLogger.Fatal("Failed to apply database migrations", zap.Error(err))
		}
	}

	if internalConfig.Mailer.Driver == constvars.MailerDriverRabbitMQ {
		bootstrap.RabbitMQ = messaging.NewRabbitMQ(driverConfig, zapLogger)
	}
	if internalConfig.Reaper.Enabled {
		bootstrap.Redis = database.NewRedisClient(ctx, driverConfig, zapLogger)
		bootstrap.Minio = storageDriver.NewMinio(ctx, driverConfig, internalConfig.Reaper.ArchiveBucket, zapLogger)
	}

	err = bootstrapingTheApp(ctx, &bootstrap)
	if err != nil {
		zapLogger.Fatal("Failed to bootstrap the app", zap.Error(err))
	}

	server := &http.Server{
		Addr:              ":" + internalConfig.App.Port,
		Handler:           bootstrap.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Server started", zap.String("address", server.Addr), zap.String("env", internalConfig.App.Env))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	zapLogger.Info("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeoutInSeconds),
	)
	defer shutdownCancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	cancel()
	err = bootstrap.Shutdown(shutdownCtx)
	if err != nil {
		log.Printf("Shutdown finished with errors: %v", err)
	}
	log.Println("Server exiting")
}

func bootstrapingTheApp(ctx context.Context, bootstrap *config.Bootstrap) error {
	cfg := bootstrap.InternalConfig

	// Token signers
	magicTokenSigner, err := tokensigner.NewTokenSigner(tokensigner.Config{
		Secret:   cfg.Auth.MagicLinkSecret,
		Issuer:   cfg.Auth.TokenIssuer,
		Audience: cfg.Auth.TokenAudience,
	}, bootstrap.Logger)
	if err != nil {
		return err
	}
	sessionTokenSigner, err := tokensigner.NewTokenSigner(tokensigner.Config{
		Secret:   cfg.Auth.SessionSecret,
		Issuer:   cfg.Auth.TokenIssuer,
		Audience: cfg.Auth.TokenAudience,
	}, bootstrap.Logger)
	if err != nil {
		return err
	}

	// Mailer
	smtpClient := mailerDriver.NewSMTPClient(bootstrap.DriverConfig)
	mailerService, err := mailer.NewMailerService(cfg, smtpClient, bootstrap.RabbitMQ, bootstrap.Logger)
	if err != nil {
		return err
	}

	// Magic links
	magicLinkRepository := magiclinks.NewMagicLinkPostgresRepository(bootstrap.Postgres, bootstrap.Logger)
	magicLinkUsecase := magiclinks.NewMagicLinkUsecase(
		bootstrap.Logger,
		cfg,
		magicLinkRepository,
		magicTokenSigner,
		sessionTokenSigner,
		mailerService,
		nil,
	)

	// Reaper
	if cfg.Reaper.Enabled {
		redisRepository := redis.NewRedisRepository(bootstrap.Redis)
		lockService := locker.NewLockService(redisRepository, bootstrap.Logger)
		archiveStorage := storage.NewMinioStorage(bootstrap.Minio)
		reaper := magiclinks.NewReaperWorker(bootstrap.Logger, cfg, lockService, magicLinkRepository, archiveStorage)
		bootstrap.WorkerStop = reaper.Start(ctx)
	}

	// Middlewares
	verifyBurst := cfg.Auth.VerifyBurst
	verifyRate := cfg.Auth.VerifyRatePerMin
	if verifyRate <= 0 {
		verifyRate = 1
	}
	issuanceLimiter := ratelimiter.NewFixedWindowLimiter(constvars.IssuanceRateLimitMax, constvars.IssuanceRateLimitWindow)
	verifyThrottle := middlewares.NewRateLimiter(bootstrap.Logger, verifyBurst, time.Minute/time.Duration(verifyRate), cfg.Auth.VerifyBlockPeriod)
	middlewares := middlewares.NewMiddlewares(bootstrap.Logger, cfg, magicLinkUsecase, issuanceLimiter, verifyThrottle)

	// Controllers
	cookieBinder := cookiebinder.NewCookieBinder(cookiebinder.Config{
		Domain:     cfg.Auth.CookieDomain,
		Secure:     cfg.App.IsProduction(),
		CrossSite:  cfg.Auth.CookieCrossSite,
		SessionTTL: cfg.Auth.SessionTTL,
	})
	authController := controllers.NewAuthController(bootstrap.Logger, cfg, magicLinkUsecase, cookieBinder)
	healthController := controllers.NewHealthController(cfg)

	routers.SetupRoutes(bootstrap.Router, cfg, middlewares, authController, healthController)
	return nil
}
