package middlewares

import (
	"carelink-service/internal/app/config"
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/app/services/shared/ratelimiter"

	"go.uber.org/zap"
)

type Middlewares struct {
	Log              *zap.Logger
	InternalConfig   *config.InternalConfig
	MagicLinkUsecase contracts.MagicLinkUsecase
	IssuanceLimiter  *ratelimiter.FixedWindowLimiter
	VerifyThrottle   *RateLimiter
}

func NewMiddlewares(logger *zap.Logger, internalConfig *config.InternalConfig, magicLinkUsecase contracts.MagicLinkUsecase, issuanceLimiter *ratelimiter.FixedWindowLimiter, verifyThrottle *RateLimiter) *Middlewares {
	return &Middlewares{
		Log:              logger,
		InternalConfig:   internalConfig,
		MagicLinkUsecase: magicLinkUsecase,
		IssuanceLimiter:  issuanceLimiter,
		VerifyThrottle:   verifyThrottle,
	}
}
