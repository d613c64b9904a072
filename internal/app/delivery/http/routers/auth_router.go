package routers

import (
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachAuthRoutes(router chi.Router, middlewares *middlewares.Middlewares, authController contracts.MagicLinkController) {
	router.With(middlewares.IssuanceRateLimit).Post("/magic-link", authController.IssueMagicLink)
	router.With(middlewares.VerifyThrottle.Limit).Post("/verify", authController.VerifyMagicLink)
	router.With(middlewares.RequireSession).Get("/me", authController.Me)
	router.Post("/logout", authController.Logout)
}
