package routers

import (
	"carelink-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachHealthRoutes(router chi.Router, healthController *controllers.HealthController) {
	router.Get("/healthz", healthController.Healthz)
}
