package controllers

import (
	"carelink-service/internal/app/config"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/dto/responses"
	"carelink-service/internal/pkg/utils"
	"net/http"
)

type HealthController struct {
	InternalConfig *config.InternalConfig
}

func NewHealthController(internalConfig *config.InternalConfig) *HealthController {
	return &HealthController{InternalConfig: internalConfig}
}

func (ctrl *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.HealthCheckSuccess, responses.HealthCheck{
		Status:      constvars.ResponseSuccess,
		Environment: ctrl.InternalConfig.App.Env,
		Version:     ctrl.InternalConfig.App.Version,
	})
}
