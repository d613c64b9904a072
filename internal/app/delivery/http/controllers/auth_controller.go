package controllers

import (
	"carelink-service/internal/app/config"
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/app/services/shared/cookiebinder"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/dto/requests"
	"carelink-service/internal/pkg/dto/responses"
	"carelink-service/internal/pkg/exceptions"
	"carelink-service/internal/pkg/utils"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const authRequestTimeout = 10 * time.Second

type AuthController struct {
	Log              *zap.Logger
	InternalConfig   *config.InternalConfig
	MagicLinkUsecase contracts.MagicLinkUsecase
	CookieBinder     *cookiebinder.CookieBinder
}

func NewAuthController(logger *zap.Logger, internalConfig *config.InternalConfig, magicLinkUsecase contracts.MagicLinkUsecase, cookieBinder *cookiebinder.CookieBinder) contracts.MagicLinkController {
	return &AuthController{
		Log:              logger,
		InternalConfig:   internalConfig,
		MagicLinkUsecase: magicLinkUsecase,
		CookieBinder:     cookieBinder,
	}
}

func (ctrl *AuthController) IssueMagicLink(w http.ResponseWriter, r *http.Request) {
	// Bind body to request
	request := new(requests.IssueMagicLink)
	err := json.NewDecoder(r.Body).Decode(request)
	if err != nil {
		utils.BuildAuthErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err), 0)
		return
	}
	request.RequestIP = utils.GetClientIPFromContext(r.Context())
	request.UserAgent = r.UserAgent()

	ctx, cancel := context.WithTimeout(r.Context(), authRequestTimeout)
	defer cancel()

	issued, err := ctrl.MagicLinkUsecase.IssueMagicLink(ctx, request)
	if err != nil {
		ctrl.writeError(w, err)
		return
	}

	response := &responses.AuthResponse{OK: true}
	if issued != nil && ctrl.debugLinkRequested(r) {
		response.MagicLink = issued.URL
	}
	utils.BuildAuthResponse(w, constvars.StatusOK, response)
}

func (ctrl *AuthController) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	// Bind body to request
	request := new(requests.VerifyMagicLink)
	err := json.NewDecoder(r.Body).Decode(request)
	if err != nil {
		utils.BuildAuthErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authRequestTimeout)
	defer cancel()

	session, err := ctrl.MagicLinkUsecase.VerifyMagicLink(ctx, request)
	if err != nil {
		ctrl.writeError(w, err)
		return
	}

	ctrl.CookieBinder.SetSessionCookie(w, r, session.SessionToken)
	utils.BuildAuthResponse(w, constvars.StatusOK, &responses.AuthResponse{
		OK:    true,
		Email: session.Email,
	})
}

func (ctrl *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	email, ok := utils.GetSessionEmailFromContext(r.Context())
	if !ok {
		utils.BuildAuthErrorResponse(ctrl.Log, w, exceptions.ErrSessionMissing(nil), 0)
		return
	}

	utils.BuildAuthResponse(w, constvars.StatusOK, &responses.AuthResponse{
		OK:    true,
		Email: email,
	})
}

func (ctrl *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	ctrl.CookieBinder.ClearSessionCookie(w, r)
	utils.BuildAuthResponse(w, constvars.StatusOK, &responses.AuthResponse{OK: true})
}

func (ctrl *AuthController) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		err = exceptions.ErrServerDeadlineExceeded(err)
	}
	utils.BuildAuthErrorResponse(ctrl.Log, w, err, 0)
}

// debugLinkRequested is true only in development with X-Debug-Return-Link: 1.
func (ctrl *AuthController) debugLinkRequested(r *http.Request) bool {
	return ctrl.InternalConfig.App.Env == constvars.APP_ENV_DEVELOPMENT &&
		r.Header.Get(constvars.HeaderXDebugReturnLn) == "1"
}
