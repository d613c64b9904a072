package utils

import (
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/dto/responses"
	"carelink-service/internal/pkg/exceptions"
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

func BuildSuccessResponse(w http.ResponseWriter, code int, message string, data interface{}) {
	response := responses.ResponseDTO{
		Success: true,
		Message: message,
		Data:    data,
	}
	w.Header().Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}

func BuildErrorResponse(log *zap.Logger, w http.ResponseWriter, err error) {
	customErr := logCustomError(log, err)

	w.Header().Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)
	w.WriteHeader(customErr.StatusCode)
	response := exceptions.CustomError{
		StatusCode:    customErr.StatusCode,
		Success:       false,
		ClientMessage: customErr.ClientMessage,
	}

	appEnvironment := GetEnvString("APP_ENV", constvars.APP_ENV_DEVELOPMENT)
	if appEnvironment != constvars.APP_ENV_PRODUCTION {
		response.DevMessage = customErr.DevMessage
		response.Locations = customErr.Locations
	}
	json.NewEncoder(w).Encode(response)
}

// BuildAuthResponse writes the {ok, email} body used by the auth routes.
func BuildAuthResponse(w http.ResponseWriter, code int, payload *responses.AuthResponse) {
	w.Header().Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)
	w.Header().Set(constvars.HeaderCacheControl, "no-store")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// BuildAuthErrorResponse writes {ok:false, error} with the client message only.
// A rate limit error with a positive retryAfter also sets Retry-After.
func BuildAuthErrorResponse(log *zap.Logger, w http.ResponseWriter, err error, retryAfterSeconds int) {
	customErr := logCustomError(log, err)
	if customErr.StatusCode == constvars.StatusTooManyRequests && retryAfterSeconds > 0 {
		w.Header().Set(constvars.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	}
	BuildAuthResponse(w, customErr.StatusCode, &responses.AuthResponse{
		OK:    false,
		Error: customErr.ClientMessage,
	})
}

func logCustomError(log *zap.Logger, err error) *exceptions.CustomError {
	var customErr *exceptions.CustomError
	if !errors.As(err, &customErr) {
		log.Error(err.Error())
		return &exceptions.CustomError{
			StatusCode:    constvars.StatusInternalServerError,
			ClientMessage: constvars.ErrClientSomethingWrongWithApplication,
			DevMessage:    err.Error(),
		}
	}

	fields := make([]zap.Field, 0, len(customErr.Locations)+1)
	fields = append(fields, zap.Int("status_code", customErr.StatusCode))
	for _, location := range customErr.Locations {
		fields = append(fields, zap.Any("location", location))
	}
	if customErr.StatusCode >= constvars.StatusInternalServerError {
		log.Error(customErr.DevMessage, fields...)
	} else {
		log.Warn(customErr.DevMessage, fields...)
	}
	return customErr
}
