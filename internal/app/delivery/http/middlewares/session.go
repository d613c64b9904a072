package middlewares

import (
	"carelink-service/internal/app/services/shared/cookiebinder"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/exceptions"
	"carelink-service/internal/pkg/utils"
	"context"
	"net/http"
)

// RequireSession puts the verified session email in the context or answers 401.
func (m *Middlewares) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionToken, ok := cookiebinder.ReadSessionCookie(r)
		if !ok {
			utils.BuildAuthErrorResponse(m.Log, w, exceptions.ErrSessionMissing(nil), 0)
			return
		}

		email, err := m.MagicLinkUsecase.ValidateSession(r.Context(), sessionToken)
		if err != nil {
			utils.BuildAuthErrorResponse(m.Log, w, err, 0)
			return
		}

		ctx := context.WithValue(r.Context(), constvars.CONTEXT_SESSION_EMAIL_KEY, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
