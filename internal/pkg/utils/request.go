package utils

import (
	"carelink-service/internal/pkg/constvars"
	"context"
	"net"
	"net/http"
	"strings"
)

// GetClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then RemoteAddr.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get(constvars.HeaderXForwardedFor); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get(constvars.HeaderXRealIP)); realIP != "" {
		return realIP
	}
	return GetRemoteIP(r)
}

// GetRemoteIP ignores forwarding headers and returns the peer address host.
func GetRemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func GetRequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	return requestID
}

func GetSessionEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(constvars.CONTEXT_SESSION_EMAIL_KEY).(string)
	return email, ok && email != ""
}

func GetClientIPFromContext(ctx context.Context) string {
	clientIP, _ := ctx.Value(constvars.CONTEXT_CLIENT_IP_KEY).(string)
	return clientIP
}
