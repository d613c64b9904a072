package contracts

import (
	"carelink-service/internal/app/models"
	"carelink-service/internal/pkg/dto/requests"
	"carelink-service/internal/pkg/dto/responses"
	"context"
	"net/http"
	"time"
)

type MagicLinkController interface {
	IssueMagicLink(w http.ResponseWriter, r *http.Request)
	VerifyMagicLink(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type MagicLinkUsecase interface {
	IssueMagicLink(ctx context.Context, request *requests.IssueMagicLink) (*responses.IssuedMagicLink, error)
	VerifyMagicLink(ctx context.Context, request *requests.VerifyMagicLink) (*responses.VerifiedSession, error)
	ValidateSession(ctx context.Context, sessionToken string) (string, error)
}

type MagicLinkRepository interface {
	Create(ctx context.Context, link *models.MagicLink) error
	CheckAndConsume(ctx context.Context, linkID string, now time.Time) (models.ConsumeResult, error)
	FindByID(ctx context.Context, linkID string) (*models.MagicLink, error)
	// DeleteExpiredBefore removes up to limit unconsumed links that expired
	// before cutoff. The deletion only commits when archive returns nil.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time, limit int, archive func([]models.MagicLink) error) (int, error)
}

// SessionListener is notified after a magic link turns into a session.
// Implementations own user records; errors are logged and never fail the login.
type SessionListener interface {
	OnSessionCreated(ctx context.Context, email string) error
}
