package contracts

import (
	"carelink-service/internal/pkg/dto/requests"
	"context"
)

type MailerService interface {
	SendEmail(ctx context.Context, request *requests.EmailPayload) (string, error)
}
