package contracts

import (
	"carelink-service/internal/pkg/dto/requests"
	"carelink-service/internal/pkg/dto/responses"
	"context"
)

type TokenSigner interface {
	Sign(ctx context.Context, input *requests.SignTokenInput) (string, error)
	Verify(ctx context.Context, input *requests.VerifyTokenInput) (*responses.TokenClaims, error)
}
