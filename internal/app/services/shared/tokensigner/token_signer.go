package tokensigner

import (
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/dto/requests"
	"carelink-service/internal/pkg/dto/responses"
	"carelink-service/internal/pkg/exceptions"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds the immutable settings of one signer. Magic link and session
// tokens each get their own signer with a distinct secret.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type tokenSigner struct {
	log      *zap.Logger
	secret   []byte
	issuer   string
	audience string
	clock    func() time.Time
	parser   *jwt.Parser
}

type tokenClaims struct {
	LinkID string `json:"lid,omitempty"`
	Kind   string `json:"knd"`
	jwt.RegisteredClaims
}

func NewTokenSigner(cfg Config, log *zap.Logger) (contracts.TokenSigner, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token signer secret is empty")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("token signer issuer and audience are required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &tokenSigner{
		log:      log,
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		clock:    clock,
		// Time based claims are checked against the signer clock in Verify.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (s *tokenSigner) Sign(ctx context.Context, input *requests.SignTokenInput) (string, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.log.Debug("tokenSigner.Sign called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("kind", input.Kind),
	)

	if strings.TrimSpace(input.Subject) == "" {
		return "", exceptions.ErrTokenSign(errors.New("subject is required"))
	}
	if input.TTL <= 0 {
		return "", exceptions.ErrTokenSign(fmt.Errorf("ttl must be positive, got %s", input.TTL))
	}

	now := s.clock()
	claims := tokenClaims{
		LinkID: input.LinkID,
		Kind:   input.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   input.Subject,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(input.TTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", exceptions.ErrTokenSign(err)
	}
	return signed, nil
}

// Verify checks the signature first, then expiry with zero leeway, then
// issuer and audience. Every failure maps to one of the exceptions.ErrToken*
// sentinels.
func (s *tokenSigner) Verify(ctx context.Context, input *requests.VerifyTokenInput) (*responses.TokenClaims, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.log.Debug("tokenSigner.Verify called", zap.String(constvars.LoggingRequestIDKey, requestID))

	if input == nil || strings.TrimSpace(input.Token) == "" {
		return nil, exceptions.ErrTokenInvalidSignature
	}

	claims := &tokenClaims{}
	_, err := s.parser.ParseWithClaims(input.Token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		s.log.Debug("tokenSigner.Verify rejected token",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrTokenInvalidSignature
	}

	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, exceptions.ErrTokenInvalidSignature
	}

	now := s.clock()
	if !now.Before(claims.ExpiresAt.Time) {
		return nil, exceptions.ErrTokenExpired
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return nil, exceptions.ErrTokenInvalidSignature
	}

	if claims.Issuer != s.issuer || !claims.VerifyAudience(s.audience, true) {
		return nil, exceptions.ErrTokenAudienceMismatch
	}

	return &responses.TokenClaims{
		Subject:   claims.Subject,
		LinkID:    claims.LinkID,
		Kind:      claims.Kind,
		TokenID:   claims.ID,
		Issuer:    claims.Issuer,
		Audience:  s.audience,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
