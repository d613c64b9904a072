package magiclinks

import (
	"carelink-service/internal/app/config"
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/app/models"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/dto/requests"
	"carelink-service/internal/pkg/dto/responses"
	"carelink-service/internal/pkg/exceptions"
	"carelink-service/internal/pkg/utils"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type magicLinkUsecase struct {
	Log                 *zap.Logger
	InternalLog         *zap.Logger
	InternalConfig      *config.InternalConfig
	MagicLinkRepository contracts.MagicLinkRepository
	MagicTokenSigner    contracts.TokenSigner
	SessionTokenSigner  contracts.TokenSigner
	MailerService       contracts.MailerService
	SessionListener     contracts.SessionListener
	clock               func() time.Time
}

// NewMagicLinkUsecase wires issuance and verification. sessionListener may be nil.
func NewMagicLinkUsecase(
	logger *zap.Logger,
	internalConfig *config.InternalConfig,
	magicLinkRepository contracts.MagicLinkRepository,
	magicTokenSigner contracts.TokenSigner,
	sessionTokenSigner contracts.TokenSigner,
	mailerService contracts.MailerService,
	sessionListener contracts.SessionListener,
) contracts.MagicLinkUsecase {
	return &magicLinkUsecase{
		Log:                 logger,
		InternalLog:         logger.Named(constvars.LoggingInternalChannel),
		InternalConfig:      internalConfig,
		MagicLinkRepository: magicLinkRepository,
		MagicTokenSigner:    magicTokenSigner,
		SessionTokenSigner:  sessionTokenSigner,
		MailerService:       mailerService,
		SessionListener:     sessionListener,
		clock:               time.Now,
	}
}

// IssueMagicLink only ever fails on malformed input. Every downstream failure
// is logged on the internal channel and reported to the caller as success
// with a nil link.
func (uc *magicLinkUsecase) IssueMagicLink(ctx context.Context, request *requests.IssueMagicLink) (*responses.IssuedMagicLink, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	utils.SanitizeIssueMagicLinkRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		uc.Log.Info("magicLinkUsecase.IssueMagicLink rejected malformed input",
			zap.String(constvars.LoggingRequestIDKey, requestID),
		)
		return nil, exceptions.ErrInputValidation(err)
	}

	ttl := uc.magicLinkTTL()
	now := uc.clock().UTC()
	link := &models.MagicLink{
		ID:        uuid.NewString(),
		Email:     request.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if request.RequestIP != "" {
		link.RequestIP = &request.RequestIP
	}
	if request.UserAgent != "" {
		link.UserAgent = &request.UserAgent
	}

	token, err := uc.MagicTokenSigner.Sign(ctx, &requests.SignTokenInput{
		Subject: link.Email,
		LinkID:  link.ID,
		Kind:    constvars.TokenKindMagic,
		TTL:     ttl,
	})
	if err != nil {
		uc.suppress(ctx, constvars.IssuanceStageSign, link, err)
		return nil, nil
	}

	// The record must exist before the email leaves, or the click finds nothing.
	if err := uc.MagicLinkRepository.Create(ctx, link); err != nil {
		uc.suppress(ctx, constvars.IssuanceStagePersist, link, err)
		return nil, nil
	}

	callbackURL, err := uc.buildCallbackURL(token)
	if err != nil {
		uc.suppress(ctx, constvars.IssuanceStageDispatch, link, exceptions.ErrMagicLinkBuildURL(err))
		return nil, nil
	}

	messageID, err := uc.MailerService.SendEmail(ctx, &requests.EmailPayload{
		Subject: constvars.MagicLinkEmailSubject,
		From:    uc.InternalConfig.Mailer.EmailSender,
		To:      []string{link.Email},
		Body:    fmt.Sprintf(constvars.MagicLinkEmailBody, int(ttl.Minutes()), callbackURL),
		Headers: map[string]string{
			constvars.MailerHeaderKind: constvars.MailerKindMagicLink,
		},
	})
	if err != nil {
		uc.suppress(ctx, constvars.IssuanceStageDispatch, link, err)
		return nil, nil
	}

	uc.Log.Info("magicLinkUsecase.IssueMagicLink succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingLinkIDKey, link.ID),
		zap.String(constvars.LoggingEmailDomainKey, utils.EmailDomain(link.Email)),
		zap.String(constvars.LoggingMessageIDKey, messageID),
	)

	return &responses.IssuedMagicLink{
		LinkID:    link.ID,
		URL:       callbackURL,
		ExpiresAt: link.ExpiresAt,
	}, nil
}

// VerifyMagicLink checks signature and expiry, then token shape, then consumes
// the link, then mints the session. The order is fixed.
func (uc *magicLinkUsecase) VerifyMagicLink(ctx context.Context, request *requests.VerifyMagicLink) (*responses.VerifiedSession, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	utils.SanitizeVerifyMagicLinkRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	claims, err := uc.MagicTokenSigner.Verify(ctx, &requests.VerifyTokenInput{Token: request.Token})
	if err != nil {
		customErr := exceptions.ErrMagicLinkInvalidToken(err)
		if errors.Is(err, exceptions.ErrTokenExpired) {
			customErr = exceptions.ErrMagicLinkExpired(err)
		}
		uc.logVerifyFailure(requestID, customErr)
		return nil, customErr
	}

	if shapeErr := checkMagicClaims(claims); shapeErr != nil {
		customErr := exceptions.ErrMagicLinkInvalidToken(shapeErr)
		uc.logVerifyFailure(requestID, customErr)
		return nil, customErr
	}

	now := uc.clock().UTC()
	result, err := uc.MagicLinkRepository.CheckAndConsume(ctx, claims.LinkID, now)
	if err != nil {
		var customErr *exceptions.CustomError
		if !errors.As(err, &customErr) {
			customErr = exceptions.ErrPostgresDBUpdateData(err)
		}
		return nil, customErr
	}

	switch result {
	case models.ConsumeResultConsumed:
	case models.ConsumeResultAlreadyUsed:
		customErr := exceptions.ErrMagicLinkAlreadyUsed(nil)
		uc.logVerifyFailure(requestID, customErr, zap.String(constvars.LoggingLinkIDKey, claims.LinkID))
		return nil, customErr
	default:
		customErr := exceptions.ErrMagicLinkNotFound(nil)
		uc.logVerifyFailure(requestID, customErr, zap.String(constvars.LoggingLinkIDKey, claims.LinkID))
		return nil, customErr
	}

	sessionTTL := uc.sessionTTL()
	sessionToken, err := uc.SessionTokenSigner.Sign(ctx, &requests.SignTokenInput{
		Subject: claims.Subject,
		Kind:    constvars.TokenKindSession,
		TTL:     sessionTTL,
	})
	if err != nil {
		var customErr *exceptions.CustomError
		if !errors.As(err, &customErr) {
			customErr = exceptions.ErrTokenSign(err)
		}
		return nil, customErr
	}

	if uc.SessionListener != nil {
		if err := uc.SessionListener.OnSessionCreated(ctx, claims.Subject); err != nil {
			uc.Log.Warn("magicLinkUsecase.VerifyMagicLink session listener failed",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingEmailDomainKey, utils.EmailDomain(claims.Subject)),
				zap.Error(err),
			)
		}
	}

	uc.Log.Info("magicLinkUsecase.VerifyMagicLink succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingLinkIDKey, claims.LinkID),
		zap.String(constvars.LoggingEmailDomainKey, utils.EmailDomain(claims.Subject)),
	)

	return &responses.VerifiedSession{
		Email:        claims.Subject,
		SessionToken: sessionToken,
		ExpiresAt:    now.Add(sessionTTL),
	}, nil
}

func (uc *magicLinkUsecase) ValidateSession(ctx context.Context, sessionToken string) (string, error) {
	if sessionToken == "" {
		return "", exceptions.ErrSessionMissing(nil)
	}

	claims, err := uc.SessionTokenSigner.Verify(ctx, &requests.VerifyTokenInput{Token: sessionToken})
	if err != nil {
		return "", exceptions.ErrSessionInvalid(err)
	}
	if claims.Kind != constvars.TokenKindSession {
		return "", exceptions.ErrSessionInvalid(fmt.Errorf(constvars.ErrDevTokenWrongKind, claims.Kind, constvars.TokenKindSession))
	}
	if claims.Subject == "" {
		return "", exceptions.ErrSessionInvalid(errors.New("session token carries no subject"))
	}
	return claims.Subject, nil
}

func checkMagicClaims(claims *responses.TokenClaims) error {
	if claims.Kind != constvars.TokenKindMagic {
		return fmt.Errorf(constvars.ErrDevTokenWrongKind, claims.Kind, constvars.TokenKindMagic)
	}
	if claims.LinkID == "" {
		return errors.New(constvars.ErrDevTokenMissingLinkID)
	}
	if claims.Subject == "" {
		return errors.New("token carries no subject")
	}
	return nil
}

func (uc *magicLinkUsecase) buildCallbackURL(token string) (string, error) {
	callback, err := url.Parse(uc.InternalConfig.App.Origin + constvars.MagicLinkCallbackPath)
	if err != nil {
		return "", err
	}
	if callback.Scheme == "" || callback.Host == "" {
		return "", fmt.Errorf("app origin %q is not absolute", uc.InternalConfig.App.Origin)
	}

	query := callback.Query()
	query.Set(constvars.MagicLinkTokenParam, token)
	callback.RawQuery = query.Encode()
	return callback.String(), nil
}

func (uc *magicLinkUsecase) suppress(ctx context.Context, stage string, link *models.MagicLink, err error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.InternalLog.Error("magicLinkUsecase.IssueMagicLink failure hidden from caller",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIssuanceStageKey, stage),
		zap.String(constvars.LoggingLinkIDKey, link.ID),
		zap.String(constvars.LoggingEmailDomainKey, utils.EmailDomain(link.Email)),
		zap.Bool(constvars.LoggingSuppressedKey, true),
		zap.Error(err),
	)
}

func (uc *magicLinkUsecase) logVerifyFailure(requestID string, err *exceptions.CustomError, fields ...zap.Field) {
	fields = append(fields,
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingVerifyFailureKey, err.DevMessage),
	)
	uc.Log.Info("magicLinkUsecase.VerifyMagicLink rejected token", fields...)
}

func (uc *magicLinkUsecase) magicLinkTTL() time.Duration {
	if uc.InternalConfig.Auth.MagicLinkTTL > 0 {
		return uc.InternalConfig.Auth.MagicLinkTTL
	}
	return constvars.MagicLinkTTL
}

func (uc *magicLinkUsecase) sessionTTL() time.Duration {
	if uc.InternalConfig.Auth.SessionTTL > 0 {
		return uc.InternalConfig.Auth.SessionTTL
	}
	return constvars.SessionTTL
}
