package magiclinks

import (
	"carelink-service/internal/app/config"
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/app/models"
	"carelink-service/internal/app/services/shared/tokensigner"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/dto/requests"
	"carelink-service/internal/pkg/exceptions"
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testOrigin = "https://app.example.com"

type usecaseFixture struct {
	usecase       *magicLinkUsecase
	clock         *testClock
	mailer        *fakeMailer
	magicSigner   contracts.TokenSigner
	sessionSigner contracts.TokenSigner
	logs          *observer.ObservedLogs
}

func newUsecaseFixture(t *testing.T, repo contracts.MagicLinkRepository, listener contracts.SessionListener) *usecaseFixture {
	t.Helper()

	clock := newTestClock()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	magicSigner, err := tokensigner.NewTokenSigner(tokensigner.Config{
		Secret:   "magic-secret-for-tests",
		Issuer:   "carelink-service",
		Audience: "carelink-app",
		Clock:    clock.Now,
	}, zap.NewNop())
	require.NoError(t, err)

	sessionSigner, err := tokensigner.NewTokenSigner(tokensigner.Config{
		Secret:   "session-secret-for-tests",
		Issuer:   "carelink-service",
		Audience: "carelink-app",
		Clock:    clock.Now,
	}, zap.NewNop())
	require.NoError(t, err)

	internalConfig := &config.InternalConfig{
		App: config.App{Origin: testOrigin},
		Auth: config.AppAuth{
			MagicLinkTTL: constvars.MagicLinkTTL,
			SessionTTL:   constvars.SessionTTL,
		},
		Mailer: config.AppMailer{EmailSender: "no-reply@example.com"},
	}

	mailer := &fakeMailer{}
	uc := NewMagicLinkUsecase(logger, internalConfig, repo, magicSigner, sessionSigner, mailer, listener).(*magicLinkUsecase)
	uc.clock = clock.Now

	return &usecaseFixture{
		usecase:       uc,
		clock:         clock,
		mailer:        mailer,
		magicSigner:   magicSigner,
		sessionSigner: sessionSigner,
		logs:          logs,
	}
}

func tokenFromEmail(t *testing.T, payload *requests.EmailPayload) string {
	t.Helper()
	require.NotNil(t, payload)
	for _, field := range strings.Fields(payload.Body) {
		if !strings.HasPrefix(field, testOrigin) {
			continue
		}
		link, err := url.Parse(field)
		require.NoError(t, err)
		assert.Equal(t, constvars.MagicLinkCallbackPath, link.Path)
		return link.Query().Get(constvars.MagicLinkTokenParam)
	}
	t.Fatalf("no callback link in email body %q", payload.Body)
	return ""
}

func requireStatus(t *testing.T, err error, status int) *exceptions.CustomError {
	t.Helper()
	var customErr *exceptions.CustomError
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, status, customErr.StatusCode)
	return customErr
}

func TestMagicLinkUsecase_IssueMagicLink_CreatesOneRecord(t *testing.T) {
	repo := newMemoryRepository()
	fx := newUsecaseFixture(t, repo, nil)

	issued, err := fx.usecase.IssueMagicLink(context.Background(), &requests.IssueMagicLink{
		Email:     "  User@Example.COM ",
		RequestIP: "203.0.113.7",
		UserAgent: "Mozilla/5.0",
	})
	require.NoError(t, err)
	require.NotNil(t, issued)

	links := repo.all()
	require.Len(t, links, 1)
	link := links[0]
	assert.Equal(t, "user@example.com", link.Email)
	assert.Nil(t, link.ConsumedAt)
	assert.Equal(t, 15*time.Minute, link.ExpiresAt.Sub(link.IssuedAt))
	assert.True(t, link.IssuedAt.Equal(fx.clock.Now()))
	require.NotNil(t, link.RequestIP)
	assert.Equal(t, "203.0.113.7", *link.RequestIP)
	assert.Equal(t, issued.LinkID, link.ID)
	_, err = uuid.Parse(link.ID)
	assert.NoError(t, err)

	sent := fx.mailer.last()
	require.NotNil(t, sent)
	assert.Equal(t, []string{"user@example.com"}, sent.To)
	assert.Equal(t, "no-reply@example.com", sent.From)
	assert.Equal(t, constvars.MailerKindMagicLink, sent.Headers[constvars.MailerHeaderKind])
	assert.Contains(t, sent.Body, issued.URL)

	claims, err := fx.magicSigner.Verify(context.Background(), &requests.VerifyTokenInput{Token: tokenFromEmail(t, sent)})
	require.NoError(t, err)
	assert.Equal(t, link.ID, claims.LinkID)
	assert.Equal(t, constvars.TokenKindMagic, claims.Kind)
	assert.Equal(t, "user@example.com", claims.Subject)
}

func TestMagicLinkUsecase_IssueMagicLink_RepeatRequestsCreateNewRecords(t *testing.T) {
	repo := newMemoryRepository()
	fx := newUsecaseFixture(t, repo, nil)

	for i := 0; i < 3; i++ {
		_, err := fx.usecase.IssueMagicLink(context.Background(), &requests.IssueMagicLink{Email: "user@example.com"})
		require.NoError(t, err)
	}
	assert.Len(t, repo.all(), 3)
}

func TestMagicLinkUsecase_IssueMagicLink_RejectsMalformedEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{name: "empty", email: ""},
		{name: "whitespace only", email: "   "},
		{name: "missing at sign", email: "user.example.com"},
		{name: "missing local part", email: "@example.com"},
		{name: "too long", email: strings.Repeat("a", 243) + "@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockMagicLinkRepository)
			fx := newUsecaseFixture(t, repo, nil)

			issued, err := fx.usecase.IssueMagicLink(context.Background(), &requests.IssueMagicLink{Email: tt.email})
			assert.Nil(t, issued)
			requireStatus(t, err, constvars.StatusBadRequest)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Nil(t, fx.mailer.last())
		})
	}
}

func TestMagicLinkUsecase_IssueMagicLink_SuppressesStoreFailure(t *testing.T) {
	repo := new(mockMagicLinkRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.MagicLink")).
		Return(exceptions.ErrPostgresDBInsertData(errors.New("disk full")))
	fx := newUsecaseFixture(t, repo, nil)

	issued, err := fx.usecase.IssueMagicLink(context.Background(), &requests.IssueMagicLink{Email: "user@example.com"})
	assert.NoError(t, err)
	assert.Nil(t, issued)
	assert.Nil(t, fx.mailer.last(), "email must not leave when the record was not stored")
	repo.AssertExpectations(t)

	entries := fx.logs.FilterLoggerName(constvars.LoggingInternalChannel).All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, true, fields[constvars.LoggingSuppressedKey])
	assert.Equal(t, constvars.IssuanceStagePersist, fields[constvars.LoggingIssuanceStageKey])
	assert.Equal(t, "example.com", fields[constvars.LoggingEmailDomainKey])
}

func TestMagicLinkUsecase_IssueMagicLink_SuppressesDispatchFailure(t *testing.T) {
	repo := newMemoryRepository()
	fx := newUsecaseFixture(t, repo, nil)
	fx.mailer.err = errors.New("provider unavailable")

	issued, err := fx.usecase.IssueMagicLink(context.Background(), &requests.IssueMagicLink{Email: "user@example.com"})
	assert.NoError(t, err)
	assert.Nil(t, issued)
	assert.Len(t, repo.all(), 1)

	entries := fx.logs.FilterLoggerName(constvars.LoggingInternalChannel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, constvars.IssuanceStageDispatch, entries[0].ContextMap()[constvars.LoggingIssuanceStageKey])
}

func TestMagicLinkUsecase_IssueMagicLink_SuppressesBadOrigin(t *testing.T) {
	repo := newMemoryRepository()
	fx := newUsecaseFixture(t, repo, nil)
	fx.usecase.InternalConfig.App.Origin = "not-an-origin"

	issued, err := fx.usecase.IssueMagicLink(context.Background(), &requests.IssueMagicLink{Email: "user@example.com"})
	assert.NoError(t, err)
	assert.Nil(t, issued)
	assert.Nil(t, fx.mailer.last())
}

func TestMagicLinkUsecase_VerifyMagicLink_Flow(t *testing.T) {
	repo := newMemoryRepository()
	listener := new(mockSessionListener)
	listener.On("OnSessionCreated", mock.Anything, "user@example.com").Return(nil).Once()
	fx := newUsecaseFixture(t, repo, listener)
	ctx := context.Background()

	_, err := fx.usecase.IssueMagicLink(ctx, &requests.IssueMagicLink{Email: "user@example.com"})
	require.NoError(t, err)
	token := tokenFromEmail(t, fx.mailer.last())

	fx.clock.Advance(time.Minute)
	session, err := fx.usecase.VerifyMagicLink(ctx, &requests.VerifyMagicLink{Token: token})
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", session.Email)
	assert.True(t, session.ExpiresAt.Equal(fx.clock.Now().Add(7*24*time.Hour)))

	claims, err := fx.sessionSigner.Verify(ctx, &requests.VerifyTokenInput{Token: session.SessionToken})
	require.NoError(t, err)
	assert.Equal(t, constvars.TokenKindSession, claims.Kind)
	assert.Equal(t, 7*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt))

	email, err := fx.usecase.ValidateSession(ctx, session.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)

	links := repo.all()
	require.Len(t, links, 1)
	require.NotNil(t, links[0].ConsumedAt)

	_, err = fx.usecase.VerifyMagicLink(ctx, &requests.VerifyMagicLink{Token: token})
	customErr := requireStatus(t, err, constvars.StatusUnauthorized)
	assert.Equal(t, constvars.ErrClientMagicLinkInvalid, customErr.ClientMessage)
	assert.Contains(t, customErr.DevMessage, constvars.ErrDevMagicLinkAlreadyUsed)

	listener.AssertExpectations(t)
}

func TestMagicLinkUsecase_VerifyMagicLink_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		token   func(t *testing.T, fx *usecaseFixture) string
		wantDev string
	}{
		{
			name: "expired at the boundary",
			token: func(t *testing.T, fx *usecaseFixture) string {
				_, err := fx.usecase.IssueMagicLink(ctx, &requests.IssueMagicLink{Email: "user@example.com"})
				require.NoError(t, err)
				token := tokenFromEmail(t, fx.mailer.last())
				fx.clock.Advance(15 * time.Minute)
				return token
			},
			wantDev: constvars.ErrDevMagicLinkExpired,
		},
		{
			name: "signed with another secret",
			token: func(t *testing.T, fx *usecaseFixture) string {
				token, err := fx.sessionSigner.Sign(ctx, &requests.SignTokenInput{
					Subject: "user@example.com",
					LinkID:  uuid.NewString(),
					Kind:    constvars.TokenKindMagic,
					TTL:     time.Minute,
				})
				require.NoError(t, err)
				return token
			},
			wantDev: constvars.ErrDevMagicLinkInvalid,
		},
		{
			name: "session kind presented as magic link",
			token: func(t *testing.T, fx *usecaseFixture) string {
				token, err := fx.magicSigner.Sign(ctx, &requests.SignTokenInput{
					Subject: "user@example.com",
					LinkID:  uuid.NewString(),
					Kind:    constvars.TokenKindSession,
					TTL:     time.Minute,
				})
				require.NoError(t, err)
				return token
			},
			wantDev: constvars.ErrDevMagicLinkInvalid,
		},
		{
			name: "missing link id",
			token: func(t *testing.T, fx *usecaseFixture) string {
				token, err := fx.magicSigner.Sign(ctx, &requests.SignTokenInput{
					Subject: "user@example.com",
					Kind:    constvars.TokenKindMagic,
					TTL:     time.Minute,
				})
				require.NoError(t, err)
				return token
			},
			wantDev: constvars.ErrDevMagicLinkInvalid,
		},
		{
			name: "valid signature for an unknown link",
			token: func(t *testing.T, fx *usecaseFixture) string {
				token, err := fx.magicSigner.Sign(ctx, &requests.SignTokenInput{
					Subject: "user@example.com",
					LinkID:  uuid.NewString(),
					Kind:    constvars.TokenKindMagic,
					TTL:     time.Minute,
				})
				require.NoError(t, err)
				return token
			},
			wantDev: constvars.ErrDevMagicLinkNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newUsecaseFixture(t, newMemoryRepository(), nil)

			session, err := fx.usecase.VerifyMagicLink(ctx, &requests.VerifyMagicLink{Token: tt.token(t, fx)})
			assert.Nil(t, session)
			customErr := requireStatus(t, err, constvars.StatusUnauthorized)
			assert.Equal(t, constvars.ErrClientMagicLinkInvalid, customErr.ClientMessage)
			assert.Contains(t, customErr.DevMessage, tt.wantDev)
		})
	}
}

func TestMagicLinkUsecase_VerifyMagicLink_MalformedTokenIsValidationError(t *testing.T) {
	fx := newUsecaseFixture(t, newMemoryRepository(), nil)

	_, err := fx.usecase.VerifyMagicLink(context.Background(), &requests.VerifyMagicLink{Token: "not a token"})
	requireStatus(t, err, constvars.StatusBadRequest)
}

func TestMagicLinkUsecase_VerifyMagicLink_StorageErrorIsInternal(t *testing.T) {
	repo := new(mockMagicLinkRepository)
	repo.On("CheckAndConsume", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(models.ConsumeResult(0), exceptions.ErrPostgresDBUpdateData(errors.New("connection refused")))
	fx := newUsecaseFixture(t, repo, nil)

	token, err := fx.magicSigner.Sign(context.Background(), &requests.SignTokenInput{
		Subject: "user@example.com",
		LinkID:  uuid.NewString(),
		Kind:    constvars.TokenKindMagic,
		TTL:     time.Minute,
	})
	require.NoError(t, err)

	_, err = fx.usecase.VerifyMagicLink(context.Background(), &requests.VerifyMagicLink{Token: token})
	requireStatus(t, err, constvars.StatusInternalServerError)
	repo.AssertExpectations(t)
}

func TestMagicLinkUsecase_VerifyMagicLink_ListenerFailureDoesNotBlockLogin(t *testing.T) {
	repo := newMemoryRepository()
	listener := new(mockSessionListener)
	listener.On("OnSessionCreated", mock.Anything, "user@example.com").Return(errors.New("user service down"))
	fx := newUsecaseFixture(t, repo, listener)

	_, err := fx.usecase.IssueMagicLink(context.Background(), &requests.IssueMagicLink{Email: "user@example.com"})
	require.NoError(t, err)

	session, err := fx.usecase.VerifyMagicLink(context.Background(), &requests.VerifyMagicLink{Token: tokenFromEmail(t, fx.mailer.last())})
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", session.Email)
	listener.AssertExpectations(t)
}

func TestMagicLinkUsecase_VerifyMagicLink_ConcurrentClicksYieldOneSession(t *testing.T) {
	repo := newMemoryRepository()
	fx := newUsecaseFixture(t, repo, nil)

	_, err := fx.usecase.IssueMagicLink(context.Background(), &requests.IssueMagicLink{Email: "user@example.com"})
	require.NoError(t, err)
	token := tokenFromEmail(t, fx.mailer.last())

	const attempts = 16
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		successes   int
		alreadyUsed int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := fx.usecase.VerifyMagicLink(context.Background(), &requests.VerifyMagicLink{Token: token})

			mu.Lock()
			defer mu.Unlock()
			var customErr *exceptions.CustomError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &customErr) && strings.Contains(customErr.DevMessage, constvars.ErrDevMagicLinkAlreadyUsed):
				alreadyUsed++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, alreadyUsed)
}

func TestMagicLinkUsecase_ValidateSession(t *testing.T) {
	ctx := context.Background()
	fx := newUsecaseFixture(t, newMemoryRepository(), nil)

	magicToken, err := fx.magicSigner.Sign(ctx, &requests.SignTokenInput{
		Subject: "user@example.com",
		LinkID:  uuid.NewString(),
		Kind:    constvars.TokenKindMagic,
		TTL:     time.Hour,
	})
	require.NoError(t, err)

	wrongKind, err := fx.sessionSigner.Sign(ctx, &requests.SignTokenInput{
		Subject: "user@example.com",
		Kind:    constvars.TokenKindMagic,
		TTL:     time.Hour,
	})
	require.NoError(t, err)

	expiring, err := fx.sessionSigner.Sign(ctx, &requests.SignTokenInput{
		Subject: "user@example.com",
		Kind:    constvars.TokenKindSession,
		TTL:     time.Minute,
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty cookie", token: ""},
		{name: "magic token instead of session", token: magicToken},
		{name: "session signer but magic kind", token: wrongKind},
		{name: "garbage", token: "abc.def.ghi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := fx.usecase.ValidateSession(ctx, tt.token)
			assert.Empty(t, email)
			requireStatus(t, err, constvars.StatusUnauthorized)
		})
	}

	t.Run("expired session", func(t *testing.T) {
		fx.clock.Advance(time.Minute)
		_, err := fx.usecase.ValidateSession(ctx, expiring)
		requireStatus(t, err, constvars.StatusUnauthorized)
	})
}
