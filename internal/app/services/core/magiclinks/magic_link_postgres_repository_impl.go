package magiclinks

import (
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/app/models"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/exceptions"
	"carelink-service/internal/pkg/queries"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// pgxPool is satisfied by *pgxpool.Pool and pgxmock.PgxPoolIface.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type magicLinkPostgresRepository struct {
	DB  pgxPool
	Log *zap.Logger
}

func NewMagicLinkPostgresRepository(db pgxPool, logger *zap.Logger) contracts.MagicLinkRepository {
	return &magicLinkPostgresRepository{
		DB:  db,
		Log: logger,
	}
}

func (repo *magicLinkPostgresRepository) Create(ctx context.Context, link *models.MagicLink) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	_, err := repo.DB.Exec(ctx, queries.CreateMagicLinkQuery,
		link.ID,
		link.Email,
		link.IssuedAt,
		link.ExpiresAt,
		derefString(link.RequestIP),
		derefString(link.UserAgent),
	)
	if err != nil {
		repo.Log.Error("magicLinkPostgresRepository.Create error executing query",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingLinkIDKey, link.ID),
			zap.Error(err),
		)
		return exceptions.ErrPostgresDBInsertData(err)
	}

	repo.Log.Info("magicLinkPostgresRepository.Create succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingLinkIDKey, link.ID),
	)
	return nil
}

// CheckAndConsume marks the link consumed in one conditional UPDATE. When no
// row changes, a read-only lookup tells an already used link from a missing one.
func (repo *magicLinkPostgresRepository) CheckAndConsume(ctx context.Context, linkID string, now time.Time) (models.ConsumeResult, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	if _, err := uuid.Parse(linkID); err != nil {
		return models.ConsumeResultNotFound, nil
	}

	var email string
	err := repo.DB.QueryRow(ctx, queries.ConsumeMagicLinkQuery, linkID, now).Scan(&email)
	if err == nil {
		repo.Log.Info("magicLinkPostgresRepository.CheckAndConsume consumed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingLinkIDKey, linkID),
		)
		return models.ConsumeResultConsumed, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		repo.Log.Error("magicLinkPostgresRepository.CheckAndConsume error executing update",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingLinkIDKey, linkID),
			zap.Error(err),
		)
		return 0, exceptions.ErrPostgresDBUpdateData(err)
	}

	var consumed bool
	err = repo.DB.QueryRow(ctx, queries.FindMagicLinkConsumedFlagQuery, linkID).Scan(&consumed)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return models.ConsumeResultNotFound, nil
	case err != nil:
		repo.Log.Error("magicLinkPostgresRepository.CheckAndConsume error reading link state",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingLinkIDKey, linkID),
			zap.Error(err),
		)
		return 0, exceptions.ErrPostgresDBFindData(err)
	case consumed:
		return models.ConsumeResultAlreadyUsed, nil
	default:
		err = fmt.Errorf("link %s is unconsumed but the conditional update matched no row", linkID)
		repo.Log.Error("magicLinkPostgresRepository.CheckAndConsume inconsistent link state",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingLinkIDKey, linkID),
		)
		return 0, exceptions.ErrPostgresDBUpdateData(err)
	}
}

func (repo *magicLinkPostgresRepository) FindByID(ctx context.Context, linkID string) (*models.MagicLink, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	if _, err := uuid.Parse(linkID); err != nil {
		return nil, exceptions.ErrMagicLinkNotFound(err)
	}

	link, err := scanMagicLink(repo.DB.QueryRow(ctx, queries.FindMagicLinkByIDQuery, linkID))
	if errors.Is(err, pgx.ErrNoRows) {
		repo.Log.Warn("magicLinkPostgresRepository.FindByID no rows found",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingLinkIDKey, linkID),
		)
		return nil, exceptions.ErrMagicLinkNotFound(err)
	} else if err != nil {
		repo.Log.Error("magicLinkPostgresRepository.FindByID error executing query",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingLinkIDKey, linkID),
			zap.Error(err),
		)
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return link, nil
}

func (repo *magicLinkPostgresRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time, limit int, archive func([]models.MagicLink) error) (int, error) {
	tx, err := repo.DB.Begin(ctx)
	if err != nil {
		repo.Log.Error("magicLinkPostgresRepository.DeleteExpiredBefore error opening transaction", zap.Error(err))
		return 0, exceptions.ErrPostgresDBDeleteData(err)
	}

	rows, err := tx.Query(ctx, queries.DeleteExpiredMagicLinksQuery, cutoff, limit)
	if err != nil {
		repo.rollback(ctx, tx)
		repo.Log.Error("magicLinkPostgresRepository.DeleteExpiredBefore error executing query", zap.Error(err))
		return 0, exceptions.ErrPostgresDBDeleteData(err)
	}

	var links []models.MagicLink
	for rows.Next() {
		link, err := scanMagicLink(rows)
		if err != nil {
			rows.Close()
			repo.rollback(ctx, tx)
			repo.Log.Error("magicLinkPostgresRepository.DeleteExpiredBefore error scanning row", zap.Error(err))
			return 0, exceptions.ErrPostgresDBIterateDataset(err)
		}
		links = append(links, *link)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		repo.rollback(ctx, tx)
		repo.Log.Error("magicLinkPostgresRepository.DeleteExpiredBefore rows iteration error", zap.Error(err))
		return 0, exceptions.ErrPostgresDBIterateDataset(err)
	}

	if len(links) == 0 {
		repo.rollback(ctx, tx)
		return 0, nil
	}

	if err := archive(links); err != nil {
		repo.rollback(ctx, tx)
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		repo.Log.Error("magicLinkPostgresRepository.DeleteExpiredBefore error committing transaction", zap.Error(err))
		return 0, exceptions.ErrPostgresDBDeleteData(err)
	}

	repo.Log.Info("magicLinkPostgresRepository.DeleteExpiredBefore succeeded",
		zap.Int(constvars.LoggingReapedCountKey, len(links)),
	)
	return len(links), nil
}

func (repo *magicLinkPostgresRepository) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		repo.Log.Warn("magicLinkPostgresRepository rollback failed", zap.Error(err))
	}
}

func scanMagicLink(row pgx.Row) (*models.MagicLink, error) {
	var (
		link       models.MagicLink
		consumed   bool
		consumedAt time.Time
		requestIP  string
		userAgent  string
	)
	err := row.Scan(
		&link.ID,
		&link.Email,
		&link.IssuedAt,
		&link.ExpiresAt,
		&consumed,
		&consumedAt,
		&requestIP,
		&userAgent,
	)
	if err != nil {
		return nil, err
	}

	if consumed {
		link.ConsumedAt = &consumedAt
	}
	if requestIP != "" {
		link.RequestIP = &requestIP
	}
	if userAgent != "" {
		link.UserAgent = &userAgent
	}
	return &link, nil
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
