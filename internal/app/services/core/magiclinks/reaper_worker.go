package magiclinks

import (
	"carelink-service/internal/app/config"
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/app/models"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/utils"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxSweepBatches bounds the work one tick can do.
const maxSweepBatches = 20

type archivedBatch struct {
	ArchivedAt time.Time          `json:"archived_at"`
	Cutoff     time.Time          `json:"cutoff"`
	Links      []models.MagicLink `json:"links"`
}

// ReaperWorker periodically archives and removes links that expired unconsumed.
type ReaperWorker struct {
	log      *zap.Logger
	cfg      config.AppReaper
	locker   contracts.LockerService
	repo     contracts.MagicLinkRepository
	storage  contracts.ObjectStorage
	clock    func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewReaperWorker(log *zap.Logger, cfg *config.InternalConfig, lockerSvc contracts.LockerService, repo contracts.MagicLinkRepository, storage contracts.ObjectStorage) *ReaperWorker {
	return &ReaperWorker{
		log:     log.Named(constvars.LoggingWorkerReaperName),
		cfg:     cfg.Reaper,
		locker:  lockerSvc,
		repo:    repo,
		storage: storage,
		clock:   time.Now,
		stop:    make(chan struct{}),
	}
}

// Start begins the ticker loop. It returns a stop function to halt execution.
func (w *ReaperWorker) Start(ctx context.Context) (stop func()) {
	interval := time.Duration(w.cfg.IntervalInMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	stopped := make(chan struct{})

	w.log.Info("Magic link reaper started", zap.Duration("interval", interval))

	go func() {
		defer close(stopped)
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-w.stop:
				ticker.Stop()
				return
			case <-ticker.C:
				w.runOnce(ctx, w.clock())
			}
		}
	}()

	return func() {
		w.stopOnce.Do(func() { close(w.stop) })
		<-stopped
	}
}

func (w *ReaperWorker) runOnce(ctx context.Context, now time.Time) {
	lockTTL := time.Duration(w.cfg.LockTTLInSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}

	acquired, lockValue, err := w.locker.TryLock(ctx, w.cfg.LockKey, lockTTL)
	if err != nil {
		w.log.Warn("reaper: lock attempt failed", zap.String(constvars.LoggingLockKey, w.cfg.LockKey), zap.Error(err))
		return
	}
	if !acquired {
		w.log.Debug("reaper: lock held by another instance", zap.String(constvars.LoggingLockKey, w.cfg.LockKey))
		return
	}
	defer func() {
		if err := w.locker.Unlock(ctx, w.cfg.LockKey, lockValue); err != nil {
			w.log.Warn("reaper: unlock failed", zap.String(constvars.LoggingLockKey, w.cfg.LockKey), zap.Error(err))
		}
	}()

	timeout := time.Duration(w.cfg.SweepTimeoutInSecond) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	sweepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reaped, err := w.Sweep(sweepCtx, now)
	if err != nil {
		w.log.Error("reaper: sweep stopped early",
			zap.Int(constvars.LoggingReapedCountKey, reaped),
			zap.Error(err),
		)
		return
	}
	w.log.Info("reaper: sweep finished", zap.Int(constvars.LoggingReapedCountKey, reaped))
}

// Sweep archives then deletes expired links in batches until none remain or
// the batch cap is reached. Rows of a batch whose archive fails stay in place.
func (w *ReaperWorker) Sweep(ctx context.Context, now time.Time) (int, error) {
	retention := time.Duration(w.cfg.RetentionInHours) * time.Hour
	cutoff := now.Add(-retention)
	batchSize := w.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	total := 0
	for batch := 0; batch < maxSweepBatches; batch++ {
		objectName := utils.GenerateArchiveObjectName(w.cfg.ArchiveObjectPrefix, now, batch)
		n, err := w.repo.DeleteExpiredBefore(ctx, cutoff, batchSize, func(links []models.MagicLink) error {
			err := w.storage.PutJSON(ctx, w.cfg.ArchiveBucket, objectName, archivedBatch{
				ArchivedAt: now.UTC(),
				Cutoff:     cutoff.UTC(),
				Links:      links,
			})
			if err != nil {
				w.log.Error("reaper: archive failed, rows kept",
					zap.String(constvars.LoggingBucketNameKey, w.cfg.ArchiveBucket),
					zap.String(constvars.LoggingObjectNameKey, objectName),
					zap.Error(err),
				)
			}
			return err
		})
		total += n
		if err != nil {
			return total, err
		}
		if n < batchSize {
			break
		}
	}
	return total, nil
}
