package magiclinks

import (
	"carelink-service/internal/app/config"
	"carelink-service/internal/app/models"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingStorage struct {
	mu      sync.Mutex
	objects map[string]archivedBatch
	err     error
}

func (s *recordingStorage) PutJSON(ctx context.Context, bucketName, objectName string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.objects == nil {
		s.objects = make(map[string]archivedBatch)
	}
	s.objects[bucketName+"/"+objectName] = payload.(archivedBatch)
	return nil
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) TryLock(ctx context.Context, key string, expiration time.Duration) (bool, string, error) {
	args := m.Called(ctx, key, expiration)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *mockLocker) Unlock(ctx context.Context, key, lockValue string) error {
	args := m.Called(ctx, key, lockValue)
	return args.Error(0)
}

func testReaperConfig(batchSize int) *config.InternalConfig {
	return &config.InternalConfig{
		Reaper: config.AppReaper{
			Enabled:              true,
			IntervalInMinutes:    60,
			RetentionInHours:     24,
			LockKey:              "lock:magic_link_reaper",
			LockTTLInSeconds:     60,
			ArchiveBucket:        "magic-link-archive",
			ArchiveObjectPrefix:  "magic_links",
			SweepTimeoutInSecond: 5,
			BatchSize:            batchSize,
		},
	}
}

func seedLink(t *testing.T, repo *memoryRepository, expiresAt time.Time, consumed bool) string {
	t.Helper()
	link := &models.MagicLink{
		ID:        uuid.NewString(),
		Email:     "user@example.com",
		IssuedAt:  expiresAt.Add(-15 * time.Minute),
		ExpiresAt: expiresAt,
	}
	if consumed {
		consumedAt := link.IssuedAt.Add(time.Minute)
		link.ConsumedAt = &consumedAt
	}
	require.NoError(t, repo.Create(context.Background(), link))
	return link.ID
}

func TestReaperWorker_Sweep_ArchivesOnlyExpiredUnconsumed(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	repo := newMemoryRepository()
	storage := &recordingStorage{}

	stale := seedLink(t, repo, now.Add(-48*time.Hour), false)
	usedLongAgo := seedLink(t, repo, now.Add(-48*time.Hour), true)
	withinRetention := seedLink(t, repo, now.Add(-2*time.Hour), false)

	worker := NewReaperWorker(zap.NewNop(), testReaperConfig(100), new(mockLocker), repo, storage)
	reaped, err := worker.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	remaining := map[string]bool{}
	for _, link := range repo.all() {
		remaining[link.ID] = true
	}
	assert.False(t, remaining[stale])
	assert.True(t, remaining[usedLongAgo])
	assert.True(t, remaining[withinRetention])

	archived, ok := storage.objects["magic-link-archive/magic_links/2026/03/10/20260310T030000Z-000.json"]
	require.True(t, ok, "archive object missing: %v", storage.objects)
	require.Len(t, archived.Links, 1)
	assert.Equal(t, stale, archived.Links[0].ID)
	assert.True(t, archived.Cutoff.Equal(now.Add(-24*time.Hour)))
}

func TestReaperWorker_Sweep_KeepsRowsWhenArchiveFails(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	repo := newMemoryRepository()
	storage := &recordingStorage{err: errors.New("bucket unavailable")}
	seedLink(t, repo, now.Add(-48*time.Hour), false)

	worker := NewReaperWorker(zap.NewNop(), testReaperConfig(100), new(mockLocker), repo, storage)
	reaped, err := worker.Sweep(context.Background(), now)
	assert.Error(t, err)
	assert.Zero(t, reaped)
	assert.Len(t, repo.all(), 1)
}

func TestReaperWorker_Sweep_Batches(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	repo := newMemoryRepository()
	storage := &recordingStorage{}
	for i := 0; i < 5; i++ {
		seedLink(t, repo, now.Add(-time.Duration(48+i)*time.Hour), false)
	}

	worker := NewReaperWorker(zap.NewNop(), testReaperConfig(2), new(mockLocker), repo, storage)
	reaped, err := worker.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 5, reaped)
	assert.Empty(t, repo.all())
	assert.Len(t, storage.objects, 3)
	for batch := 0; batch < 3; batch++ {
		_, ok := storage.objects[fmt.Sprintf("magic-link-archive/magic_links/2026/03/10/20260310T030000Z-%03d.json", batch)]
		assert.True(t, ok, "batch %d missing", batch)
	}
}

func TestReaperWorker_RunOnce_Locking(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)

	t.Run("skips when another instance holds the lock", func(t *testing.T) {
		repo := newMemoryRepository()
		seedLink(t, repo, now.Add(-48*time.Hour), false)
		locker := new(mockLocker)
		locker.On("TryLock", mock.Anything, "lock:magic_link_reaper", time.Minute).Return(false, "", nil)

		worker := NewReaperWorker(zap.NewNop(), testReaperConfig(100), locker, repo, &recordingStorage{})
		worker.runOnce(context.Background(), now)

		assert.Len(t, repo.all(), 1)
		locker.AssertNotCalled(t, "Unlock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("sweeps and releases its own lock", func(t *testing.T) {
		repo := newMemoryRepository()
		seedLink(t, repo, now.Add(-48*time.Hour), false)
		locker := new(mockLocker)
		locker.On("TryLock", mock.Anything, "lock:magic_link_reaper", time.Minute).Return(true, "owner-1", nil)
		locker.On("Unlock", mock.Anything, "lock:magic_link_reaper", "owner-1").Return(nil)

		worker := NewReaperWorker(zap.NewNop(), testReaperConfig(100), locker, repo, &recordingStorage{})
		worker.runOnce(context.Background(), now)

		assert.Empty(t, repo.all())
		locker.AssertExpectations(t)
	})

	t.Run("lock errors leave rows alone", func(t *testing.T) {
		repo := newMemoryRepository()
		seedLink(t, repo, now.Add(-48*time.Hour), false)
		locker := new(mockLocker)
		locker.On("TryLock", mock.Anything, "lock:magic_link_reaper", time.Minute).Return(false, "", errors.New("redis down"))

		worker := NewReaperWorker(zap.NewNop(), testReaperConfig(100), locker, repo, &recordingStorage{})
		worker.runOnce(context.Background(), now)

		assert.Len(t, repo.all(), 1)
	})
}

func TestReaperWorker_StartStop(t *testing.T) {
	worker := NewReaperWorker(zap.NewNop(), testReaperConfig(100), new(mockLocker), newMemoryRepository(), &recordingStorage{})

	stop := worker.Start(context.Background())
	done := make(chan struct{})
	go func() {
		stop()
		stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}
}
