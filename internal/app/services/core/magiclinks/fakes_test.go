package magiclinks

import (
	"carelink-service/internal/app/models"
	"carelink-service/internal/pkg/dto/requests"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryRepository mirrors the conditional update semantics of the postgres
// repository under a mutex.
type memoryRepository struct {
	mu    sync.Mutex
	links map[string]*models.MagicLink
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{links: make(map[string]*models.MagicLink)}
}

func (r *memoryRepository) Create(ctx context.Context, link *models.MagicLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *link
	r.links[link.ID] = &stored
	return nil
}

func (r *memoryRepository) CheckAndConsume(ctx context.Context, linkID string, now time.Time) (models.ConsumeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[linkID]
	if !ok {
		return models.ConsumeResultNotFound, nil
	}
	if link.IsConsumed() {
		return models.ConsumeResultAlreadyUsed, nil
	}
	consumedAt := now
	link.ConsumedAt = &consumedAt
	return models.ConsumeResultConsumed, nil
}

func (r *memoryRepository) FindByID(ctx context.Context, linkID string) (*models.MagicLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[linkID]
	if !ok {
		return nil, nil
	}
	found := *link
	return &found, nil
}

func (r *memoryRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time, limit int, archive func([]models.MagicLink) error) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []models.MagicLink
	for _, link := range r.links {
		if !link.IsConsumed() && link.ExpiresAt.Before(cutoff) {
			expired = append(expired, *link)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })
	if len(expired) > limit {
		expired = expired[:limit]
	}
	if len(expired) == 0 {
		return 0, nil
	}
	if err := archive(expired); err != nil {
		return 0, err
	}
	for _, link := range expired {
		delete(r.links, link.ID)
	}
	return len(expired), nil
}

func (r *memoryRepository) all() []models.MagicLink {
	r.mu.Lock()
	defer r.mu.Unlock()
	var links []models.MagicLink
	for _, link := range r.links {
		links = append(links, *link)
	}
	return links
}

type mockMagicLinkRepository struct {
	mock.Mock
}

func (m *mockMagicLinkRepository) Create(ctx context.Context, link *models.MagicLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *mockMagicLinkRepository) CheckAndConsume(ctx context.Context, linkID string, now time.Time) (models.ConsumeResult, error) {
	args := m.Called(ctx, linkID, now)
	return args.Get(0).(models.ConsumeResult), args.Error(1)
}

func (m *mockMagicLinkRepository) FindByID(ctx context.Context, linkID string) (*models.MagicLink, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MagicLink), args.Error(1)
}

func (m *mockMagicLinkRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time, limit int, archive func([]models.MagicLink) error) (int, error) {
	args := m.Called(ctx, cutoff, limit, archive)
	return args.Int(0), args.Error(1)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []*requests.EmailPayload
	err  error
}

func (f *fakeMailer) SendEmail(ctx context.Context, payload *requests.EmailPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, payload)
	return "msg-1", nil
}

func (f *fakeMailer) last() *requests.EmailPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

type mockSessionListener struct {
	mock.Mock
}

func (m *mockSessionListener) OnSessionCreated(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
