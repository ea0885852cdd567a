package repository

import (
	"context"
	"sync"
	"time"

	"hotelbook/internal/models"
)

// sweepInterval bounds how often expired drafts and rate limit windows are
// removed.
const sweepInterval = time.Minute

// MemoryStateRepository keeps drafts in process. Entries older than ttl are
// treated as missing and dropped by a sweep on the next write.
type MemoryStateRepository struct {
	drafts     sync.Map // visitor id -> memoryDraft
	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry
	nextSweep  time.Time
	ttl        time.Duration
	now        func() time.Time
}

type memoryDraft struct {
	draft     models.BookingDraft
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		rateLimits: make(map[string]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemoryStateRepository) GetDraft(ctx context.Context, visitorID string) (*models.BookingDraft, error) {
	val, ok := r.drafts.Load(visitorID)
	if !ok {
		return nil, nil
	}
	entry := val.(memoryDraft)
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		r.drafts.Delete(visitorID)
		return nil, nil
	}
	draft := entry.draft
	return &draft, nil
}

// SaveDraft stores a copy so callers cannot mutate stored state.
func (r *MemoryStateRepository) SaveDraft(ctx context.Context, draft *models.BookingDraft) error {
	now := r.now()
	r.drafts.Store(draft.VisitorID, memoryDraft{draft: *draft, expiresAt: now.Add(r.ttl)})

	r.mu.Lock()
	r.sweepLocked(now)
	r.mu.Unlock()
	return nil
}

func (r *MemoryStateRepository) ClearDraft(ctx context.Context, visitorID string) error {
	r.drafts.Delete(visitorID)
	return nil
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}

// sweepLocked deletes expired drafts and rate limit windows at most once per
// sweepInterval. r.mu must be held.
func (r *MemoryStateRepository) sweepLocked(now time.Time) {
	if now.Before(r.nextSweep) {
		return
	}
	r.nextSweep = now.Add(sweepInterval)

	for key, entry := range r.rateLimits {
		if now.After(entry.expiresAt) {
			delete(r.rateLimits, key)
		}
	}
	if r.ttl <= 0 {
		return
	}
	r.drafts.Range(func(key, val any) bool {
		if now.After(val.(memoryDraft).expiresAt) {
			// keeps a draft saved again since Range loaded it
			r.drafts.CompareAndDelete(key, val)
		}
		return true
	})
}
