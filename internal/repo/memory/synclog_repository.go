package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

var _ ports.SyncLogRepository = (*SyncLogRepository)(nil)

// SyncLogRepository — журнал синхронизации в памяти (append-only).
type SyncLogRepository struct {
	mu      sync.RWMutex
	entries []*domain.SyncLogEntry
	seq     int64
	now     func() time.Time
}

func NewSyncLogRepository() *SyncLogRepository {
	return &SyncLogRepository{now: time.Now}
}

func (r *SyncLogRepository) Append(_ context.Context, entry *domain.SyncLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry.ID = r.seq
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

// List — новые записи первыми.
func (r *SyncLogRepository) List(_ context.Context, f domain.SyncLogFilter) ([]*domain.SyncLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.SyncLogEntry
	for _, e := range r.entries {
		if f.ConfigID != 0 && e.ConfigID != f.ConfigID {
			continue
		}
		if f.Operation != "" && e.Operation != f.Operation {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	if f.Offset >= len(matched) {
		return []*domain.SyncLogEntry{}, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (r *SyncLogRepository) Summary(_ context.Context, configID int64, since time.Time) (*domain.SyncLogSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &domain.SyncLogSummary{ByStatus: make(map[domain.LogStatus]int64)}
	for _, e := range r.entries {
		if configID != 0 && e.ConfigID != configID {
			continue
		}
		s.Total++
		s.ByStatus[e.Status]++
		if !e.CreatedAt.Before(since) {
			s.Recent24h++
		}
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.ByStatus[domain.LogSuccess]) / float64(s.Total) * 100
	}
	return s, nil
}

func (r *SyncLogRepository) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	var removed int64
	for _, e := range r.entries {
		if e.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return removed, nil
}
