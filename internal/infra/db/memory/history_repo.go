package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/bryanwahyu/phish-detector/internal/domain/history"
)

// HistoryRepository keeps records in process memory, dipakai kalau driver = memory
type HistoryRepository struct {
	mu      sync.RWMutex
	records []*domain.Record
	limit   int
}

// NewHistoryRepository keeps at most limit records (oldest dropped first); limit <= 0 means unbounded.
func NewHistoryRepository(limit int) *HistoryRepository {
	return &HistoryRepository{limit: limit}
}

func (r *HistoryRepository) Save(_ context.Context, rec *domain.Record) error {
	cp := *rec
	cp.Threats = append([]string{}, rec.Threats...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, &cp)
	if r.limit > 0 && len(r.records) > r.limit {
		r.records = append([]*domain.Record(nil), r.records[len(r.records)-r.limit:]...)
	}
	return nil
}

// Paginate returns records ordered by created_at desc, id desc
func (r *HistoryRepository) Paginate(_ context.Context, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	r.mu.RLock()
	sorted := append([]*domain.Record(nil), r.records...)
	r.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	offset, ok := domain.Offset(page, pageSize)
	if !ok || offset >= len(sorted) {
		return []*domain.Record{}, nil
	}
	end := offset + pageSize
	if end > len(sorted) {
		end = len(sorted)
	}
	out := make([]*domain.Record, 0, end-offset)
	for _, rec := range sorted[offset:end] {
		cp := *rec
		cp.Threats = append([]string{}, rec.Threats...)
		out = append(out, &cp)
	}
	return out, nil
}

func (r *HistoryRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.records)), nil
}
