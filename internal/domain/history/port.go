package history

import "context"

// Repository port for persisting and paging verdict records
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Paginate(ctx context.Context, page, pageSize int) ([]*Record, error)
	Count(ctx context.Context) (int64, error)
}

// ReportArchive port untuk upload laporan JSON, balikin URL objek
type ReportArchive interface {
	Put(ctx context.Context, key string, body []byte) (string, error)
}
