package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	domain "github.com/bryanwahyu/phish-detector/internal/domain/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS verdict_history (
  id           TEXT        PRIMARY KEY,
  session_id   TEXT        NOT NULL DEFAULT '',
  content_type TEXT        NOT NULL,
  risk_level   TEXT        NOT NULL,
  confidence   INTEGER     NOT NULL,
  threats      TEXT[]      NOT NULL DEFAULT '{}',
  text_digest  TEXT        NOT NULL,
  text_length  INTEGER     NOT NULL,
  report_url   TEXT        NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verdict_history_created ON verdict_history (created_at DESC, id DESC);`

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts or updates a verdict record
func (r *HistoryRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO verdict_history
  (id, session_id, content_type, risk_level, confidence, threats, text_digest, text_length, report_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  report_url=EXCLUDED.report_url;
`
	threats := rec.Threats
	if threats == nil {
		threats = []string{}
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.SessionID, rec.ContentType, rec.RiskLevel, rec.Confidence,
		pq.Array(threats), rec.TextDigest, rec.TextLength, rec.ReportURL, createdAt,
	)
	return err
}

// Paginate returns a page of records ordered by created_at desc
func (r *HistoryRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset, ok := domain.Offset(page, pageSize)
	if !ok {
		return []*domain.Record{}, nil
	}

	const q = `
SELECT id, session_id, content_type, risk_level, confidence, threats, text_digest, text_length, report_url, created_at
FROM verdict_history
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		var threats pq.StringArray
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ContentType, &rec.RiskLevel, &rec.Confidence,
			&threats, &rec.TextDigest, &rec.TextLength, &rec.ReportURL, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Threats = append([]string{}, threats...)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *HistoryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verdict_history`).Scan(&n)
	return n, err
}
