package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/phish-detector/internal/domain/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS verdict_history (
  id           VARCHAR(36)  NOT NULL PRIMARY KEY,
  session_id   VARCHAR(36)  NOT NULL,
  content_type VARCHAR(16)  NOT NULL,
  risk_level   VARCHAR(16)  NOT NULL,
  confidence   INT          NOT NULL,
  threat_count INT          NOT NULL,
  threats_json JSON         NOT NULL,
  text_digest  CHAR(64)     NOT NULL,
  text_length  INT          NOT NULL,
  report_url   VARCHAR(512) NOT NULL DEFAULT '',
  created_at   DATETIME(6)  NOT NULL,
  KEY idx_verdict_history_created (created_at, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// EnsureSchema creates the table when missing.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts a verdict record
func (r *HistoryRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO verdict_history
  (id, session_id, content_type, risk_level, confidence, threat_count, threats_json, text_digest, text_length, report_url, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  report_url=VALUES(report_url);
`
	threats, err := threatsJSON(rec.Threats)
	if err != nil {
		return err
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, q,
		rec.ID, stringOrDash(rec.SessionID), rec.ContentType, rec.RiskLevel, rec.Confidence,
		len(rec.Threats), threats, rec.TextDigest, rec.TextLength, rec.ReportURL, createdAt,
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
SELECT id, session_id, content_type, risk_level, confidence, threats_json, text_digest, text_length, report_url, created_at
FROM verdict_history
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		var threats string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ContentType, &rec.RiskLevel, &rec.Confidence,
			&threats, &rec.TextDigest, &rec.TextLength, &rec.ReportURL, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if rec.SessionID == "-" {
			rec.SessionID = ""
		}
		if rec.Threats, err = parseThreats(threats); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *HistoryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verdict_history`).Scan(&n)
	return n, err
}
