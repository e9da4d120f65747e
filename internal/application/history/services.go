package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/phish-detector/internal/application"
	"github.com/bryanwahyu/phish-detector/internal/domain/analysis"
	domain "github.com/bryanwahyu/phish-detector/internal/domain/history"
)

// Service implements use-cases untuk verdict audit log
type Service struct {
	Repo    domain.Repository
	Archive domain.ReportArchive // optional
	Clock   application.Clock
	Logger  *zap.Logger
}

// report is the archived JSON document
type report struct {
	ID          domain.RecordID  `json:"id"`
	SessionID   string           `json:"session_id,omitempty"`
	ContentType string           `json:"content_type"`
	TextDigest  string           `json:"text_digest"`
	TextLength  int              `json:"text_length"`
	Result      *analysis.Result `json:"result"`
	CreatedAt   string           `json:"created_at"`
}

// Record stores one verdict. The text itself is never persisted.
func (s *Service) Record(ctx context.Context, sessionID string, in analysis.Input, res *analysis.Result) error {
	now := s.Clock.Now().UTC()
	sum := sha256.Sum256([]byte(in.Text))

	rec := &domain.Record{
		ID:          domain.RecordID(uuid.NewString()),
		SessionID:   sessionID,
		ContentType: string(in.Type),
		RiskLevel:   string(res.RiskLevel),
		Confidence:  res.Confidence,
		Threats:     append([]string{}, res.Threats...),
		TextDigest:  hex.EncodeToString(sum[:]),
		TextLength:  len(in.Text),
		CreatedAt:   now,
	}

	if s.Archive != nil {
		body, err := json.Marshal(report{
			ID:          rec.ID,
			SessionID:   sessionID,
			ContentType: rec.ContentType,
			TextDigest:  rec.TextDigest,
			TextLength:  rec.TextLength,
			Result:      res,
			CreatedAt:   now.Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		key := fmt.Sprintf("reports/%s/%s.json", now.Format("2006/01/02"), rec.ID)
		url, err := s.Archive.Put(ctx, key, body)
		if err != nil {
			// audit row tetap disimpan walau upload gagal
			s.logger().Warn("report archive upload failed",
				zap.String("record_id", string(rec.ID)),
				zap.Error(err))
		} else {
			rec.ReportURL = url
		}
	}

	if err := s.Repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// List returns one page of records, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (*domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	data, err := s.Repo.Paginate(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	total, err := s.Repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []*domain.Record{}
	}
	return &domain.PaginatedResult{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
