package ai

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/phish-detector/internal/domain/ai"
	"github.com/bryanwahyu/phish-detector/internal/domain/chat"
)

// Service is a chat.Responder backed by an AI client. Any provider failure
// falls back to the rule table so the chat never goes silent.
type Service struct {
	client   ai.Client
	fallback chat.Responder
	logger   *zap.Logger
}

func NewService(client ai.Client, fallback chat.Responder, logger *zap.Logger) *Service {
	if fallback == nil {
		fallback = chat.NewSelector()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, fallback: fallback, logger: logger}
}

func (s *Service) Respond(ctx context.Context, question string) (string, error) {
	answer, err := s.client.Answer(ctx, question)
	if err == nil && strings.TrimSpace(answer) != "" {
		return answer, nil
	}
	if err == nil {
		err = ai.ErrEmptyAnswer
	}
	// request dibatalin client, gak usah fallback
	if errors.Is(err, context.Canceled) {
		return "", err
	}
	s.logger.Warn("ai responder failed, using rule table",
		zap.Bool("quota_exceeded", errors.Is(err, ai.ErrQuotaExceeded)),
		zap.Error(err))
	return s.fallback.Respond(ctx, question)
}
