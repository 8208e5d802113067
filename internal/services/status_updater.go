package services

import (
	"context"
	"log/slog"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
)

const (
	RunProcessing = "processing"
	RunCompleted  = "completed"
	RunFailed     = "failed"
)

// FanOutRunStore persists the audit trail of fan-out runs.
type FanOutRunStore interface {
	UpsertRun(ctx context.Context, requestID, kind, sender, status string, recipients, reached int, detail string) error
}

// StatusUpdater records run state transitions. The audit store is optional;
// with no store every call is a no-op. Store failures are logged and never
// affect the fan-out outcome.
type StatusUpdater struct {
	store  FanOutRunStore
	logger *slog.Logger
}

func NewStatusUpdater(store FanOutRunStore, logger *slog.Logger) *StatusUpdater {
	return &StatusUpdater{
		store:  store,
		logger: logger,
	}
}

func (s *StatusUpdater) MarkProcessing(ctx context.Context, requestID string, req *models.FanOutRequest) {
	if s.store == nil {
		return
	}
	err := s.store.UpsertRun(ctx, requestID, string(req.RequestType), req.FromWhom, RunProcessing, len(req.ToWhoms), 0, "")
	if err != nil {
		s.logger.Error("run audit write failed",
			slog.String("request_id", requestID), slog.Any("error", err))
	}
}

func (s *StatusUpdater) MarkCompleted(ctx context.Context, requestID string, recipients, reached int) {
	if s.store == nil {
		return
	}
	err := s.store.UpsertRun(ctx, requestID, "", "", RunCompleted, recipients, reached, "")
	if err != nil {
		s.logger.Error("run audit write failed",
			slog.String("request_id", requestID), slog.Any("error", err))
	}
}

func (s *StatusUpdater) MarkFailed(ctx context.Context, requestID string, cause error) {
	if s.store == nil {
		return
	}
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	err := s.store.UpsertRun(ctx, requestID, "", "", RunFailed, 0, 0, detail)
	if err != nil {
		s.logger.Error("run audit write failed",
			slog.String("request_id", requestID), slog.Any("error", err))
	}
}
