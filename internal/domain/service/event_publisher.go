package service

import (
	"context"
	"time"

	"dailypush/internal/domain/entity"
)

// RunEvent summarizes one completed pipeline run for downstream consumers
// (dashboards, alerting). Publishing is best-effort and never fails a run.
type RunEvent struct {
	TimezoneID  string       `json:"timezone_id"`
	Phase       entity.Phase `json:"phase"`
	DateKey     string       `json:"date"`
	Sent        int          `json:"sent"`
	Failed      int          `json:"failed"`
	Skipped     int          `json:"skipped"`
	CompletedAt time.Time    `json:"completed_at"`
}

// EventPublisher publishes run summaries to the configured event sink.
type EventPublisher interface {
	PublishRunEvent(ctx context.Context, event *RunEvent) error
	Close() error
}
