package usecase

import (
	"context"
	"time"

	"dailypush/internal/domain/entity"
)

// RunResult summarizes one pipeline run.
type RunResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Coordinator owns the push schedule of a single IANA timezone: its
// persisted state, its wake-up registrations, and the morning and retry
// pipelines. All entry points serialize on the coordinator, so at most one
// pipeline runs per timezone at a time.
type Coordinator interface {
	// TimezoneID returns the IANA identifier this coordinator manages.
	TimezoneID() string

	// Initialize loads or creates the schedule state and registers the
	// wake-ups for both phases.
	Initialize(ctx context.Context) error

	// RunMorning executes the morning pipeline for the given date. force
	// marks the run as manual, which bypasses paused status but never the
	// per-device claims.
	RunMorning(ctx context.Context, date time.Time, force bool) (*RunResult, error)

	// RunRetry executes the retry pipeline. force additionally bypasses
	// the read-receipt filter so already-read users are pushed again.
	RunRetry(ctx context.Context, date time.Time, force bool) (*RunResult, error)

	// Pause suspends pipeline execution; wake-ups keep firing.
	Pause(ctx context.Context) error

	// Resume returns a paused or maintenance coordinator to active.
	Resume(ctx context.Context) error

	// Reinitialize resets the schedule state to the current configuration
	// and re-registers both wake-ups.
	Reinitialize(ctx context.Context) error

	// Status returns a copy of the persisted schedule state.
	Status(ctx context.Context) (*entity.TimezoneSchedule, error)

	// Shutdown cancels the registered wake-ups.
	Shutdown(ctx context.Context) error

	// OnWakeup handles a timer callback for one of the registered phases.
	OnWakeup(ctx context.Context, name string, scheduledAt time.Time)
}
