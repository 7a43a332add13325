package entity

import "time"

// SchedulerStatus is the lifecycle state of a timezone coordinator.
type SchedulerStatus string

const (
	// StatusActive means the coordinator runs its scheduled pipelines.
	StatusActive SchedulerStatus = "active"
	// StatusPaused means wake-ups keep firing but pipelines are skipped.
	StatusPaused SchedulerStatus = "paused"
	// StatusError marks a coordinator whose last run failed. The next
	// successful run recovers it to Active.
	StatusError SchedulerStatus = "error"
	// StatusMaintenance is an administrative hold, cleared by resume.
	StatusMaintenance SchedulerStatus = "maintenance"
)

// TimezoneSchedule is the persisted state of one timezone coordinator.
// It is mutated exclusively through Apply so that every transition is an
// explicit event, persisted before it is considered applied.
type TimezoneSchedule struct {
	TimezoneID   string          `json:"timezone_id"`
	Status       SchedulerStatus `json:"status"`
	VersionToken string          `json:"version_token"`

	// Local times of day in "HH:MM" form. These double as the cached
	// last-known configuration used to detect hot-reload drift.
	MorningFireTime string `json:"morning_fire_time"`
	RetryFireTime   string `json:"retry_fire_time"`

	// Last successful completion per phase (calendar date keys) and the
	// outcome counts of those runs.
	LastMorningRunDate string `json:"last_morning_run_date"`
	LastRetryRunDate   string `json:"last_retry_run_date"`
	LastMorningSent    int    `json:"last_morning_sent"`
	LastMorningFailed  int    `json:"last_morning_failed"`
	LastRetrySent      int    `json:"last_retry_sent"`
	LastRetryFailed    int    `json:"last_retry_failed"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleEvent is the closed set of state transitions for a
// TimezoneSchedule.
type ScheduleEvent interface {
	scheduleEvent()
}

// ScheduleInitialized creates or re-creates the schedule record.
type ScheduleInitialized struct {
	TimezoneID      string
	VersionToken    string
	MorningFireTime string
	RetryFireTime   string
	At              time.Time
}

// StatusChanged moves the coordinator between lifecycle states.
type StatusChanged struct {
	Status SchedulerStatus
	At     time.Time
}

// FireTimesChanged records a configuration hot-reload of the fire times.
type FireTimesChanged struct {
	MorningFireTime string
	RetryFireTime   string
	At              time.Time
}

// VersionTokenRotated adopts a new scheduler generation.
type VersionTokenRotated struct {
	VersionToken string
	At           time.Time
}

// RunCompleted records a successful pipeline run for one phase.
type RunCompleted struct {
	Phase   Phase
	DateKey string
	Sent    int
	Failed  int
	At      time.Time
}

// RunFailed records an aborted pipeline run.
type RunFailed struct {
	Phase Phase
	At    time.Time
}

func (ScheduleInitialized) scheduleEvent() {}
func (StatusChanged) scheduleEvent()       {}
func (FireTimesChanged) scheduleEvent()    {}
func (VersionTokenRotated) scheduleEvent() {}
func (RunCompleted) scheduleEvent()        {}
func (RunFailed) scheduleEvent()           {}

// Apply is the single reducer for schedule state. Callers persist the
// resulting state before treating the event as applied.
func (s *TimezoneSchedule) Apply(event ScheduleEvent) {
	switch ev := event.(type) {
	case ScheduleInitialized:
		s.TimezoneID = ev.TimezoneID
		s.Status = StatusActive
		s.VersionToken = ev.VersionToken
		s.MorningFireTime = ev.MorningFireTime
		s.RetryFireTime = ev.RetryFireTime
		s.UpdatedAt = ev.At
	case StatusChanged:
		s.Status = ev.Status
		s.UpdatedAt = ev.At
	case FireTimesChanged:
		s.MorningFireTime = ev.MorningFireTime
		s.RetryFireTime = ev.RetryFireTime
		s.UpdatedAt = ev.At
	case VersionTokenRotated:
		s.VersionToken = ev.VersionToken
		s.UpdatedAt = ev.At
	case RunCompleted:
		// A completed run always recovers an errored coordinator.
		if s.Status == StatusError {
			s.Status = StatusActive
		}
		switch ev.Phase {
		case PhaseMorning:
			s.LastMorningRunDate = ev.DateKey
			s.LastMorningSent = ev.Sent
			s.LastMorningFailed = ev.Failed
		case PhaseRetry:
			s.LastRetryRunDate = ev.DateKey
			s.LastRetrySent = ev.Sent
			s.LastRetryFailed = ev.Failed
		}
		s.UpdatedAt = ev.At
	case RunFailed:
		s.Status = StatusError
		s.UpdatedAt = ev.At
	}
}
