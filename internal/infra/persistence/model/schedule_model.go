package model

import "time"

// TimezoneScheduleModel is the GORM-specific struct for the
// 'timezone_schedules' table, one row per managed IANA timezone.
type TimezoneScheduleModel struct {
	TimezoneID   string `gorm:"type:varchar(64);primary_key"`
	Status       string `gorm:"type:varchar(20);not null"`
	VersionToken string `gorm:"type:varchar(64);not null"`

	MorningFireTime string `gorm:"type:varchar(5);not null"`
	RetryFireTime   string `gorm:"type:varchar(5);not null"`

	LastMorningRunDate string `gorm:"type:varchar(10)"`
	LastRetryRunDate   string `gorm:"type:varchar(10)"`
	LastMorningSent    int    `gorm:"not null;default:0"`
	LastMorningFailed  int    `gorm:"not null;default:0"`
	LastRetrySent      int    `gorm:"not null;default:0"`
	LastRetryFailed    int    `gorm:"not null;default:0"`

	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (TimezoneScheduleModel) TableName() string {
	return "timezone_schedules"
}
