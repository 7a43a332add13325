package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserDeviceModel is the GORM-specific struct for the 'user_devices' table.
// It represents a user's device registered for push notifications. Rows are
// written by the registration system; the scheduler only reads them.
type UserDeviceModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index"`
	DeviceID        string    `gorm:"type:varchar(255);not null;index"`
	FCMToken        string    `gorm:"type:varchar(255);not null"`
	Timezone        string    `gorm:"type:varchar(64);not null;index"`
	PushLanguage    string    `gorm:"type:varchar(16);not null;default:'en'"`
	PushEnabled     bool      `gorm:"not null;default:true"`
	LastTokenUpdate time.Time `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (UserDeviceModel) TableName() string {
	return "user_devices"
}
