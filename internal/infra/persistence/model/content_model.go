// Package model holds the GORM-specific structs of the persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"
)

// DailyContentModel is the GORM-specific struct for the 'daily_contents'
// table. Translations live in their own table so languages can be added
// without touching content rows.
type DailyContentModel struct {
	ID        string `gorm:"type:varchar(64);primary_key"`
	IsActive  bool   `gorm:"not null;default:true;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (DailyContentModel) TableName() string {
	return "daily_contents"
}

// DailyContentTranslationModel is the GORM-specific struct for the
// 'daily_content_translations' table.
type DailyContentTranslationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ContentID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_content_language"`
	Language  string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_content_language"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (DailyContentTranslationModel) TableName() string {
	return "daily_content_translations"
}

// DailySelectionModel is the GORM-specific struct for the
// 'daily_content_selections' table. One row per selected content and date;
// the primary key makes the first writer of a date the winner.
type DailySelectionModel struct {
	Date      string `gorm:"type:varchar(10);primary_key"`
	Position  int    `gorm:"primary_key;autoIncrement:false"`
	ContentID string `gorm:"type:varchar(64);not null;index"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (DailySelectionModel) TableName() string {
	return "daily_content_selections"
}
