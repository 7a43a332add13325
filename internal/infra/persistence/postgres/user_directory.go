package postgres

import (
	"context"

	"dailypush/internal/domain/entity"
	"dailypush/internal/domain/repository"
	"dailypush/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userDirectory implements the repository.UserDirectory interface over the
// registration system's user_devices table.
type userDirectory struct {
	db *gorm.DB
}

// NewUserDirectory is the constructor for userDirectory.
func NewUserDirectory(db *gorm.DB) repository.UserDirectory {
	return &userDirectory{
		db: db,
	}
}

// ListSubscribedUsers pages through users holding at least one push-enabled
// device in the timezone. The user_id ordering keeps pages stable across
// calls within one run.
func (repo *userDirectory) ListSubscribedUsers(ctx context.Context, timezoneID string, offset, limit int) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID

	if err := repo.db.WithContext(ctx).
		Model(&model.UserDeviceModel{}).
		Distinct("user_id").
		Where("timezone = ? AND push_enabled = ?", timezoneID, true).
		Order("user_id").
		Offset(offset).
		Limit(limit).
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list subscribed users")
	}

	return userIDs, nil
}

// GetEligibleDevices returns the user's registrations in the timezone,
// disabled ones included.
func (repo *userDirectory) GetEligibleDevices(ctx context.Context, userID uuid.UUID, timezoneID string) ([]*entity.DeviceCandidate, error) {
	var deviceModels []*model.UserDeviceModel

	if err := repo.db.WithContext(ctx).
		Where("user_id = ? AND timezone = ?", userID, timezoneID).
		Find(&deviceModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find user devices")
	}

	candidates := make([]*entity.DeviceCandidate, 0, len(deviceModels))
	for _, deviceM := range deviceModels {
		candidates = append(candidates, &entity.DeviceCandidate{
			UserID:          deviceM.UserID,
			DeviceID:        deviceM.DeviceID,
			PushToken:       deviceM.FCMToken,
			TimezoneID:      deviceM.Timezone,
			PushLanguage:    deviceM.PushLanguage,
			PushEnabled:     deviceM.PushEnabled,
			LastTokenUpdate: deviceM.LastTokenUpdate,
		})
	}

	return candidates, nil
}
