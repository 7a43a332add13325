package postgres

import (
	"context"

	"dailypush/internal/domain/entity"
	"dailypush/internal/domain/repository"
	"dailypush/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// scheduleRepository implements the repository.ScheduleRepository interface.
type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository is the constructor for scheduleRepository.
func NewScheduleRepository(db *gorm.DB) repository.ScheduleRepository {
	return &scheduleRepository{
		db: db,
	}
}

// Save upserts the schedule record keyed by timezone ID.
func (repo *scheduleRepository) Save(ctx context.Context, schedule *entity.TimezoneSchedule) error {
	scheduleM := fromScheduleDomain(schedule)

	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "timezone_id"}},
			UpdateAll: true,
		}).
		Create(scheduleM).Error; err != nil {
		return errors.Wrap(err, "failed to save timezone schedule")
	}

	return nil
}

// FindByTimezone retrieves the record for one timezone.
func (repo *scheduleRepository) FindByTimezone(ctx context.Context, timezoneID string) (*entity.TimezoneSchedule, error) {
	var scheduleM model.TimezoneScheduleModel

	if err := repo.db.WithContext(ctx).
		Where("timezone_id = ?", timezoneID).
		First(&scheduleM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrScheduleNotFound
		}

		return nil, errors.Wrap(err, "failed to find timezone schedule")
	}

	return toScheduleDomain(&scheduleM), nil
}

// FindAll retrieves every persisted schedule record.
func (repo *scheduleRepository) FindAll(ctx context.Context) ([]*entity.TimezoneSchedule, error) {
	var scheduleModels []*model.TimezoneScheduleModel

	if err := repo.db.WithContext(ctx).
		Order("timezone_id").
		Find(&scheduleModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find timezone schedules")
	}

	schedules := make([]*entity.TimezoneSchedule, 0, len(scheduleModels))
	for _, scheduleM := range scheduleModels {
		schedules = append(schedules, toScheduleDomain(scheduleM))
	}

	return schedules, nil
}

func fromScheduleDomain(schedule *entity.TimezoneSchedule) *model.TimezoneScheduleModel {
	return &model.TimezoneScheduleModel{
		TimezoneID:         schedule.TimezoneID,
		Status:             string(schedule.Status),
		VersionToken:       schedule.VersionToken,
		MorningFireTime:    schedule.MorningFireTime,
		RetryFireTime:      schedule.RetryFireTime,
		LastMorningRunDate: schedule.LastMorningRunDate,
		LastRetryRunDate:   schedule.LastRetryRunDate,
		LastMorningSent:    schedule.LastMorningSent,
		LastMorningFailed:  schedule.LastMorningFailed,
		LastRetrySent:      schedule.LastRetrySent,
		LastRetryFailed:    schedule.LastRetryFailed,
		UpdatedAt:          schedule.UpdatedAt,
	}
}

func toScheduleDomain(scheduleM *model.TimezoneScheduleModel) *entity.TimezoneSchedule {
	return &entity.TimezoneSchedule{
		TimezoneID:         scheduleM.TimezoneID,
		Status:             entity.SchedulerStatus(scheduleM.Status),
		VersionToken:       scheduleM.VersionToken,
		MorningFireTime:    scheduleM.MorningFireTime,
		RetryFireTime:      scheduleM.RetryFireTime,
		LastMorningRunDate: scheduleM.LastMorningRunDate,
		LastRetryRunDate:   scheduleM.LastRetryRunDate,
		LastMorningSent:    scheduleM.LastMorningSent,
		LastMorningFailed:  scheduleM.LastMorningFailed,
		LastRetrySent:      scheduleM.LastRetrySent,
		LastRetryFailed:    scheduleM.LastRetryFailed,
		UpdatedAt:          scheduleM.UpdatedAt,
	}
}
