package postgres

import (
	"context"

	"dailypush/internal/domain/entity"
	"dailypush/internal/domain/repository"
	"dailypush/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// contentRepository implements the repository.ContentRepository interface.
type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository is the constructor for contentRepository.
func NewContentRepository(db *gorm.DB) repository.ContentRepository {
	return &contentRepository{
		db: db,
	}
}

// FindActiveContents retrieves every active content item with its translations.
func (repo *contentRepository) FindActiveContents(ctx context.Context) ([]*entity.DailyContent, error) {
	var contentModels []*model.DailyContentModel

	if err := repo.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&contentModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find active contents")
	}

	return repo.attachTranslations(ctx, contentModels)
}

// FindContentsByIDs retrieves active contents preserving the input order.
// Missing or inactive IDs are skipped.
func (repo *contentRepository) FindContentsByIDs(ctx context.Context, ids []string) ([]*entity.DailyContent, error) {
	if len(ids) == 0 {
		return []*entity.DailyContent{}, nil
	}

	var contentModels []*model.DailyContentModel
	if err := repo.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&contentModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find contents by ids")
	}

	contents, err := repo.attachTranslations(ctx, contentModels)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entity.DailyContent, len(contents))
	for _, content := range contents {
		byID[content.ID] = content
	}

	ordered := make([]*entity.DailyContent, 0, len(ids))
	for _, id := range ids {
		if content, ok := byID[id]; ok {
			ordered = append(ordered, content)
		}
	}

	return ordered, nil
}

// FindSelection returns the recorded content IDs for a date in position order.
func (repo *contentRepository) FindSelection(ctx context.Context, dateKey string) ([]string, error) {
	ids, err := selectionIDs(repo.db.WithContext(ctx), dateKey)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, repository.ErrSelectionNotFound
	}

	return ids, nil
}

// RecordSelection inserts the selection unless one exists and returns the
// winning row set. Insert and read-back share one transaction; a concurrent
// writer surfaces as a duplicate key, in which case the existing rows win.
func (repo *contentRepository) RecordSelection(ctx context.Context, dateKey string, contentIDs []string) ([]string, error) {
	var winners []string

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := selectionIDs(tx, dateKey)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			winners = existing

			return nil
		}

		rows := make([]*model.DailySelectionModel, 0, len(contentIDs))
		for position, contentID := range contentIDs {
			rows = append(rows, &model.DailySelectionModel{
				Date:      dateKey,
				Position:  position,
				ContentID: contentID,
			})
		}
		if err := tx.Create(rows).Error; err != nil {
			return err
		}
		winners = contentIDs

		return nil
	})
	if err != nil {
		if !isUniqueConstraintViolation(err) {
			return nil, errors.Wrap(err, "failed to record selection")
		}

		// Another process recorded the date first; its selection wins.
		existing, readErr := selectionIDs(repo.db.WithContext(ctx), dateKey)
		if readErr != nil {
			return nil, readErr
		}

		return existing, nil
	}

	return winners, nil
}

// UsedContentIDs returns the distinct content IDs selected in the inclusive
// date range.
func (repo *contentRepository) UsedContentIDs(ctx context.Context, fromDateKey, toDateKey string) ([]string, error) {
	var ids []string

	if err := repo.db.WithContext(ctx).
		Model(&model.DailySelectionModel{}).
		Distinct("content_id").
		Where("date BETWEEN ? AND ?", fromDateKey, toDateKey).
		Pluck("content_id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find used content ids")
	}

	return ids, nil
}

func selectionIDs(db *gorm.DB, dateKey string) ([]string, error) {
	var rows []*model.DailySelectionModel
	if err := db.
		Where("date = ?", dateKey).
		Order("position").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find selection")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ContentID)
	}

	return ids, nil
}

func (repo *contentRepository) attachTranslations(ctx context.Context, contentModels []*model.DailyContentModel) ([]*entity.DailyContent, error) {
	if len(contentModels) == 0 {
		return []*entity.DailyContent{}, nil
	}

	ids := make([]string, 0, len(contentModels))
	for _, contentM := range contentModels {
		ids = append(ids, contentM.ID)
	}

	var translationModels []*model.DailyContentTranslationModel
	if err := repo.db.WithContext(ctx).
		Where("content_id IN ?", ids).
		Find(&translationModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find content translations")
	}

	localized := make(map[string]map[string]entity.LocalizedText, len(contentModels))
	for _, translationM := range translationModels {
		if localized[translationM.ContentID] == nil {
			localized[translationM.ContentID] = make(map[string]entity.LocalizedText)
		}
		localized[translationM.ContentID][translationM.Language] = entity.LocalizedText{
			Title: translationM.Title,
			Body:  translationM.Body,
		}
	}

	contents := make([]*entity.DailyContent, 0, len(contentModels))
	for _, contentM := range contentModels {
		contents = append(contents, &entity.DailyContent{
			ID:        contentM.ID,
			IsActive:  contentM.IsActive,
			Localized: localized[contentM.ID],
			CreatedAt: contentM.CreatedAt,
			UpdatedAt: contentM.UpdatedAt,
		})
	}

	return contents, nil
}
