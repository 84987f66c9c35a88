package postgres

import (
	"context"

	"salesbridge/internal/domain/repository"
	"salesbridge/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// stagingRepository implements the domain.StagingRepository interface using GORM.
type stagingRepository struct {
	db *gorm.DB
}

// NewStagingRepository is the constructor for stagingRepository.
func NewStagingRepository(db *gorm.DB) repository.StagingRepository {
	return &stagingRepository{db: db}
}

// Stage inserts the staged record. Re-staging the same idempotency key (a
// crashed batch being re-scanned) is a no-op, not an error.
func (repo *stagingRepository) Stage(ctx context.Context, record *repository.StagedPurchase) error {
	stagedM := &model.StagedPurchaseModel{
		IdempotencyKey: record.IdempotencyKey,
		Payload:        record.Payload,
		Source:         record.Source,
		SourceName:     record.SourceName,
	}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(stagedM).Error
	if err != nil {
		return errors.Wrap(err, "failed to stage purchase")
	}

	record.ID = stagedM.ID
	record.CreatedAt = stagedM.CreatedAt

	return nil
}

// CountByKey reports how many staged records exist for the key.
func (repo *stagingRepository) CountByKey(ctx context.Context, key string) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&model.StagedPurchaseModel{}).
		Where("idempotency_key = ?", key).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count staged purchases")
	}

	return count, nil
}
