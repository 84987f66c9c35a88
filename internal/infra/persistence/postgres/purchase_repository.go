package postgres

import (
	"context"

	"salesbridge/internal/domain/entity"
	"salesbridge/internal/domain/repository"
	"salesbridge/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// purchaseRepository implements the domain.PurchaseRepository interface using GORM.
type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository is the constructor for purchaseRepository.
func NewPurchaseRepository(db *gorm.DB) repository.PurchaseRepository {
	return &purchaseRepository{db: db}
}

// FindByIdempotencyKey returns the purchase stored under the given key.
func (repo *purchaseRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Purchase, error) {
	var purchaseM model.PurchaseModel
	err := repo.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&purchaseM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPurchaseNotFound
		}

		return nil, errors.Wrap(err, "failed to find purchase by idempotency key")
	}

	return toPurchaseDomain(&purchaseM), nil
}

// Create inserts the purchase anchored on the idempotency key. A conflict on
// that key means the row already exists (duplicate delivery, or a concurrent
// worker won the insert); the existing row is fetched and returned as
// created=false. This is the mechanism that makes persistence exactly-once
// under at-least-once delivery.
func (repo *purchaseRepository) Create(ctx context.Context, p *entity.Purchase) (*entity.Purchase, bool, error) {
	purchaseM := fromPurchaseDomain(p)
	if purchaseM.ID == uuid.Nil {
		purchaseM.ID = uuid.New()
	}

	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(purchaseM)
	if result.Error != nil {
		if isForeignKeyConstraintViolation(result.Error) {
			return nil, false, errors.Wrap(result.Error, "purchase references a missing customer or product")
		}
		// Some drivers surface the key conflict as an error instead of
		// honoring the DoNothing clause.
		if !isUniqueConstraintViolation(result.Error) {
			return nil, false, errors.Wrap(result.Error, "failed to create purchase")
		}
	}

	if result.Error != nil || result.RowsAffected == 0 {
		stored, err := repo.FindByIdempotencyKey(ctx, p.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}

		return stored, false, nil
	}

	return toPurchaseDomain(purchaseM), true, nil
}

func toPurchaseDomain(data *model.PurchaseModel) *entity.Purchase {
	if data == nil {
		return nil
	}

	return &entity.Purchase{
		ID:             data.ID,
		CustomerID:     data.CustomerID,
		ProductID:      data.ProductID,
		Quantity:       data.Quantity,
		UnitPrice:      data.UnitPrice,
		TotalPrice:     data.TotalPrice,
		PaymentMethod:  entity.PaymentMethod(data.PaymentMethod),
		OccurredAt:     data.OccurredAt,
		IdempotencyKey: data.IdempotencyKey,
		CreatedAt:      data.CreatedAt,
	}
}

func fromPurchaseDomain(data *entity.Purchase) *model.PurchaseModel {
	if data == nil {
		return nil
	}

	return &model.PurchaseModel{
		ID:             data.ID,
		CustomerID:     data.CustomerID,
		ProductID:      data.ProductID,
		Quantity:       data.Quantity,
		UnitPrice:      data.UnitPrice,
		TotalPrice:     data.TotalPrice,
		PaymentMethod:  data.PaymentMethod.String(),
		OccurredAt:     data.OccurredAt,
		IdempotencyKey: data.IdempotencyKey,
	}
}
