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

// productRepository implements the domain.ProductRepository interface using GORM.
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository is the constructor for productRepository.
func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

// FindByName retrieves the product with the exact given name.
func (repo *productRepository) FindByName(ctx context.Context, name string) (*entity.Product, error) {
	var productM model.ProductModel
	err := repo.db.WithContext(ctx).
		Where("name = ?", name).
		First(&productM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProductNotFound
		}

		return nil, errors.Wrap(err, "failed to find product by name")
	}

	return toProductDomain(&productM), nil
}

// GetOrCreate resolves the product by name, creating it when absent. A
// concurrent creation of the same name resolves to the winner's row via
// ON CONFLICT DO NOTHING plus a re-fetch.
func (repo *productRepository) GetOrCreate(ctx context.Context, name string) (*entity.Product, error) {
	product, err := repo.FindByName(ctx, name)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, repository.ErrProductNotFound) {
		return nil, err
	}

	productM := &model.ProductModel{
		ID:   uuid.New(),
		Name: name,
	}

	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(productM)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to create product")
	}

	if result.RowsAffected == 0 {
		return repo.FindByName(ctx, name)
	}

	return toProductDomain(productM), nil
}

func toProductDomain(data *model.ProductModel) *entity.Product {
	if data == nil {
		return nil
	}

	return &entity.Product{
		ID:        data.ID,
		Name:      data.Name,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
