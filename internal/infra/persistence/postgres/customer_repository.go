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

// customerRepository implements the domain.CustomerRepository interface using GORM.
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository is the constructor for customerRepository.
// It returns the repository as a domain interface, adhering to dependency inversion.
func NewCustomerRepository(db *gorm.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

// FindByTaxID retrieves the customer holding the given digits-only tax ID.
func (repo *customerRepository) FindByTaxID(ctx context.Context, taxID string) (*entity.Customer, error) {
	var customerM model.CustomerModel
	err := repo.db.WithContext(ctx).
		Where("tax_id = ?", taxID).
		First(&customerM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCustomerNotFound
		}

		return nil, errors.Wrap(err, "failed to find customer by tax id")
	}

	return toCustomerDomain(&customerM), nil
}

// FindByNameEmail retrieves the customer matching the (name, email) fallback identity.
func (repo *customerRepository) FindByNameEmail(ctx context.Context, name, email string) (*entity.Customer, error) {
	var customerM model.CustomerModel
	err := repo.db.WithContext(ctx).
		Where("name = ? AND email = ?", name, email).
		First(&customerM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCustomerNotFound
		}

		return nil, errors.Wrap(err, "failed to find customer by name and email")
	}

	return toCustomerDomain(&customerM), nil
}

// Create inserts a new customer. A unique-constraint conflict means a
// concurrent transaction created the same identity first; the insert is
// skipped via ON CONFLICT DO NOTHING and the winner's row is returned, so an
// aborted transaction never surfaces from the race.
func (repo *customerRepository) Create(ctx context.Context, customer *entity.Customer) (*entity.Customer, error) {
	customerM := fromCustomerDomain(customer)
	if customerM.ID == uuid.Nil {
		customerM.ID = uuid.New()
	}

	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(customerM)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to create customer")
	}

	if result.RowsAffected == 0 {
		// Lost the creation race: fetch whoever won.
		if customer.TaxID != "" {
			return repo.FindByTaxID(ctx, customer.TaxID)
		}

		return repo.FindByNameEmail(ctx, customer.Name, customer.Email)
	}

	return toCustomerDomain(customerM), nil
}

// Update persists refreshed contact fields for an existing customer.
func (repo *customerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	err := repo.db.WithContext(ctx).
		Model(&model.CustomerModel{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"name":  customer.Name,
			"email": customer.Email,
			"phone": customer.Phone,
		}).Error
	if err != nil {
		return errors.Wrap(err, "failed to update customer")
	}

	return nil
}

// AttachAddress records an address text under the customer, deduplicated by
// (customer, exact text). Re-attaching an existing text is a no-op.
func (repo *customerRepository) AttachAddress(ctx context.Context, customerID uuid.UUID, fullText string) error {
	addressM := &model.AddressModel{
		ID:         uuid.New(),
		CustomerID: customerID,
		FullText:   fullText,
	}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(addressM).Error
	if err != nil {
		return errors.Wrap(err, "failed to attach address")
	}

	return nil
}

// --- Mapper Functions ---

// toCustomerDomain converts a GORM CustomerModel to a domain Customer entity.
func toCustomerDomain(data *model.CustomerModel) *entity.Customer {
	if data == nil {
		return nil
	}

	var taxID string
	if data.TaxID != nil {
		taxID = *data.TaxID
	}

	addresses := make([]*entity.Address, 0, len(data.Addresses))
	for _, addr := range data.Addresses {
		addresses = append(addresses, &entity.Address{
			ID:         addr.ID,
			CustomerID: addr.CustomerID,
			FullText:   addr.FullText,
			CreatedAt:  addr.CreatedAt,
		})
	}

	return &entity.Customer{
		ID:        data.ID,
		Name:      data.Name,
		Email:     data.Email,
		Phone:     data.Phone,
		TaxID:     taxID,
		Addresses: addresses,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

// fromCustomerDomain converts a domain Customer entity to a GORM CustomerModel.
// An empty tax ID maps to NULL so the unique index only binds real documents.
func fromCustomerDomain(data *entity.Customer) *model.CustomerModel {
	if data == nil {
		return nil
	}

	var taxID *string
	if data.TaxID != "" {
		value := data.TaxID
		taxID = &value
	}

	return &model.CustomerModel{
		ID:    data.ID,
		Name:  data.Name,
		Email: data.Email,
		Phone: data.Phone,
		TaxID: taxID,
	}
}
