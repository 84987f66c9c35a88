package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"salesbridge/config"
	"salesbridge/internal/domain/entity"
	domainerrors "salesbridge/internal/domain/errors"
	"salesbridge/internal/domain/purchase"
	"salesbridge/internal/domain/repository"
	"salesbridge/internal/usecase"
)

type persistService struct {
	txManager  repository.TransactionManager
	defaultLoc *time.Location
	logger     *slog.Logger
}

// NewPersistService creates a new persistence service instance.
func NewPersistService(
	cfg *config.Config,
	txManager repository.TransactionManager,
	logger *slog.Logger,
) (usecase.PersistUsecase, error) {
	loc, err := cfg.Ingest.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default timezone: %w", err)
	}

	return &persistService{
		txManager:  txManager,
		defaultLoc: loc,
		logger:     logger,
	}, nil
}

// PersistMessage re-validates one queue payload and upserts it. The producer
// is not trusted: the payload is normalized again and its fingerprint is
// recomputed before anything touches the database.
func (s *persistService) PersistMessage(ctx context.Context, payload []byte) (*usecase.PersistResult, error) {
	dto, err := purchase.NormalizeJSON(payload, s.defaultLoc)
	if err != nil {
		return nil, err
	}

	// The embedded key is never trusted blindly. The recomputed key wins on
	// a mismatch so persistence stays anchored on the payload contents.
	computed := purchase.Fingerprint(dto)
	if dto.IdempotencyKey != "" && dto.IdempotencyKey != computed {
		s.logger.WarnContext(ctx, "embedded idempotency key does not match payload, using recomputed key",
			slog.String("embedded_key", dto.IdempotencyKey),
			slog.String("computed_key", computed),
		)
	}
	dto.IdempotencyKey = computed

	result := &usecase.PersistResult{IdempotencyKey: computed}

	err = s.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		purchases := repoFactory.NewPurchaseRepository()

		// Fast path: the key is already stored, nothing to do.
		existing, err := purchases.FindByIdempotencyKey(ctx, computed)
		if err == nil {
			result.PurchaseID = existing.ID

			return nil
		}
		if !errors.Is(err, repository.ErrPurchaseNotFound) {
			return domainerrors.NewStorageError("lookup purchase", err)
		}

		customer, err := s.resolveCustomer(ctx, repoFactory.NewCustomerRepository(), dto)
		if err != nil {
			return err
		}

		product, err := repoFactory.NewProductRepository().GetOrCreate(ctx, dto.Product.Name)
		if err != nil {
			return domainerrors.NewStorageError("resolve product", err)
		}

		stored, created, err := purchases.Create(ctx, &entity.Purchase{
			CustomerID:     customer.ID,
			ProductID:      product.ID,
			Quantity:       dto.Quantity,
			UnitPrice:      dto.UnitPrice,
			TotalPrice:     dto.TotalPrice,
			PaymentMethod:  dto.PaymentMethod,
			OccurredAt:     dto.OccurredAt,
			IdempotencyKey: computed,
		})
		if err != nil {
			return domainerrors.NewStorageError("insert purchase", err)
		}

		result.PurchaseID = stored.ID
		result.Created = created

		return nil
	})
	if err != nil {
		if domainerrors.IsValidation(err) || domainerrors.IsStorage(err) {
			return nil, err
		}

		return nil, domainerrors.NewStorageError("transaction", err)
	}

	s.logger.InfoContext(ctx, "purchase persisted",
		slog.String("idempotency_key", computed),
		slog.String("purchase_id", result.PurchaseID.String()),
		slog.Bool("created", result.Created),
	)

	return result, nil
}

// resolveCustomer finds the customer by identity (tax ID first, then the
// name and email pair), creating it on first sighting and refreshing contact
// fields non-destructively afterwards. A supplied address text is attached,
// deduplicated by exact text.
func (s *persistService) resolveCustomer(ctx context.Context, customers repository.CustomerRepository, dto *purchase.DTO) (*entity.Customer, error) {
	var (
		customer *entity.Customer
		err      error
	)

	if dto.Customer.TaxID != "" {
		customer, err = customers.FindByTaxID(ctx, dto.Customer.TaxID)
	} else {
		customer, err = customers.FindByNameEmail(ctx, dto.Customer.Name, dto.Customer.Email)
	}

	switch {
	case err == nil:
		if customer.Refresh(dto.Customer.Name, dto.Customer.Email, dto.Customer.Phone) {
			if err := customers.Update(ctx, customer); err != nil {
				return nil, domainerrors.NewStorageError("refresh customer", err)
			}
		}
	case errors.Is(err, repository.ErrCustomerNotFound):
		customer, err = customers.Create(ctx, &entity.Customer{
			Name:  dto.Customer.Name,
			Email: dto.Customer.Email,
			Phone: dto.Customer.Phone,
			TaxID: dto.Customer.TaxID,
		})
		if err != nil {
			return nil, domainerrors.NewStorageError("create customer", err)
		}
	default:
		return nil, domainerrors.NewStorageError("lookup customer", err)
	}

	if dto.Customer.Address != "" {
		if err := customers.AttachAddress(ctx, customer.ID, dto.Customer.Address); err != nil {
			return nil, domainerrors.NewStorageError("attach address", err)
		}
	}

	return customer, nil
}
