package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"salesbridge/internal/domain/entity"
	"salesbridge/internal/domain/repository"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	db.Exec("PRAGMA foreign_keys=ON;")
	require.NoError(t, MigratePersistence(db))

	return db
}

func seedCustomerAndProduct(t *testing.T, db *gorm.DB) (*entity.Customer, *entity.Product) {
	t.Helper()
	ctx := context.Background()

	customer, err := NewCustomerRepository(db).Create(ctx, &entity.Customer{
		Name:  "Ana Souza",
		Email: "ana@example.com",
		TaxID: "12345678909",
	})
	require.NoError(t, err)

	product, err := NewProductRepository(db).GetOrCreate(ctx, "Teclado")
	require.NoError(t, err)

	return customer, product
}

func samplePurchase(customer *entity.Customer, product *entity.Product) *entity.Purchase {
	return &entity.Purchase{
		CustomerID:     customer.ID,
		ProductID:      product.ID,
		Quantity:       2,
		UnitPrice:      decimal.RequireFromString("150.00"),
		TotalPrice:     decimal.RequireFromString("300.00"),
		PaymentMethod:  entity.PaymentPix,
		OccurredAt:     time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
		IdempotencyKey: "a0b1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b1",
	}
}

func TestPurchaseRepository_CreateAndFetch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customer, product := seedCustomerAndProduct(t, db)
	repo := NewPurchaseRepository(db)

	stored, created, err := repo.Create(ctx, samplePurchase(customer, product))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, stored.ID)

	found, err := repo.FindByIdempotencyKey(ctx, stored.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, found.ID)
	assert.Equal(t, "150.00", found.UnitPrice.StringFixed(2))
}

func TestPurchaseRepository_DuplicateKeyReturnsExistingRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customer, product := seedCustomerAndProduct(t, db)
	repo := NewPurchaseRepository(db)

	first, created, err := repo.Create(ctx, samplePurchase(customer, product))
	require.NoError(t, err)
	require.True(t, created)

	// Same key again: no error, no new row, the original row comes back.
	second, created, err := repo.Create(ctx, samplePurchase(customer, product))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestPurchaseRepository_ConcurrentWorkersAbsorbDuplicateKey(t *testing.T) {
	db := newTestDB(t)
	customer, product := seedCustomerAndProduct(t, db)
	repo := NewPurchaseRepository(db)

	// One connection keeps sqlite from returning busy errors; the two
	// workers still race into Create with the same key.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	type outcome struct {
		stored  *entity.Purchase
		created bool
		err     error
	}

	start := make(chan struct{})
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			stored, created, err := repo.Create(context.Background(), samplePurchase(customer, product))
			results <- outcome{stored: stored, created: created, err: err}
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var ids []uuid.UUID
	createdCount := 0
	for res := range results {
		require.NoError(t, res.err)
		ids = append(ids, res.stored.ID)
		if res.created {
			createdCount++
		}
	}

	// Exactly one insert wins; the other observes the existing row.
	assert.Equal(t, 1, createdCount)
	require.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1])

	var count int64
	db.Table("purchases").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPurchaseRepository_FindUnknownKey(t *testing.T) {
	db := newTestDB(t)
	repo := NewPurchaseRepository(db)

	_, err := repo.FindByIdempotencyKey(context.Background(), "deadbeef")
	require.ErrorIs(t, err, repository.ErrPurchaseNotFound)
}

func TestCustomerRepository_CreateRaceResolvesToWinner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCustomerRepository(db)

	first, err := repo.Create(ctx, &entity.Customer{
		Name:  "Bruno Lima",
		Email: "bruno@example.com",
		TaxID: "98765432100",
	})
	require.NoError(t, err)

	// A second insert of the same tax ID resolves to the existing customer.
	second, err := repo.Create(ctx, &entity.Customer{
		Name:  "B. Lima",
		Email: "bruno@example.com",
		TaxID: "98765432100",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Bruno Lima", second.Name)
}

func TestCustomerRepository_AttachAddressIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCustomerRepository(db)
	customer, _ := seedCustomerAndProduct(t, db)

	require.NoError(t, repo.AttachAddress(ctx, customer.ID, "Rua das Flores, 10"))
	require.NoError(t, repo.AttachAddress(ctx, customer.ID, "Rua das Flores, 10"))
	require.NoError(t, repo.AttachAddress(ctx, customer.ID, "Av. Paulista, 1000"))

	found, err := repo.FindByTaxID(ctx, customer.TaxID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, found.ID)

	var count int64
	db.Table("addresses").Where("customer_id = ?", customer.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestProductRepository_GetOrCreateReusesRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(db)

	first, err := repo.GetOrCreate(ctx, "Mouse")
	require.NoError(t, err)

	second, err := repo.GetOrCreate(ctx, "Mouse")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := repo.GetOrCreate(ctx, "Monitor")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tm := NewTransactionManager(db)

	err := tm.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		_, err := repoFactory.NewCustomerRepository().Create(ctx, &entity.Customer{
			Name:  "Rollback Me",
			Email: "rollback@example.com",
		})
		require.NoError(t, err)

		return fmt.Errorf("business rule failed")
	})
	require.Error(t, err)

	var count int64
	db.Table("customers").Count(&count)
	assert.Equal(t, int64(0), count)
}
