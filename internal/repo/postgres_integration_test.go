package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ecommerce/internal/db"
	"github.com/Skotchmaster/ecommerce/internal/models"
)

// newPostgresRepo starts a throwaway PostgreSQL container. It needs Docker,
// so it only runs when SHOP_INTEGRATION is set.
func newPostgresRepo(t *testing.T) *GormRepo {
	t.Helper()

	if os.Getenv("SHOP_INTEGRATION") == "" {
		t.Skip("SHOP_INTEGRATION is required for postgres tests")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("shop_test"),
		postgres.WithUsername("shop"),
		postgres.WithPassword("shop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.CreateTables(ctx, gdb))

	return &GormRepo{DB: gdb}
}

func TestPostgres_DuplicateEmailInsideTransaction(t *testing.T) {
	r := newPostgresRepo(t)
	ctx := context.Background()

	require.NoError(t, r.InTx(ctx, func(tx *GormRepo) error {
		return tx.CreateUser(ctx, &models.User{Email: "dup@example.com", Password: "hash"})
	}))

	err := r.InTx(ctx, func(tx *GormRepo) error {
		return tx.CreateUser(ctx, &models.User{Email: "dup@example.com", Password: "hash"})
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	u, err := r.GetUserByEmail(ctx, "dup@example.com")
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)
}

func TestPostgres_ProductRoundTrip(t *testing.T) {
	r := newPostgresRepo(t)
	ctx := context.Background()

	p := &models.Product{Name: "Product 1", Description: ptr("Product 1 desc"), Price: ptr(140.54), Stock: ptr(15)}
	require.NoError(t, r.CreateProduct(ctx, p))

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p.Price, *got.Price)
	assert.Equal(t, *p.Stock, *got.Stock)

	n, err := r.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = r.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
