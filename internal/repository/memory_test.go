package repository

import (
	"context"
	"testing"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUsers_DuplicateEmail(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Users().Create(ctx, &models.User{ID: gocql.TimeUUID(), Email: "a@example.com"}))
	err := store.Users().Create(ctx, &models.User{ID: gocql.TimeUUID(), Email: "a@example.com"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	u, err := store.Users().GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)

	_, err = store.Users().GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMemoryOrders_MarkPaidIsConditional(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	order := &models.Order{ID: gocql.TimeUUID(), Status: models.OrderStatusPending, CreatedAt: time.Now()}
	require.NoError(t, store.Orders().Create(ctx, order))

	first, second := gocql.TimeUUID(), gocql.TimeUUID()

	applied, err := store.Orders().MarkPaid(ctx, order.ID, first, models.OrderStatusPending)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = store.Orders().MarkPaid(ctx, order.ID, second, models.OrderStatusPending)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, first, *got.PaymentID)
}

func TestMemoryOrders_ClearPaymentMatchesReference(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	paymentID := gocql.TimeUUID()
	order := &models.Order{ID: gocql.TimeUUID(), Status: models.OrderStatusPaid, PaymentID: &paymentID}
	require.NoError(t, store.Orders().Create(ctx, order))

	cleared, err := store.Orders().ClearPayment(ctx, order.ID, gocql.TimeUUID())
	require.NoError(t, err)
	assert.False(t, cleared)

	cleared, err = store.Orders().ClearPayment(ctx, order.ID, paymentID)
	require.NoError(t, err)
	assert.True(t, cleared)

	got, err := store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PaymentID)
}

func TestMemoryOrders_GetReturnsCopy(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	order := &models.Order{ID: gocql.TimeUUID(), Items: []models.OrderItem{{ProductID: gocql.TimeUUID(), Quantity: 1}}}
	require.NoError(t, store.Orders().Create(ctx, order))

	got, err := store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	got.Items[0].Quantity = 99

	again, err := store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestMemoryListsAreOrderedByCreation(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	base := time.Now()
	userID := gocql.TimeUUID()

	for i := 3; i > 0; i-- {
		require.NoError(t, store.Payments().Create(ctx, &models.Payment{
			ID:        gocql.TimeUUID(),
			UserID:    userID,
			Amount:    float64(i),
			Status:    models.PaymentStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	payments, err := store.Payments().ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, 1.0, payments[0].Amount)
	assert.Equal(t, 3.0, payments[2].Amount)
}

func TestMemoryDeleteMissing(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	assert.ErrorIs(t, store.Products().Delete(ctx, gocql.TimeUUID()), apperr.ErrNotFound)
	assert.ErrorIs(t, store.Categories().Delete(ctx, gocql.TimeUUID()), apperr.ErrNotFound)
	assert.ErrorIs(t, store.Reviews().Delete(ctx, gocql.TimeUUID()), apperr.ErrNotFound)
	assert.ErrorIs(t, store.Addresses().Delete(ctx, gocql.TimeUUID()), apperr.ErrNotFound)
	assert.ErrorIs(t, store.Payments().Delete(ctx, gocql.TimeUUID()), apperr.ErrNotFound)
}

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements()

	assert.Len(t, stmts, 9)
	for _, stmt := range stmts {
		assert.Contains(t, stmt, "CREATE TABLE IF NOT EXISTS")
	}
}
