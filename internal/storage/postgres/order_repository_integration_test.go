package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func sampleOrder() domain.Order {
	return domain.Order{
		Status:     domain.OrderStatusPending,
		TotalPrice: domain.MustPrice("25.97"),
		Items: []domain.OrderItem{
			{ProductID: 1, Quantity: 2, Price: domain.MustPrice("10.99")},
			{ProductID: 2, Quantity: 1, Price: domain.MustPrice("3.99")},
		},
	}
}

func TestOrderRepository_PostgresCreateAndGet(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	created, err := repo.Create(sampleOrder())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	got, err := repo.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, domain.OrderStatusPending, got.Status)
	require.True(t, got.TotalPrice.Equal(domain.MustPrice("25.97")),
		"total mismatch after roundtrip: %s", got.TotalPrice)

	// Позиции читаются в порядке из запроса.
	require.Len(t, got.Items, 2)
	require.Equal(t, int64(1), got.Items[0].ProductID)
	require.Equal(t, int64(2), got.Items[1].ProductID)
	require.True(t, got.Items[0].Price.Equal(domain.MustPrice("10.99")))
}

func TestOrderRepository_PostgresListNewestFirst(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	var ids []string
	for i := 0; i < 3; i++ {
		created, err := repo.Create(sampleOrder())
		require.NoError(t, err)
		ids = append(ids, created.ID)
		time.Sleep(10 * time.Millisecond)
	}

	orders, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	require.Equal(t, ids[2], orders[0].ID)
	require.Equal(t, ids[0], orders[2].ID)

	limited, err := repo.List(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestOrderRepository_PostgresUpdateStatus(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	created, err := repo.Create(sampleOrder())
	require.NoError(t, err)

	paid := domain.OrderStatusPaid
	updated, err := repo.Update(created.ID, domain.OrderUpdate{Status: &paid})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, updated.Status)
	require.True(t, updated.TotalPrice.Equal(created.TotalPrice))

	// Пустое обновление подтверждает существование и ничего не меняет.
	same, err := repo.Update(created.ID, domain.OrderUpdate{})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, same.Status)

	_, err = repo.Update("00000000-0000-0000-0000-000000000000", domain.OrderUpdate{Status: &paid})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_PostgresDeleteCascades(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	created, err := repo.Create(sampleOrder())
	require.NoError(t, err)

	removed, err := repo.Delete(created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, removed.ID)
	require.Len(t, removed.Items, 2, "deleted order is returned with its items")

	_, err = repo.Get(created.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	// Каскад подчистил позиции.
	var count int
	err = store.DB().QueryRow(`SELECT COUNT(*) FROM order_items WHERE order_id = $1`, created.ID).Scan(&count)
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = repo.Delete(created.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_PostgresGetNotFound(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	_, err := repo.Get("00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}
