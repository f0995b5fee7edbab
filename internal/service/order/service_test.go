package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/service/catalog"
	"github.com/vladislavdragonenkov/orders/internal/service/order"
	"github.com/vladislavdragonenkov/orders/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

func newTestService() (*order.Service, domain.OrderRepository, *catalog.MockService) {
	repo := memory.NewOrderRepository()
	mock := catalog.NewMockService()
	mock.SetProduct(domain.ValidatedProduct{ID: 1, Price: domain.MustPrice("10.99"), Name: "keyboard"})
	mock.SetProduct(domain.ValidatedProduct{ID: 2, Price: domain.MustPrice("3.99"), Name: "mouse"})

	svc := order.NewServiceWithoutMetrics(repo, mock, loggerForTests())
	return svc, repo, mock
}

func TestCreateOrder(t *testing.T) {
	svc, _, mock := newTestService()

	created, err := svc.Create(context.Background(), order.CreateOrderInput{
		Items: []order.ItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.NotEmpty(t, created.ID)
	require.Equal(t, domain.OrderStatusPending, created.Status)
	require.False(t, created.CreatedAt.IsZero())
	require.Len(t, created.Items, 2)

	// 10.99*2 + 3.99*1 = 25.97, без погрешностей float.
	require.True(t, created.TotalPrice.Equal(domain.MustPrice("25.97")),
		"expected total 25.97, got %s", created.TotalPrice)

	require.True(t, created.Items[0].Price.Equal(domain.MustPrice("10.99")))
	require.True(t, created.Items[1].Price.Equal(domain.MustPrice("3.99")))

	require.Equal(t, 1, mock.ValidateCalls, "all products must be validated in one batch")
}

func TestCreateOrderDuplicateProducts(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Create(context.Background(), order.CreateOrderInput{
		Items: []order.ItemInput{
			{ProductID: 1, Quantity: 1},
			{ProductID: 1, Quantity: 3},
		},
	})
	require.NoError(t, err)

	require.Len(t, created.Items, 2, "duplicate products stay separate items")
	require.True(t, created.TotalPrice.Equal(domain.MustPrice("43.96")),
		"expected total 43.96, got %s", created.TotalPrice)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Create(context.Background(), order.CreateOrderInput{
		Items: []order.ItemInput{
			{ProductID: 1, Quantity: 1},
			{ProductID: 777, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, domain.ErrProductUnknown)
	require.Contains(t, err.Error(), "777")

	// Атомарность: при отказе не сохраняется ничего, даже валидные позиции.
	orders, listErr := repo.List(0)
	require.NoError(t, listErr)
	require.Empty(t, orders)
}

func TestCreateOrderCatalogUnavailable(t *testing.T) {
	svc, repo, mock := newTestService()
	mock.Err = domain.ErrCatalogUnavailable

	_, err := svc.Create(context.Background(), order.CreateOrderInput{
		Items: []order.ItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	orders, listErr := repo.List(0)
	require.NoError(t, listErr)
	require.Empty(t, orders)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	svc, _, mock := newTestService()

	_, err := svc.Create(context.Background(), order.CreateOrderInput{})
	require.ErrorIs(t, err, domain.ErrItemsRequired)

	_, err = svc.Create(context.Background(), order.CreateOrderInput{
		Items: []order.ItemInput{{ProductID: 1, Quantity: 0}},
	})
	require.ErrorIs(t, err, domain.ErrItemQtyInvalid)

	require.Equal(t, 0, mock.ValidateCalls, "invalid input must not reach the catalog")
}

func TestPriceSnapshotIsImmutable(t *testing.T) {
	svc, _, mock := newTestService()

	created, err := svc.Create(context.Background(), order.CreateOrderInput{
		Items: []order.ItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	// Каталог поднимает цену; существующий заказ этого не видит.
	mock.SetProduct(domain.ValidatedProduct{ID: 1, Price: domain.MustPrice("99.99"), Name: "keyboard"})

	found, err := svc.FindOne(created.ID)
	require.NoError(t, err)
	require.True(t, found.TotalPrice.Equal(domain.MustPrice("10.99")),
		"stored order must keep the price snapshot, got %s", found.TotalPrice)
}

func TestFindAllOrdering(t *testing.T) {
	svc, _, _ := newTestService()

	var ids []string
	for i := 0; i < 3; i++ {
		created, err := svc.Create(context.Background(), order.CreateOrderInput{
			Items: []order.ItemInput{{ProductID: 1, Quantity: 1}},
		})
		require.NoError(t, err)
		ids = append(ids, created.ID)
		time.Sleep(5 * time.Millisecond)
	}

	orders, err := svc.FindAll()
	require.NoError(t, err)
	require.Len(t, orders, 3)

	// Новые заказы идут первыми.
	require.Equal(t, ids[2], orders[0].ID)
	require.Equal(t, ids[1], orders[1].ID)
	require.Equal(t, ids[0], orders[2].ID)
}

func TestFindOneNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.FindOne("no-such-order")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdateStatus(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Create(context.Background(), order.CreateOrderInput{
		Items: []order.ItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := svc.Update(created.ID, order.UpdateOrderInput{Status: "paid"})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, updated.Status)
	require.True(t, updated.TotalPrice.Equal(created.TotalPrice), "update must not touch the total")
}

func TestUpdateInvalidStatus(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Create(context.Background(), order.CreateOrderInput{
		Items: []order.ItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Update(created.ID, order.UpdateOrderInput{Status: "shipped"})
	require.ErrorIs(t, err, domain.ErrStatusInvalid)

	// Заказ не изменился.
	found, err := svc.FindOne(created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, found.Status)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Update("no-such-order", order.UpdateOrderInput{Status: "paid"})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRemove(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Create(context.Background(), order.CreateOrderInput{
		Items: []order.ItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	removed, err := svc.Remove(created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, removed.ID)

	_, err = svc.FindOne(created.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	// Повторное удаление — тоже not found.
	_, err = svc.Remove(created.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}
