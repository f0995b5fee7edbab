package order

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func catalogOf(products ...domain.ValidatedProduct) map[int64]domain.ValidatedProduct {
	return productMap(products)
}

func TestPriceItems(t *testing.T) {
	products := catalogOf(
		domain.ValidatedProduct{ID: 1, Price: domain.MustPrice("10.99")},
		domain.ValidatedProduct{ID: 2, Price: domain.MustPrice("0.01")},
	)

	items, total, err := priceItems([]ItemInput{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 3},
	}, products)
	require.NoError(t, err)

	require.Len(t, items, 2)
	require.True(t, items[0].Price.Equal(domain.MustPrice("10.99")))
	require.True(t, items[1].Price.Equal(domain.MustPrice("0.01")))
	require.True(t, total.Equal(domain.MustPrice("22.01")), "expected 22.01, got %s", total)
}

func TestPriceItemsMissingProductFailsBeforePricing(t *testing.T) {
	products := catalogOf(domain.ValidatedProduct{ID: 1, Price: domain.MustPrice("10.99")})

	items, _, err := priceItems([]ItemInput{
		{ProductID: 1, Quantity: 1},
		{ProductID: 42, Quantity: 1},
	}, products)

	require.ErrorIs(t, err, domain.ErrProductUnknown)
	require.Contains(t, err.Error(), "42")
	require.Nil(t, items, "no partial result on failure")
}

func TestPriceItemsMultipliesByQuantity(t *testing.T) {
	products := catalogOf(domain.ValidatedProduct{ID: 1, Price: domain.MustPrice("5")})

	_, total, err := priceItems([]ItemInput{{ProductID: 1, Quantity: 4}}, products)
	require.NoError(t, err)
	require.True(t, total.Equal(domain.MustPrice("20")))
}

func TestProductMapKeepsLastDuplicate(t *testing.T) {
	m := productMap([]domain.ValidatedProduct{
		{ID: 1, Price: domain.MustPrice("1")},
		{ID: 1, Price: domain.MustPrice("2")},
	})
	require.Len(t, m, 1)
	require.True(t, m[1].Price.Equal(domain.MustPrice("2")))
}
