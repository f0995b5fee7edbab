package order

import (
	"fmt"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// priceItems сопоставляет запрошенные позиции с подтверждёнными товарами
// каталога и считает точную десятичную сумму заказа.
// Чистая функция: никаких побочных эффектов и обращений к сети.
//
// Первый же товар, отсутствующий в ответе каталога, прерывает обработку
// с ErrProductUnknown — до того, как начнётся вычисление цен.
func priceItems(items []ItemInput, products map[int64]domain.ValidatedProduct) ([]domain.OrderItem, domain.Price, error) {
	for _, item := range items {
		if _, ok := products[item.ProductID]; !ok {
			return nil, domain.Price{}, fmt.Errorf("product %d: %w", item.ProductID, domain.ErrProductUnknown)
		}
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	total := domain.ZeroPrice()
	for _, item := range items {
		product := products[item.ProductID]
		orderItems = append(orderItems, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
		total = total.Add(product.Price.MulInt(int64(item.Quantity)))
	}

	return orderItems, total, nil
}

// productMap строит индекс productID -> ValidatedProduct по ответу каталога.
func productMap(products []domain.ValidatedProduct) map[int64]domain.ValidatedProduct {
	m := make(map[int64]domain.ValidatedProduct, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}
