package domain

import "context"

// ValidatedProduct — запись каталога, подтверждённая внешним сервисом.
// Не персистится: живёт только внутри создания заказа.
type ValidatedProduct struct {
	ID    int64  `json:"id"`
	Price Price  `json:"price"`
	Name  string `json:"name"`
}

// CatalogService описывает взаимодействие с сервисом каталога товаров.
type CatalogService interface {
	// ValidateProducts запрашивает подтверждение товаров одним батчем.
	// Несуществующие идентификаторы просто отсутствуют в ответе.
	// Любая ошибка вызова оборачивает ErrCatalogUnavailable.
	ValidateProducts(ctx context.Context, productIDs []int64) ([]ValidatedProduct, error)
}
