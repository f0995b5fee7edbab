package catalog

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// MockService — конфигурируемая заглушка CatalogService для тестов
// и локального запуска без брокера.
type MockService struct {
	mu       sync.Mutex
	products map[int64]domain.ValidatedProduct

	// Err, если задана, возвращается вместо ответа.
	Err error

	ValidateCalls int
}

// NewMockService возвращает mock с пустым каталогом.
func NewMockService() *MockService {
	return &MockService{products: make(map[int64]domain.ValidatedProduct)}
}

// SetProduct добавляет или заменяет товар в каталоге заглушки.
func (m *MockService) SetProduct(product domain.ValidatedProduct) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
}

// ValidateProducts возвращает известные товары из запрошенного набора,
// молча пропуская несуществующие — как настоящий каталог.
func (m *MockService) ValidateProducts(_ context.Context, productIDs []int64) ([]domain.ValidatedProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ValidateCalls++
	if m.Err != nil {
		return nil, m.Err
	}

	seen := make(map[int64]struct{}, len(productIDs))
	result := make([]domain.ValidatedProduct, 0, len(productIDs))
	for _, id := range productIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if product, ok := m.products[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

var _ domain.CatalogService = (*MockService)(nil)
