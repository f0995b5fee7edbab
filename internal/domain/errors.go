package domain

import "errors"

var (
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")
	// Ошибка неизвестного статуса при обновлении заказа.
	ErrStatusInvalid = errors.New("order status is invalid")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductUnknown — запрошенный товар отсутствует в ответе каталога.
	ErrProductUnknown = errors.New("product is invalid")
	// ErrCatalogUnavailable — вызов сервиса каталога завершился ошибкой
	// (сеть, таймаут, некорректный ответ). Повторы — забота вызывающей стороны.
	ErrCatalogUnavailable = errors.New("product validation failed")
)

// IsNotFound проверяет, является ли ошибка отсутствием заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}
