package domain

import "time"

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, дальнейшая обработка ещё не началась.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid — заказ оплачен.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusDelivered — заказ доставлен покупателю.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidStatus проверяет, что статус входит в известный набор.
func ValidStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации строки в хранилище.
	ID string
	// ProductID — внешний идентификатор товара в каталоге.
	ProductID int64
	// Quantity — количество единиц товара, всегда положительное.
	Quantity int32
	// Price — снимок цены каталога на момент создания заказа.
	// Дальнейшие изменения цен в каталоге не влияют на существующие заказы.
	Price Price
}

// Order агрегирует состояние заказа и его позиции.
// Позиции принадлежат заказу и фиксируются при создании.
type Order struct {
	ID         string
	Status     OrderStatus
	TotalPrice Price
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderUpdate — частичное обновление заказа; nil-поля не трогаются.
type OrderUpdate struct {
	Status *OrderStatus
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}

	// Сверяем сумму заказа с суммой позиций: price * quantity.
	total := ZeroPrice()
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.Price.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
		total = total.Add(item.Price.MulInt(int64(item.Quantity)))
	}
	if !total.Equal(o.TotalPrice) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
