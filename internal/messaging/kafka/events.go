package kafka

import "time"

// EventType определяет тип события заказа.
type EventType string

const (
	EventTypeOrderCreated EventType = "order.created"
	EventTypeOrderUpdated EventType = "order.updated"
	EventTypeOrderRemoved EventType = "order.removed"
)

// Topics для Kafka.
const (
	TopicOrderEvents = "orders.order.events"
)

// OrderEvent представляет событие жизненного цикла заказа.
type OrderEvent struct {
	EventType  EventType `json:"event_type"`
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	TotalPrice string    `json:"total_price"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewOrderEvent создает новое событие заказа.
func NewOrderEvent(eventType EventType, orderID, status, totalPrice string) *OrderEvent {
	return &OrderEvent{
		EventType:  eventType,
		OrderID:    orderID,
		Status:     status,
		TotalPrice: totalPrice,
		Timestamp:  time.Now(),
	}
}
