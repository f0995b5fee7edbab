package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одну доставку из очереди команд.
// nil => ACK; ошибка => NACK (поведение requeue задаёт Router).
type Handler interface {
	Handle(ctx context.Context, d amqp.Delivery) error
}

// HandlerFunc адаптирует функцию к интерфейсу Handler.
type HandlerFunc func(ctx context.Context, d amqp.Delivery) error

// Handle вызывает обёрнутую функцию.
func (f HandlerFunc) Handle(ctx context.Context, d amqp.Delivery) error {
	return f(ctx, d)
}
