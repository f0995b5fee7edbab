// Package rabbit реализует RPC-поверхность сервиса поверх брокера:
// по одной очереди на команду, ответы — в reply-to с correlation-id.
package rabbit

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Router ведёт несколько consumer'ов (по одному на очередь команд)
// на одном AMQP-канале.
type Router struct {
	ch            *amqp.Channel
	logger        *log.Entry
	prefetch      int
	callTimeout   time.Duration
	requeueOnErr  bool
	registrations []registration
}

type registration struct {
	queueName   string
	handler     Handler
	consumerTag string
}

// RouterOption настраивает Router.
type RouterOption func(*Router)

// WithPrefetch задаёт QoS prefetch канала.
func WithPrefetch(n int) RouterOption { return func(r *Router) { r.prefetch = n } }

// WithCallTimeout задаёт таймаут обработки одной команды.
func WithCallTimeout(d time.Duration) RouterOption { return func(r *Router) { r.callTimeout = d } }

// WithRequeue задаёт, возвращать ли сообщение в очередь при ошибке обработчика.
func WithRequeue(b bool) RouterOption { return func(r *Router) { r.requeueOnErr = b } }

// WithRouterLogger задаёт logger маршрутизатора.
func WithRouterLogger(logger *log.Entry) RouterOption { return func(r *Router) { r.logger = logger } }

// NewRouter создаёт Router. По умолчанию: prefetch=50, timeout=10s, requeue=false.
// Requeue по умолчанию выключен: команды RPC не повторяются автоматически,
// политика повторов принадлежит вызывающей стороне.
func NewRouter(ch *amqp.Channel, opts ...RouterOption) *Router {
	r := &Router{
		ch:          ch,
		logger:      log.WithField("component", "rabbit-router"),
		prefetch:    50,
		callTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register связывает очередь команд с обработчиком.
func (r *Router) Register(queueName string, h Handler) {
	r.registrations = append(r.registrations, registration{
		queueName:   queueName,
		handler:     h,
		consumerTag: "c_" + queueName,
	})
}

// Start объявляет очереди и запускает consumer'ов; неблокирующий
// (по одной горутине на очередь). QoS действует на весь канал.
func (r *Router) Start() error {
	if err := r.ch.Qos(r.prefetch, 0, false); err != nil {
		return err
	}

	for _, reg := range r.registrations {
		if _, err := r.ch.QueueDeclare(reg.queueName, true, false, false, false, nil); err != nil {
			return err
		}

		deliveries, err := r.ch.Consume(
			reg.queueName,
			reg.consumerTag,
			false, // manual ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return err
		}

		go r.consume(reg, deliveries)
	}

	return nil
}

func (r *Router) consume(reg registration, deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		ctx, cancel := context.WithTimeout(context.Background(), r.callTimeout)
		err := reg.handler.Handle(ctx, d)
		cancel()

		if err != nil {
			r.logger.WithError(err).WithFields(log.Fields{
				"queue":   reg.queueName,
				"tag":     reg.consumerTag,
				"requeue": r.requeueOnErr,
			}).Error("handler failed")
			_ = d.Nack(false, r.requeueOnErr)
			continue
		}
		_ = d.Ack(false)
	}
	r.logger.WithFields(log.Fields{
		"queue": reg.queueName,
		"tag":   reg.consumerTag,
	}).Info("consumer stopped")
}
