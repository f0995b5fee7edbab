// Package catalog реализует клиент внешнего сервиса валидации товаров:
// один синхронный запрос-ответ через брокер на каждый батч идентификаторов.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

const (
	// DefaultRequestQueue — очередь команд сервиса каталога.
	DefaultRequestQueue = "catalog.validate_products.q"

	defaultCallTimeout = 5 * time.Second
)

// Channel покрывает операции AMQP-канала, нужные клиенту.
// Выделен интерфейсом, чтобы клиент тестировался без брокера.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// validateRequest — тело запроса к каталогу.
type validateRequest struct {
	ProductIDs []int64 `json:"productIds"`
}

// Client выполняет RPC validate_products поверх брокера.
// Повторов нет: любой сбой немедленно возвращается как ErrCatalogUnavailable.
type Client struct {
	ch           Channel
	logger       *log.Entry
	requestQueue string
	replyQueue   string
	timeout      time.Duration

	mu      sync.Mutex
	pending map[string]chan []byte
}

// Option настраивает Client.
type Option func(*Client)

// WithRequestQueue задаёт очередь команд каталога.
func WithRequestQueue(queue string) Option {
	return func(c *Client) { c.requestQueue = queue }
}

// WithTimeout задаёт таймаут ожидания ответа, если контекст вызова без дедлайна.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithLogger задаёт logger клиента.
func WithLogger(logger *log.Entry) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient объявляет callback-очередь, запускает диспетчер ответов
// и возвращает готовый к работе клиент.
func NewClient(ch Channel, opts ...Option) (*Client, error) {
	c := &Client{
		ch:           ch,
		logger:       log.WithField("component", "catalog-client"),
		requestQueue: DefaultRequestQueue,
		timeout:      defaultCallTimeout,
		pending:      make(map[string]chan []byte),
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := ch.QueueDeclare(c.requestQueue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare catalog request queue: %w", err)
	}

	// Эксклюзивная auto-delete очередь с именем от брокера: сюда каталог
	// публикует ответы по reply-to.
	replyQueue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare catalog reply queue: %w", err)
	}
	c.replyQueue = replyQueue.Name

	deliveries, err := ch.Consume(c.replyQueue, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume catalog reply queue: %w", err)
	}

	go c.dispatch(deliveries)

	return c, nil
}

// ValidateProducts отправляет один батч идентификаторов и ждёт ответ каталога.
// Несуществующие товары в ответе отсутствуют; это не ошибка вызова.
func (c *Client) ValidateProducts(ctx context.Context, productIDs []int64) ([]domain.ValidatedProduct, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(validateRequest{ProductIDs: productIDs})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", domain.ErrCatalogUnavailable, err)
	}

	corrID := uuid.NewString()
	respCh := c.register(corrID)
	defer c.unregister(corrID)

	err = c.ch.PublishWithContext(ctx, "", c.requestQueue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: corrID,
		ReplyTo:       c.replyQueue,
		Body:          body,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: publish request: %w", domain.ErrCatalogUnavailable, err)
	}

	select {
	case <-ctx.Done():
		// Истечение таймаута вызывающей стороны — тоже сбой валидации.
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, ctx.Err())
	case payload, ok := <-respCh:
		if !ok {
			return nil, fmt.Errorf("%w: reply channel closed", domain.ErrCatalogUnavailable)
		}
		var products []domain.ValidatedProduct
		if err := json.Unmarshal(payload, &products); err != nil {
			return nil, fmt.Errorf("%w: decode response: %w", domain.ErrCatalogUnavailable, err)
		}
		return products, nil
	}
}

func (c *Client) dispatch(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		c.mu.Lock()
		respCh, ok := c.pending[d.CorrelationId]
		c.mu.Unlock()
		if !ok {
			c.logger.WithField("correlation_id", d.CorrelationId).Debug("orphan catalog reply dropped")
			continue
		}
		select {
		case respCh <- d.Body:
		default:
		}
	}
	c.logger.Info("catalog reply consumer stopped")
}

func (c *Client) register(corrID string) chan []byte {
	respCh := make(chan []byte, 1)
	c.mu.Lock()
	c.pending[corrID] = respCh
	c.mu.Unlock()
	return respCh
}

func (c *Client) unregister(corrID string) {
	c.mu.Lock()
	delete(c.pending, corrID)
	c.mu.Unlock()
}

var _ domain.CatalogService = (*Client)(nil)
