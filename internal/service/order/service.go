// Package order реализует сценарии работы с заказами: создание через
// валидацию каталога и расчёт цен, а также чтение, обновление и удаление.
package order

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orders/internal/metrics"
)

// ItemInput — запрошенная позиция заказа: товар и количество.
type ItemInput struct {
	ProductID int64
	Quantity  int32
}

// CreateOrderInput — входные данные создания заказа.
// Валидация формы (типы, непустой массив) выполняется на транспорте,
// но сервис перепроверяет критичные инварианты защитно.
type CreateOrderInput struct {
	Items []ItemInput
}

// UpdateOrderInput — частичное обновление заказа; пустые поля не трогаются.
type UpdateOrderInput struct {
	Status string
}

// Service последовательно выполняет этапы обработки заказа:
// валидация каталога -> расчёт цен -> атомарная запись.
// Первый сбой на любом этапе прерывает оставшиеся.
type Service struct {
	orders  domain.OrderRepository
	catalog domain.CatalogService
	logger  *log.Entry
	metrics *metrics.OrderMetrics
	events  *kafka.Producer // опциональный producer событий жизненного цикла
}

// NewService создаёт рабочий экземпляр сервиса заказов.
func NewService(orders domain.OrderRepository, catalog domain.CatalogService, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		orders:  orders,
		catalog: catalog,
		logger:  logger,
		metrics: metrics.NewOrderMetrics(),
	}
}

// NewServiceWithEvents создаёт сервис, публикующий события заказов в Kafka.
func NewServiceWithEvents(
	orders domain.OrderRepository,
	catalog domain.CatalogService,
	events *kafka.Producer,
	logger *log.Entry,
) *Service {
	s := NewService(orders, catalog, logger)
	s.events = events
	return s
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(orders domain.OrderRepository, catalog domain.CatalogService, logger *log.Entry) *Service {
	s := NewService(orders, catalog, logger)
	s.metrics = nil
	return s
}

// Create проводит заказ через валидацию, расчёт цен и атомарную запись.
// Либо полностью провалидированный и посчитанный заказ сохраняется целиком,
// либо не сохраняется ничего.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCreateDuration(time.Since(start))
		}
	}()

	if err := checkIntake(in); err != nil {
		s.recordValidationFailure()
		return domain.Order{}, err
	}

	// Ровно один сетевой round trip: все товары валидируются одним батчем.
	products, err := s.catalog.ValidateProducts(ctx, collectProductIDs(in.Items))
	if err != nil {
		s.logger.WithError(err).Warn("catalog validation failed")
		if s.metrics != nil {
			s.metrics.RecordCatalogFailure()
		}
		return domain.Order{}, err
	}

	items, total, err := priceItems(in.Items, productMap(products))
	if err != nil {
		s.logger.WithError(err).Warn("order pricing rejected")
		s.recordValidationFailure()
		return domain.Order{}, err
	}

	created, err := s.orders.Create(domain.Order{
		Status:     domain.OrderStatusPending,
		TotalPrice: total,
		Items:      items,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to persist order")
		if s.metrics != nil {
			s.metrics.RecordCreateFailed()
		}
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.publishEvent(kafka.EventTypeOrderCreated, created)

	return created, nil
}

// FindAll возвращает все заказы от новых к старым.
func (s *Service) FindAll() ([]domain.Order, error) {
	orders, err := s.orders.List(0)
	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// FindOne возвращает заказ по идентификатору.
func (s *Service) FindOne(id string) (domain.Order, error) {
	order, err := s.orders.Get(id)
	if err != nil {
		s.logOrderError(err, "FindOne", id)
		if domain.IsNotFound(err) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("fetch order %s: %w", id, err)
	}
	return order, nil
}

// Update перезаписывает переданные поля заказа.
// Консистентность цен при этом не перепроверяется: снимок цены неизменяем.
func (s *Service) Update(id string, in UpdateOrderInput) (domain.Order, error) {
	update := domain.OrderUpdate{}
	if in.Status != "" {
		status := domain.OrderStatus(in.Status)
		if !domain.ValidStatus(status) {
			return domain.Order{}, fmt.Errorf("status %q: %w", in.Status, domain.ErrStatusInvalid)
		}
		update.Status = &status
	}

	order, err := s.orders.Update(id, update)
	if err != nil {
		s.logOrderError(err, "Update", id)
		if domain.IsNotFound(err) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderUpdated()
	}
	s.publishEvent(kafka.EventTypeOrderUpdated, order)

	return order, nil
}

// Remove удаляет заказ и возвращает удалённую запись.
func (s *Service) Remove(id string) (domain.Order, error) {
	order, err := s.orders.Delete(id)
	if err != nil {
		s.logOrderError(err, "Remove", id)
		if domain.IsNotFound(err) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("delete order %s: %w", id, err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderRemoved()
	}
	s.publishEvent(kafka.EventTypeOrderRemoved, order)

	return order, nil
}

// checkIntake защитно перепроверяет инварианты, за которые отвечает
// валидатор входных данных на транспорте.
func checkIntake(in CreateOrderInput) error {
	if len(in.Items) == 0 {
		return domain.ErrItemsRequired
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("product %d: %w", item.ProductID, domain.ErrItemQtyInvalid)
		}
	}
	return nil
}

// collectProductIDs собирает идентификаторы товаров; дубликаты допустимы,
// каталог обязан их переносить.
func collectProductIDs(items []ItemInput) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func (s *Service) recordValidationFailure() {
	if s.metrics != nil {
		s.metrics.RecordValidationFailure()
	}
}

func (s *Service) logOrderError(err error, operation, orderID string) {
	entry := s.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"order_id":  orderID,
	})
	if domain.IsNotFound(err) {
		entry.Warn("order not found")
		return
	}
	entry.Error("order operation failed")
}

// publishEvent отправляет событие жизненного цикла заказа best-effort:
// сбой публикации не влияет на ответ вызывающей стороне.
func (s *Service) publishEvent(eventType kafka.EventType, order domain.Order) {
	if s.events == nil {
		return
	}
	event := kafka.NewOrderEvent(eventType, order.ID, string(order.Status), order.TotalPrice.String())
	if err := s.events.PublishEvent(kafka.TopicOrderEvents, order.ID, event); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order event")
	}
}
