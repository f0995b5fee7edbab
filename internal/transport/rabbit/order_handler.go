package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/rpcerr"
	"github.com/vladislavdragonenkov/orders/internal/service/order"
)

// Очереди команд сервиса заказов.
const (
	QueueCreateOrder   = "orders.create_order.q"
	QueueFindAllOrders = "orders.find_all_orders.q"
	QueueFindOneOrder  = "orders.find_one_order.q"
	QueueUpdateOrder   = "orders.update_order.q"
	QueueRemoveOrder   = "orders.remove_order.q"
)

// Publisher покрывает публикацию ответов; выделен для тестов без брокера.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// OrderHandler привязывает команды заказов к сервису и сериализует ответы.
// Единственное место, где внутренние ошибки переводятся в RPC-контракт.
type OrderHandler struct {
	svc       *order.Service
	publisher Publisher
	logger    *log.Entry
}

// NewOrderHandler конструирует обработчик команд заказов.
func NewOrderHandler(svc *order.Service, publisher Publisher, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.New().WithField("component", "order-handler")
	}
	return &OrderHandler{svc: svc, publisher: publisher, logger: logger}
}

// Register привязывает все команды заказов к маршрутизатору.
func (h *OrderHandler) Register(r *Router) {
	r.Register(QueueCreateOrder, HandlerFunc(h.handleCreate))
	r.Register(QueueFindAllOrders, HandlerFunc(h.handleFindAll))
	r.Register(QueueFindOneOrder, HandlerFunc(h.handleFindOne))
	r.Register(QueueUpdateOrder, HandlerFunc(h.handleUpdate))
	r.Register(QueueRemoveOrder, HandlerFunc(h.handleRemove))
}

// --- Wire DTO ---
// Имена полей повторяют контракт вызывающей стороны (camelCase).

type itemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

type createOrderRequest struct {
	Items []itemRequest `json:"items"`
}

type idRequest struct {
	ID string `json:"id"`
}

type updateOrderRequest struct {
	ID   string `json:"id"`
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
}

type itemResponse struct {
	ProductID int64        `json:"productId"`
	Quantity  int32        `json:"quantity"`
	Price     domain.Price `json:"price"`
}

type orderResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	TotalPrice domain.Price   `json:"totalPrice"`
	Items      []itemResponse `json:"items"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// envelope — единый формат ответа: либо data, либо error, никогда оба.
type envelope struct {
	Data  any           `json:"data,omitempty"`
	Error *rpcerr.Error `json:"error,omitempty"`
}

func (h *OrderHandler) handleCreate(ctx context.Context, d amqp.Delivery) error {
	var req createOrderRequest
	if err := json.Unmarshal(d.Body, &req); err != nil {
		return h.replyError(ctx, d, rpcerr.New(http.StatusBadRequest, "malformed create_order payload", err))
	}

	if rpcErr := validateCreateRequest(req); rpcErr != nil {
		return h.replyError(ctx, d, rpcErr)
	}

	items := make([]order.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, order.ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	created, err := h.svc.Create(ctx, order.CreateOrderInput{Items: items})
	if err != nil {
		return h.replyError(ctx, d, rpcerr.Translate(err))
	}

	return h.reply(ctx, d, toOrderResponse(created))
}

func (h *OrderHandler) handleFindAll(ctx context.Context, d amqp.Delivery) error {
	orders, err := h.svc.FindAll()
	if err != nil {
		return h.replyError(ctx, d, rpcerr.Translate(err))
	}

	result := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, toOrderResponse(o))
	}
	return h.reply(ctx, d, result)
}

func (h *OrderHandler) handleFindOne(ctx context.Context, d amqp.Delivery) error {
	id, rpcErr := decodeID(d.Body)
	if rpcErr != nil {
		return h.replyError(ctx, d, rpcErr)
	}

	found, err := h.svc.FindOne(id)
	if err != nil {
		return h.replyError(ctx, d, rpcerr.Translate(err))
	}
	return h.reply(ctx, d, toOrderResponse(found))
}

func (h *OrderHandler) handleUpdate(ctx context.Context, d amqp.Delivery) error {
	var req updateOrderRequest
	if err := json.Unmarshal(d.Body, &req); err != nil {
		return h.replyError(ctx, d, rpcerr.New(http.StatusBadRequest, "malformed update_order payload", err))
	}
	if req.ID == "" {
		return h.replyError(ctx, d, rpcerr.New(http.StatusBadRequest, "order id is required", nil))
	}

	updated, err := h.svc.Update(req.ID, order.UpdateOrderInput{Status: req.Data.Status})
	if err != nil {
		return h.replyError(ctx, d, rpcerr.Translate(err))
	}
	return h.reply(ctx, d, toOrderResponse(updated))
}

func (h *OrderHandler) handleRemove(ctx context.Context, d amqp.Delivery) error {
	id, rpcErr := decodeID(d.Body)
	if rpcErr != nil {
		return h.replyError(ctx, d, rpcErr)
	}

	removed, err := h.svc.Remove(id)
	if err != nil {
		return h.replyError(ctx, d, rpcerr.Translate(err))
	}
	return h.reply(ctx, d, toOrderResponse(removed))
}

// validateCreateRequest — проверка формы запроса до передачи в сервис:
// непустой массив позиций, положительные количества, валидные id товаров.
func validateCreateRequest(req createOrderRequest) *rpcerr.Error {
	if len(req.Items) == 0 {
		return rpcerr.New(http.StatusBadRequest, domain.ErrItemsRequired.Error(), nil)
	}
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return rpcerr.New(http.StatusBadRequest, fmt.Sprintf("product %d is invalid", item.ProductID), nil)
		}
		if item.Quantity <= 0 {
			return rpcerr.New(http.StatusBadRequest, domain.ErrItemQtyInvalid.Error(), nil)
		}
	}
	return nil
}

func decodeID(body []byte) (string, *rpcerr.Error) {
	// Идентификатор приходит либо голой JSON-строкой, либо объектом {id}.
	var plain string
	if err := json.Unmarshal(body, &plain); err == nil && plain != "" {
		return plain, nil
	}

	var req idRequest
	if err := json.Unmarshal(body, &req); err != nil || req.ID == "" {
		return "", rpcerr.New(http.StatusBadRequest, "order id is required", err)
	}
	return req.ID, nil
}

func (h *OrderHandler) reply(ctx context.Context, d amqp.Delivery, data any) error {
	return h.publish(ctx, d, envelope{Data: data})
}

func (h *OrderHandler) replyError(ctx context.Context, d amqp.Delivery, rpcErr *rpcerr.Error) error {
	h.logger.WithFields(log.Fields{
		"status":  rpcErr.Status,
		"message": rpcErr.Message,
	}).Debug("command rejected")
	return h.publish(ctx, d, envelope{Error: rpcErr})
}

func (h *OrderHandler) publish(ctx context.Context, d amqp.Delivery, resp envelope) error {
	if d.ReplyTo == "" {
		// Команда без reply-to: обрабатываем, но ответить некому.
		h.logger.WithField("correlation_id", d.CorrelationId).Warn("delivery has no reply-to, response dropped")
		return nil
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	err = h.publisher.PublishWithContext(ctx, "", d.ReplyTo, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: d.CorrelationId,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish response: %w", err)
	}
	return nil
}

func toOrderResponse(o domain.Order) orderResponse {
	items := make([]itemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, itemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	return orderResponse{
		ID:         o.ID,
		Status:     string(o.Status),
		TotalPrice: o.TotalPrice,
		Items:      items,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}
