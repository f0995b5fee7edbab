// Package rpcerr сводит все внутренние ошибки к единому структурированному
// виду, который уходит вызывающей стороне через RPC-транспорт.
// Ни одна внутренняя ошибка (драйвер БД, сеть) не покидает сервис в сыром виде.
package rpcerr

import (
	"errors"
	"net/http"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// Error — структурированная RPC-ошибка: числовой статус, сообщение для
// человека и необязательные детали с текстом исходной ошибки.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error реализует стандартный интерфейс error.
func (e *Error) Error() string {
	return e.Message
}

// New собирает RPC-ошибку из статуса, сообщения и (опционально) причины.
func New(status int, message string, cause error) *Error {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &Error{Status: status, Message: message, Details: details}
}

// Translate сводит любую ошибку к *Error. Уже переведённые ошибки проходят
// без изменений — перевод выполняется ровно один раз, на границе транспорта.
func Translate(err error) *Error {
	if err == nil {
		return nil
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return New(http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrProductUnknown),
		errors.Is(err, domain.ErrItemsRequired),
		errors.Is(err, domain.ErrItemQtyInvalid),
		errors.Is(err, domain.ErrStatusInvalid):
		return New(http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrCatalogUnavailable):
		// Сбой каталога блокирует создание заказа по данным запроса,
		// поэтому классифицируется как 400, а не 500.
		return New(http.StatusBadRequest, domain.ErrCatalogUnavailable.Error(), err)
	default:
		return New(http.StatusInternalServerError, "internal error", err)
	}
}
