package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики обработки заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated prometheus.Counter
	ordersUpdated prometheus.Counter
	ordersRemoved prometheus.Counter
	createFailed  prometheus.Counter

	// Счётчики отказов по происхождению
	validationFailures prometheus.Counter
	catalogFailures    prometheus.Counter

	// Гистограмма времени создания заказа
	createDuration prometheus.Histogram
}

// NewOrderMetrics создаёт новый экземпляр метрик заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersUpdated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_updated_total",
			Help: "Total number of orders updated",
		}),
		ordersRemoved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_removed_total",
			Help: "Total number of orders removed",
		}),
		createFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_create_failed_total",
			Help: "Total number of order creations failed at the persistence stage",
		}),
		validationFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_validation_failures_total",
			Help: "Total number of order creations rejected by validation or pricing",
		}),
		catalogFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_catalog_failures_total",
			Help: "Total number of failed catalog validation calls",
		}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orders_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderUpdated увеличивает счётчик обновлённых заказов.
func (m *OrderMetrics) RecordOrderUpdated() {
	m.ordersUpdated.Inc()
}

// RecordOrderRemoved увеличивает счётчик удалённых заказов.
func (m *OrderMetrics) RecordOrderRemoved() {
	m.ordersRemoved.Inc()
}

// RecordCreateFailed увеличивает счётчик сбоев записи заказа.
func (m *OrderMetrics) RecordCreateFailed() {
	m.createFailed.Inc()
}

// RecordValidationFailure увеличивает счётчик отклонённых запросов.
func (m *OrderMetrics) RecordValidationFailure() {
	m.validationFailures.Inc()
}

// RecordCatalogFailure увеличивает счётчик сбоев вызова каталога.
func (m *OrderMetrics) RecordCatalogFailure() {
	m.catalogFailures.Inc()
}

// RecordCreateDuration записывает время создания заказа.
func (m *OrderMetrics) RecordCreateDuration(duration time.Duration) {
	m.createDuration.Observe(duration.Seconds())
}
