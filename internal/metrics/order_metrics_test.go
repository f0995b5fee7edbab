package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewOrderMetrics(t *testing.T) {
	metrics := NewOrderMetrics()

	if metrics == nil {
		t.Fatal("NewOrderMetrics should not return nil")
	}

	if metrics.ordersCreated == nil {
		t.Error("ordersCreated counter should not be nil")
	}

	if metrics.ordersUpdated == nil {
		t.Error("ordersUpdated counter should not be nil")
	}

	if metrics.ordersRemoved == nil {
		t.Error("ordersRemoved counter should not be nil")
	}

	if metrics.createFailed == nil {
		t.Error("createFailed counter should not be nil")
	}

	if metrics.validationFailures == nil {
		t.Error("validationFailures counter should not be nil")
	}

	if metrics.catalogFailures == nil {
		t.Error("catalogFailures counter should not be nil")
	}

	if metrics.createDuration == nil {
		t.Error("createDuration histogram should not be nil")
	}
}

func TestNewOrderMetricsIdempotentRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newOrderMetricsWithRegisterer(registry)
	second := newOrderMetricsWithRegisterer(registry)

	// Повторная регистрация переиспользует существующие коллекторы.
	first.RecordOrderCreated()
	second.RecordOrderCreated()

	if got := counterValue(t, registry, "orders_created_total"); got != 2 {
		t.Fatalf("expected shared counter value 2, got %v", got)
	}
}

func TestRecordCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newOrderMetricsWithRegisterer(registry)

	metrics.RecordOrderCreated()
	metrics.RecordOrderCreated()
	metrics.RecordOrderUpdated()
	metrics.RecordOrderRemoved()
	metrics.RecordCreateFailed()
	metrics.RecordValidationFailure()
	metrics.RecordCatalogFailure()

	cases := map[string]float64{
		"orders_created_total":             2,
		"orders_updated_total":             1,
		"orders_removed_total":             1,
		"orders_create_failed_total":       1,
		"orders_validation_failures_total": 1,
		"orders_catalog_failures_total":    1,
	}
	for name, want := range cases {
		if got := counterValue(t, registry, name); got != want {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
}

func TestRecordCreateDuration(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newOrderMetricsWithRegisterer(registry)

	metrics.RecordCreateDuration(150 * time.Millisecond)
	metrics.RecordCreateDuration(250 * time.Millisecond)

	family := gatherFamily(t, registry, "orders_create_duration_seconds")
	histogram := family.GetMetric()[0].GetHistogram()

	if got := histogram.GetSampleCount(); got != 2 {
		t.Fatalf("expected 2 samples, got %d", got)
	}
	if got := histogram.GetSampleSum(); got < 0.39 || got > 0.41 {
		t.Fatalf("expected sum around 0.4s, got %v", got)
	}
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()
	family := gatherFamily(t, registry, name)
	return family.GetMetric()[0].GetCounter().GetValue()
}

func gatherFamily(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	t.Fatalf("metric family %q not found", name)
	return nil
}
