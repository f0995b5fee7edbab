package rpcerr_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/rpcerr"
)

func TestTranslateMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", domain.ErrOrderNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("fetch order x: %w", domain.ErrOrderNotFound), http.StatusNotFound},
		{"unknown product", fmt.Errorf("product 42: %w", domain.ErrProductUnknown), http.StatusBadRequest},
		{"empty items", domain.ErrItemsRequired, http.StatusBadRequest},
		{"bad quantity", domain.ErrItemQtyInvalid, http.StatusBadRequest},
		{"bad status", fmt.Errorf("status %q: %w", "shipped", domain.ErrStatusInvalid), http.StatusBadRequest},
		{"catalog down", fmt.Errorf("%w: dial tcp: refused", domain.ErrCatalogUnavailable), http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rpcerr.Translate(tc.err)
			if got.Status != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantStatus, got.Status, got.Message)
			}
		})
	}
}

func TestTranslateInternalErrorHidesDetailsFromMessage(t *testing.T) {
	got := rpcerr.Translate(errors.New("pq: connection reset by peer"))

	if got.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got.Status)
	}
	if got.Message != "internal error" {
		t.Fatalf("raw driver error leaked into message: %q", got.Message)
	}
}

func TestTranslatePassesThroughExistingError(t *testing.T) {
	original := rpcerr.New(http.StatusBadRequest, "order id is required", nil)

	got := rpcerr.Translate(fmt.Errorf("handle command: %w", original))
	if got != original {
		t.Fatalf("already translated error must pass through unchanged")
	}
}

func TestTranslateNil(t *testing.T) {
	if got := rpcerr.Translate(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestErrorJSONShape(t *testing.T) {
	data, err := json.Marshal(rpcerr.New(http.StatusNotFound, "order not found", nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"status":404,"message":"order not found"}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
}
