package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	billingapp "medibill-ai/internal/billing/application"
	billing "medibill-ai/internal/billing/domain"
	"medibill-ai/internal/billing/infrastructure/memory"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	service, err := billingapp.NewService(memory.NewRepository())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := billingapp.SeedDemo(context.Background(), service, "adm-1", "Demo Patient", billingapp.DemoCharges); err != nil {
		t.Fatalf("seed: %v", err)
	}
	handler, err := NewHandler(service, zerolog.Nop())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func TestListItemsReturnsSummary(t *testing.T) {
	handler := newHandler(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admissions/adm-1/items", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp itemsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 2 || resp.Summary.Total.String() != "160" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Items[0].Description != "IV fluids" {
		t.Fatalf("expected items in time order, got %s first", resp.Items[0].Description)
	}
}

func TestListItemsUnknownAdmission(t *testing.T) {
	handler := newHandler(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admissions/missing/items", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAddItem(t *testing.T) {
	handler := newHandler(t)
	body := `{"description":"Paracetamol","category":"Medicine","amount":"12.50"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admissions/adm-1/items", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var item billing.Item
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.ID == "" || item.Currency != "INR" || item.Category != billing.CategoryMedicine {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestAddItemValidation(t *testing.T) {
	handler := newHandler(t)
	cases := map[string]string{
		"negative":     `{"description":"Refund","category":"other","amount":-5}`,
		"bad category": `{"description":"Lab","category":"lab","amount":5}`,
		"bad json":     `{`,
	}
	for name, body := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admissions/adm-1/items", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestExportEndpoints(t *testing.T) {
	handler := newHandler(t)
	handler.now = func() time.Time { return time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admissions/adm-1/bill.pdf", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected pdf response %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected pdf body")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admissions/adm-1/bill.xlsx", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("unexpected xlsx response %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admissions/missing/bill.pdf", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
