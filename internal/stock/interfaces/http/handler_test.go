package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	stockapp "factory-ops/internal/stock/application"
	stock "factory-ops/internal/stock/domain"
	stockmem "factory-ops/internal/stock/infrastructure/memory"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	service, err := stockapp.NewService(stockmem.NewStockRepository())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func createRecord(t *testing.T, handler http.Handler, pocket string, current int) stock.ToolStock {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stock", map[string]any{
		"tool_name":        "DRILL-8MM",
		"atc_pocket_no":    pocket,
		"current_stock":    current,
		"minimum_stock":    5,
		"maximum_stock":    50,
		"reorder_level":    10,
		"reorder_quantity": 15,
		"unit":             "pieces",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var record stock.ToolStock
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return record
}

func TestCreateStockEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	record := createRecord(t, handler, "P-04", 20)
	if record.Status != stock.StatusInStock {
		t.Fatalf("status = %s, want in_stock", record.Status)
	}

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stock", map[string]any{
		"tool_name":        "DRILL-8MM",
		"atc_pocket_no":    "P-04",
		"reorder_quantity": 15,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rec.Code)
	}
}

func TestAddRemoveStockEndpoints(t *testing.T) {
	handler := newTestHandler(t)
	record := createRecord(t, handler, "P-04", 20)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stock/"+record.ID+"/remove-stock", map[string]any{
		"quantity": 13,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var updated stock.ToolStock
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.CurrentStock != 7 || updated.Status != stock.StatusLowStock {
		t.Fatalf("updated = %+v", updated)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/stock/"+record.ID+"/remove-stock", map[string]any{
		"quantity": 100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized remove status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/stock/"+record.ID+"/add-stock", map[string]any{
		"quantity": 20,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.CurrentStock != 27 || updated.Status != stock.StatusInStock {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestLowStockEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	createRecord(t, handler, "P-04", 20)
	createRecord(t, handler, "P-05", 8)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/low-stock", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("low-stock status = %d", rec.Code)
	}
	var records []stock.ToolStock
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].ATCPocketNo != "P-05" {
		t.Fatalf("records = %+v", records)
	}
}

func TestBatchEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	// The nameless record fails; the rest of the batch still imports.
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stock/batch", []map[string]any{
		{"tool_name": "DRILL-8MM", "atc_pocket_no": "P-01", "current_stock": 5, "reorder_quantity": 10},
		{"atc_pocket_no": "P-09", "current_stock": 5, "reorder_quantity": 10},
		{"tool_name": "TAP-M6", "atc_pocket_no": "P-02", "current_stock": 5, "reorder_quantity": 10},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("batch status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result stockapp.BatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Created != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 2 created / 1 failed", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 1 {
		t.Fatalf("errors = %+v, want failure at index 1", result.Errors)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/stock/batch", []map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty batch status = %d, want 400", rec.Code)
	}
}

func TestDeleteStockEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	record := createRecord(t, handler, "P-04", 20)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/stock/"+record.ID, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/stock/"+record.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

var errStorage = errors.New("connection reset by peer")

type failingStockRepo struct{}

func (failingStockRepo) Create(ctx context.Context, record *stock.ToolStock) error { return errStorage }
func (failingStockRepo) GetByID(ctx context.Context, id string) (*stock.ToolStock, error) {
	return nil, errStorage
}
func (failingStockRepo) List(ctx context.Context) ([]stock.ToolStock, error) { return nil, errStorage }
func (failingStockRepo) Update(ctx context.Context, record *stock.ToolStock) error {
	return errStorage
}
func (failingStockRepo) Delete(ctx context.Context, id string) error { return errStorage }

func TestStorageErrorsReturn500(t *testing.T) {
	service, err := stockapp.NewService(failingStockRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stock", map[string]any{
		"tool_name": "DRILL-8MM", "atc_pocket_no": "P-01", "current_stock": 5, "reorder_quantity": 10,
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("create status = %d, want 500", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/stock-1", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("get status = %d, want 500", resp.Code)
	}
}
