package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	regapp "factory-ops/internal/registry/application"
	registry "factory-ops/internal/registry/domain"
	registrymem "factory-ops/internal/registry/infrastructure/memory"
	toollife "factory-ops/internal/toollife/domain"
	toollifemem "factory-ops/internal/toollife/infrastructure/memory"
)

func newTestHandler(t *testing.T) (*Handler, *toollifemem.UsageLogRepository) {
	t.Helper()
	ledger := toollifemem.NewUsageLogRepository()
	service, err := regapp.NewService(registrymem.NewToolRepository(), ledger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, ledger
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetTool(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/tools", map[string]any{
		"tool_id":             42,
		"tool_name":           "DRILL-8MM",
		"tool_life_threshold": 1000,
		"supervisor_email":    "supervisor@plant.example",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created registry.Tool
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != registry.StatusActive {
		t.Fatalf("default status = %s, want ACTIVE", created.Status)
	}

	// Re-registering the same tool id conflicts.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/tools", map[string]any{
		"tool_id":             42,
		"tool_name":           "DRILL-8MM",
		"tool_life_threshold": 1000,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/tools/42", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/tools/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing get status = %d, want 404", rec.Code)
	}
}

func TestCreateToolValidation(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/tools", map[string]any{
		"tool_id":             1,
		"tool_name":           "DRILL-8MM",
		"tool_life_threshold": 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero threshold status = %d, want 400", rec.Code)
	}
}

func TestListDecoratedWithUsage(t *testing.T) {
	handler, ledger := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/tools", map[string]any{
		"tool_id":             42,
		"tool_name":           "DRILL-8MM",
		"tool_life_threshold": 1000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	err := ledger.Append(context.Background(), &toollife.UsageEvent{
		ToolID: 42, ComponentID: "ENG-100", CumulativeAfter: 600, Threshold: 1000,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/tools", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var views []regapp.ToolView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
	if views[0].CumulativeUsage != 600 || views[0].UsagePercentage != 60 || views[0].RemainingLife != 400 {
		t.Fatalf("view = %+v", views[0])
	}
}

func TestPatchAndDeleteTool(t *testing.T) {
	handler, _ := newTestHandler(t)

	doJSON(t, handler, http.MethodPost, "/api/v1/tools", map[string]any{
		"tool_id":             42,
		"tool_name":           "DRILL-8MM",
		"tool_life_threshold": 1000,
	})

	rec := doJSON(t, handler, http.MethodPatch, "/api/v1/tools/42", map[string]any{
		"tool_life_threshold": 2000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var patched registry.Tool
	if err := json.Unmarshal(rec.Body.Bytes(), &patched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if patched.LifeThreshold != 2000 || patched.ToolName != "DRILL-8MM" {
		t.Fatalf("patched = %+v", patched)
	}

	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/tools/42", map[string]any{
		"status": "BROKEN",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status patch = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/tools/42", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/tools/42", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

var errStorage = errors.New("connection reset by peer")

type failingToolRepo struct{}

func (failingToolRepo) Create(ctx context.Context, tool *registry.Tool) error { return errStorage }
func (failingToolRepo) GetByToolID(ctx context.Context, toolID int) (*registry.Tool, error) {
	return nil, errStorage
}
func (failingToolRepo) List(ctx context.Context) ([]registry.Tool, error) { return nil, errStorage }
func (failingToolRepo) Update(ctx context.Context, tool *registry.Tool) error { return errStorage }
func (failingToolRepo) Delete(ctx context.Context, toolID int) error          { return errStorage }

func TestStorageErrorsReturn500(t *testing.T) {
	service, err := regapp.NewService(failingToolRepo{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/tools", map[string]any{
		"tool_id": 42, "tool_name": "DRILL-8MM", "tool_life_threshold": 1000,
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("create status = %d, want 500", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/tools/42", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("get status = %d, want 500", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/tools/42", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("delete status = %d, want 500", rec.Code)
	}
}
