package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"factory-ops/internal/audit"
	"factory-ops/internal/auth"
	stockapp "factory-ops/internal/stock/application"
	stock "factory-ops/internal/stock/domain"
)

// Handler provides the spare-part stock HTTP endpoints.
type Handler struct {
	service  *stockapp.Service
	auditLog audit.Logger
}

// NewHandler constructs a handler. The audit logger may be nil.
func NewHandler(service *stockapp.Service, auditLog audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("stock handler: nil service")
	}
	return &Handler{service: service, auditLog: auditLog}, nil
}

// ServeHTTP handles /api/v1/stock and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/stock":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case r.URL.Path == "/api/v1/stock/batch":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleBatchCreate(w, r)
	case r.URL.Path == "/api/v1/stock/low-stock":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleLowStock(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/stock/"):
		h.handleItemRoute(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleItemRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/stock/")
	parts := strings.Split(path, "/")
	id := parts[0]
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPatch:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "add-stock":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleQuantity(w, r, id, true)
	case len(parts) == 2 && parts[1] == "remove-stock":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleQuantity(w, r, id, false)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []stock.ToolStock{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListLowStock(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []stock.ToolStock{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var record stock.ToolStock
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	record.UpdatedBy = auth.SubjectFromContext(r.Context())
	created, err := h.service.Create(r.Context(), &record)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "stock.create", created.ID, created)
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	var records []*stock.ToolStock
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(records) == 0 {
		http.Error(w, "empty batch", http.StatusBadRequest)
		return
	}
	updatedBy := auth.SubjectFromContext(r.Context())
	for _, record := range records {
		if record != nil {
			record.UpdatedBy = updatedBy
		}
	}
	result, err := h.service.BatchCreate(r.Context(), records)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "stock.batch_create", "", result)
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

type updateStockRequest struct {
	ToolRoomNo      *string  `json:"tool_room_no"`
	CurrentStock    *int     `json:"current_stock"`
	MinimumStock    *int     `json:"minimum_stock"`
	MaximumStock    *int     `json:"maximum_stock"`
	ReorderLevel    *int     `json:"reorder_level"`
	ReorderQuantity *int     `json:"reorder_quantity"`
	Unit            *string  `json:"unit"`
	Location        *string  `json:"location"`
	CostPerUnit     *float64 `json:"cost_per_unit"`
	Notes           *string  `json:"notes"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req updateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	record, err := h.service.Update(r.Context(), id, stockapp.UpdateInput{
		ToolRoomNo:      req.ToolRoomNo,
		CurrentStock:    req.CurrentStock,
		MinimumStock:    req.MinimumStock,
		MaximumStock:    req.MaximumStock,
		ReorderLevel:    req.ReorderLevel,
		ReorderQuantity: req.ReorderQuantity,
		Unit:            req.Unit,
		Location:        req.Location,
		CostPerUnit:     req.CostPerUnit,
		Notes:           req.Notes,
		UpdatedBy:       auth.SubjectFromContext(r.Context()),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "stock.update", id, req)
	respondJSON(w, http.StatusOK, record)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleQuantity(w http.ResponseWriter, r *http.Request, id string, add bool) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	updatedBy := auth.SubjectFromContext(r.Context())
	var record *stock.ToolStock
	var err error
	if add {
		record, err = h.service.AddStock(r.Context(), id, req.Quantity, updatedBy)
	} else {
		record, err = h.service.RemoveStock(r.Context(), id, req.Quantity, updatedBy)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	action := "stock.remove"
	if add {
		action = "stock.add"
	}
	h.logAudit(r, action, id, req)
	respondJSON(w, http.StatusOK, record)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "stock.delete", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logAudit(r *http.Request, action, resourceID string, payload any) {
	if h.auditLog == nil {
		return
	}
	var meta json.RawMessage
	if payload != nil {
		meta, _ = json.Marshal(payload)
	}
	_ = h.auditLog.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "tool_stock",
		ResourceID:   resourceID,
		Metadata:     meta,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stock.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, stock.ErrDuplicate):
		http.Error(w, "stock record already exists", http.StatusConflict)
	case errors.Is(err, stock.ErrInsufficientStock):
		http.Error(w, "insufficient stock", http.StatusBadRequest)
	case errors.Is(err, stock.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
