package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"factory-ops/internal/audit"
	"factory-ops/internal/auth"
	"factory-ops/internal/observability/metrics"
	registry "factory-ops/internal/registry/domain"
	toolapp "factory-ops/internal/toollife/application"
	toollife "factory-ops/internal/toollife/domain"
	"factory-ops/internal/toollife/interfaces"
)

const routePrefix = "/api/v1/tool-life/"

// Handler provides the tool-life HTTP endpoints.
type Handler struct {
	service  *toolapp.Service
	auditLog audit.Logger
}

// NewHandler constructs a handler. The audit logger may be nil.
func NewHandler(service *toolapp.Service, auditLog audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("toollife handler: nil service")
	}
	return &Handler{service: service, auditLog: auditLog}, nil
}

// ServeHTTP handles /api/v1/tool-life/ subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, routePrefix)
	switch {
	case path == "usage/record":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleRecordUsage(w, r)
	case path == "alerts/active":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleActiveAlerts(w, r)
	case path == "alerts/notify":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleNotify(w, r)
	default:
		h.handleToolRoute(w, r, path)
	}
}

// handleToolRoute dispatches {toolId}/status, {toolId}/history,
// {toolId}/history/export.{xlsx,pdf} and {toolId}/reset.
func (h *Handler) handleToolRoute(w http.ResponseWriter, r *http.Request, path string) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	toolID, err := strconv.Atoi(parts[0])
	if err != nil || toolID <= 0 {
		http.Error(w, "tool id must be a positive integer", http.StatusBadRequest)
		return
	}
	action := strings.Join(parts[1:], "/")

	switch action {
	case "status":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleStatus(w, r, toolID)
	case "history":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleHistory(w, r, toolID)
	case "history/export.xlsx":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleExport(w, r, toolID, "xlsx")
	case "history/export.pdf":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleExport(w, r, toolID, "pdf")
	case "reset":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleReset(w, r, toolID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type recordUsageRequest struct {
	ToolID        int     `json:"tool_id"`
	ComponentID   string  `json:"component_id"`
	HolesCount    float64 `json:"no_of_holes"`
	CuttingLength float64 `json:"cutting_length"`
	OperatorID    string  `json:"operator_id"`
}

func (h *Handler) handleRecordUsage(w http.ResponseWriter, r *http.Request) {
	var req recordUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	result, err := h.service.RecordUsage(r.Context(), toolapp.RecordUsageInput{
		ToolID:        req.ToolID,
		ComponentID:   req.ComponentID,
		HolesCount:    req.HolesCount,
		CuttingLength: req.CuttingLength,
		OperatorID:    req.OperatorID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, toolID int) {
	status, err := h.service.Status(r.Context(), toolID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request, toolID int) {
	events, err := h.service.History(r.Context(), toolID)
	if err != nil {
		respondError(w, err)
		return
	}
	if events == nil {
		events = []toollife.UsageEvent{}
	}
	respondJSON(w, http.StatusOK, events)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, toolID int, format string) {
	tool, events, err := h.service.HistoryReport(r.Context(), toolID)
	if err != nil {
		respondError(w, err)
		return
	}
	var payload []byte
	var contentType string
	switch format {
	case "xlsx":
		payload, err = interfaces.BuildHistoryXLSX(tool, events)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = interfaces.BuildHistoryPDF(tool, events)
		contentType = "application/pdf"
	}
	if err != nil {
		metrics.IncExport(format, false)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.IncExport(format, true)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		"attachment; filename=\"tool-"+strconv.Itoa(toolID)+"-history."+format+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

type resetRequest struct {
	TechnicianID string `json:"technician_id"`
	Notes        string `json:"notes"`
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request, toolID int) {
	var req resetRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}
	result, err := h.service.ResetTool(r.Context(), toolID, req.TechnicianID, req.Notes)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "tool.reset", strconv.Itoa(toolID), req)
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ActiveAlerts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if alerts == nil {
		alerts = []toollife.Alert{}
	}
	respondJSON(w, http.StatusOK, alerts)
}

type notifyRequest struct {
	AlertID         string `json:"alert_id"`
	SupervisorEmail string `json:"supervisor_email"`
}

func (h *Handler) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	alert, err := h.service.NotifyAlert(r.Context(), req.AlertID, req.SupervisorEmail)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "alert.notify", alert.ID, req)
	respondJSON(w, http.StatusOK, alert)
}

func (h *Handler) logAudit(r *http.Request, action, resourceID string, payload any) {
	if h.auditLog == nil {
		return
	}
	var meta json.RawMessage
	if payload != nil {
		meta, _ = json.Marshal(payload)
	}
	resourceType := "tool"
	if strings.HasPrefix(action, "alert.") {
		resourceType = "alert"
	}
	_ = h.auditLog.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
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
	case toollife.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, toollife.ErrAlertNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, toollife.ErrAlertNotOpen):
		http.Error(w, "alert already acknowledged", http.StatusConflict)
	case errors.Is(err, toollife.ErrDispatchFailed):
		http.Error(w, "notification dispatch failed", http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
