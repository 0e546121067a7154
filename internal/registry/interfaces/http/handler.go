package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"factory-ops/internal/audit"
	"factory-ops/internal/auth"
	regapp "factory-ops/internal/registry/application"
	registry "factory-ops/internal/registry/domain"
)

// Handler provides the master tool registry HTTP endpoints.
type Handler struct {
	service  *regapp.Service
	auditLog audit.Logger
}

// NewHandler constructs a handler. The audit logger may be nil.
func NewHandler(service *regapp.Service, auditLog audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("registry handler: nil service")
	}
	return &Handler{service: service, auditLog: auditLog}, nil
}

// ServeHTTP handles /api/v1/tools and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/tools":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/tools/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/tools/")
		toolID, err := strconv.Atoi(id)
		if err != nil || toolID <= 0 {
			http.Error(w, "tool id must be a positive integer", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, toolID)
		case http.MethodPatch:
			h.handleUpdate(w, r, toolID)
		case http.MethodDelete:
			h.handleDelete(w, r, toolID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tools, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, tools)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var tool registry.Tool
	if err := json.NewDecoder(r.Body).Decode(&tool); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	created, err := h.service.Create(r.Context(), &tool)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "tool.create", strconv.Itoa(created.ToolID), created)
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, toolID int) {
	tool, err := h.service.Get(r.Context(), toolID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tool)
}

type updateToolRequest struct {
	ToolName        *string  `json:"tool_name"`
	HolderName      *string  `json:"holder_name"`
	ATCPocketNo     *string  `json:"atc_pocket_no"`
	ToolRoomNo      *string  `json:"tool_room_no"`
	LifeThreshold   *float64 `json:"tool_life_threshold"`
	Status          *string  `json:"status"`
	SupervisorEmail *string  `json:"supervisor_email"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, toolID int) {
	var req updateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	tool, err := h.service.Update(r.Context(), toolID, regapp.UpdateInput{
		ToolName:        req.ToolName,
		HolderName:      req.HolderName,
		ATCPocketNo:     req.ATCPocketNo,
		ToolRoomNo:      req.ToolRoomNo,
		LifeThreshold:   req.LifeThreshold,
		Status:          req.Status,
		SupervisorEmail: req.SupervisorEmail,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "tool.update", strconv.Itoa(toolID), req)
	respondJSON(w, http.StatusOK, tool)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, toolID int) {
	if err := h.service.Delete(r.Context(), toolID); err != nil {
		respondError(w, err)
		return
	}
	h.logAudit(r, "tool.delete", strconv.Itoa(toolID), nil)
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
		ResourceType: "tool",
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
	case errors.Is(err, registry.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, registry.ErrDuplicate):
		http.Error(w, "tool id already registered", http.StatusConflict)
	case errors.Is(err, registry.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
