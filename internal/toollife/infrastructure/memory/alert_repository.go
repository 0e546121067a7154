package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	toollife "factory-ops/internal/toollife/domain"
)

// AlertRepository is an in-memory alert store.
type AlertRepository struct {
	mu   sync.RWMutex
	data map[string]*toollife.Alert
}

// NewAlertRepository constructs a repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{data: make(map[string]*toollife.Alert)}
}

// Create inserts an alert.
func (r *AlertRepository) Create(ctx context.Context, alert *toollife.Alert) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *alert
	clone.ComponentsUsed = append([]string(nil), alert.ComponentsUsed...)
	r.data[alert.ID] = &clone
	return nil
}

// GetByID loads an alert, or nil.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*toollife.Alert, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	alert, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	clone := *alert
	return &clone, nil
}

// FindOpenByToolAndTier returns the open alert for a (tool, tier) pair, or nil.
func (r *AlertRepository) FindOpenByToolAndTier(ctx context.Context, toolID int, tier toollife.Tier) (*toollife.Alert, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, alert := range r.data {
		if alert.ToolID == toolID && alert.Tier == tier && alert.Open() {
			clone := *alert
			return &clone, nil
		}
	}
	return nil, nil
}

// ListOpen returns all open alerts, newest first.
func (r *AlertRepository) ListOpen(ctx context.Context) ([]toollife.Alert, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []toollife.Alert
	for _, alert := range r.data {
		if alert.Open() {
			result = append(result, *alert)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// MarkSent transitions an open alert to SENT. Acknowledged alerts stay closed.
func (r *AlertRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.data[id]
	if !ok {
		return toollife.ErrAlertNotFound
	}
	if !alert.Open() {
		return toollife.ErrAlertNotOpen
	}
	alert.Status = toollife.AlertSent
	alert.SentAt = sentAt
	return nil
}

// AcknowledgeOpenByTool closes all open alerts for a tool.
func (r *AlertRepository) AcknowledgeOpenByTool(ctx context.Context, toolID int, ackedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alert := range r.data {
		if alert.ToolID == toolID && alert.Open() {
			alert.Status = toollife.AlertAcknowledged
			alert.AcknowledgedAt = ackedAt
		}
	}
	return nil
}
