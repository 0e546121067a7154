package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	registry "factory-ops/internal/registry/domain"
)

// ToolRepository is an in-memory master tool registry.
type ToolRepository struct {
	mu   sync.RWMutex
	data map[int]*registry.Tool
}

// NewToolRepository constructs a repository.
func NewToolRepository() *ToolRepository {
	return &ToolRepository{data: make(map[int]*registry.Tool)}
}

// Create inserts a registry entry.
func (r *ToolRepository) Create(ctx context.Context, tool *registry.Tool) error {
	_ = ctx
	if err := tool.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[tool.ToolID]; ok {
		return registry.ErrDuplicate
	}
	clone := *tool
	r.data[tool.ToolID] = &clone
	return nil
}

// GetByToolID loads a registry entry.
func (r *ToolRepository) GetByToolID(ctx context.Context, toolID int) (*registry.Tool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.data[toolID]
	if !ok {
		return nil, nil
	}
	clone := *tool
	return &clone, nil
}

// List returns all entries sorted by tool id.
func (r *ToolRepository) List(ctx context.Context) ([]registry.Tool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]registry.Tool, 0, len(r.data))
	for _, tool := range r.data {
		result = append(result, *tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ToolID < result[j].ToolID })
	return result, nil
}

// Update overwrites a registry entry.
func (r *ToolRepository) Update(ctx context.Context, tool *registry.Tool) error {
	_ = ctx
	if err := tool.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[tool.ToolID]; !ok {
		return registry.ErrNotFound
	}
	clone := *tool
	r.data[tool.ToolID] = &clone
	return nil
}

// UpdateStatus sets the lifecycle status.
func (r *ToolRepository) UpdateStatus(ctx context.Context, toolID int, status string, updatedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	tool, ok := r.data[toolID]
	if !ok {
		return registry.ErrNotFound
	}
	tool.Status = status
	tool.UpdatedAt = updatedAt
	return nil
}

// Delete removes a registry entry.
func (r *ToolRepository) Delete(ctx context.Context, toolID int) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[toolID]; !ok {
		return registry.ErrNotFound
	}
	delete(r.data, toolID)
	return nil
}
