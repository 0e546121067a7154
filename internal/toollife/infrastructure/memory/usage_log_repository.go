package memory

import (
	"context"
	"sort"
	"sync"

	toollife "factory-ops/internal/toollife/domain"
)

// UsageLogRepository is an in-memory append-only usage ledger.
type UsageLogRepository struct {
	mu     sync.RWMutex
	nextID int64
	events []toollife.UsageEvent
}

// NewUsageLogRepository constructs a repository.
func NewUsageLogRepository() *UsageLogRepository {
	return &UsageLogRepository{nextID: 1}
}

// Append persists one immutable usage event.
func (r *UsageLogRepository) Append(ctx context.Context, event *toollife.UsageEvent) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = r.nextID
	r.nextID++
	r.events = append(r.events, *event)
	return nil
}

// LatestByTool returns the most recent event for a tool, or nil.
func (r *UsageLogRepository) LatestByTool(ctx context.Context, toolID int) (*toollife.UsageEvent, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *toollife.UsageEvent
	for i := range r.events {
		event := r.events[i]
		if event.ToolID != toolID {
			continue
		}
		if latest == nil || event.Timestamp.After(latest.Timestamp) ||
			(event.Timestamp.Equal(latest.Timestamp) && event.ID > latest.ID) {
			clone := event
			latest = &clone
		}
	}
	return latest, nil
}

// ListByTool returns all events for a tool, newest first.
func (r *UsageLogRepository) ListByTool(ctx context.Context, toolID int) ([]toollife.UsageEvent, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []toollife.UsageEvent
	for _, event := range r.events {
		if event.ToolID == toolID {
			result = append(result, event)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID > result[j].ID
		}
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

// DistinctComponents returns the unique component ids seen for a tool.
// Reset checkpoint rows are not components and are skipped.
func (r *UsageLogRepository) DistinctComponents(ctx context.Context, toolID int) ([]string, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	var result []string
	for _, event := range r.events {
		if event.ToolID != toolID || event.ComponentID == toollife.ResetComponentID {
			continue
		}
		if _, ok := seen[event.ComponentID]; ok {
			continue
		}
		seen[event.ComponentID] = struct{}{}
		result = append(result, event.ComponentID)
	}
	sort.Strings(result)
	return result, nil
}
