package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	stock "factory-ops/internal/stock/domain"
)

// StockRepository is an in-memory stock store keyed by record ID.
type StockRepository struct {
	mu   sync.RWMutex
	data map[string]*stock.ToolStock
}

// NewStockRepository constructs a repository.
func NewStockRepository() *StockRepository {
	return &StockRepository{data: make(map[string]*stock.ToolStock)}
}

// Create inserts a record. The (tool_name, atc_pocket_no) pair must be unique.
func (r *StockRepository) Create(ctx context.Context, record *stock.ToolStock) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[record.ID]; ok {
		return stock.ErrDuplicate
	}
	for _, existing := range r.data {
		if sameIdentity(existing, record) {
			return stock.ErrDuplicate
		}
	}
	clone := *record
	r.data[record.ID] = &clone
	return nil
}

// GetByID loads a record, or nil.
func (r *StockRepository) GetByID(ctx context.Context, id string) (*stock.ToolStock, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

// List returns all records sorted by tool name then pocket.
func (r *StockRepository) List(ctx context.Context) ([]stock.ToolStock, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]stock.ToolStock, 0, len(r.data))
	for _, record := range r.data {
		result = append(result, *record)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ToolName != result[j].ToolName {
			return result[i].ToolName < result[j].ToolName
		}
		return result[i].ATCPocketNo < result[j].ATCPocketNo
	})
	return result, nil
}

// Update replaces a record.
func (r *StockRepository) Update(ctx context.Context, record *stock.ToolStock) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[record.ID]; !ok {
		return stock.ErrNotFound
	}
	clone := *record
	r.data[record.ID] = &clone
	return nil
}

// Delete removes a record.
func (r *StockRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return stock.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func sameIdentity(a, b *stock.ToolStock) bool {
	return strings.EqualFold(a.ToolName, b.ToolName) && strings.EqualFold(a.ATCPocketNo, b.ATCPocketNo)
}
