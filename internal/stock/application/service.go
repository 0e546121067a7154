package application

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"factory-ops/internal/observability/metrics"
	stock "factory-ops/internal/stock/domain"
)

// StockRepository persists spare-part stock records.
type StockRepository interface {
	Create(ctx context.Context, record *stock.ToolStock) error
	GetByID(ctx context.Context, id string) (*stock.ToolStock, error)
	List(ctx context.Context) ([]stock.ToolStock, error)
	Update(ctx context.Context, record *stock.ToolStock) error
	Delete(ctx context.Context, id string) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service manages spare-part inventory. Every mutation rederives the stock
// status tier before persisting.
type Service struct {
	repo  StockRepository
	clock Clock
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs the stock service.
func NewService(repo StockRepository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("stock: nil repository")
	}
	service := &Service{repo: repo, clock: systemClock{}}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create registers a stock record. The (tool_name, atc_pocket_no) pair must
// be unique.
func (s *Service) Create(ctx context.Context, record *stock.ToolStock) (*stock.ToolStock, error) {
	if s == nil {
		return nil, errors.New("stock: nil service")
	}
	if record == nil {
		return nil, fmt.Errorf("%w: nil record", stock.ErrInvalid)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	if record.ID == "" {
		record.ID = buildStockID(record.ToolName, record.ATCPocketNo, now)
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	record.Refresh()
	if err := s.repo.Create(ctx, record); err != nil {
		metrics.IncStockMutation("create", false)
		return nil, err
	}
	metrics.IncStockMutation("create", true)
	return record, nil
}

// BatchItemError describes one record that failed during a batch import.
type BatchItemError struct {
	Index    int    `json:"index"`
	ToolName string `json:"tool_name,omitempty"`
	Error    string `json:"error"`
}

// BatchResult summarizes a batch import.
type BatchResult struct {
	Created int              `json:"created"`
	Failed  int              `json:"failed"`
	Errors  []BatchItemError `json:"errors,omitempty"`
}

// BatchCreate registers several stock records in one call. A failing record
// is reported per item and does not stop the rest of the batch.
func (s *Service) BatchCreate(ctx context.Context, records []*stock.ToolStock) (*BatchResult, error) {
	if s == nil {
		return nil, errors.New("stock: nil service")
	}
	result := &BatchResult{}
	for i, record := range records {
		if _, err := s.Create(ctx, record); err != nil {
			var name string
			if record != nil {
				name = record.ToolName
			}
			result.Failed++
			result.Errors = append(result.Errors, BatchItemError{Index: i, ToolName: name, Error: err.Error()})
			continue
		}
		result.Created++
	}
	return result, nil
}

// Get loads one stock record.
func (s *Service) Get(ctx context.Context, id string) (*stock.ToolStock, error) {
	if s == nil {
		return nil, errors.New("stock: nil service")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, stock.ErrNotFound
	}
	return record, nil
}

// List returns all stock records.
func (s *Service) List(ctx context.Context) ([]stock.ToolStock, error) {
	if s == nil {
		return nil, errors.New("stock: nil service")
	}
	return s.repo.List(ctx)
}

// ListLowStock returns records at or below their reorder level.
func (s *Service) ListLowStock(ctx context.Context) ([]stock.ToolStock, error) {
	if s == nil {
		return nil, errors.New("stock: nil service")
	}
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var result []stock.ToolStock
	for _, record := range records {
		if record.NeedsReordering() {
			result = append(result, record)
		}
	}
	return result, nil
}

// UpdateInput carries a partial stock update. Nil fields are left as-is.
type UpdateInput struct {
	ToolRoomNo      *string
	CurrentStock    *int
	MinimumStock    *int
	MaximumStock    *int
	ReorderLevel    *int
	ReorderQuantity *int
	Unit            *string
	Location        *string
	CostPerUnit     *float64
	Notes           *string
	UpdatedBy       string
}

// Update applies a partial update and rederives the status tier.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*stock.ToolStock, error) {
	if s == nil {
		return nil, errors.New("stock: nil service")
	}
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ToolRoomNo != nil {
		record.ToolRoomNo = *in.ToolRoomNo
	}
	if in.CurrentStock != nil {
		record.CurrentStock = *in.CurrentStock
	}
	if in.MinimumStock != nil {
		record.MinimumStock = *in.MinimumStock
	}
	if in.MaximumStock != nil {
		record.MaximumStock = *in.MaximumStock
	}
	if in.ReorderLevel != nil {
		record.ReorderLevel = *in.ReorderLevel
	}
	if in.ReorderQuantity != nil {
		record.ReorderQuantity = *in.ReorderQuantity
	}
	if in.Unit != nil {
		record.Unit = *in.Unit
	}
	if in.Location != nil {
		record.Location = *in.Location
	}
	if in.CostPerUnit != nil {
		record.CostPerUnit = *in.CostPerUnit
	}
	if in.Notes != nil {
		record.Notes = *in.Notes
	}
	if in.UpdatedBy != "" {
		record.UpdatedBy = in.UpdatedBy
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	record.Refresh()
	record.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, record); err != nil {
		metrics.IncStockMutation("update", false)
		return nil, err
	}
	metrics.IncStockMutation("update", true)
	return record, nil
}

// AddStock increments the on-hand quantity and stamps the restock time.
func (s *Service) AddStock(ctx context.Context, id string, quantity int, updatedBy string) (*stock.ToolStock, error) {
	if s == nil {
		return nil, errors.New("stock: nil service")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", stock.ErrInvalid)
	}
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	record.CurrentStock += quantity
	record.LastRestockAt = now
	record.UpdatedAt = now
	if updatedBy != "" {
		record.UpdatedBy = updatedBy
	}
	record.Refresh()
	if err := s.repo.Update(ctx, record); err != nil {
		metrics.IncStockMutation("add", false)
		return nil, err
	}
	metrics.IncStockMutation("add", true)
	return record, nil
}

// RemoveStock decrements the on-hand quantity. A withdrawal larger than the
// current quantity is rejected and leaves the record unchanged.
func (s *Service) RemoveStock(ctx context.Context, id string, quantity int, updatedBy string) (*stock.ToolStock, error) {
	if s == nil {
		return nil, errors.New("stock: nil service")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", stock.ErrInvalid)
	}
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quantity > record.CurrentStock {
		return nil, stock.ErrInsufficientStock
	}
	record.CurrentStock -= quantity
	record.UpdatedAt = s.clock.Now().UTC()
	if updatedBy != "" {
		record.UpdatedBy = updatedBy
	}
	record.Refresh()
	if err := s.repo.Update(ctx, record); err != nil {
		metrics.IncStockMutation("remove", false)
		return nil, err
	}
	metrics.IncStockMutation("remove", true)
	return record, nil
}

// Delete removes a stock record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("stock: nil service")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		metrics.IncStockMutation("delete", false)
		return err
	}
	metrics.IncStockMutation("delete", true)
	return nil
}

func buildStockID(toolName, pocket string, createdAt time.Time) string {
	sum := sha1.Sum([]byte(strings.Join([]string{
		"stock", toolName, pocket, createdAt.Format(time.RFC3339Nano),
	}, "|")))
	return "stock-" + hex.EncodeToString(sum[:8])
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
