package stock

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusInStock    = "in_stock"
	StatusLowStock   = "low_stock"
	StatusCritical   = "critical"
	StatusOutOfStock = "out_of_stock"
)

// ToolStock is a spare-part inventory record, distinct from wear tracking.
// Identity is the (tool_name, atc_pocket_no) composite.
type ToolStock struct {
	ID              string    `json:"id"`
	ToolName        string    `json:"tool_name"`
	ATCPocketNo     string    `json:"atc_pocket_no"`
	ToolRoomNo      string    `json:"tool_room_no,omitempty"`
	CurrentStock    int       `json:"current_stock"`
	MinimumStock    int       `json:"minimum_stock"`
	MaximumStock    int       `json:"maximum_stock"`
	ReorderLevel    int       `json:"reorder_level"`
	ReorderQuantity int       `json:"reorder_quantity"`
	Unit            string    `json:"unit"`
	Status          string    `json:"status"`
	Location        string    `json:"location,omitempty"`
	CostPerUnit     float64   `json:"cost_per_unit,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	UpdatedBy       string    `json:"last_updated_by,omitempty"`
	LastRestockAt   time.Time `json:"last_restock_date,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DeriveStatus maps post-mutation quantities to a stock status tier.
// Checks run in order: empty, at-or-below minimum, at-or-below reorder level.
func DeriveStatus(currentStock, minimumStock, reorderLevel int) string {
	switch {
	case currentStock == 0:
		return StatusOutOfStock
	case currentStock <= minimumStock:
		return StatusCritical
	case currentStock <= reorderLevel:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Refresh recomputes the derived status from current quantities.
func (s *ToolStock) Refresh() {
	s.Status = DeriveStatus(s.CurrentStock, s.MinimumStock, s.ReorderLevel)
}

// NeedsReordering reports whether stock has fallen to the reorder level.
func (s *ToolStock) NeedsReordering() bool {
	return s.CurrentStock <= s.ReorderLevel
}

// Validate checks required fields and quantity invariants.
func (s *ToolStock) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil record", ErrInvalid)
	}
	if strings.TrimSpace(s.ToolName) == "" {
		return fmt.Errorf("%w: tool_name is required", ErrInvalid)
	}
	if s.CurrentStock < 0 || s.MinimumStock < 0 || s.MaximumStock < 0 || s.ReorderLevel < 0 {
		return fmt.Errorf("%w: quantities cannot be negative", ErrInvalid)
	}
	if s.ReorderQuantity < 1 {
		return fmt.Errorf("%w: reorder_quantity must be at least 1", ErrInvalid)
	}
	return nil
}
