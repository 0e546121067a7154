package registry

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusActive              = "ACTIVE"
	StatusNearEndOfLife       = "NEAR_END_OF_LIFE"
	StatusEndOfLife           = "END_OF_LIFE"
	StatusMaintenanceRequired = "MAINTENANCE_REQUIRED"
	StatusReplaced            = "REPLACED"
)

// Tool is a master registry entry for a physical cutting tool.
type Tool struct {
	ToolID          int       `json:"tool_id"`
	ToolName        string    `json:"tool_name"`
	HolderName      string    `json:"holder_name,omitempty"`
	ATCPocketNo     string    `json:"atc_pocket_no,omitempty"`
	ToolRoomNo      string    `json:"tool_room_no,omitempty"`
	LifeThreshold   float64   `json:"tool_life_threshold"`
	Status          string    `json:"status"`
	SupervisorEmail string    `json:"supervisor_email,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Validate checks required fields for a registry entry.
func (t *Tool) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil tool", ErrInvalid)
	}
	if t.ToolID <= 0 {
		return fmt.Errorf("%w: tool_id must be positive", ErrInvalid)
	}
	if strings.TrimSpace(t.ToolName) == "" {
		return fmt.Errorf("%w: tool_name is required", ErrInvalid)
	}
	if t.LifeThreshold <= 0 {
		return fmt.Errorf("%w: tool_life_threshold must be positive", ErrInvalid)
	}
	if t.Status != "" && !ValidStatus(t.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, t.Status)
	}
	return nil
}

// ValidStatus reports whether the value is a known lifecycle status.
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusNearEndOfLife, StatusEndOfLife, StatusMaintenanceRequired, StatusReplaced:
		return true
	default:
		return false
	}
}
