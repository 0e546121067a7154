package application

import (
	"context"
	"errors"
	"time"

	registry "factory-ops/internal/registry/domain"
	toollife "factory-ops/internal/toollife/domain"
)

// ToolRepository persists master tool records.
type ToolRepository interface {
	Create(ctx context.Context, tool *registry.Tool) error
	GetByToolID(ctx context.Context, toolID int) (*registry.Tool, error)
	List(ctx context.Context) ([]registry.Tool, error)
	Update(ctx context.Context, tool *registry.Tool) error
	Delete(ctx context.Context, toolID int) error
}

// UsageReader exposes the ledger reads the registry needs to decorate tool
// listings with live wear figures.
type UsageReader interface {
	LatestByTool(ctx context.Context, toolID int) (*toollife.UsageEvent, error)
}

// Service manages the master tool registry.
type Service struct {
	tools ToolRepository
	usage UsageReader
}

// NewService constructs the registry service. The usage reader is optional;
// without it listings carry zero usage.
func NewService(tools ToolRepository, usage UsageReader) (*Service, error) {
	if tools == nil {
		return nil, errors.New("registry: nil tool repository")
	}
	return &Service{tools: tools, usage: usage}, nil
}

// ToolView is a registry entry decorated with live wear figures.
type ToolView struct {
	registry.Tool
	CumulativeUsage float64 `json:"cumulative_usage"`
	UsagePercentage float64 `json:"usage_percentage"`
	RemainingLife   float64 `json:"remaining_life"`
}

// Create registers a new tool. The tool id must be unused.
func (s *Service) Create(ctx context.Context, tool *registry.Tool) (*registry.Tool, error) {
	if s == nil {
		return nil, errors.New("registry: nil service")
	}
	if tool == nil {
		return nil, errors.New("registry: nil tool")
	}
	if err := tool.Validate(); err != nil {
		return nil, err
	}
	if tool.Status == "" {
		tool.Status = registry.StatusActive
	}
	now := time.Now().UTC()
	tool.CreatedAt = now
	tool.UpdatedAt = now
	if err := s.tools.Create(ctx, tool); err != nil {
		return nil, err
	}
	return tool, nil
}

// Get loads one tool decorated with its current cumulative usage.
func (s *Service) Get(ctx context.Context, toolID int) (*ToolView, error) {
	if s == nil {
		return nil, errors.New("registry: nil service")
	}
	tool, err := s.tools.GetByToolID(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, registry.ErrNotFound
	}
	view, err := s.decorate(ctx, *tool)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// List returns all tools decorated with current cumulative usage.
func (s *Service) List(ctx context.Context) ([]ToolView, error) {
	if s == nil {
		return nil, errors.New("registry: nil service")
	}
	tools, err := s.tools.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]ToolView, 0, len(tools))
	for _, tool := range tools {
		view, err := s.decorate(ctx, tool)
		if err != nil {
			return nil, err
		}
		result = append(result, *view)
	}
	return result, nil
}

// UpdateInput carries a partial registry update. Nil fields are left as-is.
type UpdateInput struct {
	ToolName        *string
	HolderName      *string
	ATCPocketNo     *string
	ToolRoomNo      *string
	LifeThreshold   *float64
	Status          *string
	SupervisorEmail *string
}

// Update applies a partial update to an existing tool. Raising the threshold
// does not rewrite ledger history; the live status endpoint reclassifies
// against the new value.
func (s *Service) Update(ctx context.Context, toolID int, in UpdateInput) (*registry.Tool, error) {
	if s == nil {
		return nil, errors.New("registry: nil service")
	}
	tool, err := s.tools.GetByToolID(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, registry.ErrNotFound
	}
	if in.ToolName != nil {
		tool.ToolName = *in.ToolName
	}
	if in.HolderName != nil {
		tool.HolderName = *in.HolderName
	}
	if in.ATCPocketNo != nil {
		tool.ATCPocketNo = *in.ATCPocketNo
	}
	if in.ToolRoomNo != nil {
		tool.ToolRoomNo = *in.ToolRoomNo
	}
	if in.LifeThreshold != nil {
		tool.LifeThreshold = *in.LifeThreshold
	}
	if in.Status != nil {
		tool.Status = *in.Status
	}
	if in.SupervisorEmail != nil {
		tool.SupervisorEmail = *in.SupervisorEmail
	}
	if err := tool.Validate(); err != nil {
		return nil, err
	}
	if err := s.tools.Update(ctx, tool); err != nil {
		return nil, err
	}
	return tool, nil
}

// Delete removes a tool from the registry. Ledger history is retained.
func (s *Service) Delete(ctx context.Context, toolID int) error {
	if s == nil {
		return errors.New("registry: nil service")
	}
	return s.tools.Delete(ctx, toolID)
}

func (s *Service) decorate(ctx context.Context, tool registry.Tool) (*ToolView, error) {
	view := &ToolView{Tool: tool, RemainingLife: tool.LifeThreshold}
	if s.usage == nil {
		return view, nil
	}
	latest, err := s.usage.LatestByTool(ctx, tool.ToolID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return view, nil
	}
	view.CumulativeUsage = latest.CumulativeAfter
	view.UsagePercentage = toollife.UsagePercentage(latest.CumulativeAfter, tool.LifeThreshold)
	view.RemainingLife = toollife.RemainingLife(latest.CumulativeAfter, tool.LifeThreshold)
	return view, nil
}
