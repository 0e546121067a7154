package application

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"factory-ops/internal/observability/metrics"
	registry "factory-ops/internal/registry/domain"
	toollife "factory-ops/internal/toollife/domain"
)

// ToolRegistry provides master tool lookups and status writes.
type ToolRegistry interface {
	GetByToolID(ctx context.Context, toolID int) (*registry.Tool, error)
	UpdateStatus(ctx context.Context, toolID int, status string, updatedAt time.Time) error
}

// UsageLedger is the append-only store of usage events.
type UsageLedger interface {
	Append(ctx context.Context, event *toollife.UsageEvent) error
	LatestByTool(ctx context.Context, toolID int) (*toollife.UsageEvent, error)
	ListByTool(ctx context.Context, toolID int) ([]toollife.UsageEvent, error)
	DistinctComponents(ctx context.Context, toolID int) ([]string, error)
}

// AlertStore persists threshold-crossing alerts.
type AlertStore interface {
	Create(ctx context.Context, alert *toollife.Alert) error
	GetByID(ctx context.Context, id string) (*toollife.Alert, error)
	FindOpenByToolAndTier(ctx context.Context, toolID int, tier toollife.Tier) (*toollife.Alert, error)
	ListOpen(ctx context.Context) ([]toollife.Alert, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	AcknowledgeOpenByTool(ctx context.Context, toolID int, ackedAt time.Time) error
}

// Notifier delivers an alert to supervisors. It returns an error only when no
// channel accepted the notification.
type Notifier interface {
	Dispatch(ctx context.Context, alert toollife.Alert) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service owns the tool-life engine: usage accumulation, tier classification,
// alert creation/dedup, notification dispatch and maintenance resets.
type Service struct {
	tools  ToolRegistry
	ledger UsageLedger
	alerts AlertStore

	gateway Notifier
	clock   Clock
	logger  *log.Logger
	locks   *toolLocks

	dispatchTimeout time.Duration
	dispatches      sync.WaitGroup
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithNotifier assigns the notification gateway.
func WithNotifier(gateway Notifier) ServiceOption {
	return func(s *Service) {
		s.gateway = gateway
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDispatchTimeout bounds the background notification dispatch call.
func WithDispatchTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.dispatchTimeout = timeout
		}
	}
}

// NewService constructs the tool-life service.
func NewService(tools ToolRegistry, ledger UsageLedger, alerts AlertStore, opts ...ServiceOption) (*Service, error) {
	if tools == nil {
		return nil, errors.New("toollife: nil tool registry")
	}
	if ledger == nil {
		return nil, errors.New("toollife: nil usage ledger")
	}
	if alerts == nil {
		return nil, errors.New("toollife: nil alert store")
	}
	service := &Service{
		tools:           tools,
		ledger:          ledger,
		alerts:          alerts,
		clock:           systemClock{},
		locks:           newToolLocks(),
		dispatchTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Close waits for in-flight notification dispatches to finish.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.dispatches.Wait()
}

// RecordUsageInput carries one wear-inducing event.
type RecordUsageInput struct {
	ToolID        int
	ComponentID   string
	HolesCount    float64
	CuttingLength float64
	OperatorID    string
}

// RecordUsageResult describes the classification of a recorded event.
type RecordUsageResult struct {
	ToolID                  int           `json:"tool_id"`
	ToolName                string        `json:"tool_name"`
	UsageScore              float64       `json:"usage_score"`
	CumulativeTotal         float64       `json:"cumulative_total"`
	Threshold               float64       `json:"tool_life_threshold"`
	UsagePercentage         float64       `json:"usage_percentage"`
	RemainingLife           float64       `json:"remaining_life"`
	Tier                    toollife.Tier `json:"alert_type"`
	Severity                string        `json:"alert_severity"`
	ThresholdReached        bool          `json:"threshold_reached"`
	WarningThresholdReached bool          `json:"warning_threshold_reached"`
	Status                  string        `json:"status"`
	Recommendation          string        `json:"recommendation"`
}

// RecordUsage appends one usage event, classifies the new cumulative total and
// raises an alert when a WARNING or CRITICAL tier is newly entered. The
// read-latest/append/alert sequence is serialized per tool.
func (s *Service) RecordUsage(ctx context.Context, in RecordUsageInput) (*RecordUsageResult, error) {
	if s == nil {
		return nil, errors.New("toollife: nil service")
	}
	if in.ToolID <= 0 {
		return nil, toollife.NewValidationError("tool_id", "must be a positive integer")
	}
	if strings.TrimSpace(in.ComponentID) == "" {
		return nil, toollife.NewValidationError("component_id", "is required")
	}
	if in.HolesCount < 0 {
		return nil, toollife.NewValidationError("no_of_holes", "cannot be negative")
	}
	if in.CuttingLength < 0 {
		return nil, toollife.NewValidationError("cutting_length", "cannot be negative")
	}

	start := time.Now()
	release := s.locks.acquire(in.ToolID)
	defer release()

	tool, err := s.tools.GetByToolID(ctx, in.ToolID)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, registry.ErrNotFound
	}

	cumulativeBefore, err := s.latestCumulative(ctx, in.ToolID)
	if err != nil {
		return nil, err
	}

	usageScore, cumulativeAfter := toollife.Accumulate(cumulativeBefore, in.HolesCount, in.CuttingLength)
	threshold := tool.LifeThreshold
	percentage := toollife.UsagePercentage(cumulativeAfter, threshold)
	remaining := toollife.RemainingLife(cumulativeAfter, threshold)
	tier := toollife.Classify(cumulativeAfter, threshold)
	now := s.clock.Now().UTC()

	event := &toollife.UsageEvent{
		ToolID:           in.ToolID,
		ToolName:         tool.ToolName,
		ComponentID:      in.ComponentID,
		HolesCount:       in.HolesCount,
		CuttingLength:    in.CuttingLength,
		UsageScore:       usageScore,
		CumulativeBefore: cumulativeBefore,
		CumulativeAfter:  cumulativeAfter,
		Threshold:        threshold,
		UsagePercentage:  percentage,
		RemainingLife:    remaining,
		Tier:             tier,
		AlertTriggered:   tier != toollife.TierNone,
		OperatorID:       in.OperatorID,
		Timestamp:        now,
	}
	if err := s.ledger.Append(ctx, event); err != nil {
		metrics.IncUsageRecorded(string(tier), false)
		metrics.ObserveUsageLatency(false, time.Since(start))
		return nil, err
	}
	metrics.IncUsageRecorded(string(tier), true)
	metrics.ObserveUsageLatency(true, time.Since(start))

	if tier.Alertable() {
		if err := s.maybeRaiseAlert(ctx, tool, event); err != nil {
			return nil, err
		}
	}

	registryStatus := tier.RegistryStatus()
	if err := s.tools.UpdateStatus(ctx, in.ToolID, registryStatus, now); err != nil {
		return nil, err
	}

	return &RecordUsageResult{
		ToolID:                  in.ToolID,
		ToolName:                tool.ToolName,
		UsageScore:              usageScore,
		CumulativeTotal:         cumulativeAfter,
		Threshold:               threshold,
		UsagePercentage:         percentage,
		RemainingLife:           remaining,
		Tier:                    tier,
		Severity:                tier.Severity(),
		ThresholdReached:        cumulativeAfter >= threshold,
		WarningThresholdReached: cumulativeAfter >= threshold*toollife.WarningFraction,
		Status:                  registryStatus,
		Recommendation:          toollife.Recommendation(registryStatus),
	}, nil
}

// maybeRaiseAlert creates an alert for the event's tier unless one is already
// open for the same (tool, tier) pair. Runs inside the per-tool lock.
func (s *Service) maybeRaiseAlert(ctx context.Context, tool *registry.Tool, event *toollife.UsageEvent) error {
	existing, err := s.alerts.FindOpenByToolAndTier(ctx, event.ToolID, event.Tier)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	components, err := s.ledger.DistinctComponents(ctx, event.ToolID)
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	alert := &toollife.Alert{
		ID:              buildAlertID(event.ToolID, event.Tier, now),
		ToolID:          event.ToolID,
		ToolName:        tool.ToolName,
		Threshold:       event.Threshold,
		CumulativeUsage: event.CumulativeAfter,
		Tier:            event.Tier,
		Severity:        event.Tier.Severity(),
		UsagePercentage: event.UsagePercentage,
		RemainingLife:   event.RemainingLife,
		ComponentsUsed:  components,
		SupervisorEmail: tool.SupervisorEmail,
		Status:          toollife.AlertPending,
		Message: toollife.BuildAlertMessage(event.Tier, event.ToolID, tool.ToolName,
			event.CumulativeAfter, event.Threshold, event.UsagePercentage, event.RemainingLife, components),
		Description: toollife.BuildAlertDescription(event.Tier),
		CreatedAt:   now,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return err
	}
	metrics.IncAlertCreated(string(alert.Tier))

	if tool.SupervisorEmail != "" && s.gateway != nil {
		s.dispatchAsync(*alert)
	}
	return nil
}

// dispatchAsync attempts notification delivery off the request path. The alert
// stays PENDING on failure; manual notify is the only retry.
func (s *Service) dispatchAsync(alert toollife.Alert) {
	s.dispatches.Add(1)
	go func() {
		defer s.dispatches.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		if err := s.gateway.Dispatch(ctx, alert); err != nil {
			if s.logger != nil {
				s.logger.Printf("alert dispatch failed: tool=%d tier=%s err=%v", alert.ToolID, alert.Tier, err)
			}
			return
		}
		if err := s.alerts.MarkSent(ctx, alert.ID, s.clock.Now().UTC()); err != nil && s.logger != nil {
			s.logger.Printf("alert mark sent failed: id=%s err=%v", alert.ID, err)
		}
	}()
}

// ToolStatus describes the live wear state of one tool.
type ToolStatus struct {
	ToolID                  int           `json:"tool_id"`
	ToolName                string        `json:"tool_name"`
	HolderName              string        `json:"holder_name,omitempty"`
	CumulativeUsage         float64       `json:"cumulative_usage"`
	Threshold               float64       `json:"tool_life_threshold"`
	UsagePercentage         float64       `json:"usage_percentage"`
	RemainingLife           float64       `json:"remaining_life"`
	ThresholdReached        bool          `json:"threshold_reached"`
	WarningThresholdReached bool          `json:"warning_threshold_reached"`
	AlertStatus             toollife.Tier `json:"alert_status"`
	ComponentsUsed          []string      `json:"components_used"`
	LastUsed                *time.Time    `json:"last_used,omitempty"`
	Status                  string        `json:"status"`
	Recommendation          string        `json:"recommendation"`
}

// Status reports a tool's current cumulative wear against its live threshold.
func (s *Service) Status(ctx context.Context, toolID int) (*ToolStatus, error) {
	if s == nil {
		return nil, errors.New("toollife: nil service")
	}
	tool, err := s.tools.GetByToolID(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, registry.ErrNotFound
	}

	latest, err := s.ledger.LatestByTool(ctx, toolID)
	if err != nil {
		return nil, err
	}
	var cumulative float64
	var lastUsed *time.Time
	if latest != nil {
		cumulative = latest.CumulativeAfter
		ts := latest.Timestamp
		lastUsed = &ts
	}
	components, err := s.ledger.DistinctComponents(ctx, toolID)
	if err != nil {
		return nil, err
	}

	threshold := tool.LifeThreshold
	// The live status endpoint classifies against the tool's current
	// threshold; ledger rows keep the snapshot they were written with.
	alertStatus := toollife.Classify(cumulative, threshold)
	if !alertStatus.Alertable() {
		alertStatus = toollife.TierNone
	}

	return &ToolStatus{
		ToolID:                  toolID,
		ToolName:                tool.ToolName,
		HolderName:              tool.HolderName,
		CumulativeUsage:         cumulative,
		Threshold:               threshold,
		UsagePercentage:         toollife.UsagePercentage(cumulative, threshold),
		RemainingLife:           toollife.RemainingLife(cumulative, threshold),
		ThresholdReached:        cumulative >= threshold,
		WarningThresholdReached: cumulative >= threshold*toollife.WarningFraction,
		AlertStatus:             alertStatus,
		ComponentsUsed:          components,
		LastUsed:                lastUsed,
		Status:                  tool.Status,
		Recommendation:          toollife.Recommendation(tool.Status),
	}, nil
}

// ActiveAlerts lists all open (PENDING or SENT) alerts.
func (s *Service) ActiveAlerts(ctx context.Context) ([]toollife.Alert, error) {
	if s == nil {
		return nil, errors.New("toollife: nil service")
	}
	return s.alerts.ListOpen(ctx)
}

// NotifyAlert re-attempts dispatch for a still-open alert and marks it SENT on
// success. Dispatch runs synchronously here; this is the manual retry path.
// Acknowledged alerts are rejected so a closed alert can never reopen.
func (s *Service) NotifyAlert(ctx context.Context, alertID, supervisorEmail string) (*toollife.Alert, error) {
	if s == nil {
		return nil, errors.New("toollife: nil service")
	}
	if alertID == "" {
		return nil, toollife.NewValidationError("alert_id", "is required")
	}
	alert, err := s.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, toollife.ErrAlertNotFound
	}
	if !alert.Open() {
		return nil, toollife.ErrAlertNotOpen
	}
	if supervisorEmail != "" {
		alert.SupervisorEmail = supervisorEmail
	}
	if s.gateway == nil {
		return nil, toollife.ErrDispatchFailed
	}
	if err := s.gateway.Dispatch(ctx, *alert); err != nil {
		return nil, toollife.ErrDispatchFailed
	}
	sentAt := s.clock.Now().UTC()
	if err := s.alerts.MarkSent(ctx, alert.ID, sentAt); err != nil {
		return nil, err
	}
	alert.Status = toollife.AlertSent
	alert.SentAt = sentAt
	return alert, nil
}

// ResetResult describes a maintenance reset.
type ResetResult struct {
	ToolID        int     `json:"tool_id"`
	PreviousTotal float64 `json:"previous_total"`
	NewTotal      float64 `json:"new_cumulative_total"`
	Status        string  `json:"status"`
}

// ResetTool writes a zero-score checkpoint event, returns the tool to ACTIVE
// and acknowledges every open alert for it. This is the only path that clears
// the alert dedup gate.
func (s *Service) ResetTool(ctx context.Context, toolID int, technicianID, notes string) (*ResetResult, error) {
	if s == nil {
		return nil, errors.New("toollife: nil service")
	}
	if toolID <= 0 {
		return nil, toollife.NewValidationError("tool_id", "must be a positive integer")
	}

	release := s.locks.acquire(toolID)
	defer release()

	tool, err := s.tools.GetByToolID(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, registry.ErrNotFound
	}

	previous, err := s.latestCumulative(ctx, toolID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	checkpoint := &toollife.UsageEvent{
		ToolID:           toolID,
		ToolName:         tool.ToolName,
		ComponentID:      toollife.ResetComponentID,
		UsageScore:       0,
		CumulativeBefore: previous,
		CumulativeAfter:  0,
		Threshold:        tool.LifeThreshold,
		UsagePercentage:  0,
		RemainingLife:    tool.LifeThreshold,
		Tier:             toollife.TierNone,
		AlertTriggered:   false,
		OperatorID:       technicianID,
		Timestamp:        now,
	}
	if err := s.ledger.Append(ctx, checkpoint); err != nil {
		return nil, err
	}
	if err := s.tools.UpdateStatus(ctx, toolID, registry.StatusActive, now); err != nil {
		return nil, err
	}
	if err := s.alerts.AcknowledgeOpenByTool(ctx, toolID, now); err != nil {
		return nil, err
	}
	metrics.IncToolReset()
	if s.logger != nil && notes != "" {
		s.logger.Printf("tool reset: tool=%d technician=%s notes=%q", toolID, technicianID, notes)
	}

	return &ResetResult{
		ToolID:        toolID,
		PreviousTotal: previous,
		NewTotal:      0,
		Status:        registry.StatusActive,
	}, nil
}

// History returns the full ledger for a tool, newest first.
func (s *Service) History(ctx context.Context, toolID int) ([]toollife.UsageEvent, error) {
	if s == nil {
		return nil, errors.New("toollife: nil service")
	}
	tool, err := s.tools.GetByToolID(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, registry.ErrNotFound
	}
	return s.ledger.ListByTool(ctx, toolID)
}

// HistoryReport returns the tool together with its full ledger, newest first.
// Export rendering needs both.
func (s *Service) HistoryReport(ctx context.Context, toolID int) (*registry.Tool, []toollife.UsageEvent, error) {
	if s == nil {
		return nil, nil, errors.New("toollife: nil service")
	}
	tool, err := s.tools.GetByToolID(ctx, toolID)
	if err != nil {
		return nil, nil, err
	}
	if tool == nil {
		return nil, nil, registry.ErrNotFound
	}
	events, err := s.ledger.ListByTool(ctx, toolID)
	if err != nil {
		return nil, nil, err
	}
	return tool, events, nil
}

func (s *Service) latestCumulative(ctx context.Context, toolID int) (float64, error) {
	latest, err := s.ledger.LatestByTool(ctx, toolID)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 0, nil
	}
	return latest.CumulativeAfter, nil
}

func buildAlertID(toolID int, tier toollife.Tier, createdAt time.Time) string {
	sum := sha1.Sum([]byte(strings.Join([]string{
		"tool", strconv.Itoa(toolID), string(tier), createdAt.Format(time.RFC3339Nano),
	}, "|")))
	return "alert-" + hex.EncodeToString(sum[:8])
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
