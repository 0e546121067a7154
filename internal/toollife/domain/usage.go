package toollife

import "time"

// ResetComponentID marks a maintenance-reset checkpoint in the ledger.
const ResetComponentID = "MAINTENANCE_RESET"

// UsageEvent is one append-only ledger entry of wear-inducing work on a tool.
// Events are immutable once written; cumulative totals form a strictly
// accumulating sequence per tool between resets.
type UsageEvent struct {
	ID               int64     `json:"id"`
	ToolID           int       `json:"tool_id"`
	ToolName         string    `json:"tool_name"`
	ComponentID      string    `json:"component_id"`
	HolesCount       float64   `json:"no_of_holes"`
	CuttingLength    float64   `json:"cutting_length"`
	UsageScore       float64   `json:"usage_score"`
	CumulativeBefore float64   `json:"cumulative_total_before"`
	CumulativeAfter  float64   `json:"cumulative_total_after"`
	Threshold        float64   `json:"tool_life_threshold"`
	UsagePercentage  float64   `json:"usage_percentage"`
	RemainingLife    float64   `json:"remaining_life"`
	Tier             Tier      `json:"alert_type"`
	AlertTriggered   bool      `json:"alert_triggered"`
	OperatorID       string    `json:"operator_id,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Accumulate folds one wear contribution onto the running total. It is a pure
// function: replaying an ordered event history from zero reproduces every
// intermediate total.
func Accumulate(cumulativeBefore, holesCount, cuttingLength float64) (usageScore, cumulativeAfter float64) {
	usageScore = holesCount * cuttingLength
	return usageScore, cumulativeBefore + usageScore
}

// UsagePercentage expresses a cumulative total as percent of threshold.
func UsagePercentage(cumulative, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return cumulative / threshold * 100
}

// RemainingLife is the wear capacity left before the threshold, never negative.
func RemainingLife(cumulative, threshold float64) float64 {
	remaining := threshold - cumulative
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsReset reports whether the event is a maintenance-reset checkpoint.
func (e UsageEvent) IsReset() bool {
	return e.ComponentID == ResetComponentID && e.UsageScore == 0 && e.CumulativeAfter == 0
}
