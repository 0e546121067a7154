package toollife

import (
	"fmt"
	"strings"
	"time"
)

const (
	AlertPending      = "PENDING"
	AlertSent         = "SENT"
	AlertAcknowledged = "ACKNOWLEDGED"
)

// Alert is a persisted threshold-crossing record for one (tool, tier) pair.
// At most one alert per pair may be open (PENDING or SENT) at any time.
type Alert struct {
	ID              string    `json:"id"`
	ToolID          int       `json:"tool_id"`
	ToolName        string    `json:"tool_name"`
	Threshold       float64   `json:"tool_life_threshold"`
	CumulativeUsage float64   `json:"cumulative_usage"`
	Tier            Tier      `json:"alert_type"`
	Severity        string    `json:"alert_severity"`
	UsagePercentage float64   `json:"usage_percentage"`
	RemainingLife   float64   `json:"remaining_life"`
	ComponentsUsed  []string  `json:"components_used"`
	SupervisorEmail string    `json:"supervisor_email,omitempty"`
	Status          string    `json:"alert_status"`
	Message         string    `json:"alert_message"`
	Description     string    `json:"alert_description"`
	CreatedAt       time.Time `json:"created_date"`
	SentAt          time.Time `json:"sent_date,omitempty"`
	AcknowledgedAt  time.Time `json:"acknowledged_date,omitempty"`
}

// Open reports whether the alert still gates re-raising its tier.
func (a Alert) Open() bool {
	return a.Status == AlertPending || a.Status == AlertSent
}

// BuildAlertMessage renders the operator-facing message for a tier crossing.
func BuildAlertMessage(tier Tier, toolID int, toolName string, cumulative, threshold, percentage, remaining float64, components []string) string {
	affected := strings.Join(components, ", ")
	switch tier {
	case TierCritical:
		return fmt.Sprintf(
			"ALERT: Tool ID %d (%s) has reached its tool life limit of %g. Cumulative usage: %g (%.2f%%). Immediate maintenance/replacement required. Components affected: %s",
			toolID, toolName, threshold, cumulative, percentage, affected)
	case TierWarning:
		return fmt.Sprintf(
			"CAUTION: Tool ID %d (%s) is nearing its tool life limit. Current usage: %g/%g (%.2f%%). Remaining usage: %g units. Please prepare for tool maintenance/replacement. Components affected: %s",
			toolID, toolName, cumulative, threshold, percentage, remaining, affected)
	case TierOrder:
		return fmt.Sprintf(
			"INFO: Tool ID %d (%s) has reached 75%% of its tool life. Current usage: %g/%g (%.2f%%). Tool life is ending soon - check availability to order replacement. Components affected: %s",
			toolID, toolName, cumulative, threshold, percentage, affected)
	default:
		return ""
	}
}

// BuildAlertDescription returns the short description stored with an alert.
func BuildAlertDescription(tier Tier) string {
	switch tier {
	case TierCritical:
		return "Critical notification - immediate action required"
	case TierWarning:
		return "Warning notification - tool approaching end of life, prepare for maintenance"
	case TierOrder:
		return "Order notification - tool life ending soon, check availability to order"
	default:
		return ""
	}
}
