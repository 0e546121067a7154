package toollife

import registry "factory-ops/internal/registry/domain"

// Tier classifies how close a tool is to its wear-life threshold.
type Tier string

const (
	TierNone     Tier = "NONE"
	TierOrder    Tier = "ORDER"
	TierWarning  Tier = "WARNING"
	TierCritical Tier = "CRITICAL"
)

// Fixed fractions of the wear-life threshold.
const (
	OrderFraction   = 0.75
	WarningFraction = 0.90
)

// Classify maps a cumulative wear total to an alert tier. Checks run in
// descending order so exactly one tier applies.
func Classify(cumulative, threshold float64) Tier {
	switch {
	case cumulative >= threshold:
		return TierCritical
	case cumulative >= threshold*WarningFraction:
		return TierWarning
	case cumulative >= threshold*OrderFraction:
		return TierOrder
	default:
		return TierNone
	}
}

// RegistryStatus maps a tier to the tool lifecycle status it implies.
// ORDER is informational and leaves the tool ACTIVE.
func (t Tier) RegistryStatus() string {
	switch t {
	case TierCritical:
		return registry.StatusEndOfLife
	case TierWarning:
		return registry.StatusNearEndOfLife
	default:
		return registry.StatusActive
	}
}

// Severity returns the severity label recorded on alerts for the tier.
func (t Tier) Severity() string {
	switch t {
	case TierCritical:
		return "CRITICAL"
	case TierWarning:
		return "WARNING"
	case TierOrder:
		return "INFO"
	default:
		return "NONE"
	}
}

// Alertable reports whether the tier creates a persisted alert.
// ORDER only flags the ledger entry.
func (t Tier) Alertable() bool {
	return t == TierWarning || t == TierCritical
}

// Recommendation returns operator guidance for a registry status.
func Recommendation(status string) string {
	switch status {
	case registry.StatusEndOfLife:
		return "Tool requires immediate replacement"
	case registry.StatusNearEndOfLife:
		return "Tool nearing end of life, prepare for replacement"
	default:
		return "Tool usage normal, continue monitoring"
	}
}
