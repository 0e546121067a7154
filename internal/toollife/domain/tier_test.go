package toollife

import (
	"strings"
	"testing"

	registry "factory-ops/internal/registry/domain"
)

func TestClassifyBoundaries(t *testing.T) {
	const threshold = 1000.0
	cases := []struct {
		name       string
		cumulative float64
		want       Tier
	}{
		{"zero", 0, TierNone},
		{"just below order", 749.99, TierNone},
		{"exactly order", 750, TierOrder},
		{"just below warning", 899.99, TierOrder},
		{"exactly warning", 900, TierWarning},
		{"just below critical", 999.99, TierWarning},
		{"exactly critical", 1000, TierCritical},
		{"past critical", 1400, TierCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.cumulative, threshold)
			if got != tc.want {
				t.Fatalf("Classify(%v, %v) = %s, want %s", tc.cumulative, threshold, got, tc.want)
			}
		})
	}
}

func TestClassifyZeroThreshold(t *testing.T) {
	// A non-positive threshold classifies everything as CRITICAL once any
	// wear exists; Classify never divides.
	if got := Classify(1, 0); got != TierCritical {
		t.Fatalf("Classify(1, 0) = %s, want CRITICAL", got)
	}
}

func TestTierRegistryStatus(t *testing.T) {
	cases := []struct {
		tier Tier
		want string
	}{
		{TierCritical, registry.StatusEndOfLife},
		{TierWarning, registry.StatusNearEndOfLife},
		{TierOrder, registry.StatusActive},
		{TierNone, registry.StatusActive},
	}
	for _, tc := range cases {
		if got := tc.tier.RegistryStatus(); got != tc.want {
			t.Fatalf("%s.RegistryStatus() = %s, want %s", tc.tier, got, tc.want)
		}
	}
}

func TestTierAlertable(t *testing.T) {
	if TierOrder.Alertable() {
		t.Fatal("ORDER must not create alerts")
	}
	if TierNone.Alertable() {
		t.Fatal("NONE must not create alerts")
	}
	if !TierWarning.Alertable() || !TierCritical.Alertable() {
		t.Fatal("WARNING and CRITICAL must create alerts")
	}
}

func TestAccumulate(t *testing.T) {
	score, after := Accumulate(500, 10, 45)
	if score != 450 {
		t.Fatalf("usage score = %v, want 450", score)
	}
	if after != 950 {
		t.Fatalf("cumulative after = %v, want 950", after)
	}
}

func TestAccumulateReplay(t *testing.T) {
	// Replaying an ordered history from zero reproduces every total.
	inputs := [][2]float64{{10, 50}, {5, 20}, {8, 12.5}, {0, 0}, {3, 100}}
	var cumulative float64
	var totals []float64
	for _, in := range inputs {
		_, cumulative = Accumulate(cumulative, in[0], in[1])
		totals = append(totals, cumulative)
	}

	var replayed float64
	for i, in := range inputs {
		_, replayed = Accumulate(replayed, in[0], in[1])
		if replayed != totals[i] {
			t.Fatalf("replay diverged at %d: got %v, want %v", i, replayed, totals[i])
		}
	}
}

func TestRemainingLifeClamped(t *testing.T) {
	if got := RemainingLife(1400, 1000); got != 0 {
		t.Fatalf("remaining life past threshold = %v, want 0", got)
	}
	if got := RemainingLife(600, 1000); got != 400 {
		t.Fatalf("remaining life = %v, want 400", got)
	}
}

func TestUsagePercentage(t *testing.T) {
	if got := UsagePercentage(950, 1000); got != 95 {
		t.Fatalf("usage percentage = %v, want 95", got)
	}
	if got := UsagePercentage(100, 0); got != 0 {
		t.Fatalf("usage percentage with zero threshold = %v, want 0", got)
	}
}

func TestBuildAlertMessage(t *testing.T) {
	msg := BuildAlertMessage(TierCritical, 42, "DRILL-8MM", 1400, 1000, 140, 0, []string{"ENG-100", "ENG-200"})
	if !strings.HasPrefix(msg, "ALERT: Tool ID 42 (DRILL-8MM)") {
		t.Fatalf("unexpected critical message: %q", msg)
	}
	if !strings.Contains(msg, "ENG-100, ENG-200") {
		t.Fatalf("components missing from message: %q", msg)
	}

	msg = BuildAlertMessage(TierWarning, 42, "DRILL-8MM", 950, 1000, 95, 50, nil)
	if !strings.HasPrefix(msg, "CAUTION:") {
		t.Fatalf("unexpected warning message: %q", msg)
	}

	if BuildAlertMessage(TierNone, 1, "x", 0, 0, 0, 0, nil) != "" {
		t.Fatal("NONE must produce no message")
	}
}

func TestIsReset(t *testing.T) {
	event := UsageEvent{ComponentID: ResetComponentID, UsageScore: 0, CumulativeAfter: 0}
	if !event.IsReset() {
		t.Fatal("checkpoint event not recognized as reset")
	}
	event.ComponentID = "ENG-100"
	if event.IsReset() {
		t.Fatal("regular event misread as reset")
	}
}
