package workorder

import (
	"fmt"
	"time"
)

// LeadTimeFormulaVersion tags persisted lead-time payloads so stale records
// can be recognized after the formula changes.
const LeadTimeFormulaVersion = 2

// LeadTimeRecord captures one scheduler placement for a step.
type LeadTimeRecord struct {
	QuotedHours  float64   `json:"quoted_hours"`
	LeadDays     int       `json:"lead_days"`
	LaneCount    int       `json:"lane_count"`
	LaneIndex    int       `json:"lane_index"`
	HeadroomDays float64   `json:"headroom_days"`
	Multiplier   float64   `json:"multiplier"`
	StartsAt     time.Time `json:"starts_at"`
	DueAt        time.Time `json:"due_at"`
	Version      int       `json:"version"`
	ComputedAt   time.Time `json:"computed_at"`
}

// SimpleActual records completed effort for scanning, design, and testing steps.
type SimpleActual struct {
	ActualHours float64 `json:"actual_hours"`
}

// MaterialUsage records one spool or resin batch consumed by a print step.
type MaterialUsage struct {
	Material string  `json:"material"`
	Grams    float64 `json:"grams"`
}

// PrintActual records completed usage for print steps, including reruns.
type PrintActual struct {
	Restarted          bool               `json:"restarted"`
	ExtraMachineHours  float64            `json:"extra_machine_hours"`
	ExtraSetupHours    float64            `json:"extra_setup_hours"`
	ExtraSupportHours  float64            `json:"extra_support_hours"`
	ExtraMaterialUsage []MaterialUsage    `json:"extra_material_usage,omitempty"`
	CostBreakdown      map[string]float64 `json:"cost_breakdown,omitempty"`
}

// ActualPayload is the tagged per-step actuals record stored alongside a step.
// At most one variant may be populated and it must match the step kind;
// LeadTime may accompany either variant or stand alone.
type ActualPayload struct {
	Kind     StepKind        `json:"kind"`
	LeadTime *LeadTimeRecord `json:"lead_time,omitempty"`
	Simple   *SimpleActual   `json:"simple,omitempty"`
	Print    *PrintActual    `json:"print,omitempty"`
}

// Validate checks the payload variant against its declared kind.
func (p *ActualPayload) Validate() error {
	if p == nil {
		return fmt.Errorf("actual payload is nil")
	}
	if _, ok := kindSortOrder[p.Kind]; !ok {
		return fmt.Errorf("actual payload has unknown kind %q", p.Kind)
	}
	if p.Simple != nil && p.Print != nil {
		return fmt.Errorf("actual payload for %s sets both variants", p.Kind)
	}
	if p.Print != nil && p.Kind != KindPrint {
		return fmt.Errorf("print actuals attached to %s step", p.Kind)
	}
	if p.Simple != nil && p.Kind == KindPrint {
		return fmt.Errorf("simple actuals attached to print step")
	}
	return nil
}

// StepActual links a payload to its owning step (one row per step).
type StepActual struct {
	StepID      int64
	ActualHours *float64
	Payload     ActualPayload
	UpdatedAt   time.Time
}

// QuoteItem is one quoted line of work, matched to steps by kind.
type QuoteItem struct {
	ID                  int64
	QuoteID             int64
	Kind                StepKind
	LaborHours          float64
	PrintHours          float64
	SupportRemovalHours float64
	SetupHours          float64
	AdminHours          float64
}

// QuotedHours returns the hours the scheduler should plan against for a step
// of the given kind. Print steps sum machine time plus support removal, setup,
// and admin; other kinds use their single labor figure. No matching line
// item means zero hours.
func QuotedHours(kind StepKind, items []*QuoteItem) float64 {
	for _, item := range items {
		if item.Kind != kind {
			continue
		}
		if kind == KindPrint {
			return item.PrintHours + item.SupportRemovalHours + item.SetupHours + item.AdminHours
		}
		return item.LaborHours
	}
	return 0
}
