package workorder

import (
	"sort"
	"strings"
	"time"
)

// StepKind identifies one service step type within a work order.
type StepKind string

const (
	KindScanning StepKind = "scanning"
	KindDesign   StepKind = "design"
	KindPrint    StepKind = "print"
	KindTesting  StepKind = "testing"
)

var allKinds = []StepKind{KindScanning, KindDesign, KindPrint, KindTesting}

// kindSortOrder fixes step precedence: scanning before design before print.
var kindSortOrder = map[StepKind]int{
	KindScanning: 1,
	KindDesign:   2,
	KindPrint:    3,
	KindTesting:  4,
}

// AllKinds returns the ordered list of known step kinds.
func AllKinds() []StepKind {
	cp := make([]StepKind, len(allKinds))
	copy(cp, allKinds)
	return cp
}

// ParseStepKind converts a string into a known StepKind.
func ParseStepKind(value string) (StepKind, bool) {
	normalized := StepKind(strings.ToLower(strings.TrimSpace(value)))
	_, ok := kindSortOrder[normalized]
	return normalized, ok
}

// SortOrder returns the fixed precedence of a step kind. Unknown kinds sort last.
func (k StepKind) SortOrder() int {
	if order, ok := kindSortOrder[k]; ok {
		return order
	}
	return len(kindSortOrder) + 1
}

// StepStatus represents the lifecycle of a single service step.
type StepStatus string

const (
	StepNotStarted StepStatus = "not_started"
	StepWaiting    StepStatus = "waiting"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

var stepStatusSet = map[StepStatus]struct{}{
	StepNotStarted: {},
	StepWaiting:    {},
	StepInProgress: {},
	StepCompleted:  {},
}

// ParseStepStatus converts a string into a known StepStatus.
func ParseStepStatus(value string) (StepStatus, bool) {
	normalized := StepStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stepStatusSet[normalized]
	return normalized, ok
}

// OrderStatus represents the aggregate lifecycle of a work order.
type OrderStatus string

const (
	OrderNew        OrderStatus = "new"
	OrderInProgress OrderStatus = "in_progress"
	OrderWaiting    OrderStatus = "waiting"
	OrderCompleted  OrderStatus = "completed"
)

var orderStatusSet = map[OrderStatus]struct{}{
	OrderNew:        {},
	OrderInProgress: {},
	OrderWaiting:    {},
	OrderCompleted:  {},
}

// ParseOrderStatus converts a string into a known OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, bool) {
	normalized := OrderStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := orderStatusSet[normalized]
	return normalized, ok
}

// WorkOrder represents a customer fabrication request persisted in SQLite.
type WorkOrder struct {
	ID          int64
	Reference   string
	Customer    string
	Description string
	Status      OrderStatus
	QuoteID     *int64
	JobDeadline *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Open reports whether the order still has schedulable work.
func (w WorkOrder) Open() bool {
	return w.Status != OrderCompleted
}

// Step represents one service step of a work order.
type Step struct {
	ID          int64
	WorkOrderID int64
	Kind        StepKind
	Status      StepStatus
	SortOrder   int
	StartedAt   *time.Time
	PausedAt    *time.Time
	CompletedAt *time.Time
	Notes       string
	UpdatedAt   time.Time
}

// Pending reports whether the step still needs shop capacity.
func (s Step) Pending() bool {
	return s.Status != StepCompleted
}

// DeriveOrderStatus computes the aggregate status from a work order's steps.
// Priority: all completed wins, then any in-progress, then any waiting.
// A mix of only not-started steps is ambiguous with an explicit "new", so
// the second return is false and the caller must leave the stored value alone.
func DeriveOrderStatus(steps []*Step) (OrderStatus, bool) {
	if len(steps) == 0 {
		return "", false
	}
	completed := 0
	anyInProgress := false
	anyWaiting := false
	for _, step := range steps {
		switch step.Status {
		case StepCompleted:
			completed++
		case StepInProgress:
			anyInProgress = true
		case StepWaiting:
			anyWaiting = true
		}
	}
	switch {
	case completed == len(steps):
		return OrderCompleted, true
	case anyInProgress:
		return OrderInProgress, true
	case anyWaiting:
		return OrderWaiting, true
	default:
		return "", false
	}
}

// SortSteps orders steps by their fixed kind precedence, then by identifier.
func SortSteps(steps []*Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].SortOrder != steps[j].SortOrder {
			return steps[i].SortOrder < steps[j].SortOrder
		}
		return steps[i].ID < steps[j].ID
	})
}

// noteTimestampLayout is the local-time prefix for appended note lines.
const noteTimestampLayout = "2006-01-02 15:04"

// AppendNote appends a timestamped note line to existing notes. Prior notes
// are never overwritten; entries are separated by a blank line.
func AppendNote(existing, note string, at time.Time) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	line := "[" + at.Local().Format(noteTimestampLayout) + "] " + note
	if strings.TrimSpace(existing) == "" {
		return line
	}
	return existing + "\n\n" + line
}
