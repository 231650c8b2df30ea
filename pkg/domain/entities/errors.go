package entities

import (
	"fmt"
	"time"
)

// ConfigurationError marks a propagation branch that cannot be routed because
// the process routing table has no usable entry. The branch is skipped and
// logged; sibling branches continue.
type ConfigurationError struct {
	Process ProcessName
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("process %q is not routable: %s", e.Process, e.Reason)
}

// CapacityExhaustedError reports that the date-window search ran out of days
// before accumulating the required hours. The requirement must be surfaced as
// unschedulable, never silently dropped.
type CapacityExhaustedError struct {
	Process       ProcessName
	RequiredHours string
	From          time.Time
	BoundDays     int
}

func (e *CapacityExhaustedError) Error() string {
	return fmt.Sprintf("no capacity for %s hours on process %q within %d days of %s",
		e.RequiredHours, e.Process, e.BoundDays, e.From.Format("2006-01-02"))
}

// RecursionBoundError reports that an overflow chain or BOM explosion hit the
// depth cap. Treated as a likely data problem (for example a cyclic BOM) and
// surfaced explicitly, never truncated.
type RecursionBoundError struct {
	Kind     string // "overflow-chain" or "bom-explosion"
	SourceNo string
	Bound    int
}

func (e *RecursionBoundError) Error() string {
	return fmt.Sprintf("%s recursion for source %s exceeded bound %d; check for data or configuration problems",
		e.Kind, e.SourceNo, e.Bound)
}
