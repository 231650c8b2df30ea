package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SourceType says how a material is obtained.
type SourceType int

const (
	MakeInternal SourceType = iota
	BuyExternal
)

func (s SourceType) String() string {
	switch s {
	case MakeInternal:
		return "Make"
	case BuyExternal:
		return "Buy"
	default:
		return "Unknown"
	}
}

// BOMChildLink is one line of a bill of materials, read-only reference data
// owned by the BOM editor collaborator.
type BOMChildLink struct {
	ChildCode     MaterialCode
	ChildName     string
	StandardUsage decimal.Decimal // child units consumed per parent unit
	OutputProcess ProcessName     // process that produces the child, if made
	Source        SourceType
	LeadTimeDays  int // procurement lead time, if bought
}

// NewBOMChildLink creates a validated BOMChildLink.
func NewBOMChildLink(child MaterialCode, name string, usage decimal.Decimal, outputProcess ProcessName, source SourceType) (*BOMChildLink, error) {
	if string(child) == "" {
		return nil, fmt.Errorf("child code cannot be empty")
	}
	if !usage.IsPositive() {
		return nil, fmt.Errorf("standard usage must be positive, got %s", usage)
	}
	if source == MakeInternal && string(outputProcess) == "" {
		return nil, fmt.Errorf("internally made child %s must name an output process", child)
	}

	return &BOMChildLink{
		ChildCode:     child,
		ChildName:     name,
		StandardUsage: usage,
		OutputProcess: outputProcess,
		Source:        source,
	}, nil
}
