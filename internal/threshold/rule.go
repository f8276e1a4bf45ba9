package threshold

import (
	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/feed"
)

type Operator string

const (
	OpLT     Operator = "<"
	OpLTE    Operator = "<="
	OpGT     Operator = ">"
	OpGTE    Operator = ">="
	OpEQ     Operator = "=="
	OpCustom Operator = "custom"
)

// Reading is the value an extractor pulls out of a snapshot. Recent carries
// the trailing window for trend predicates, oldest first.
type Reading struct {
	Value  float64   `json:"value"`
	Label  string    `json:"label"`
	Recent []float64 `json:"recent,omitempty"`
}

// Threshold is one ordered predicate. For OpCustom, Predicate names a
// registry entry and Params carries its arguments.
type Threshold struct {
	Op        Operator           `json:"op"`
	Value     float64            `json:"value,omitempty"`
	Predicate string             `json:"predicate,omitempty"`
	Params    map[string]float64 `json:"params,omitempty"`
	Status    domino.Status      `json:"status"`
	Reason    string             `json:"reason"`
}

// Extractor returns false when the snapshot lacks the data or it is malformed.
type Extractor func(snap feed.Snapshot) (Reading, bool)

type Rule struct {
	Key        domino.Key
	Source     string
	Extract    Extractor
	Thresholds []Threshold
	ManualOnly bool
}

type Result struct {
	Key        domino.Key    `json:"key"`
	Source     string        `json:"source"`
	Evaluated  bool          `json:"evaluated"`
	ManualOnly bool          `json:"manual_only,omitempty"`
	NewStatus  domino.Status `json:"new_status,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Reading    *Reading      `json:"reading,omitempty"`
}

const (
	ReasonNoData       = "no data for source"
	ReasonExtraction   = "extraction failed"
	ReasonNoThresholds = "no thresholds defined"
	ReasonBaseline     = "within baseline range"
)

func compare(op Operator, value, target float64) bool {
	switch op {
	case OpLT:
		return value < target
	case OpLTE:
		return value <= target
	case OpGT:
		return value > target
	case OpGTE:
		return value >= target
	case OpEQ:
		return value == target
	default:
		return false
	}
}
