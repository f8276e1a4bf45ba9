package domino

import "strings"

// Status is the tracked state of a signal.
type Status string

const (
	StatusGreen Status = "green"
	StatusAmber Status = "amber"
	StatusRed   Status = "red"
)

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", false
	}
	return s, true
}

func (s Status) Valid() bool {
	switch s {
	case StatusGreen, StatusAmber, StatusRed:
		return true
	default:
		return false
	}
}

// Severity orders statuses green < amber < red. Unknown values return -1.
func (s Status) Severity() int {
	switch s {
	case StatusGreen:
		return 0
	case StatusAmber:
		return 1
	case StatusRed:
		return 2
	default:
		return -1
	}
}

func (s Status) String() string { return string(s) }

// Trigger and writer tags stored alongside status rows and history entries.
const (
	TriggerManual = "manual"
	TriggerAuto   = "auto"

	UpdatedByManual = "manual"
	UpdatedByAuto   = "auto"
	UpdatedBySeed   = "seed"
)
