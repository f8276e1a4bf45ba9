package reconcile

import (
	"time"

	"asymmetricbridge/internal/config"
	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/threshold"
)

// DefaultDebounceWindow is the minimum age of a status row before automation
// may write it again.
const DefaultDebounceWindow = config.DefaultDebounceWindow

type SkipReason string

const (
	SkipUnknown   SkipReason = "unknown_signal"
	SkipOverride  SkipReason = "manual_override"
	SkipUnchanged SkipReason = "unchanged"
	SkipDebounced SkipReason = "debounced"
	SkipConflict  SkipReason = "conflict"
)

type Change struct {
	Key    domino.Key         `json:"key"`
	Old    domino.Status      `json:"old_status"`
	New    domino.Status      `json:"new_status"`
	Reason string             `json:"reason"`
	Source string             `json:"source,omitempty"`
	Value  *threshold.Reading `json:"reading,omitempty"`

	// seeded rows hold catalog defaults and are not debounced.
	seeded bool
}

type Skip struct {
	Key    domino.Key `json:"key"`
	Reason SkipReason `json:"reason"`
}

type PlanResult struct {
	Changes []Change
	Skips   []Skip
}

// IndexStatuses keys rows by signal.
func IndexStatuses(rows []models.SignalStatus) map[domino.Key]models.SignalStatus {
	out := make(map[domino.Key]models.SignalStatus, len(rows))
	for _, r := range rows {
		out[domino.Key{DominoID: r.DominoID, Signal: r.SignalName}] = r
	}
	return out
}

// Plan decides which evaluated results become changes. Results that were not
// evaluated are neither changes nor skips.
func Plan(results []threshold.Result, current map[domino.Key]models.SignalStatus, now time.Time, window time.Duration) PlanResult {
	var out PlanResult
	for _, res := range results {
		if !res.Evaluated || res.NewStatus == "" {
			continue
		}
		row, ok := current[res.Key]
		if !ok {
			out.Skips = append(out.Skips, Skip{Key: res.Key, Reason: SkipUnknown})
			continue
		}
		if row.IsOverride {
			out.Skips = append(out.Skips, Skip{Key: res.Key, Reason: SkipOverride})
			continue
		}
		if domino.Status(row.Status) == res.NewStatus {
			out.Skips = append(out.Skips, Skip{Key: res.Key, Reason: SkipUnchanged})
			continue
		}
		seeded := row.UpdatedBy == domino.UpdatedBySeed
		if !seeded && window > 0 && now.Sub(row.UpdatedAt) < window {
			out.Skips = append(out.Skips, Skip{Key: res.Key, Reason: SkipDebounced})
			continue
		}
		out.Changes = append(out.Changes, Change{
			Key:    res.Key,
			Old:    domino.Status(row.Status),
			New:    res.NewStatus,
			Reason: res.Reason,
			Source: res.Source,
			Value:  res.Reading,
			seeded: seeded,
		})
	}
	return out
}
