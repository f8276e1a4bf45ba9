package digest

import (
	"sort"
	"time"

	"asymmetricbridge/internal/config"
	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
)

const (
	ThreatCrisis   = "CRISIS"
	ThreatCritical = "CRITICAL"
	ThreatElevated = "ELEVATED"
	ThreatWatch    = "WATCH"
	ThreatBaseline = "BASELINE"
)

const (
	PostureDeteriorating = "deteriorating"
	PostureImproving     = "improving"
	PostureStable        = "stable"
)

const (
	KindEscalation   = "escalation"
	KindDeescalation = "deescalation"
)

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

type Transition struct {
	DominoID    int           `json:"domino_id"`
	DominoName  string        `json:"domino_name"`
	SignalName  string        `json:"signal_name"`
	Old         domino.Status `json:"old_status"`
	New         domino.Status `json:"new_status"`
	Kind        string        `json:"kind"`
	TriggerType string        `json:"trigger_type"`
	Reason      string        `json:"reason"`
	ChangedAt   time.Time     `json:"changed_at"`
}

type SignalState struct {
	DominoID        int           `json:"domino_id"`
	DominoName      string        `json:"domino_name"`
	SignalName      string        `json:"signal_name"`
	Status          domino.Status `json:"status"`
	IsOverride      bool          `json:"is_override"`
	LastUpdate      *time.Time    `json:"last_update,omitempty"`
	DaysSinceUpdate *int          `json:"days_since_update"`
}

type DominoSummary struct {
	ID            int          `json:"id"`
	Name          string       `json:"name"`
	Escalations   int          `json:"escalations"`
	Deescalations int          `json:"deescalations"`
	Posture       string       `json:"posture"`
	Changes       []Transition `json:"changes"`
}

type Counts struct {
	Green int `json:"green"`
	Amber int `json:"amber"`
	Red   int `json:"red"`
}

// Data is the aggregated view a report is rendered from.
type Data struct {
	Period        Period          `json:"period"`
	Escalations   []Transition    `json:"escalations"`
	Deescalations []Transition    `json:"deescalations"`
	Stale         []SignalState   `json:"stale_signals"`
	Unchanged     []SignalState   `json:"unchanged_signals"`
	Dominos       []DominoSummary `json:"domino_summaries"`
	Counts        Counts          `json:"counts"`
	ThreatLevel   string          `json:"threat_level"`
	StaleAfter    int             `json:"stale_after_days"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// Input holds the snapshots Aggregate reads. History is the period log;
// Latest is the newest entry per signal regardless of age.
type Input struct {
	Days           int
	Now            time.Time
	History        []models.SignalHistory
	Statuses       []models.SignalStatus
	Latest         []models.SignalHistory
	Catalog        domino.Catalog
	StaleAfterDays int
}

// PeriodFor returns [today-days+1 00:00, today 23:59:59.999999999] in UTC.
func PeriodFor(now time.Time, days int) Period {
	if days <= 0 {
		days = 1
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Period{
		Start: today.AddDate(0, 0, -(days - 1)),
		End:   today.Add(24*time.Hour - time.Nanosecond),
		Days:  days,
	}
}

func ThreatLevel(c Counts) string {
	switch {
	case c.Red >= 6:
		return ThreatCrisis
	case c.Red >= 3:
		return ThreatCritical
	case c.Amber >= 12:
		return ThreatElevated
	case c.Amber >= 6:
		return ThreatWatch
	default:
		return ThreatBaseline
	}
}

func Aggregate(in Input) Data {
	now := in.Now.UTC()
	staleAfter := in.StaleAfterDays
	if staleAfter <= 0 {
		staleAfter = config.DefaultStaleAfterDays
	}
	period := PeriodFor(now, in.Days)
	data := Data{
		Period:        period,
		Escalations:   []Transition{},
		Deescalations: []Transition{},
		Stale:         []SignalState{},
		Unchanged:     []SignalState{},
		Dominos:       []DominoSummary{},
		StaleAfter:    staleAfter,
		GeneratedAt:   now,
	}

	// Newest first; equal timestamps keep the higher id first.
	log := make([]Transition, 0, len(in.History))
	rows := append([]models.SignalHistory(nil), in.History...)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].ChangedAt.Equal(rows[j].ChangedAt) {
			return rows[i].ChangedAt.After(rows[j].ChangedAt)
		}
		return rows[i].ID > rows[j].ID
	})
	for _, h := range rows {
		t, ok := classify(h, in.Catalog)
		if !ok {
			continue
		}
		at := h.ChangedAt.UTC()
		if at.Before(period.Start) || at.After(period.End) {
			continue
		}
		log = append(log, t)
	}

	changed := map[domino.Key]bool{}
	for _, t := range log {
		changed[domino.Key{DominoID: t.DominoID, Signal: t.SignalName}] = true
		if t.Kind == KindEscalation {
			data.Escalations = append(data.Escalations, t)
		} else {
			data.Deescalations = append(data.Deescalations, t)
		}
	}

	statuses := map[domino.Key]models.SignalStatus{}
	for _, s := range in.Statuses {
		statuses[domino.Key{DominoID: s.DominoID, Signal: s.SignalName}] = s
	}
	latest := map[domino.Key]time.Time{}
	for _, h := range in.Latest {
		k := domino.Key{DominoID: h.DominoID, Signal: h.SignalName}
		if cur, ok := latest[k]; !ok || h.ChangedAt.After(cur) {
			latest[k] = h.ChangedAt
		}
	}

	for _, d := range in.Catalog.Dominos {
		summary := DominoSummary{ID: d.ID, Name: d.Name, Changes: []Transition{}}
		seen := map[string]bool{}
		for _, t := range log {
			if t.DominoID != d.ID {
				continue
			}
			if t.Kind == KindEscalation {
				summary.Escalations++
			} else {
				summary.Deescalations++
			}
			if !seen[t.SignalName] {
				seen[t.SignalName] = true
				summary.Changes = append(summary.Changes, t)
			}
		}
		summary.Posture = posture(summary.Escalations - summary.Deescalations)
		data.Dominos = append(data.Dominos, summary)

		for _, sig := range d.Signals {
			k := domino.Key{DominoID: d.ID, Signal: sig.Name}
			state := SignalState{DominoID: d.ID, DominoName: d.Name, SignalName: sig.Name, Status: sig.InitialStatus()}
			var last time.Time
			if row, ok := statuses[k]; ok {
				if st, valid := domino.ParseStatus(row.Status); valid {
					state.Status = st
				}
				state.IsOverride = row.IsOverride
				if row.UpdatedBy != domino.UpdatedBySeed {
					last = row.UpdatedAt
				}
			}
			if h, ok := latest[k]; ok && h.After(last) {
				last = h
			}
			if !last.IsZero() {
				lu := last.UTC()
				days := int(now.Sub(lu).Hours() / 24)
				if days < 0 {
					days = 0
				}
				state.LastUpdate = &lu
				state.DaysSinceUpdate = &days
			}
			switch state.Status {
			case domino.StatusRed:
				data.Counts.Red++
			case domino.StatusAmber:
				data.Counts.Amber++
			default:
				data.Counts.Green++
			}
			if state.DaysSinceUpdate == nil || *state.DaysSinceUpdate > staleAfter {
				data.Stale = append(data.Stale, state)
			}
			if !changed[k] {
				data.Unchanged = append(data.Unchanged, state)
			}
		}
	}
	data.ThreatLevel = ThreatLevel(data.Counts)
	return data
}

func classify(h models.SignalHistory, cat domino.Catalog) (Transition, bool) {
	oldStatus, ok := domino.ParseStatus(h.OldStatus)
	if !ok {
		return Transition{}, false
	}
	newStatus, ok := domino.ParseStatus(h.NewStatus)
	if !ok || oldStatus == newStatus {
		return Transition{}, false
	}
	t := Transition{
		DominoID:    h.DominoID,
		SignalName:  h.SignalName,
		Old:         oldStatus,
		New:         newStatus,
		Kind:        KindDeescalation,
		TriggerType: h.TriggerType,
		Reason:      h.Reason,
		ChangedAt:   h.ChangedAt.UTC(),
	}
	if newStatus.Severity() > oldStatus.Severity() {
		t.Kind = KindEscalation
	}
	if d, ok := cat.Domino(h.DominoID); ok {
		t.DominoName = d.Name
	}
	return t, true
}

func posture(net int) string {
	switch {
	case net > 0:
		return PostureDeteriorating
	case net < 0:
		return PostureImproving
	default:
		return PostureStable
	}
}

// TouchedDominos counts dominos with at least one change in the period.
func (d Data) TouchedDominos() int {
	n := 0
	for _, s := range d.Dominos {
		if len(s.Changes) > 0 {
			n++
		}
	}
	return n
}
