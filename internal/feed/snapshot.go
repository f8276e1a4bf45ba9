package feed

import (
	"sort"
	"strings"
	"time"
)

// Observation is one dated value of a series.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Quote is the latest market reading for a symbol.
type Quote struct {
	Price     float64 `json:"price"`
	PrevClose float64 `json:"prev_close,omitempty"`
	High52w   float64 `json:"high_52w,omitempty"`
	Low52w    float64 `json:"low_52w,omitempty"`
	ChangePct float64 `json:"change_pct,omitempty"`
}

// Snapshot is an already-normalized payload from one named source. Series are
// keyed by series id, quotes by symbol.
type Snapshot struct {
	Source    string                   `json:"source"`
	FetchedAt time.Time                `json:"fetched_at"`
	Series    map[string][]Observation `json:"series,omitempty"`
	Quotes    map[string]Quote         `json:"quotes,omitempty"`
}

// Normalize trims the source name and sorts every series oldest first.
func (s Snapshot) Normalize() Snapshot {
	s.Source = strings.ToLower(strings.TrimSpace(s.Source))
	if s.FetchedAt.IsZero() {
		s.FetchedAt = time.Now().UTC()
	}
	for id, obs := range s.Series {
		sorted := append([]Observation(nil), obs...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
		s.Series[id] = sorted
	}
	return s
}

func (s Snapshot) Fresh(now time.Time, maxAge time.Duration) bool {
	if s.FetchedAt.IsZero() {
		return false
	}
	if maxAge <= 0 {
		return true
	}
	return now.Sub(s.FetchedAt) <= maxAge
}

// Latest returns the newest observation of a series.
func (s Snapshot) Latest(seriesID string) (Observation, bool) {
	obs := s.Series[seriesID]
	if len(obs) == 0 {
		return Observation{}, false
	}
	return obs[len(obs)-1], true
}

// Values returns the last n values of a series, oldest first. n <= 0 returns all.
func (s Snapshot) Values(seriesID string, n int) []float64 {
	obs := s.Series[seriesID]
	if n > 0 && len(obs) > n {
		obs = obs[len(obs)-n:]
	}
	out := make([]float64, 0, len(obs))
	for _, o := range obs {
		out = append(out, o.Value)
	}
	return out
}

func (s Snapshot) Quote(symbol string) (Quote, bool) {
	q, ok := s.Quotes[symbol]
	if !ok || q.Price == 0 {
		return Quote{}, false
	}
	return q, true
}
