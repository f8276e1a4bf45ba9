package domino

import (
	"errors"
	"fmt"
	"strings"
)

// Signal is one measurable indicator inside a domino.
type Signal struct {
	Name          string `json:"name"`
	Source        string `json:"source"`
	Frequency     string `json:"frequency"`
	Baseline      string `json:"baseline"`
	ThresholdText string `json:"threshold"`
	Notes         string `json:"notes,omitempty"`
	DefaultStatus Status `json:"default_status"`
}

// Domino is a disruption vector made of ordered signals.
type Domino struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Signals     []Signal `json:"signals"`
}

// Key identifies a signal across the catalog.
type Key struct {
	DominoID int    `json:"domino_id"`
	Signal   string `json:"signal_name"`
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s", k.DominoID, k.Signal)
}

type Catalog struct {
	Dominos []Domino `json:"dominos"`
}

func (c Catalog) Domino(id int) (Domino, bool) {
	for _, d := range c.Dominos {
		if d.ID == id {
			return d, true
		}
	}
	return Domino{}, false
}

func (c Catalog) Lookup(k Key) (Domino, Signal, bool) {
	d, ok := c.Domino(k.DominoID)
	if !ok {
		return Domino{}, Signal{}, false
	}
	for _, s := range d.Signals {
		if s.Name == k.Signal {
			return d, s, true
		}
	}
	return Domino{}, Signal{}, false
}

// Keys returns every signal key in catalog order.
func (c Catalog) Keys() []Key {
	out := make([]Key, 0, 32)
	for _, d := range c.Dominos {
		for _, s := range d.Signals {
			out = append(out, Key{DominoID: d.ID, Signal: s.Name})
		}
	}
	return out
}

func (c Catalog) SignalCount() int {
	n := 0
	for _, d := range c.Dominos {
		n += len(d.Signals)
	}
	return n
}

func (c Catalog) Validate() error {
	if len(c.Dominos) == 0 {
		return errors.New("catalog has no dominos")
	}
	ids := map[int]struct{}{}
	for _, d := range c.Dominos {
		if d.ID <= 0 {
			return fmt.Errorf("domino %q: id must be positive", d.Name)
		}
		if _, ok := ids[d.ID]; ok {
			return fmt.Errorf("domino id %d is duplicated", d.ID)
		}
		ids[d.ID] = struct{}{}
		names := map[string]struct{}{}
		for _, s := range d.Signals {
			name := strings.TrimSpace(s.Name)
			if name == "" {
				return fmt.Errorf("domino %d: signal name is empty", d.ID)
			}
			if _, ok := names[name]; ok {
				return fmt.Errorf("domino %d: signal %q is duplicated", d.ID, name)
			}
			names[name] = struct{}{}
			if s.DefaultStatus != "" && !s.DefaultStatus.Valid() {
				return fmt.Errorf("domino %d: signal %q has invalid default status %q", d.ID, name, s.DefaultStatus)
			}
		}
	}
	return nil
}

// InitialStatus returns the configured default, green when unset.
func (s Signal) InitialStatus() Status {
	if s.DefaultStatus.Valid() {
		return s.DefaultStatus
	}
	return StatusGreen
}
