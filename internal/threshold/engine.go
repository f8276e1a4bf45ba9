package threshold

import (
	"fmt"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/feed"
)

// Engine evaluates rules against feed snapshots. It holds no mutable state
// and never touches storage, so instances may run concurrently.
type Engine struct {
	Rules      []Rule
	Predicates Registry
}

func NewEngine(rules []Rule) *Engine {
	return &Engine{Rules: rules, Predicates: DefaultRegistry()}
}

// Evaluate returns one result per rule, in rule order.
func (e *Engine) Evaluate(snaps map[string]feed.Snapshot) []Result {
	if e == nil {
		return nil
	}
	out := make([]Result, 0, len(e.Rules))
	for _, rule := range e.Rules {
		out = append(out, e.EvaluateRule(rule, snaps))
	}
	return out
}

func (e *Engine) EvaluateRule(rule Rule, snaps map[string]feed.Snapshot) Result {
	res := Result{Key: rule.Key, Source: rule.Source}
	if rule.ManualOnly {
		res.ManualOnly = true
		return res
	}
	snap, ok := snaps[rule.Source]
	if !ok {
		res.Reason = ReasonNoData
		return res
	}
	if rule.Extract == nil {
		res.Reason = ReasonExtraction
		return res
	}
	reading, ok := rule.Extract(snap)
	if !ok {
		res.Reason = ReasonExtraction
		return res
	}
	return e.Classify(rule, reading)
}

// Classify runs the ordered thresholds against an already extracted reading.
// Batch replays use it with stored data points.
func (e *Engine) Classify(rule Rule, reading Reading) Result {
	res := Result{Key: rule.Key, Source: rule.Source}
	if rule.ManualOnly {
		res.ManualOnly = true
		return res
	}
	if len(rule.Thresholds) == 0 {
		res.Reason = ReasonNoThresholds
		return res
	}
	r := reading
	res.Evaluated = true
	res.Reading = &r
	for _, th := range rule.Thresholds {
		if e.matches(th, reading) {
			res.NewStatus = th.Status
			res.Reason = th.Reason
			return res
		}
	}
	res.NewStatus = domino.StatusGreen
	res.Reason = ReasonBaseline
	return res
}

func (e *Engine) matches(th Threshold, r Reading) bool {
	if th.Op != OpCustom {
		return compare(th.Op, r.Value, th.Value)
	}
	pred, ok := e.Predicates[th.Predicate]
	if !ok {
		return false
	}
	return pred(r, th.Params)
}

func (e *Engine) Rule(key domino.Key) (Rule, bool) {
	if e == nil {
		return Rule{}, false
	}
	for _, r := range e.Rules {
		if r.Key == key {
			return r, true
		}
	}
	return Rule{}, false
}

// Validate checks rules against the catalog and the predicate registry.
func (e *Engine) Validate(cat domino.Catalog) error {
	seen := map[domino.Key]struct{}{}
	for _, r := range e.Rules {
		if _, _, ok := cat.Lookup(r.Key); !ok {
			return fmt.Errorf("rule %s: signal not in catalog", r.Key)
		}
		if _, ok := seen[r.Key]; ok {
			return fmt.Errorf("rule %s: duplicated", r.Key)
		}
		seen[r.Key] = struct{}{}
		if r.ManualOnly {
			continue
		}
		if r.Source == "" {
			return fmt.Errorf("rule %s: source is empty", r.Key)
		}
		for i, th := range r.Thresholds {
			if !th.Status.Valid() {
				return fmt.Errorf("rule %s threshold %d: invalid status %q", r.Key, i, th.Status)
			}
			switch th.Op {
			case OpLT, OpLTE, OpGT, OpGTE, OpEQ:
			case OpCustom:
				if _, ok := e.Predicates[th.Predicate]; !ok {
					return fmt.Errorf("rule %s threshold %d: unknown predicate %q", r.Key, i, th.Predicate)
				}
			default:
				return fmt.Errorf("rule %s threshold %d: unknown operator %q", r.Key, i, th.Op)
			}
		}
	}
	return nil
}
