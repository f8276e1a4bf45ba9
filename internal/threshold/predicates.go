package threshold

// Predicate is a named custom test. Missing params make it false.
type Predicate func(r Reading, params map[string]float64) bool

type Registry map[string]Predicate

const (
	PredBetween             = "between"
	PredOutside             = "outside"
	PredConsecutiveDeclines = "consecutive_declines"
	PredConsecutiveRises    = "consecutive_rises"
	PredAbsGTE              = "abs_gte"
)

func DefaultRegistry() Registry {
	return Registry{
		PredBetween: func(r Reading, p map[string]float64) bool {
			lo, hi, ok := bounds(p)
			return ok && r.Value >= lo && r.Value <= hi
		},
		PredOutside: func(r Reading, p map[string]float64) bool {
			lo, hi, ok := bounds(p)
			return ok && (r.Value < lo || r.Value > hi)
		},
		PredConsecutiveDeclines: func(r Reading, p map[string]float64) bool {
			return streak(r.Recent, int(p["n"]), func(prev, cur float64) bool { return cur < prev })
		},
		PredConsecutiveRises: func(r Reading, p map[string]float64) bool {
			return streak(r.Recent, int(p["n"]), func(prev, cur float64) bool { return cur > prev })
		},
		PredAbsGTE: func(r Reading, p map[string]float64) bool {
			v, ok := p["value"]
			if !ok {
				return false
			}
			x := r.Value
			if x < 0 {
				x = -x
			}
			return x >= v
		},
	}
}

func bounds(p map[string]float64) (float64, float64, bool) {
	lo, ok1 := p["min"]
	hi, ok2 := p["max"]
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

// streak reports whether the last n steps of values all satisfy step.
func streak(values []float64, n int, step func(prev, cur float64) bool) bool {
	if n <= 0 || len(values) < n+1 {
		return false
	}
	tail := values[len(values)-n-1:]
	for i := 1; i < len(tail); i++ {
		if !step(tail[i-1], tail[i]) {
			return false
		}
	}
	return true
}
