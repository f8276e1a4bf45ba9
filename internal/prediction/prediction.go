package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"asymmetricbridge/internal/models"
)

const (
	TypeThreshold = "threshold"
	TypeDirection = "direction"
	TypeRange     = "range"

	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomePartial = "partial"

	DirectionUp   = "up"
	DirectionDown = "down"
)

// ValidationError names the request field that failed.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Condition is the type-specific part of a prediction, stored as JSON.
type Condition struct {
	Operator  string   `json:"operator,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Baseline  *float64 `json:"baseline,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

type CreateParams struct {
	UserID     string `json:"-" validate:"required"`
	DominoID   int    `json:"domino_id" validate:"gte=1"`
	SignalName string `json:"signal_name" validate:"required"`
	Type       string `json:"type" validate:"required"`

	Operator  string   `json:"operator,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Baseline  *float64 `json:"baseline,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`

	TargetDate string `json:"target_date" validate:"required"`
	Notes      string `json:"notes,omitempty"`
}

var validate = validator.New()

var fieldNames = map[string]string{
	"UserID":     "user_id",
	"DominoID":   "domino_id",
	"SignalName": "signal_name",
	"Type":       "type",
	"TargetDate": "target_date",
}

// Create validates params and builds a pending prediction.
func Create(p CreateParams, now time.Time) (*models.Prediction, error) {
	p.UserID = strings.TrimSpace(p.UserID)
	p.SignalName = strings.TrimSpace(p.SignalName)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.TargetDate = strings.TrimSpace(p.TargetDate)
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			name := fieldNames[f.StructField()]
			if name == "" {
				name = f.Field()
			}
			return nil, invalid(name, "failed %s check", f.Tag())
		}
		return nil, err
	}

	cond, err := buildCondition(p)
	if err != nil {
		return nil, err
	}
	target, err := ParseTargetDate(p.TargetDate)
	if err != nil {
		return nil, invalid("target_date", "must be YYYY-MM-DD or RFC3339")
	}
	raw, err := json.Marshal(cond)
	if err != nil {
		return nil, err
	}
	return &models.Prediction{
		ID:         uuid.NewString(),
		UserID:     p.UserID,
		DominoID:   p.DominoID,
		SignalName: p.SignalName,
		Type:       p.Type,
		Condition:  datatypes.JSON(raw),
		TargetDate: target,
		CreatedAt:  now.UTC(),
		Notes:      strings.TrimSpace(p.Notes),
	}, nil
}

func buildCondition(p CreateParams) (Condition, error) {
	switch p.Type {
	case TypeThreshold:
		op := strings.ToLower(strings.TrimSpace(p.Operator))
		switch op {
		case "gt", "gte", "lt", "lte":
		case "":
			return Condition{}, invalid("operator", "is required")
		default:
			return Condition{}, invalid("operator", "must be one of gt, gte, lt, lte")
		}
		if p.Threshold == nil {
			return Condition{}, invalid("threshold", "is required")
		}
		return Condition{Operator: op, Threshold: p.Threshold}, nil
	case TypeDirection:
		dir := strings.ToLower(strings.TrimSpace(p.Direction))
		if dir != DirectionUp && dir != DirectionDown {
			return Condition{}, invalid("direction", "must be up or down")
		}
		return Condition{Direction: dir, Baseline: p.Baseline}, nil
	case TypeRange:
		if p.Min == nil {
			return Condition{}, invalid("min", "is required")
		}
		if p.Max == nil {
			return Condition{}, invalid("max", "is required")
		}
		lo, hi := *p.Min, *p.Max
		if lo > hi {
			lo, hi = hi, lo
		}
		return Condition{Min: &lo, Max: &hi}, nil
	default:
		return Condition{}, invalid("type", "must be threshold, direction or range")
	}
}

// ParseTargetDate accepts a calendar date (UTC midnight) or an RFC3339 time.
func ParseTargetDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func DecodeCondition(p models.Prediction) (Condition, error) {
	var c Condition
	if len(p.Condition) == 0 {
		return c, errors.New("prediction has no condition")
	}
	err := json.Unmarshal(p.Condition, &c)
	return c, err
}

type Evaluation struct {
	ShouldScore bool   `json:"should_score"`
	Outcome     string `json:"outcome,omitempty"`
}

// Evaluate scores p against reading once its target date has passed.
// A nil reading yields partial.
func Evaluate(p models.Prediction, reading *float64, now time.Time) Evaluation {
	if p.ScoredAt != nil || !now.After(p.TargetDate) {
		return Evaluation{}
	}
	cond, err := DecodeCondition(p)
	if err != nil || reading == nil {
		return Evaluation{ShouldScore: true, Outcome: OutcomePartial}
	}
	v := *reading
	out := OutcomeMiss
	switch p.Type {
	case TypeThreshold:
		if cond.Threshold == nil {
			return Evaluation{ShouldScore: true, Outcome: OutcomePartial}
		}
		if compare(cond.Operator, v, *cond.Threshold) {
			out = OutcomeHit
		}
	case TypeDirection:
		if cond.Baseline == nil || v == *cond.Baseline {
			return Evaluation{ShouldScore: true, Outcome: OutcomePartial}
		}
		up := v > *cond.Baseline
		if (up && cond.Direction == DirectionUp) || (!up && cond.Direction == DirectionDown) {
			out = OutcomeHit
		}
	case TypeRange:
		if cond.Min == nil || cond.Max == nil {
			return Evaluation{ShouldScore: true, Outcome: OutcomePartial}
		}
		if v >= *cond.Min && v <= *cond.Max {
			out = OutcomeHit
		}
	default:
		out = OutcomePartial
	}
	return Evaluation{ShouldScore: true, Outcome: out}
}

func compare(op string, v, target float64) bool {
	switch op {
	case "gt":
		return v > target
	case "gte":
		return v >= target
	case "lt":
		return v < target
	case "lte":
		return v <= target
	default:
		return false
	}
}

type Stats struct {
	Total          int             `json:"total"`
	Pending        int             `json:"pending"`
	Scored         int             `json:"scored"`
	Hits           int             `json:"hits"`
	Misses         int             `json:"misses"`
	Partials       int             `json:"partials"`
	BattingAverage decimal.Decimal `json:"batting_average"`
}

// BattingAverage is (hits + 0.5*partials) / scored, rounded to three places.
// Unscored predictions are ignored; no scored predictions gives 0.
func BattingAverage(items []models.Prediction) Stats {
	st := Stats{Total: len(items), BattingAverage: decimal.Zero}
	for _, p := range items {
		if p.ScoredAt == nil || p.Outcome == nil {
			st.Pending++
			continue
		}
		st.Scored++
		switch *p.Outcome {
		case OutcomeHit:
			st.Hits++
		case OutcomePartial:
			st.Partials++
		default:
			st.Misses++
		}
	}
	if st.Scored == 0 {
		return st
	}
	points := decimal.NewFromInt(int64(st.Hits)).Add(decimal.NewFromInt(int64(st.Partials)).Mul(decimal.NewFromFloat(0.5)))
	st.BattingAverage = points.Div(decimal.NewFromInt(int64(st.Scored))).Round(3)
	return st
}
