package automation

import (
	"fmt"
	"strconv"
	"strings"
)

// Document is a flattened view of a target entity for rule evaluation.
// Services build it from the aggregate's exported fields.
type Document map[string]any

// MatchAllConditions returns true if ALL conditions match the document
// (AND logic). An empty condition list matches everything.
func MatchAllConditions(conditions []Condition, doc Document) bool {
	if doc == nil {
		return false
	}
	for _, condition := range conditions {
		if !MatchCondition(condition, doc) {
			return false
		}
	}
	return true
}

// MatchCondition evaluates a single condition against the document.
// Missing fields never match.
func MatchCondition(condition Condition, doc Document) bool {
	if doc == nil {
		return false
	}
	value, ok := doc[condition.Field]
	if !ok || value == nil {
		return false
	}

	switch condition.Operator {
	case OpEquals:
		return compareEqual(value, condition.Value)
	case OpNotEquals:
		return !compareEqual(value, condition.Value)
	case OpGreaterThan:
		return compareOrdered(value, condition.Value, func(c int) bool { return c > 0 })
	case OpGreaterOrEq:
		return compareOrdered(value, condition.Value, func(c int) bool { return c >= 0 })
	case OpLessThan:
		return compareOrdered(value, condition.Value, func(c int) bool { return c < 0 })
	case OpLessOrEq:
		return compareOrdered(value, condition.Value, func(c int) bool { return c <= 0 })
	case OpContains:
		return strings.Contains(strings.ToLower(toString(value)), strings.ToLower(condition.Value))
	case OpIn:
		return matchIn(value, condition.Values)
	default:
		return false
	}
}

func compareEqual(value any, condValue string) bool {
	if a, aok := toFloat64(value); aok {
		if b, err := strconv.ParseFloat(condValue, 64); err == nil {
			return a == b
		}
	}
	return strings.EqualFold(toString(value), condValue)
}

// compareOrdered compares numerically when both sides parse as numbers,
// otherwise lexicographically
func compareOrdered(value any, condValue string, pred func(int) bool) bool {
	if a, aok := toFloat64(value); aok {
		if b, err := strconv.ParseFloat(condValue, 64); err == nil {
			switch {
			case a < b:
				return pred(-1)
			case a > b:
				return pred(1)
			default:
				return pred(0)
			}
		}
	}
	return pred(strings.Compare(toString(value), condValue))
}

func matchIn(value any, condValues []string) bool {
	if len(condValues) == 0 {
		return false
	}
	valueStr := strings.ToLower(toString(value))
	for _, cv := range condValues {
		if strings.ToLower(cv) == valueStr {
			return true
		}
	}
	return false
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
