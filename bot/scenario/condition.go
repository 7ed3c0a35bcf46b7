package scenario

import (
	"fmt"
	"strconv"
)

// Evaluate resolves a condition against collected data and returns the
// chosen step. The second return reports whether the condition was
// actually evaluable: a missing variable or unknown operator yields the
// if_false branch with evaluated=false so callers can log a warning.
// Resolution is total: it always yields a step, never an error.
func (c *Condition) Evaluate(data map[string]any) (next StepID, evaluated bool) {
	raw, ok := data[c.Var]
	if !ok {
		return c.IfFalse, false
	}

	value := stringify(raw)

	switch c.Op {
	case OpEq:
		if value == c.Value {
			return c.IfTrue, true
		}
		return c.IfFalse, true
	case OpIn:
		for _, v := range c.Values {
			if value == v {
				return c.IfTrue, true
			}
		}
		return c.IfFalse, true
	default:
		return c.IfFalse, false
	}
}

// Resolve picks the next step for a transition: literal ids short-cut,
// conditions are evaluated over collected data.
func (t *Transition) Resolve(data map[string]any) (next StepID, evaluated bool) {
	if t.Condition == nil {
		return t.Step, true
	}
	return t.Condition.Evaluate(data)
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		// Collected counters unmarshal as float64; render whole numbers
		// without a fraction so conditions compare against "3", not "3.0".
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
