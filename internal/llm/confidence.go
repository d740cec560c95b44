package llm

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseConfidence reads a model-reported confidence given as a number, a
// numeric string or a percentage and clamps it to [0,1]. Anything
// unreadable is 0.
func ParseConfidence(v any) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(val)
		percent := strings.HasSuffix(s, "%")
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
		if percent {
			f /= 100
		}
	default:
		return 0
	}
	return Clamp(f)
}

// Clamp limits v to [0,1]; NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
