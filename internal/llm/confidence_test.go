package llm_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"erpverify/internal/llm"
)

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float", 0.5, 0.5},
		{"json number", json.Number("0.25"), 0.25},
		{"numeric string", "0.7", 0.7},
		{"percent with spaces", " 42 %", 0.42},
		{"int above range", 3, 1},
		{"negative", -0.2, 0},
		{"bool", true, 0},
		{"nil", nil, 0},
		{"garbage string", "high", 0},
		{"nan", math.NaN(), 0},
		{"infinity", math.Inf(1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := llm.ParseConfidence(tt.in)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, llm.Clamp(math.NaN()))
	assert.Equal(t, 0.0, llm.Clamp(-1))
	assert.Equal(t, 1.0, llm.Clamp(1.0001))
	assert.Equal(t, 0.3, llm.Clamp(0.3))
}
