package matching_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"erpverify/internal/domain"
	"erpverify/internal/matching"
)

func TestAggregate(t *testing.T) {
	w := matching.DefaultWeights()

	t.Run("all verified is the mean", func(t *testing.T) {
		got := matching.Aggregate([]matching.FieldScore{{Confidence: 0.8}, {Confidence: 1.0}}, nil, w)
		assert.InDelta(t, 0.9, got, 1e-9)
	})

	t.Run("discrepancies depress below the naive mean", func(t *testing.T) {
		scores := []matching.FieldScore{
			{Confidence: 0.9},
			{Confidence: 0.9, Severity: domain.SeverityHigh},
			{Confidence: 0.9, Severity: domain.SeverityHigh},
		}
		got := matching.Aggregate(scores, nil, w)
		assert.Less(t, got, 0.9)
		// 0.9 / (1 + 4 + 4)
		assert.InDelta(t, 0.1, got, 1e-9)
	})

	t.Run("severity ordering", func(t *testing.T) {
		base := matching.FieldScore{Confidence: 0.9}
		low := matching.Aggregate([]matching.FieldScore{base, {Confidence: 0.9, Severity: domain.SeverityLow}}, nil, w)
		med := matching.Aggregate([]matching.FieldScore{base, {Confidence: 0.9, Severity: domain.SeverityMedium}}, nil, w)
		high := matching.Aggregate([]matching.FieldScore{base, {Confidence: 0.9, Severity: domain.SeverityHigh}}, nil, w)
		assert.Greater(t, low, med)
		assert.Greater(t, med, high)
	})

	t.Run("missing field counts as zero", func(t *testing.T) {
		got := matching.Aggregate([]matching.FieldScore{{Confidence: 1}, {Missing: true}}, nil, w)
		assert.InDelta(t, 0.25, got, 1e-9)
	})

	t.Run("no targets falls back to extracted mean", func(t *testing.T) {
		assert.InDelta(t, 0.6, matching.Aggregate(nil, []float64{0.4, 0.8}, w), 1e-9)
		assert.Zero(t, matching.Aggregate(nil, nil, w))
	})

	t.Run("out of range inputs stay in range", func(t *testing.T) {
		got := matching.Aggregate([]matching.FieldScore{{Confidence: 7}, {Confidence: -3, Severity: domain.SeverityLow}}, nil, w)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	})
}
