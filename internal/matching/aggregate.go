package matching

import (
	"erpverify/internal/config"
	"erpverify/internal/domain"
	"erpverify/internal/llm"
)

// Weights control how discrepancies depress the overall confidence. A field
// with a discrepancy of severity s counts 1+weight(s) times, with its
// confidence scaled by 1-penalty(s).
type Weights struct {
	High, Medium, Low                      float64
	HighPenalty, MediumPenalty, LowPenalty float64
}

// WeightsFromConfig copies the aggregation constants from config.
func WeightsFromConfig(cfg *config.MatchingConfig) Weights {
	return Weights{
		High:          cfg.HighWeight,
		Medium:        cfg.MediumWeight,
		Low:           cfg.LowWeight,
		HighPenalty:   cfg.HighPenalty,
		MediumPenalty: cfg.MediumPenalty,
		LowPenalty:    cfg.LowPenalty,
	}
}

// DefaultWeights are the built-in aggregation constants.
func DefaultWeights() Weights {
	return Weights{High: 3, Medium: 2, Low: 1, HighPenalty: 1, MediumPenalty: 0.5, LowPenalty: 0.1}
}

func (w Weights) weight(s domain.Severity) float64 {
	switch s {
	case domain.SeverityHigh:
		return w.High
	case domain.SeverityMedium:
		return w.Medium
	case domain.SeverityLow:
		return w.Low
	}
	return 0
}

func (w Weights) penalty(s domain.Severity) float64 {
	switch s {
	case domain.SeverityHigh:
		return w.HighPenalty
	case domain.SeverityMedium:
		return w.MediumPenalty
	case domain.SeverityLow:
		return w.LowPenalty
	}
	return 0
}

// FieldScore is the aggregation input for one target field. Severity is
// empty for verified fields.
type FieldScore struct {
	Confidence float64
	Severity   domain.Severity
	Missing    bool
}

// Aggregate computes the overall verification confidence of the target
// fields. Without targets it falls back to the mean of the extracted
// confidences.
func Aggregate(scores []FieldScore, extracted []float64, w Weights) float64 {
	if len(scores) == 0 {
		if len(extracted) == 0 {
			return 0
		}
		var sum float64
		for _, c := range extracted {
			sum += llm.Clamp(c)
		}
		return llm.Clamp(sum / float64(len(extracted)))
	}

	var num, den float64
	for _, s := range scores {
		var weight, conf float64
		switch {
		case s.Missing:
			weight, conf = 1+w.weight(domain.SeverityMedium), 0
		case s.Severity == "":
			weight, conf = 1, llm.Clamp(s.Confidence)
		default:
			weight = 1 + w.weight(s.Severity)
			conf = llm.Clamp(s.Confidence) * (1 - llm.Clamp(w.penalty(s.Severity)))
		}
		num += weight * conf
		den += weight
	}
	if den <= 0 {
		return 0
	}
	return llm.Clamp(num / den)
}
