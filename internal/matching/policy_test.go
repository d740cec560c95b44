package matching_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"erpverify/internal/domain"
	"erpverify/internal/matching"
)

func TestPolicy_Compare(t *testing.T) {
	p := matching.Policy{MonetaryThreshold: 0.01}

	tests := []struct {
		name    string
		kind    matching.Kind
		doc     string
		erp     string
		match   bool
		sev     domain.Severity
		discTyp domain.DiscrepancyType
	}{
		{"identical", matching.KindMonetary, "1000.00", "1000.00", true, "", ""},
		{"formatted money", matching.KindMonetary, "KES 1,000.00", "1000", true, "", ""},
		{"integer vs decimal quantity", matching.KindQuantity, "2", "2.00", true, "", ""},
		{"over threshold", matching.KindMonetary, "1200.00", "1000.00", false, domain.SeverityHigh, domain.DiscrepancyValueMismatch},
		{"exactly one percent", matching.KindMonetary, "1010.00", "1000.00", false, domain.SeverityLow, domain.DiscrepancyValueMismatch},
		{"just over one percent", matching.KindMonetary, "1010.01", "1000.00", false, domain.SeverityHigh, domain.DiscrepancyValueMismatch},
		{"within tolerance", matching.KindMonetary, "1005.00", "1000.00", false, domain.SeverityLow, domain.DiscrepancyValueMismatch},
		{"quantity off", matching.KindQuantity, "3", "2", false, domain.SeverityHigh, domain.DiscrepancyValueMismatch},
		{"erp zero", matching.KindMonetary, "5", "0", false, domain.SeverityHigh, domain.DiscrepancyValueMismatch},
		{"unreadable number", matching.KindMonetary, "see attached", "1000.00", false, domain.SeverityMedium, domain.DiscrepancyFormatError},
		{"text case and spaces", matching.KindText, " acme  LTD", "ACME Ltd", true, "", ""},
		{"text punctuation only", matching.KindText, "Acme, Ltd.", "Acme Ltd", false, domain.SeverityLow, domain.DiscrepancyFormatError},
		{"text different", matching.KindText, "Globex", "Acme Ltd", false, domain.SeverityMedium, domain.DiscrepancyValueMismatch},
		{"identifier alnum", matching.KindIdentifier, "SQ-00123", "sq00123", true, "", ""},
		{"identifier different", matching.KindIdentifier, "SQ-00124", "SQ-00123", false, domain.SeverityMedium, domain.DiscrepancyValueMismatch},
		{"date formats", matching.KindDate, "15/01/2024", "2024-01-15", true, "", ""},
		{"date different", matching.KindDate, "16/01/2024", "2024-01-15", false, domain.SeverityMedium, domain.DiscrepancyValueMismatch},
		{"date unreadable", matching.KindDate, "mid January", "2024-01-15", false, domain.SeverityMedium, domain.DiscrepancyFormatError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Compare(tt.kind, tt.doc, tt.erp)
			assert.Equal(t, tt.match, got.Match)
			assert.Equal(t, tt.sev, got.Severity)
			assert.Equal(t, tt.discTyp, got.Type)
		})
	}
}

func TestPolicy_SmallNumericDifferenceNeverHigh(t *testing.T) {
	p := matching.Policy{MonetaryThreshold: 0.01}
	for _, doc := range []string{"990.00", "999.99", "1000.50", "1009.99", "1010.00"} {
		got := p.Compare(matching.KindMonetary, doc, "1000.00")
		assert.NotEqual(t, domain.SeverityHigh, got.Severity, doc)
	}
}
