package matching

import (
	"erpverify/internal/domain"
)

// Outcome is the verdict of comparing one extracted value with its ERP value.
type Outcome struct {
	Match    bool
	Severity domain.Severity
	Type     domain.DiscrepancyType
}

var matched = Outcome{Match: true}

func mismatch(sev domain.Severity, typ domain.DiscrepancyType) Outcome {
	return Outcome{Severity: sev, Type: typ}
}

// Policy grades differences between document and ERP values.
type Policy struct {
	// MonetaryThreshold is the relative difference above which a numeric
	// mismatch is HIGH.
	MonetaryThreshold float64
}

// Compare applies the matching rules for the field kind. Both values are
// non-empty; absence is handled by the caller.
func (p Policy) Compare(kind Kind, doc, erp string) Outcome {
	if CanonicalText(doc) == CanonicalText(erp) {
		return matched
	}

	switch kind {
	case KindMonetary, KindQuantity:
		return p.compareNumbers(kind, doc, erp)
	case KindDate:
		d, okD := ParseDate(doc)
		e, okE := ParseDate(erp)
		if okD && okE {
			if SameDay(d, e) {
				return matched
			}
			return mismatch(domain.SeverityMedium, domain.DiscrepancyValueMismatch)
		}
		return compareText(doc, erp, domain.DiscrepancyFormatError)
	case KindIdentifier:
		if CanonicalAlnum(doc) == CanonicalAlnum(erp) {
			return matched
		}
		return mismatch(domain.SeverityMedium, domain.DiscrepancyValueMismatch)
	default:
		return compareText(doc, erp, domain.DiscrepancyValueMismatch)
	}
}

func (p Policy) compareNumbers(kind Kind, doc, erp string) Outcome {
	d, okD := ParseNumber(doc)
	e, okE := ParseNumber(erp)
	if !okD || !okE {
		return mismatch(domain.SeverityMedium, domain.DiscrepancyFormatError)
	}
	if NumbersEqual(kind, d, e) {
		return matched
	}
	if RelativeDifference(d, e) > p.MonetaryThreshold {
		return mismatch(domain.SeverityHigh, domain.DiscrepancyValueMismatch)
	}
	return mismatch(domain.SeverityLow, domain.DiscrepancyValueMismatch)
}

// compareText treats values that differ only in punctuation, spacing or case
// as a cosmetic LOW difference.
func compareText(doc, erp string, typ domain.DiscrepancyType) Outcome {
	if a := CanonicalAlnum(doc); a != "" && a == CanonicalAlnum(erp) {
		return mismatch(domain.SeverityLow, domain.DiscrepancyFormatError)
	}
	return mismatch(domain.SeverityMedium, typ)
}
