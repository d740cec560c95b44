package matching

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	commaThousandsRe = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	dotThousandsRe   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d+)?$`)
)

// CanonicalText trims, collapses inner whitespace and case-folds.
func CanonicalText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// CanonicalAlnum keeps only letters and digits, case-folded.
func CanonicalAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// ParseNumber reads a numeric value as it appears on documents and in ERP
// exports: currency codes or symbols around the digits, thousands
// separators, a decimal comma, a leading sign or accounting parentheses.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '-' && r != '+' && r != '.' && r != ','
	})
	switch {
	case strings.HasPrefix(s, "-"):
		neg = !neg
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\'' {
			return -1
		}
		return r
	}, s)
	if s == "" || strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.' && r != ','
	}) >= 0 {
		return 0, false
	}

	s, ok := normalizeSeparators(s)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

func normalizeSeparators(s string) (string, bool) {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots == 0 && commas == 0:
		return s, true
	case commaThousandsRe.MatchString(s):
		return strings.ReplaceAll(s, ",", ""), true
	case dotThousandsRe.MatchString(s) && (commas > 0 || dots > 1):
		return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1), true
	case commas == 0 && dots == 1:
		return s, true
	case dots == 0 && commas == 1:
		return strings.Replace(s, ",", ".", 1), true
	default:
		return "", false
	}
}

// NumbersEqual compares monetary values at two decimals and quantities exactly.
func NumbersEqual(kind Kind, a, b float64) bool {
	if kind == KindMonetary {
		return math.Round(a*100) == math.Round(b*100)
	}
	return a == b
}

// RelativeDifference is |doc-erp| relative to the ERP value.
func RelativeDifference(doc, erp float64) float64 {
	const eps = 1e-9
	return math.Abs(doc-erp) / math.Max(math.Abs(erp), eps)
}

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"01-02-2006",
	"01/02/2006",
	"2006/01/02",
	"02.01.2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 02, 2006",
	"Jan 2, 2006",
	"January 02, 2006",
	"January 2, 2006",
	"02-01-2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseDate tries the common document and ERP date layouts. Day-first
// layouts win over month-first ones when both would parse.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SameDay compares calendar dates, ignoring time of day and zone.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
