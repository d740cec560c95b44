package matching

import (
	"sort"
	"strconv"
	"strings"

	"erpverify/internal/domain"
)

// Target is one ERP field the document is checked against.
type Target struct {
	Path     string
	ErpValue string
	Spec     FieldSpec

	rank int
}

// erpSlice picks the part of the ERP payload belonging to the document type
// when the payload is keyed the way the ERP connector delivers it.
func erpSlice(dt domain.DocumentType, erp map[string]any) (domain.ErpRecord, bool) {
	var headerKey, linesKey string
	switch dt {
	case domain.DocumentTypeSalesQuote:
		headerKey, linesKey = "salesQuoteHeader", "salesQuoteLines"
	case domain.DocumentTypeProformaInvoice:
		headerKey, linesKey = "salesInvoiceHeader", "salesInvoiceLines"
	case domain.DocumentTypeJobConsumption:
		linesKey = "jobLedgerEntries"
	case domain.DocumentTypeUnknown:
		return nil, false
	}

	header, hasHeader := erp[headerKey]
	lines, hasLines := erp[linesKey]
	if !hasHeader && !hasLines {
		return nil, false
	}

	rec := domain.ErpRecord{}
	switch h := header.(type) {
	case map[string]any:
		for k, v := range h {
			rec[k] = v
		}
	case domain.ErpRecord:
		for k, v := range h {
			rec[k] = v
		}
	}
	if hasLines && lines != nil {
		rec["lines"] = lines
	}
	return rec, true
}

// Targets flattens the ERP slice for the document type into the ordered list
// of non-empty fields to verify: header fields first, then each line, and
// catalog order within a group.
func Targets(catalog *Catalog, dt domain.DocumentType, erp map[string]any) []Target {
	rec, ok := erpSlice(dt, erp)
	if !ok {
		rec = domain.ErpRecord(erp)
	}

	flat := rec.Flatten()
	out := make([]Target, 0, len(flat))
	for path, value := range flat {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		spec, rank := catalog.Spec(dt, path, value)
		out = append(out, Target{Path: path, ErpValue: value, Spec: spec, rank: rank})
	}

	sort.Slice(out, func(i, j int) bool {
		pi, pj := groupOf(out[i].Path), groupOf(out[j].Path)
		if pi != pj {
			return lessPath(pi, pj)
		}
		if out[i].rank != out[j].rank {
			return out[i].rank < out[j].rank
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func groupOf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return ""
}

// lessPath orders dotted paths segment by segment, numerically where both
// segments are indexes.
func lessPath(a, b string) bool {
	if a == "" || b == "" {
		return a == ""
	}
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		ai, errA := strconv.Atoi(as[i])
		bi, errB := strconv.Atoi(bs[i])
		if errA == nil && errB == nil {
			return ai < bi
		}
		return as[i] < bs[i]
	}
	return len(as) < len(bs)
}

// fieldKey is the lookup key shared by ERP paths and extracted field names.
// It tolerates the prefixes and bracket indexes models like to echo back.
func fieldKey(name string) string {
	k := strings.ToLower(strings.TrimSpace(name))
	k = strings.NewReplacer("[", ".", "]", "").Replace(k)
	for _, prefix := range []string{
		"header.", "salesquoteheader.", "salesinvoiceheader.",
	} {
		k = strings.TrimPrefix(k, prefix)
	}
	for _, prefix := range []string{"salesquotelines.", "salesinvoicelines.", "jobledgerentries."} {
		if strings.HasPrefix(k, prefix) {
			k = "lines." + strings.TrimPrefix(k, prefix)
		}
	}
	return k
}
