package classify

import (
	"regexp"
	"strings"

	"erpverify/internal/domain"
	"erpverify/internal/llm"
)

// UnparseableMessage is the error message of a classification the model
// answered with something that names none of the document types.
const UnparseableMessage = "unparseable classification response"

// keywordConfidence is assigned when the type is only found in free text.
const keywordConfidence = 0.5

var (
	typeRe       = regexp.MustCompile(`(?i)["']?document_?type["']?\s*[:=]\s*["']?([A-Za-z][A-Za-z _-]*?)["']?\s*(?:[,}\n]|$)`)
	confidenceRe = regexp.MustCompile(`(?i)["']?confidence["']?\s*[:=]\s*["']?([0-9]*\.?[0-9]+\s*%?)`)
	reasoningRe  = regexp.MustCompile(`(?i)["']?reasoning["']?\s*[:=]\s*["']([^"']*)["']`)
)

var keywords = map[domain.DocumentType][]string{
	domain.DocumentTypeSalesQuote:      {"salesquote", "sales quote"},
	domain.DocumentTypeProformaInvoice: {"proformainvoice", "proforma invoice", "pro forma invoice", "pro-forma invoice"},
	domain.DocumentTypeJobConsumption:  {"jobconsumption", "job consumption", "job shipment"},
}

// Parse turns untrusted model text into a ClassificationResult. It never
// fails: text that names no document type yields the unparseable form.
// Once a structured answer is found its label decides; free text is only
// scanned for keywords when the model gave no structured answer at all.
func Parse(raw string) domain.ClassificationResult {
	if obj, ok := llm.ExtractJSONObject(raw); ok {
		if res, ok := fromObject(obj, raw); ok {
			return res
		}
		return domain.FailedClassification(UnparseableMessage, raw)
	}
	if m := typeRe.FindStringSubmatch(raw); m != nil {
		if res, ok := salvage(raw, m[1]); ok {
			return res
		}
		return domain.FailedClassification(UnparseableMessage, raw)
	}
	if res, ok := keywordScan(raw); ok {
		return res
	}
	return domain.FailedClassification(UnparseableMessage, raw)
}

func fromObject(obj map[string]any, raw string) (domain.ClassificationResult, bool) {
	label, ok := lookup(obj, "documentType", "document_type", "type")
	if !ok {
		return domain.ClassificationResult{}, false
	}
	s, isString := label.(string)
	if !isString {
		return domain.ClassificationResult{}, false
	}
	dt, recognized := domain.ParseDocumentType(s)
	if !recognized {
		return domain.ClassificationResult{}, false
	}
	res := domain.ClassificationResult{DocumentType: dt, RawResponse: raw}
	if c, ok := lookup(obj, "confidence", "score"); ok {
		res.Confidence = llm.ParseConfidence(c)
	}
	if r, ok := lookup(obj, "reasoning", "rationale", "explanation"); ok {
		if rs, ok := r.(string); ok {
			res.Reasoning = strings.TrimSpace(rs)
		}
	}
	return res, true
}

func salvage(raw, label string) (domain.ClassificationResult, bool) {
	dt, recognized := domain.ParseDocumentType(label)
	if !recognized {
		return domain.ClassificationResult{}, false
	}
	res := domain.ClassificationResult{DocumentType: dt, RawResponse: raw}
	if c := confidenceRe.FindStringSubmatch(raw); c != nil {
		res.Confidence = llm.ParseConfidence(c[1])
	}
	if r := reasoningRe.FindStringSubmatch(raw); r != nil {
		res.Reasoning = strings.TrimSpace(r[1])
	}
	return res, true
}

// keywordScan accepts free text only when exactly one document type is named.
func keywordScan(raw string) (domain.ClassificationResult, bool) {
	lower := strings.ToLower(raw)
	var found []domain.DocumentType
	for _, dt := range domain.KnownDocumentTypes {
		for _, kw := range keywords[dt] {
			if strings.Contains(lower, kw) {
				found = append(found, dt)
				break
			}
		}
	}
	if len(found) != 1 {
		return domain.ClassificationResult{}, false
	}
	return domain.ClassificationResult{
		DocumentType: found[0],
		Confidence:   keywordConfidence,
		Reasoning:    "inferred from free-text response",
		RawResponse:  raw,
	}, true
}

func lookup(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	for k, v := range obj {
		for _, want := range keys {
			if strings.EqualFold(k, want) && v != nil {
				return v, true
			}
		}
	}
	return nil, false
}
