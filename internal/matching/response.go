package matching

import (
	"sort"
	"strings"

	"erpverify/internal/domain"
	"erpverify/internal/llm"
)

// ExtractedField is one value the model read off the document. Value is nil
// when the model reported the field as absent.
type ExtractedField struct {
	Name       string
	Value      *string
	Confidence float64
}

// ParseExtraction reads the model's extraction answer. Three shapes are
// accepted:
//
//	{"fields": [{"field_name": ..., "extracted_value": ..., "confidence": ...}]}
//	{"field_confidences": [{"field_name": ..., "extracted_value": ..., "extraction_confidence": ...}]}
//	{"fields": {"Name": {"value": ..., "confidence": ...}}}
func ParseExtraction(raw string) ([]ExtractedField, error) {
	obj, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return nil, &domain.UnparseableResponseError{Reason: "no JSON object in extraction response", RawResponse: raw}
	}

	list, found := lookupKey(obj, "fields", "field_confidences", "fieldConfidences", "extracted_fields")
	if !found {
		return nil, &domain.UnparseableResponseError{Reason: "extraction response has no fields", RawResponse: raw}
	}

	switch v := list.(type) {
	case []any:
		return fromList(v, raw)
	case map[string]any:
		return fromMap(v), nil
	default:
		return nil, &domain.UnparseableResponseError{Reason: "extraction fields are neither a list nor an object", RawResponse: raw}
	}
}

func fromList(items []any, raw string) ([]ExtractedField, error) {
	out := make([]ExtractedField, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &domain.UnparseableResponseError{Reason: "extraction field entry is not an object", RawResponse: raw}
		}
		name, _ := lookupKey(m, "field_name", "fieldName", "name", "field")
		nameStr, ok := name.(string)
		if !ok || strings.TrimSpace(nameStr) == "" {
			continue
		}
		f := ExtractedField{Name: strings.TrimSpace(nameStr)}
		if v, ok := lookupKey(m, "extracted_value", "extractedValue", "value", "actual_value"); ok {
			f.Value = valuePtr(v)
		}
		if c, ok := lookupKey(m, "confidence", "extraction_confidence", "extractionConfidence"); ok {
			f.Confidence = llm.ParseConfidence(c)
		}
		out = append(out, f)
	}
	return out, nil
}

func fromMap(fields map[string]any) []ExtractedField {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ExtractedField, 0, len(fields))
	for _, name := range names {
		f := ExtractedField{Name: name}
		switch v := fields[name].(type) {
		case map[string]any:
			if val, ok := lookupKey(v, "value", "extracted_value"); ok {
				f.Value = valuePtr(val)
			}
			if c, ok := lookupKey(v, "confidence", "extraction_confidence"); ok {
				f.Confidence = llm.ParseConfidence(c)
			}
		default:
			f.Value = valuePtr(v)
		}
		out = append(out, f)
	}
	return out
}

func valuePtr(v any) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(domain.Stringify(v))
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
		return nil
	}
	return &s
}

func lookupKey(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v, true
		}
	}
	for k, v := range obj {
		for _, want := range keys {
			if strings.EqualFold(k, want) {
				return v, true
			}
		}
	}
	return nil, false
}
