package matching

import (
	"encoding/json"
	"fmt"

	"erpverify/internal/domain"
)

type fieldRequest struct {
	FieldName string `json:"field_name"`
	Label     string `json:"label"`
	Kind      Kind   `json:"kind"`
}

type extractionPrompt struct {
	RequestContext  map[string]string `json:"requestContext"`
	FieldsToExtract []fieldRequest    `json:"fieldsToExtract"`
	OutputSchema    map[string]any    `json:"outputSchema"`
	Instructions    []string          `json:"instructions"`
}

// BuildPrompt asks the model to read the target fields off the document
// images. ERP values are not included so the model reports what it sees.
func BuildPrompt(jobNo string, dt domain.DocumentType, targets []Target, fallback []FieldSpec) string {
	fields := make([]fieldRequest, 0, len(targets))
	for _, t := range targets {
		fields = append(fields, fieldRequest{FieldName: t.Path, Label: t.Spec.Label, Kind: t.Spec.Kind})
	}
	if len(fields) == 0 {
		for _, s := range fallback {
			fields = append(fields, fieldRequest{FieldName: s.Name, Label: s.Label, Kind: s.Kind})
		}
	}

	p := extractionPrompt{
		RequestContext: map[string]string{
			"jobId":        jobNo,
			"documentType": string(dt),
			"documentName": fmt.Sprintf("%s (visual data provided)", dt.Label()),
		},
		FieldsToExtract: fields,
		OutputSchema: map[string]any{
			"fields": []map[string]string{{
				"field_name":      "string, exactly as listed in fieldsToExtract",
				"extracted_value": "string as printed on the document, or null when not present",
				"confidence":      "float (0.0-1.0) for the accuracy of the extracted value",
			}},
		},
		Instructions: []string{
			fmt.Sprintf("Analyze the provided document images which represent a %s.", dt.Label()),
			"For every entry in 'fieldsToExtract' find the corresponding value on the document.",
			"Line item fields are named 'lines.N.Field' where N is the zero-based line position on the document.",
			"Copy values as printed. Do not convert currencies, reformat dates or guess missing values.",
			"Use null for extracted_value when the field does not appear on the document.",
			"Respond with a single JSON object following 'outputSchema' and nothing else.",
		},
	}
	b, _ := json.MarshalIndent(p, "", "  ")
	return string(b)
}
