package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RawImage is an inbound document image before normalization. Either Data
// or ObjectKey is set; ObjectKey refers to an image staged in object storage.
type RawImage struct {
	Data      []byte `json:"-"`
	MimeType  string `json:"mime_type"`
	ObjectKey string `json:"object_key,omitempty"`
}

// DocumentImage is a normalized page ready for OCR and LLM calls.
type DocumentImage struct {
	Data     []byte
	MimeType MimeType
	Page     int
}

// Validate enforces the DocumentImage invariants.
func (d DocumentImage) Validate() error {
	if len(d.Data) == 0 {
		return &ValidationError{Field: "image", Reason: "image bytes are empty"}
	}
	if !SupportedImageTypes[d.MimeType] {
		return &ValidationError{Field: "image", Reason: fmt.Sprintf("unsupported mime type %q", d.MimeType)}
	}
	return nil
}

// ClassificationResult is the outcome of one classification call.
type ClassificationResult struct {
	DocumentType DocumentType `json:"document_type"`
	Confidence   float64      `json:"confidence"`
	Reasoning    string       `json:"reasoning,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	RawResponse  string       `json:"-"`
	ModelUsed    string       `json:"-"`
}

// FailedClassification builds the authoritative error form of a result.
func FailedClassification(msg, raw string) ClassificationResult {
	return ClassificationResult{
		DocumentType: DocumentTypeUnknown,
		Confidence:   0,
		ErrorMessage: &msg,
		RawResponse:  raw,
	}
}

// ErpRecord is the ERP ground truth for one document. It is read-only.
type ErpRecord map[string]any

// Flatten returns the record as dotted field paths mapped to string values.
// Nested maps use "parent.child", arrays use "parent.N".
func (r ErpRecord) Flatten() map[string]string {
	out := make(map[string]string)
	for k, v := range r {
		flattenValue(out, k, v)
	}
	return out
}

func flattenValue(out map[string]string, path string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			flattenValue(out, path+"."+k, inner)
		}
	case ErpRecord:
		for k, inner := range val {
			flattenValue(out, path+"."+k, inner)
		}
	case []any:
		for i, inner := range val {
			flattenValue(out, path+"."+strconv.Itoa(i), inner)
		}
	case []map[string]any:
		for i, inner := range val {
			flattenValue(out, path+"."+strconv.Itoa(i), inner)
		}
	default:
		out[path] = Stringify(v)
	}
}

// Stringify renders a scalar ERP or model value as text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// FieldConfidence is the per-field extraction outcome.
type FieldConfidence struct {
	FieldName       string  `json:"field_name"`
	Confidence      float64 `json:"confidence"`
	ExtractedValue  *string `json:"extracted_value,omitempty"`
	Verified        bool    `json:"verified"`
	OcrCorroborated bool    `json:"ocr_corroborated,omitempty"`
}

// Discrepancy is a field that failed the match policy.
type Discrepancy struct {
	FieldName     string          `json:"field_name"`
	DocumentValue string          `json:"document_value"`
	ErpValue      string          `json:"erp_value"`
	Severity      Severity        `json:"severity"`
	Type          DiscrepancyType `json:"discrepancy_type"`
	Description   *string         `json:"description,omitempty"`
}

// VerificationResult is the terminal artifact of one pipeline run.
type VerificationResult struct {
	ID                            uuid.UUID         `json:"id" db:"id"`
	JobNo                         string            `json:"job_no" db:"job_no"`
	DocumentID                    string            `json:"document_id,omitempty" db:"document_id"`
	DocumentType                  DocumentType      `json:"document_type" db:"document_type"`
	ClassificationConfidence      float64           `json:"classification_confidence" db:"classification_confidence"`
	ClassificationReasoning       string            `json:"classification_reasoning,omitempty" db:"classification_reasoning"`
	Discrepancies                 []Discrepancy     `json:"discrepancies" db:"-"`
	FieldConfidences              []FieldConfidence `json:"field_confidences" db:"-"`
	OverallVerificationConfidence float64           `json:"overall_verification_confidence" db:"overall_confidence"`
	RawModelResponse              *string           `json:"raw_model_response,omitempty" db:"raw_model_response"`
	ErrorMessage                  *string           `json:"error_message,omitempty" db:"error_message"`
	Notes                         []string          `json:"notes,omitempty" db:"-"`
	State                         PipelineState     `json:"state" db:"state"`
	ModelUsed                     string            `json:"model_used,omitempty" db:"model_used"`
	StartedAt                     time.Time         `json:"started_at" db:"started_at"`
	CompletedAt                   time.Time         `json:"completed_at" db:"completed_at"`
}

// Passed reports whether the run completed without errors or discrepancies.
func (r *VerificationResult) Passed() bool {
	return r.State == StateCompleted && r.ErrorMessage == nil && len(r.Discrepancies) == 0 &&
		r.DocumentType.Known()
}

// HighestSeverity returns the most severe discrepancy, or "" when there are none.
func (r *VerificationResult) HighestSeverity() Severity {
	var top Severity
	for _, d := range r.Discrepancies {
		if d.Severity.Rank() > top.Rank() {
			top = d.Severity
		}
	}
	return top
}

// CountBySeverity tallies discrepancies per severity.
func (r *VerificationResult) CountBySeverity() map[Severity]int {
	out := make(map[Severity]int, 3)
	for _, d := range r.Discrepancies {
		out[d.Severity]++
	}
	return out
}

// VerificationRequest is one unit of work for the orchestrator: the pages of
// a single document plus the ERP data it is checked against.
type VerificationRequest struct {
	JobNo      string
	DocumentID string
	Images     []RawImage
	ErpData    map[string]any
}

// InboundImage is the wire form of a document image.
type InboundImage struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
	ObjectKey   string `json:"objectKey,omitempty"`
}

// InboundRequest is the wire form of a verification request.
type InboundRequest struct {
	JobNo          string         `json:"jobNo"`
	DocumentID     string         `json:"documentId,omitempty"`
	DocumentImages []InboundImage `json:"documentImages"`
	ErpData        map[string]any `json:"erpData"`
}

// SortedKeys returns map keys in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}

// TrimmedOrEmpty dereferences a string pointer, returning "" for nil.
func TrimmedOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
