package domain

import "strings"

// MimeType identifies the encoding of a normalized document image.
type MimeType string

const (
	MimePNG     MimeType = "image/png"
	MimeJPEG    MimeType = "image/jpeg"
	MimePDFPage MimeType = "application/pdf"
)

// SupportedImageTypes lists the MIME types a DocumentImage may carry.
var SupportedImageTypes = map[MimeType]bool{
	MimePNG:     true,
	MimeJPEG:    true,
	MimePDFPage: true,
}

// DocumentType is the closed set of job document templates.
type DocumentType string

const (
	DocumentTypeSalesQuote      DocumentType = "SalesQuote"
	DocumentTypeProformaInvoice DocumentType = "ProformaInvoice"
	DocumentTypeJobConsumption  DocumentType = "JobConsumption"
	DocumentTypeUnknown         DocumentType = "Unknown"
)

// KnownDocumentTypes lists the concrete document types in a stable order.
var KnownDocumentTypes = []DocumentType{
	DocumentTypeSalesQuote,
	DocumentTypeProformaInvoice,
	DocumentTypeJobConsumption,
}

var documentTypeAliases = map[string]DocumentType{
	"salesquote":        DocumentTypeSalesQuote,
	"sales quote":       DocumentTypeSalesQuote,
	"sales_quote":       DocumentTypeSalesQuote,
	"sq":                DocumentTypeSalesQuote,
	"proformainvoice":   DocumentTypeProformaInvoice,
	"proforma invoice":  DocumentTypeProformaInvoice,
	"pro forma invoice": DocumentTypeProformaInvoice,
	"proforma_invoice":  DocumentTypeProformaInvoice,
	"proforma":          DocumentTypeProformaInvoice,
	"pi":                DocumentTypeProformaInvoice,
	"jobconsumption":    DocumentTypeJobConsumption,
	"job consumption":   DocumentTypeJobConsumption,
	"job_consumption":   DocumentTypeJobConsumption,
	"job shipment":      DocumentTypeJobConsumption,
	"jobshipment":       DocumentTypeJobConsumption,
	"jc":                DocumentTypeJobConsumption,
	"unknown":           DocumentTypeUnknown,
	"unclassified":      DocumentTypeUnknown,
}

// ParseDocumentType maps a free-form type label onto the enumeration.
// The second return value is false when the label is not recognized at all;
// an explicit "unknown" label is recognized and maps to DocumentTypeUnknown.
func ParseDocumentType(s string) (DocumentType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.Join(strings.Fields(key), " ")
	if dt, ok := documentTypeAliases[key]; ok {
		return dt, true
	}
	return DocumentTypeUnknown, false
}

// Known reports whether the type is one of the concrete document templates.
func (d DocumentType) Known() bool {
	switch d {
	case DocumentTypeSalesQuote, DocumentTypeProformaInvoice, DocumentTypeJobConsumption:
		return true
	default:
		return false
	}
}

// Label returns the human readable name used in prompts and descriptions.
func (d DocumentType) Label() string {
	switch d {
	case DocumentTypeSalesQuote:
		return "Sales Quote"
	case DocumentTypeProformaInvoice:
		return "Proforma Invoice"
	case DocumentTypeJobConsumption:
		return "Job Consumption"
	default:
		return "Unknown Document"
	}
}

// Severity grades a discrepancy.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities so the highest can be selected.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// DiscrepancyType categorizes why a field failed the match policy.
type DiscrepancyType string

const (
	DiscrepancyValueMismatch     DiscrepancyType = "VALUE_MISMATCH"
	DiscrepancyMissingInDocument DiscrepancyType = "MISSING_IN_DOCUMENT"
	DiscrepancyFormatError       DiscrepancyType = "FORMAT_ERROR"
)

// PipelineState is a step of the verification state machine.
type PipelineState string

const (
	StateReceived    PipelineState = "RECEIVED"
	StateClassifying PipelineState = "CLASSIFYING"
	StateExtracting  PipelineState = "EXTRACTING"
	StateAggregating PipelineState = "AGGREGATING"
	StateCompleted   PipelineState = "COMPLETED"
	StateFailed      PipelineState = "FAILED"
)

// Terminal reports whether no further transitions are allowed.
func (s PipelineState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
