package classify

import (
	"encoding/json"

	"erpverify/internal/domain"
)

type typeDescription struct {
	Type            domain.DocumentType `json:"type"`
	Characteristics []string            `json:"characteristics"`
}

type classificationPrompt struct {
	Task                  string            `json:"task"`
	JobNo                 string            `json:"jobNo,omitempty"`
	PossibleDocumentTypes []typeDescription `json:"possibleDocumentTypes"`
	Instructions          []string          `json:"instructions"`
	OutputFormat          map[string]string `json:"outputFormat"`
}

var documentTypes = []typeDescription{
	{
		Type: domain.DocumentTypeSalesQuote,
		Characteristics: []string{
			"Contains 'SALES QUOTE' in the header",
			"Has a quote number, usually labeled 'SQ' followed by digits",
			"Contains customer information",
			"Has line items with descriptions, quantities and prices",
			"Includes payment options such as mobile money or card payment links",
		},
	},
	{
		Type: domain.DocumentTypeProformaInvoice,
		Characteristics: []string{
			"Contains 'PRO FORMA INVOICE' in the header",
			"States that it is not a tax invoice and that one will be issued upon supply",
			"Has an invoice number, usually labeled 'Tax Invoice No'",
			"Contains customer information",
			"Has line items with descriptions, quantities and prices",
		},
	},
	{
		Type: domain.DocumentTypeJobConsumption,
		Characteristics: []string{
			"Contains 'JOB SHIPMENT' in the header",
			"Has a field labeled 'Job Shipment No'",
			"Contains 'INSTRUCTED BY', 'DISPATCHED BY' and 'RECEIVED BY' sections",
			"Has a logistics or dispatch oriented layout",
		},
	},
}

// BuildPrompt returns the classification instruction sent with the page images.
func BuildPrompt(jobNo string) string {
	p := classificationPrompt{
		Task:                  "document_classification",
		JobNo:                 jobNo,
		PossibleDocumentTypes: documentTypes,
		Instructions: []string{
			"Analyze the provided document images.",
			"Determine which document type they match based on the characteristics listed.",
			"Return the document type as exactly one of: 'SalesQuote', 'ProformaInvoice', 'JobConsumption'.",
			"If you cannot confidently classify the document, return 'UNKNOWN'.",
			"Respond with a single JSON object and nothing else.",
		},
		OutputFormat: map[string]string{
			"documentType": "SalesQuote, ProformaInvoice, JobConsumption or UNKNOWN",
			"confidence":   "a number between 0.0 and 1.0",
			"reasoning":    "a brief explanation of the choice",
		},
	}
	b, _ := json.MarshalIndent(p, "", "  ")
	return string(b)
}
