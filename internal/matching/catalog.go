package matching

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"erpverify/internal/domain"
)

// Kind selects the comparison rules applied to a field.
type Kind string

const (
	KindMonetary   Kind = "monetary"
	KindQuantity   Kind = "quantity"
	KindIdentifier Kind = "identifier"
	KindText       Kind = "text"
	KindDate       Kind = "date"
)

func (k Kind) valid() bool {
	switch k {
	case KindMonetary, KindQuantity, KindIdentifier, KindText, KindDate:
		return true
	default:
		return false
	}
}

func (k Kind) numeric() bool {
	return k == KindMonetary || k == KindQuantity
}

// FieldSpec describes one ERP field the model is asked to extract.
type FieldSpec struct {
	Name  string `yaml:"name"`
	Kind  Kind   `yaml:"kind"`
	Label string `yaml:"label"`
}

// Catalog holds the field sets per document type.
type Catalog struct {
	sets map[domain.DocumentType][]FieldSpec
}

// DefaultCatalog returns the built-in field sets.
func DefaultCatalog() *Catalog {
	c := &Catalog{sets: make(map[domain.DocumentType][]FieldSpec)}
	for _, dt := range domain.KnownDocumentTypes {
		c.sets[dt] = defaultFields(dt)
	}
	return c
}

func defaultFields(dt domain.DocumentType) []FieldSpec {
	switch dt {
	case domain.DocumentTypeSalesQuote:
		return []FieldSpec{
			{Name: "No", Kind: KindIdentifier, Label: "Sales Quote Number"},
			{Name: "Sell_to_Customer_No", Kind: KindIdentifier, Label: "Customer Account Number"},
			{Name: "Sell_to_Customer_Name", Kind: KindText, Label: "Customer Name"},
			{Name: "Amount_Including_VAT", Kind: KindMonetary, Label: "Total Amount Including VAT"},
			{Name: "Amount", Kind: KindMonetary, Label: "Amount Excluding VAT"},
			{Name: "Total_Price_LCY", Kind: KindMonetary, Label: "Total Price"},
			{Name: "Document_Date", Kind: KindDate, Label: "Quote Date"},
			{Name: "Description", Kind: KindText, Label: "Line Description"},
			{Name: "Quantity", Kind: KindQuantity, Label: "Line Quantity"},
			{Name: "Unit_Price", Kind: KindMonetary, Label: "Line Unit Price"},
		}
	case domain.DocumentTypeProformaInvoice:
		return []FieldSpec{
			{Name: "No", Kind: KindIdentifier, Label: "Proforma Invoice Number"},
			{Name: "Sell_to_Customer_No", Kind: KindIdentifier, Label: "Customer Account Number"},
			{Name: "Sell_to_Customer_Name", Kind: KindText, Label: "Customer Name"},
			{Name: "Amount_Including_VAT", Kind: KindMonetary, Label: "Total Amount Including VAT"},
			{Name: "Amount", Kind: KindMonetary, Label: "Amount Excluding VAT"},
			{Name: "Total_Price_LCY", Kind: KindMonetary, Label: "Total Price"},
			{Name: "Posting_Date", Kind: KindDate, Label: "Invoice Date"},
			{Name: "Description", Kind: KindText, Label: "Line Description"},
			{Name: "Quantity", Kind: KindQuantity, Label: "Line Quantity"},
			{Name: "Unit_Price", Kind: KindMonetary, Label: "Line Unit Price"},
		}
	case domain.DocumentTypeJobConsumption:
		return []FieldSpec{
			{Name: "Job_No", Kind: KindIdentifier, Label: "Job Number"},
			{Name: "No", Kind: KindIdentifier, Label: "Item/Resource No"},
			{Name: "Type", Kind: KindText, Label: "Entry Type"},
			{Name: "Description", Kind: KindText, Label: "Line Description"},
			{Name: "Quantity", Kind: KindQuantity, Label: "Quantity"},
			{Name: "Total_Cost_LCY", Kind: KindMonetary, Label: "Total Cost"},
			{Name: "Total_Price_LCY", Kind: KindMonetary, Label: "Total Price"},
			{Name: "Posting_Date", Kind: KindDate, Label: "Posting Date"},
		}
	case domain.DocumentTypeUnknown:
		return nil
	}
	return nil
}

// LoadCatalog reads field set overrides from a YAML file keyed by document
// type. Types present in the file replace the built-in set; the rest keep
// their defaults.
//
//	SalesQuote:
//	  - name: No
//	    kind: identifier
//	    label: Quote Number
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading field sets file: %w", err)
	}
	var raw map[string][]FieldSpec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing field sets file: %w", err)
	}
	for key, specs := range raw {
		dt, ok := domain.ParseDocumentType(key)
		if !ok || !dt.Known() {
			return nil, fmt.Errorf("field sets file: unknown document type %q", key)
		}
		for i := range specs {
			specs[i].Kind = Kind(strings.ToLower(string(specs[i].Kind)))
			if specs[i].Name == "" {
				return nil, fmt.Errorf("field sets file: %s entry %d has no name", key, i)
			}
			if specs[i].Kind == "" {
				specs[i].Kind = InferKind(specs[i].Name, "")
			}
			if !specs[i].Kind.valid() {
				return nil, fmt.Errorf("field sets file: %s.%s has unknown kind %q", key, specs[i].Name, specs[i].Kind)
			}
		}
		c.sets[dt] = specs
	}
	return c, nil
}

// Fields returns the field set of a document type.
func (c *Catalog) Fields(dt domain.DocumentType) []FieldSpec {
	return c.sets[dt]
}

// Spec resolves the FieldSpec of a flattened ERP path such as "lines.0.Quantity"
// by its last segment. Fields outside the catalog get an inferred kind.
func (c *Catalog) Spec(dt domain.DocumentType, path, value string) (FieldSpec, int) {
	leaf := leafName(path)
	for i, s := range c.sets[dt] {
		if strings.EqualFold(s.Name, leaf) {
			if s.Label == "" {
				s.Label = humanize(s.Name)
			}
			return s, i
		}
	}
	return FieldSpec{Name: leaf, Kind: InferKind(leaf, value), Label: humanize(leaf)}, len(c.sets[dt])
}

// InferKind guesses a field kind from its name, then from a sample value.
func InferKind(name, value string) Kind {
	n := strings.ToLower(name)
	switch {
	case containsAny(n, "date"):
		return KindDate
	case containsAny(n, "price", "amount", "total", "cost", "lcy", "vat", "tax"):
		return KindMonetary
	case containsAny(n, "qty", "quantity"):
		return KindQuantity
	case hasToken(name, "id", "no", "code", "number"):
		return KindIdentifier
	}
	if _, ok := ParseNumber(value); ok {
		return KindQuantity
	}
	return KindText
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// nameTokens splits a field name on separators and camelCase boundaries,
// lowercased: "CustomerID_Code" -> [customer id code].
func nameTokens(name string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return tokens
}

func hasToken(name string, want ...string) bool {
	for _, tok := range nameTokens(name) {
		for _, w := range want {
			if tok == w {
				return true
			}
		}
	}
	return false
}

func leafName(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func humanize(name string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
}
