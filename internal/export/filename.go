package export

import (
	"fmt"
	"regexp"
	"strings"
)

// Format is a supported export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx", case-insensitively. An empty value
// means CSV.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, true
	case "xlsx":
		return FormatXLSX, true
	}
	return "", false
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

var (
	nonFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	multiUnderscore  = regexp.MustCompile(`_{2,}`)
)

// SanitizeFilename replaces characters outside [a-zA-Z0-9_-] with _, collapses
// runs of underscores and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonFilenameChars.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {job}_{suffix}.{format} for Content-Disposition.
func BuildFilename(jobNo, suffix string, f Format) string {
	job := SanitizeFilename(jobNo)
	if job == "" {
		job = "verification"
	}
	return fmt.Sprintf("%s_%s.%s", job, SanitizeFilename(suffix), f)
}
