package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ToRequest decodes the wire form into a VerificationRequest. Images may be
// given inline as base64 (optionally as a data: URI) or by object key.
func (r InboundRequest) ToRequest() (VerificationRequest, error) {
	req := VerificationRequest{
		JobNo:      strings.TrimSpace(r.JobNo),
		DocumentID: strings.TrimSpace(r.DocumentID),
		Images:     make([]RawImage, 0, len(r.DocumentImages)),
		ErpData:    r.ErpData,
	}
	for i, img := range r.DocumentImages {
		raw := RawImage{MimeType: strings.TrimSpace(img.MimeType), ObjectKey: strings.TrimSpace(img.ObjectKey)}
		if img.ImageBase64 != "" {
			data, mime, err := decodeBase64Image(img.ImageBase64)
			if err != nil {
				return VerificationRequest{}, &ValidationError{
					Field:  fmt.Sprintf("documentImages[%d].imageBase64", i),
					Reason: err.Error(),
				}
			}
			raw.Data = data
			if raw.MimeType == "" {
				raw.MimeType = mime
			}
		}
		req.Images = append(req.Images, raw)
	}
	return req, nil
}

func decodeBase64Image(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var mime string
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("malformed data uri")
		}
		mime = strings.TrimSuffix(header, ";base64")
		s = payload
	}
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image is empty")
	}
	return data, mime, nil
}
