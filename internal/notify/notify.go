// Package notify alerts people about verification results that need a human
// to look at them.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"erpverify/internal/domain"
	"erpverify/internal/port"
)

// NeedsAttention reports whether a result warrants an alert: the run failed
// or found a high severity discrepancy.
func NeedsAttention(res *domain.VerificationResult) bool {
	return res.State == domain.StateFailed || res.HighestSeverity() == domain.SeverityHigh
}

// Message is a rendered alert.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Compose renders the alert for res.
func Compose(res *domain.VerificationResult) Message {
	var subject string
	if res.State == domain.StateFailed {
		subject = fmt.Sprintf("[erpverify] Verification failed for job %s", res.JobNo)
	} else {
		subject = fmt.Sprintf("[erpverify] %s for job %s has high severity discrepancies", res.DocumentType.Label(), res.JobNo)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Job: %s\n", res.JobNo)
	if res.DocumentID != "" {
		fmt.Fprintf(&text, "Document: %s\n", res.DocumentID)
	}
	fmt.Fprintf(&text, "Document type: %s (confidence %.2f)\n", res.DocumentType.Label(), res.ClassificationConfidence)
	fmt.Fprintf(&text, "State: %s\n", res.State)
	fmt.Fprintf(&text, "Overall verification confidence: %.2f\n", res.OverallVerificationConfidence)
	fmt.Fprintf(&text, "Run: %s\n", res.ID)
	if res.ErrorMessage != nil {
		fmt.Fprintf(&text, "Error: %s\n", *res.ErrorMessage)
	}
	if len(res.Discrepancies) > 0 {
		text.WriteString("\nDiscrepancies:\n")
		for _, d := range res.Discrepancies {
			fmt.Fprintf(&text, "- [%s] %s: document %q, ERP %q\n", strings.ToUpper(string(d.Severity)), d.FieldName, d.DocumentValue, d.ErpValue)
		}
	}

	return Message{
		Subject: subject,
		Text:    text.String(),
		HTML:    composeHTML(subject, res),
	}
}

func composeHTML(subject string, res *domain.VerificationResult) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
`)
	fmt.Fprintf(&b, "  <h2 style=\"color: #333;\">%s</h2>\n", html.EscapeString(subject))
	fmt.Fprintf(&b, "  <p>Job <strong>%s</strong>, %s, state %s.</p>\n",
		html.EscapeString(res.JobNo), html.EscapeString(res.DocumentType.Label()), html.EscapeString(string(res.State)))
	if res.ErrorMessage != nil {
		fmt.Fprintf(&b, "  <p style=\"color: #b91c1c;\">%s</p>\n", html.EscapeString(*res.ErrorMessage))
	}
	if len(res.Discrepancies) > 0 {
		b.WriteString("  <table style=\"border-collapse: collapse; width: 100%;\">\n")
		b.WriteString("    <tr><th align=\"left\">Severity</th><th align=\"left\">Field</th><th align=\"left\">Document</th><th align=\"left\">ERP</th></tr>\n")
		for _, d := range res.Discrepancies {
			fmt.Fprintf(&b, "    <tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
				html.EscapeString(strings.ToUpper(string(d.Severity))),
				html.EscapeString(d.FieldName),
				html.EscapeString(d.DocumentValue),
				html.EscapeString(d.ErpValue))
		}
		b.WriteString("  </table>\n")
	}
	b.WriteString(`  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">erpverify - ERP document verification</p>
</body>
</html>`)
	return b.String()
}

// Sink is a result sink that forwards results needing attention to a
// Notifier and ignores the rest.
type Sink struct {
	notifier port.Notifier
	logger   *zap.Logger
}

// NewSink creates a Sink.
func NewSink(notifier port.Notifier, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{notifier: notifier, logger: logger}
}

func (s *Sink) Save(ctx context.Context, res *domain.VerificationResult) error {
	if !NeedsAttention(res) {
		return nil
	}
	if err := s.notifier.NotifyResult(ctx, res); err != nil {
		return fmt.Errorf("notify.Sink.Save: %w", err)
	}
	s.logger.Info("notify.Sink.Save: alert sent",
		zap.String("job_no", res.JobNo),
		zap.String("state", string(res.State)),
	)
	return nil
}
