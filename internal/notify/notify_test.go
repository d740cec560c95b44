package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erpverify/internal/domain"
	"erpverify/internal/notify"
	"erpverify/mocks"
)

func highResult() *domain.VerificationResult {
	return &domain.VerificationResult{
		JobNo:        "J-100",
		DocumentType: domain.DocumentTypeSalesQuote,
		State:        domain.StateCompleted,
		Discrepancies: []domain.Discrepancy{{
			FieldName:     "Total_Price_LCY",
			DocumentValue: "1200.00",
			ErpValue:      "<1000.00>",
			Severity:      domain.SeverityHigh,
			Type:          domain.DiscrepancyValueMismatch,
		}},
	}
}

func TestNeedsAttention(t *testing.T) {
	assert.True(t, notify.NeedsAttention(highResult()))
	assert.True(t, notify.NeedsAttention(&domain.VerificationResult{State: domain.StateFailed}))
	assert.False(t, notify.NeedsAttention(&domain.VerificationResult{
		State:         domain.StateCompleted,
		Discrepancies: []domain.Discrepancy{{Severity: domain.SeverityMedium}},
	}))
}

func TestCompose(t *testing.T) {
	msg := notify.Compose(highResult())

	assert.Contains(t, msg.Subject, "J-100")
	assert.Contains(t, msg.Subject, "Sales Quote")
	assert.Contains(t, msg.Text, "[HIGH] Total_Price_LCY")
	assert.Contains(t, msg.HTML, "&lt;1000.00&gt;")
	assert.NotContains(t, msg.HTML, "<1000.00>")

	failed := notify.Compose(&domain.VerificationResult{
		JobNo:        "J-9",
		State:        domain.StateFailed,
		ErrorMessage: domain.StringPtr("llm complete: transient failure"),
	})
	assert.Contains(t, failed.Subject, "failed")
	assert.Contains(t, failed.Text, "Error: llm complete: transient failure")
}

func TestSink_OnlyNotifiesResultsNeedingAttention(t *testing.T) {
	n := new(mocks.MockNotifier)
	high := highResult()
	n.On("NotifyResult", mock.Anything, high).Return(nil).Once()
	sink := notify.NewSink(n, nil)

	require.NoError(t, sink.Save(context.Background(), high))
	require.NoError(t, sink.Save(context.Background(), &domain.VerificationResult{State: domain.StateCompleted}))

	n.AssertExpectations(t)
}

func TestSink_WrapsNotifierError(t *testing.T) {
	n := new(mocks.MockNotifier)
	n.On("NotifyResult", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	err := notify.NewSink(n, nil).Save(context.Background(), &domain.VerificationResult{State: domain.StateFailed})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
