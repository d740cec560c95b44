package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"erpverify/internal/domain"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyResult(ctx context.Context, result *domain.VerificationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}
