package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"erpverify/internal/domain"
	"erpverify/internal/port"
)

// MockOcrEngine is a mock implementation of port.OcrEngine.
type MockOcrEngine struct {
	mock.Mock
}

func (m *MockOcrEngine) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockOcrEngine) Recognize(ctx context.Context, img domain.DocumentImage) (*port.OcrResult, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.OcrResult), args.Error(1)
}
