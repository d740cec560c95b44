package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"erpverify/internal/domain"
)

// MockResultSink is a mock implementation of port.ResultSink.
type MockResultSink struct {
	mock.Mock
}

func (m *MockResultSink) Save(ctx context.Context, result *domain.VerificationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// MockResultRepo is a mock implementation of port.ResultRepository.
type MockResultRepo struct {
	mock.Mock
}

func (m *MockResultRepo) Save(ctx context.Context, result *domain.VerificationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationResult), args.Error(1)
}

func (m *MockResultRepo) ListByJob(ctx context.Context, jobNo string, offset, limit int) ([]domain.VerificationResult, int, error) {
	args := m.Called(ctx, jobNo, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.VerificationResult), args.Int(1), args.Error(2)
}

func (m *MockResultRepo) LatestByJob(ctx context.Context, jobNo string) (*domain.VerificationResult, error) {
	args := m.Called(ctx, jobNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationResult), args.Error(1)
}
