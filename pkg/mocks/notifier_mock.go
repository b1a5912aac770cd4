package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of protocol.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID, kind string, payload map[string]any) error {
	args := m.Called(ctx, userID, kind, payload)

	return args.Error(0)
}
