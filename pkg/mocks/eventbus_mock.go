// Package mocks provides testify mock implementations of the engine's
// collaborator interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mohamedadel0806/stratagem/pkg/eventbus"
	"github.com/mohamedadel0806/stratagem/pkg/events"
)

// MockEventBus is a mock implementation of eventbus.EventBus interface.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) GenerateID() string {
	args := m.Called()

	return args.String(0)
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) {
	m.Called(eventType, handler)
}

func (m *MockEventBus) Run(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}
