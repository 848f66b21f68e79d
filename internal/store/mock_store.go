package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveContactMessage(ctx context.Context, msg ContactMessage) (ContactMessage, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(ContactMessage), args.Error(1)
}

func (m *MockStore) GetContactMessage(ctx context.Context, id uuid.UUID) (ContactMessage, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ContactMessage), args.Error(1)
}

func (m *MockStore) UpdateContactStatus(ctx context.Context, id uuid.UUID, status MessageStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
