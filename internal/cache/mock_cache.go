package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCache is a mock implementation of the Cache interface for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetLetter(ctx context.Context, key string) (*Letter, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Letter), args.Error(1)
}

func (m *MockCache) SetLetter(ctx context.Context, key string, letter *Letter, ttl time.Duration) error {
	args := m.Called(ctx, key, letter, ttl)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
