// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/domain/recipe"
	"github.com/spicesync/spicesync/internal/ports/outbound"
)

// MockVisionService provides a mock implementation of outbound.VisionService
type MockVisionService struct {
	mock.Mock
}

func (m *MockVisionService) RecognizeIngredients(ctx context.Context, frame outbound.Frame) ([]pantry.Ingredient, error) {
	args := m.Called(ctx, frame)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pantry.Ingredient), args.Error(1)
}

func (m *MockVisionService) SuggestRecipes(ctx context.Context, ingredients []pantry.Ingredient, preferences []string) ([]recipe.Suggestion, error) {
	args := m.Called(ctx, ingredients, preferences)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Suggestion), args.Error(1)
}

// MockFrameSource provides a mock implementation of outbound.FrameSource
// and counts Release calls so tests can assert the device is let go on
// every exit path.
type MockFrameSource struct {
	mock.Mock

	mu       sync.Mutex
	releases int
}

func (m *MockFrameSource) Acquire(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFrameSource) Still(ctx context.Context) (outbound.Frame, error) {
	args := m.Called(ctx)
	return args.Get(0).(outbound.Frame), args.Error(1)
}

func (m *MockFrameSource) Release() {
	m.mu.Lock()
	m.releases++
	m.mu.Unlock()
	m.Called()
}

// Releases returns how many times Release has been called.
func (m *MockFrameSource) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}

// FailingStore is a key-value store whose writes always fail, for
// exercising persist-before-commit behavior.
type FailingStore struct {
	Err error
}

func (s *FailingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, outbound.ErrKeyNotFound
}

func (s *FailingStore) Set(ctx context.Context, key string, value []byte) error {
	return s.Err
}

func (s *FailingStore) Delete(ctx context.Context, key string) error {
	return s.Err
}
