// Package profile implements the persisted user preference blob. It
// shares the pantry's storage rules: one fixed key, written whole on
// every change.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spicesync/spicesync/internal/ports/inbound"
	"github.com/spicesync/spicesync/internal/ports/outbound"
)

const (
	storageKey    = "spicesync:profile"
	schemaVersion = 1
)

type envelope struct {
	SchemaVersion int                `json:"schema_version"`
	Preferences   inbound.Preferences `json:"preferences"`
}

// Service owns the stored preferences.
type Service struct {
	store  outbound.KeyValueStore
	logger *zap.Logger
	mu     sync.Mutex
}

// NewService creates a profile service on top of a key-value store.
func NewService(store outbound.KeyValueStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Get reads the stored preferences. Absence yields the zero value.
func (s *Service) Get(ctx context.Context) (inbound.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.Get(ctx, storageKey)
	if err != nil {
		if errors.Is(err, outbound.ErrKeyNotFound) {
			return inbound.Preferences{}, nil
		}
		return inbound.Preferences{}, fmt.Errorf("failed to load profile: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.SchemaVersion != schemaVersion {
		s.logger.Warn("Ignoring unreadable profile blob", zap.Error(err))
		return inbound.Preferences{}, nil
	}

	return env.Preferences, nil
}

// Put replaces the stored preferences.
func (s *Service) Put(ctx context.Context, prefs inbound.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(envelope{SchemaVersion: schemaVersion, Preferences: prefs})
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := s.store.Set(ctx, storageKey, data); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}

	s.logger.Info("Updated profile preferences",
		zap.Strings("diet", prefs.Diet),
		zap.Int("servings", prefs.Servings),
	)
	return nil
}
