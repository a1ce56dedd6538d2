// Package pantry implements the pantry store use cases: the single
// authoritative ingredient collection, persisted whole on every
// mutation.
package pantry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/ports/outbound"
)

const (
	storageKey    = "spicesync:pantry"
	schemaVersion = 1
)

// ErrDuplicateID is returned when an added item carries an identifier
// already present in the collection.
var ErrDuplicateID = errors.New("ingredient id already present in pantry")

// envelope wraps the persisted collection with a schema version so
// future layouts can migrate old blobs.
type envelope struct {
	SchemaVersion int                 `json:"schema_version"`
	Items         []domain.Ingredient `json:"items"`
}

// Service owns the in-memory collection and its persisted twin. The
// two are identical whenever a mutating call has returned: mutations
// persist first and only then update memory, under one mutex.
type Service struct {
	store  outbound.KeyValueStore
	logger *zap.Logger

	mu    sync.Mutex
	items []domain.Ingredient
}

// NewService creates a pantry service on top of a key-value store.
func NewService(store outbound.KeyValueStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Load reads the persisted collection. A missing blob is an empty
// pantry, not an error; an unreadable or unknown-version blob is
// logged and treated the same way.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.Get(ctx, storageKey)
	if err != nil {
		if errors.Is(err, outbound.ErrKeyNotFound) {
			s.items = nil
			return nil
		}
		return fmt.Errorf("failed to load pantry: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("Ignoring unreadable pantry blob", zap.Error(err))
		s.items = nil
		return nil
	}
	if env.SchemaVersion != schemaVersion {
		s.logger.Warn("Ignoring pantry blob with unknown schema version",
			zap.Int("version", env.SchemaVersion))
		s.items = nil
		return nil
	}

	s.items = env.Items
	s.logger.Info("Loaded pantry", zap.Int("items", len(s.items)))
	return nil
}

// Items returns a snapshot copy of the collection in insertion order.
func (s *Service) Items(ctx context.Context) []domain.Ingredient {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Ingredient, len(s.items))
	copy(out, s.items)
	return out
}

// Add appends items to the end of the collection, preserving order.
func (s *Service) Add(ctx context.Context, items ...domain.Ingredient) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(s.items)+len(items))
	for _, existing := range s.items {
		seen[existing.ID] = struct{}{}
	}
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	next := make([]domain.Ingredient, 0, len(s.items)+len(items))
	next = append(next, s.items...)
	next = append(next, items...)

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.items = next

	s.logger.Info("Added pantry items",
		zap.Int("added", len(items)),
		zap.Int("total", len(s.items)),
	)
	return nil
}

// Remove deletes the item with the given identifier. Removing an
// absent id leaves the collection untouched and is not an error.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := -1
	for i, item := range s.items {
		if item.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return nil
	}

	next := make([]domain.Ingredient, 0, len(s.items)-1)
	next = append(next, s.items[:index]...)
	next = append(next, s.items[index+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// Replace sets the collection wholesale.
func (s *Service) Replace(ctx context.Context, items []domain.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Ingredient, len(items))
	copy(next, items)

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.items = next

	s.logger.Info("Replaced pantry", zap.Int("items", len(s.items)))
	return nil
}

// persist writes the candidate collection. Callers hold the mutex and
// only commit to memory after persist succeeds.
func (s *Service) persist(ctx context.Context, items []domain.Ingredient) error {
	data, err := json.Marshal(envelope{SchemaVersion: schemaVersion, Items: items})
	if err != nil {
		return fmt.Errorf("failed to encode pantry: %w", err)
	}
	if err := s.store.Set(ctx, storageKey, data); err != nil {
		return fmt.Errorf("failed to persist pantry: %w", err)
	}
	return nil
}
