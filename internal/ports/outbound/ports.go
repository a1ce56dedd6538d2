// Package outbound defines the interfaces for outbound ports (secondary/driven adapters).
// These are the interfaces that the application uses to interact with external systems.
package outbound

import (
	"context"
	"errors"

	"github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/domain/recipe"
)

// Frame is a single still image handed to the vision service.
type Frame struct {
	Data     []byte
	MIMEType string
}

// VisionService is the generative AI collaborator. Both calls may fail
// or come back empty; callers own the fallback behavior.
type VisionService interface {
	// RecognizeIngredients converts a still frame into pantry ingredients.
	// A malformed or empty model response yields an empty slice, not an
	// error; errors indicate the call itself was rejected.
	RecognizeIngredients(ctx context.Context, frame Frame) ([]pantry.Ingredient, error)

	// SuggestRecipes converts a pantry snapshot plus dietary preferences
	// into a batch of recipe suggestions. Callers must not invoke it with
	// an empty snapshot.
	SuggestRecipes(ctx context.Context, ingredients []pantry.Ingredient, preferences []string) ([]recipe.Suggestion, error)
}

// ErrKeyNotFound is returned by KeyValueStore.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore persists whole JSON blobs under fixed keys. There are
// no transaction or concurrency semantics; serialization is the
// caller's responsibility.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ErrCaptureDenied is returned by FrameSource.Acquire when device
// access is refused.
var ErrCaptureDenied = errors.New("capture device access denied")

// FrameSource is the capture device collaborator. Acquire must be
// balanced by Release on every exit path; no device handle may outlive
// its owning capture session.
type FrameSource interface {
	Acquire(ctx context.Context) error
	Still(ctx context.Context) (Frame, error)
	Release()
}
