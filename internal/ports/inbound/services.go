// Package inbound defines the interfaces for inbound ports (primary/driving adapters).
// These are the use-case interfaces that HTTP handlers and other driving
// adapters call into.
package inbound

import (
	"context"

	"github.com/google/uuid"

	"github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/domain/recipe"
)

// PantryService owns the authoritative ingredient collection.
type PantryService interface {
	Load(ctx context.Context) error
	Items(ctx context.Context) []pantry.Ingredient
	Add(ctx context.Context, items ...pantry.Ingredient) error
	Remove(ctx context.Context, id uuid.UUID) error
	Replace(ctx context.Context, items []pantry.Ingredient) error
}

// FetchState is the query engine's state for the current view session.
type FetchState string

const (
	FetchStateIdle     FetchState = "idle"
	FetchStateFetching FetchState = "fetching"
	FetchStateReady    FetchState = "ready"
	FetchStateFailed   FetchState = "failed"
)

// SortKey selects the ordering of a recipe view projection.
type SortKey string

const (
	SortByScore      SortKey = "score"
	SortByTime       SortKey = "time"
	SortByDifficulty SortKey = "difficulty"
)

// ViewOptions parameterize the local projection over a fetched batch.
type ViewOptions struct {
	Search         string
	PerfectOnly    bool
	DietaryFilters []string
	SortBy         SortKey
}

// RecipeFinder fetches AI recipe suggestions and projects them for display.
type RecipeFinder interface {
	// Fetch requests a new suggestion batch. An empty pantry snapshot is
	// a silent no-op.
	Fetch(ctx context.Context, ingredients []pantry.Ingredient, preferences []string) error
	State() FetchState
	Batch() []recipe.Suggestion
	View(opts ViewOptions) []recipe.Suggestion
}

// ScanState is the scan workflow's position in the capture pipeline.
type ScanState string

const (
	ScanStateIdle       ScanState = "idle"
	ScanStateCapturing  ScanState = "capturing"
	ScanStateProcessing ScanState = "processing"
	ScanStateReview     ScanState = "review"
	ScanStateCommitted  ScanState = "committed"
)

// ScanService drives the capture -> recognize -> review -> commit pipeline.
type ScanService interface {
	StartCapture(ctx context.Context) error
	Capture(ctx context.Context) error
	// Submit enters the pipeline with an already-captured frame.
	Submit(ctx context.Context, data []byte, mimeType string) error
	// Commit adds the reviewed items to the pantry. It reports false,
	// without error, while there is nothing committable.
	Commit(ctx context.Context) (bool, error)
	Cancel()
	State() ScanState
	ReviewItems() []pantry.Ingredient
}

// Preferences is the stored user preference blob.
type Preferences struct {
	Diet      []string `json:"diet"`
	Allergies []string `json:"allergies"`
	Servings  int      `json:"servings"`
}

// ProfileService owns the persisted user preferences.
type ProfileService interface {
	Get(ctx context.Context) (Preferences, error)
	Put(ctx context.Context, prefs Preferences) error
}
