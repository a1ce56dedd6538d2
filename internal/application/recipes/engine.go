// Package recipes implements the recipe query engine: fetching AI
// suggestion batches and projecting them locally for display.
package recipes

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/domain/recipe"
	"github.com/spicesync/spicesync/internal/ports/inbound"
	"github.com/spicesync/spicesync/internal/ports/outbound"
)

// Engine holds the suggestion batch for the current view session.
// A fetched batch wholly replaces the previous one; failures keep it.
//
// Overlapping fetches are permitted and race; the last response to
// arrive wins. There is no cancellation of superseded requests.
type Engine struct {
	vision outbound.VisionService
	logger *zap.Logger

	// mu guards state and batch only; gateway calls happen outside
	// it so a slow response never blocks reads.
	mu    sync.Mutex
	state inbound.FetchState
	batch []recipe.Suggestion
}

// NewEngine creates an idle engine.
func NewEngine(vision outbound.VisionService, logger *zap.Logger) *Engine {
	return &Engine{
		vision: vision,
		logger: logger,
		state:  inbound.FetchStateIdle,
	}
}

// Fetch requests a new suggestion batch for the pantry snapshot. An
// empty snapshot is a silent no-op: no state change, no gateway call.
// On failure the previous batch is retained and the state becomes
// Failed; a later Fetch may still succeed.
func (e *Engine) Fetch(ctx context.Context, ingredients []pantry.Ingredient, preferences []string) error {
	if len(ingredients) == 0 {
		return nil
	}

	e.mu.Lock()
	e.state = inbound.FetchStateFetching
	e.mu.Unlock()

	suggestions, err := e.vision.SuggestRecipes(ctx, ingredients, preferences)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.state = inbound.FetchStateFailed
		e.logger.Warn("Recipe fetch failed, keeping previous batch",
			zap.Int("previous_batch", len(e.batch)),
			zap.Error(err),
		)
		return err
	}

	e.batch = suggestions
	e.state = inbound.FetchStateReady
	e.logger.Info("Recipe batch replaced", zap.Int("suggestions", len(suggestions)))
	return nil
}

// State returns the engine's current fetch state.
func (e *Engine) State() inbound.FetchState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Batch returns a snapshot copy of the held batch.
func (e *Engine) Batch() []recipe.Suggestion {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]recipe.Suggestion, len(e.batch))
	copy(out, e.batch)
	return out
}

// View projects the held batch through the given options.
func (e *Engine) View(opts inbound.ViewOptions) []recipe.Suggestion {
	return Project(e.Batch(), opts)
}
