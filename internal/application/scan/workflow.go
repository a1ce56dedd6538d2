// Package scan implements the capture -> recognize -> review -> commit
// pipeline for adding ingredients from a photo.
package scan

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/ports/inbound"
	"github.com/spicesync/spicesync/internal/ports/outbound"
)

// Workflow state errors
var (
	// ErrNotCapturing is returned by Capture outside the capturing state.
	ErrNotCapturing = errors.New("no capture in progress")
	// ErrBusy is returned when a capture or submission arrives while a
	// frame is already being processed.
	ErrBusy = errors.New("a scan is already in progress")
)

// Workflow drives a single scan session. One instance exists per
// device session; overlapping capture requests are rejected rather
// than queued.
type Workflow struct {
	source outbound.FrameSource
	vision outbound.VisionService
	pantry inbound.PantryService
	logger *zap.Logger

	mu     sync.Mutex
	state  inbound.ScanState
	review []pantry.Ingredient
}

// NewWorkflow creates an idle workflow.
func NewWorkflow(
	source outbound.FrameSource,
	vision outbound.VisionService,
	pantrySvc inbound.PantryService,
	logger *zap.Logger,
) *Workflow {
	return &Workflow{
		source: source,
		vision: vision,
		pantry: pantrySvc,
		logger: logger,
		state:  inbound.ScanStateIdle,
	}
}

// StartCapture acquires the capture device. On denial the workflow
// stays idle and the error is reported to the caller; there is no
// automatic retry. Starting over from review discards the review list.
func (w *Workflow) StartCapture(ctx context.Context) error {
	w.mu.Lock()
	switch w.state {
	case inbound.ScanStateCapturing:
		w.mu.Unlock()
		return nil
	case inbound.ScanStateProcessing:
		w.mu.Unlock()
		return ErrBusy
	}
	w.mu.Unlock()

	if err := w.source.Acquire(ctx); err != nil {
		w.logger.Warn("Capture device unavailable", zap.Error(err))
		return err
	}

	w.mu.Lock()
	w.state = inbound.ScanStateCapturing
	w.review = nil
	w.mu.Unlock()
	return nil
}

// Capture grabs a still frame, releases the device immediately, and
// hands the frame to recognition. Recognition failure returns the
// workflow to idle; success moves to review, where an empty item list
// is a valid, displayable outcome.
func (w *Workflow) Capture(ctx context.Context) error {
	w.mu.Lock()
	if w.state != inbound.ScanStateCapturing {
		w.mu.Unlock()
		return ErrNotCapturing
	}
	w.state = inbound.ScanStateProcessing
	w.mu.Unlock()

	frame, err := w.source.Still(ctx)
	// The device must not keep capturing while the AI call runs.
	w.source.Release()
	if err != nil {
		w.toIdle()
		w.logger.Error("Failed to capture still frame", zap.Error(err))
		return err
	}

	return w.recognize(ctx, frame)
}

// Submit enters the pipeline at processing with a frame the caller
// already captured, for clients that bring their own camera handling.
func (w *Workflow) Submit(ctx context.Context, data []byte, mimeType string) error {
	w.mu.Lock()
	if w.state == inbound.ScanStateProcessing {
		w.mu.Unlock()
		return ErrBusy
	}
	wasCapturing := w.state == inbound.ScanStateCapturing
	w.state = inbound.ScanStateProcessing
	w.review = nil
	w.mu.Unlock()

	if wasCapturing {
		w.source.Release()
	}

	return w.recognize(ctx, outbound.Frame{Data: data, MIMEType: mimeType})
}

func (w *Workflow) recognize(ctx context.Context, frame outbound.Frame) error {
	items, err := w.vision.RecognizeIngredients(ctx, frame)
	if err != nil {
		w.toIdle()
		return err
	}

	w.mu.Lock()
	w.review = items
	w.state = inbound.ScanStateReview
	w.mu.Unlock()

	w.logger.Info("Scan ready for review", zap.Int("items", len(items)))
	return nil
}

// Commit adds the reviewed items to the pantry verbatim. While still
// processing, or with an empty review list, the commit action is
// inert: it reports false without error and changes nothing.
func (w *Workflow) Commit(ctx context.Context) (bool, error) {
	w.mu.Lock()
	if w.state != inbound.ScanStateReview || len(w.review) == 0 {
		w.mu.Unlock()
		return false, nil
	}
	items := w.review
	w.mu.Unlock()

	if err := w.pantry.Add(ctx, items...); err != nil {
		return false, err
	}

	w.mu.Lock()
	w.state = inbound.ScanStateCommitted
	w.review = nil
	w.mu.Unlock()

	w.logger.Info("Committed scanned items to pantry", zap.Int("items", len(items)))
	return true, nil
}

// Cancel abandons the session from any state, releasing the capture
// device if it is held. No device handle survives cancellation.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	wasCapturing := w.state == inbound.ScanStateCapturing
	w.state = inbound.ScanStateIdle
	w.review = nil
	w.mu.Unlock()

	if wasCapturing {
		w.source.Release()
	}
}

// State returns the workflow's current state.
func (w *Workflow) State() inbound.ScanState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// ReviewItems returns a snapshot copy of the current review list.
func (w *Workflow) ReviewItems() []pantry.Ingredient {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]pantry.Ingredient, len(w.review))
	copy(out, w.review)
	return out
}

func (w *Workflow) toIdle() {
	w.mu.Lock()
	w.state = inbound.ScanStateIdle
	w.review = nil
	w.mu.Unlock()
}
