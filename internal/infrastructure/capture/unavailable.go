// Package capture provides frame source adapters. Server deployments
// have no camera attached; clients capture on-device and post frames
// through the scan submission endpoint instead.
package capture

import (
	"context"

	"github.com/spicesync/spicesync/internal/ports/outbound"
)

// Unavailable is a FrameSource with no device behind it. Acquire
// always reports denial, which the workflow surfaces like any other
// refused camera permission.
type Unavailable struct{}

// NewUnavailable returns the no-device frame source.
func NewUnavailable() *Unavailable {
	return &Unavailable{}
}

func (Unavailable) Acquire(ctx context.Context) error {
	return outbound.ErrCaptureDenied
}

func (Unavailable) Still(ctx context.Context) (outbound.Frame, error) {
	return outbound.Frame{}, outbound.ErrCaptureDenied
}

func (Unavailable) Release() {}
