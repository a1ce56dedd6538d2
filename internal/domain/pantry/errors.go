package pantry

import "errors"

// Domain errors for pantry ingredients
var (
	ErrEmptyName       = errors.New("ingredient name must not be empty")
	ErrInvalidCategory = errors.New("ingredient category is not one of the known categories")
)
