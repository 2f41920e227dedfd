package partition

import (
	"errors"
	"fmt"
)

// ErrInsufficientSamples is matched by every InsufficientSamplesError
var ErrInsufficientSamples = errors.New("insufficient samples for stratification")

// InsufficientSamplesError reports a stratification class too small for a split stage
type InsufficientSamplesError struct {
	Stage    string
	Class    string
	Count    int
	Required int
}

func (e *InsufficientSamplesError) Error() string {
	return fmt.Sprintf("insufficient samples for stratification class %q in %s: have %d, need %d",
		e.Class, e.Stage, e.Count, e.Required)
}

func (e *InsufficientSamplesError) Unwrap() error {
	return ErrInsufficientSamples
}
