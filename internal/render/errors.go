package render

import (
	"errors"
	"fmt"
)

// ErrInvalidLayout is returned when a layout cannot be placed on a page at all.
var ErrInvalidLayout = errors.New("invalid layout")

// LayoutError describes a structurally invalid layout.
type LayoutError struct {
	LayoutID string
	Reason   string
}

func (e *LayoutError) Error() string {
	if e.LayoutID == "" {
		return fmt.Sprintf("invalid layout: %s", e.Reason)
	}
	return fmt.Sprintf("invalid layout %s: %s", e.LayoutID, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidLayout).
func (e *LayoutError) Unwrap() error {
	return ErrInvalidLayout
}
