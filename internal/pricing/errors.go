package pricing

import "errors"

// ErrInvalidSpan marks an agent vacation whose end is not after its start.
// It is a data-quality signal, never a reason to abort a quote.
var ErrInvalidSpan = errors.New("vacation end must be after its start")
