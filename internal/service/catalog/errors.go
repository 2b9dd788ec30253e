package catalog

import "errors"

// ErrUnavailable marks a failed catalog read. Callers must surface it
// instead of treating the result as an empty catalog.
var ErrUnavailable = errors.New("hall catalog unavailable")
