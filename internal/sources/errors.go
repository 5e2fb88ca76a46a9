package sources

import "errors"

// ErrNotFound reports that the upstream has no record for the requested key.
var ErrNotFound = errors.New("source record not found")
