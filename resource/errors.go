package resource

import "errors"

// ErrMemoryLimit is returned when a single reservation exceeds the memory limit.
var ErrMemoryLimit = errors.New("resource: reservation exceeds memory limit")
