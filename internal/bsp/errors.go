package bsp

import "errors"

// ErrInvalidSize is returned for worlds with fewer than one worker.
var ErrInvalidSize = errors.New("bsp: world size must be positive")
