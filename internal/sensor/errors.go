package sensor

import "errors"

// ErrUnavailable reports that an input channel could not be read.
var ErrUnavailable = errors.New("input signal unavailable")
