package config

import "errors"

// ErrInvalid indicates a configuration value that failed validation
// (malformed office hours, out-of-range thresholds, unknown backend).
var ErrInvalid = errors.New("invalid configuration")
