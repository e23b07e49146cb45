package repository

import "errors"

// ErrWriteFailed wraps every failure to durably store a daily log.
var ErrWriteFailed = errors.New("daily log write failed")
