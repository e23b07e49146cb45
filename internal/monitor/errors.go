package monitor

import "errors"

// ErrPersistentStorageFailure ends Run once writes have failed for
// storage.max_write_failures consecutive ticks.
var ErrPersistentStorageFailure = errors.New("persistent storage failure")
