package storage

import "errors"

// ErrNotFound is returned when the requested member or post does not exist.
var ErrNotFound = errors.New("not found")
