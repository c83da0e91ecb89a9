package store

import "errors"

// ErrNotFound marks a lookup miss: a referenced hash, block, or machine id
// that does not exist. Fatal for single-machine tools; the pool runner
// catches it per machine and keeps going.
var ErrNotFound = errors.New("not found")
