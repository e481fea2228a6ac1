// Package storage provides the persistence backends for rules,
// corrections, the learning profile, and emitted classifications.
package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")
