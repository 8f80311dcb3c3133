package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the message id is unknown or has no stored embedding
	ErrNotFound = errors.New("not found")
	// ErrProvider means an embedding or generation collaborator failed
	ErrProvider = errors.New("provider error")
	// ErrValidation means the question was malformed or empty
	ErrValidation = errors.New("validation error")
)

// providerError wraps a collaborator failure so callers can match ErrProvider
func providerError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrProvider, op, err)
}
