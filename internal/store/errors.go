package store

import "errors"

var (
	ErrMemoryNotAllowed = errors.New(":memory: path not available")
	ErrInit             = errors.New("failed to init")
)
