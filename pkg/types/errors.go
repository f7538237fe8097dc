package types

import "errors"

// Domain errors for section validation
var (
	ErrInvalidLevel           = errors.New("header level must be >= 1")
	ErrMetadataNotInitialized = errors.New("section metadata is not initialized")
)
