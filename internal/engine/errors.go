package engine

import "errors"

// Citation construction errors.
var (
	// ErrEmptyContentHash is returned when a citation is built without a digest.
	ErrEmptyContentHash = errors.New("citation must have a content hash")
)
