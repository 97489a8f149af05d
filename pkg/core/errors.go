package core

import "errors"

// Common errors.
var (
	ErrNotFound  = errors.New("post not found")
	ErrReadOnly  = errors.New("repository is in read-only mode")
	ErrStaleRead = errors.New("local vault is behind the requested session token")
)
