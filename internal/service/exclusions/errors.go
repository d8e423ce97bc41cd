package exclusions

import "errors"

// Sentinel errors for the exclusions service layer.
var (
	ErrNotFound = errors.New("module not excluded")
)
