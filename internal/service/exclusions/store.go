package exclusions

import "context"

// ConfigKey is the configuration key the excluded-module set is persisted
// under, whatever the backend.
const ConfigKey = "forget_me_not_excluded_modules"

// Store defines the persistence contract for the excluded-module set.
// The whole set lives under a single configuration key; Set replaces it
// wholesale, so callers see the replace as atomic.
type Store interface {
	// Get returns the current excluded module names. A never-set key
	// yields an empty slice, not an error.
	Get(ctx context.Context) ([]string, error)

	// Set persists the given names, replacing prior contents.
	Set(ctx context.Context, modules []string) error

	// Delete removes the persisted set entirely. Deleting an absent
	// value is not an error (idempotent, used at uninstall).
	Delete(ctx context.Context) error
}
