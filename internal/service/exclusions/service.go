package exclusions

import (
	"context"
	"sort"
	"strings"
)

// Service implements excluded-module business logic. All methods perform a
// single read-modify-write cycle against the store; a race between two
// concurrent administrators is last-writer-wins.
type Service struct {
	store Store
}

// NewService creates an exclusions service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the current excluded module names, sorted.
func (s *Service) List(ctx context.Context) ([]string, error) {
	modules, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(modules)
	return modules, nil
}

// Exclude adds the given module names to the excluded set. Duplicates
// collapse and blank names are ignored, so repeated exclusion of the same
// module is idempotent.
func (s *Service) Exclude(ctx context.Context, names ...string) error {
	current, err := s.store.Get(ctx)
	if err != nil {
		return err
	}

	set := make(map[string]struct{}, len(current)+len(names))
	for _, m := range current {
		set[m] = struct{}{}
	}
	added := false
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := set[n]; !ok {
			set[n] = struct{}{}
			added = true
		}
	}
	if !added {
		return nil
	}

	return s.store.Set(ctx, setToSlice(set))
}

// Remove deletes a module name from the excluded set and persists the
// shrunken set. Returns ErrNotFound if the name is not excluded.
func (s *Service) Remove(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	current, err := s.store.Get(ctx)
	if err != nil {
		return err
	}

	kept := current[:0]
	found := false
	for _, m := range current {
		if m == name && name != "" {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return ErrNotFound
	}

	return s.store.Set(ctx, kept)
}

// IsExcluded reports whether a module name is on the excluded set.
func (s *Service) IsExcluded(ctx context.Context, name string) (bool, error) {
	current, err := s.store.Get(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range current {
		if m == name {
			return true, nil
		}
	}
	return false, nil
}

// Clear deletes the persisted set entirely. Called at module uninstall so
// no orphaned configuration remains. Idempotent.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.Delete(ctx)
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
