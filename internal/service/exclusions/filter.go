package exclusions

// Apply removes every candidate whose key is in the excluded list and
// returns the rest as a fresh map. The input is never mutated or aliased,
// so callers may modify the result freely. Excluded names that no longer
// correspond to any candidate are silently skipped; with a disjoint
// excluded set the result equals the input.
func Apply[T any](excluded []string, candidates map[string]T) map[string]T {
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	out := make(map[string]T, len(candidates))
	for name, c := range candidates {
		if _, ok := skip[name]; ok {
			continue
		}
		out[name] = c
	}
	return out
}
