package search

// Deduplicate collapses results sharing an identity key, keeping the first
// occurrence. Inputs arrive ordered by score descending, so first-seen-wins
// keeps the highest-scoring instance. Results without any identity key pass
// through untouched. Idempotent: a second pass over its own output is a
// no-op in key terms.
func Deduplicate(results []Result) []Result {
	if len(results) <= 1 {
		return results
	}

	seen := make(map[string]struct{}, len(results))
	out := make([]Result, 0, len(results))

	for _, r := range results {
		key := r.IdentityKey()
		if key == "" {
			out = append(out, r)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}

	return out
}
