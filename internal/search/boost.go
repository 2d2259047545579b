package search

// defaultFilterBoost is the score increment per matching filter dimension
// when configuration supplies none.
const defaultFilterBoost = 0.1

// BoostByFilters raises each result's score by a fixed increment per filter
// dimension the payload matches: problem_type equality, any printer model
// overlap, any material overlap. Increments are independently additive and
// the final score is clamped to 1.0. BoostApplied records the total raise
// for observability. Runs before deduplication-pass-two and reranking.
func BoostByFilters(results []Result, filters Filters, boost float64) []Result {
	if filters.IsEmpty() {
		return results
	}
	if boost <= 0 {
		boost = defaultFilterBoost
	}

	boosted := make([]Result, len(results))
	for i, r := range results {
		applied := 0.0

		if filters.ProblemType != "" && r.Payload.ProblemType == filters.ProblemType {
			applied += boost
		}
		if overlaps(r.Payload.PrinterModels, filters.PrinterModels) {
			applied += boost
		}
		if overlaps(r.Payload.Materials, filters.Materials) {
			applied += boost
		}

		r.Score += applied
		if r.Score > 1.0 {
			r.Score = 1.0
		}
		r.BoostApplied = applied
		boosted[i] = r
	}

	return boosted
}

func overlaps(have, want []string) bool {
	if len(have) == 0 || len(want) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(have))
	for _, v := range have {
		set[v] = struct{}{}
	}
	for _, v := range want {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
