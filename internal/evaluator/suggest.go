package evaluator

import "github.com/agext/levenshtein"

// suggestTypoThreshold mirrors internal/css_ast's property-name typo
// threshold, applied here to variable/mixin/function names instead of
// CSS declarations.
const suggestTypoThreshold = 3

// suggestName looks for the candidate closest to name within edit
// distance suggestTypoThreshold, for "did you mean" hints on an
// undefined variable, mixin, or function.
func suggestName(name string, candidates []string) (string, bool) {
	best := ""
	bestDistance := suggestTypoThreshold + 1
	for _, candidate := range candidates {
		d := levenshtein.Distance(name, candidate, nil)
		if d < bestDistance {
			bestDistance = d
			best = candidate
		}
	}
	if best == "" || bestDistance > suggestTypoThreshold {
		return "", false
	}
	return best, true
}
