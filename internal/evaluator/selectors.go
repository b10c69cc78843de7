package evaluator

import "strings"

// combineSelectors nests a style rule's own selector list under its
// enclosing selector list, the way Sass flattens "a { b { ... } }" into
// "a b { ... }". An explicit "&" in the child selector is substituted with
// the parent compound instead of prefixing it, so "a { &:hover { } }"
// becomes "a:hover" rather than "a &:hover".
func combineSelectors(parents, children []string) []string {
	if len(parents) == 0 {
		return children
	}
	out := make([]string, 0, len(parents)*len(children))
	for _, child := range children {
		if strings.Contains(child, "&") {
			for _, parent := range parents {
				out = append(out, strings.ReplaceAll(child, "&", parent))
			}
			continue
		}
		for _, parent := range parents {
			out = append(out, parent+" "+child)
		}
	}
	return out
}
