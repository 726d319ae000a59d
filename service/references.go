package service

import "regexp"

// clauseRefPattern matches dotted numeric ids with at least one dot, e.g. 2.5.3
var clauseRefPattern = regexp.MustCompile(`\b\d+(?:\.\d+)+\b`)

// ExtractClauseRefs returns the distinct clause ids literally present in text,
// in order of first appearance
func ExtractClauseRefs(text string) []string {
	found := clauseRefPattern.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(found))
	refs := make([]string, 0, len(found))
	for _, id := range found {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, id)
	}
	return refs
}
