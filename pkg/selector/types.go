package selector

import "slices"

// possibleTypes computes the node types that can satisfy m. bounded is false
// when any node type might match.
func possibleTypes(m matcher) (types []string, bounded bool) {
	switch m := m.(type) {
	case *identifier:
		return []string{m.name}, true

	case *matchesSel:
		var out []string
		for _, s := range m.selectors {
			t, ok := possibleTypes(s)
			if !ok {
				return nil, false
			}
			out = union(out, t)
		}
		return out, true

	case *compound:
		var out []string
		unbounded := true
		for _, s := range m.selectors {
			t, ok := possibleTypes(s)
			if !ok {
				continue
			}
			if unbounded {
				out, unbounded = union(nil, t), false
				continue
			}
			out = intersect(out, t)
		}
		if unbounded {
			return nil, false
		}
		return out, true

	case *combinator:
		return possibleTypes(m.right)

	case *class:
		if m.name == "function" {
			return slices.Clone(FunctionTypes), true
		}
	}
	return nil, false
}

func union(a, b []string) []string {
	for _, t := range b {
		if !slices.Contains(a, t) {
			a = append(a, t)
		}
	}
	return a
}

func intersect(a, b []string) []string {
	out := []string{}
	for _, t := range a {
		if slices.Contains(b, t) {
			out = append(out, t)
		}
	}
	return out
}
