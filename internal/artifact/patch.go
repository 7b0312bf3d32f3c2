package artifact

// PatchMissing adds every node of baseline whose id is absent from current at
// the same level, recursing into folders present in both. Nodes already in
// current are never overwritten, so user edits to a stored library survive.
func PatchMissing(current, baseline Tree) Tree {
	out, _ := patchLevel(current, baseline)
	return out
}

func patchLevel(current, baseline []*Node) ([]*Node, bool) {
	changed := false
	out := current
	index := make(map[string]int, len(current))
	for i, n := range current {
		if n != nil {
			index[n.ID] = i
		}
	}
	for _, base := range baseline {
		if base == nil {
			continue
		}
		i, ok := index[base.ID]
		if !ok {
			if !changed {
				out = copyNodes(current)
				changed = true
			}
			out = append(out, cloneNode(base))
			continue
		}
		existing := out[i]
		if !base.IsFolder() || !existing.IsFolder() {
			continue
		}
		kids, ok := patchLevel(existing.Children, base.Children)
		if !ok {
			continue
		}
		if !changed {
			out = copyNodes(current)
			changed = true
		}
		cp := *existing
		cp.Children = kids
		out[i] = &cp
	}
	return out, changed
}
