package highlight

// Patch is the minimal update that moves a renderer from the previous
// frame's highlight set to the current one. Ids appear in unspecified order.
type Patch struct {
	// Added holds ids that became active this frame.
	Added []string

	// Removed holds ids that stopped being active this frame.
	Removed []string

	// Unchanged is true when the frame needs no rendering work at all.
	Unchanged bool
}

// NewIDSet builds a membership set from a slice of ids. Duplicates collapse.
func NewIDSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}

// Diff computes the patch that transforms the previous highlight set into
// the current one. previous is the id set remembered from the last rendered
// frame; current is a raw query result and may contain duplicates, which
// contribute a single Added entry. Both inputs are read-only; nil stands
// for empty.
func Diff(previous map[string]struct{}, current []string) Patch {
	// Silence between notes is the common steady state. Skip the set
	// machinery entirely when both sides are empty.
	if len(previous) == 0 && len(current) == 0 {
		return Patch{Unchanged: true}
	}

	currentSet := NewIDSet(current)

	var added, removed []string

	for id := range currentSet {
		if _, ok := previous[id]; !ok {
			added = append(added, id)
		}
	}

	for id := range previous {
		if _, ok := currentSet[id]; !ok {
			removed = append(removed, id)
		}
	}

	return Patch{
		Added:     added,
		Removed:   removed,
		Unchanged: len(added) == 0 && len(removed) == 0,
	}
}
