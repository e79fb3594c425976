package audit

import "sort"

// Keyed is a set member that can be compared by a normalized key. Role
// assignments use role|scope so that IDs and timestamps do not count as change.
type Keyed interface {
	DiffKey() string
}

// SetDiff is the breakdown of a set-valued mutation.
type SetDiff struct {
	Added     []Keyed
	Removed   []Keyed
	Unchanged []Keyed
}

// Empty reports whether the mutation changed nothing: no members added and
// none removed.
func (d SetDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffSets compares two sets by normalized key. Members of after missing from
// before are Added, members of before missing from after are Removed, and the
// intersection is Unchanged. Output slices are ordered by key so records are
// deterministic.
func DiffSets(before, after []Keyed) SetDiff {
	beforeByKey := make(map[string]Keyed, len(before))
	for _, item := range before {
		beforeByKey[item.DiffKey()] = item
	}
	afterByKey := make(map[string]Keyed, len(after))
	for _, item := range after {
		afterByKey[item.DiffKey()] = item
	}

	var d SetDiff
	for key, item := range afterByKey {
		if _, ok := beforeByKey[key]; ok {
			d.Unchanged = append(d.Unchanged, item)
		} else {
			d.Added = append(d.Added, item)
		}
	}
	for key, item := range beforeByKey {
		if _, ok := afterByKey[key]; !ok {
			d.Removed = append(d.Removed, item)
		}
	}
	sortByKey(d.Added)
	sortByKey(d.Removed)
	sortByKey(d.Unchanged)
	return d
}

func sortByKey(items []Keyed) {
	sort.Slice(items, func(i, j int) bool { return items[i].DiffKey() < items[j].DiffKey() })
}
