package lookup

import (
	"github.com/nucleobio/loadpulses/cmpfile"
	"github.com/nucleobio/loadpulses/errs"
)

// Group is one contiguous run of entries sharing a (ref-group, read-group)
// key. Lookup tables arrive already sorted by that key, by property
// of the archive's own alignment indexing, so grouping is a single linear
// partition pass.
type Group struct {
	Key     cmpfile.GroupKey
	Entries []Entry
}

// GroupByRefReadGroup partitions entries into contiguous (ref-group,
// read-group) runs, asserting that no key repeats across non-adjacent runs.
func GroupByRefReadGroup(entries []Entry) ([]Group, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	var groups []Group
	seen := map[cmpfile.GroupKey]bool{}

	start := 0
	cur := entries[0].Group()
	for i := 1; i <= len(entries); i++ {
		if i < len(entries) && entries[i].Group() == cur {
			continue
		}
		if seen[cur] {
			return nil, errs.New(errs.Integrity,
				"(ref-group %d, read-group %d) appears in more than one run of the lookup table",
				cur.RefGroupIndex, cur.ReadGroupIndex)
		}
		seen[cur] = true
		groups = append(groups, Group{Key: cur, Entries: entries[start:i]})
		if i < len(entries) {
			start = i
			cur = entries[i].Group()
		}
	}
	return groups, nil
}
