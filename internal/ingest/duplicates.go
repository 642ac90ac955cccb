package ingest

import "sort"

// MergeDuplicateGroups unions groups that share a posting ID. Postings
// duplicate each other by canonical link or by content signature, and a
// posting matching different neighbors on each criterion bridges the two
// groups into one. IDs come back ascending and deduplicated, groups ordered
// by their smallest ID, each keeping the key of the first input group that
// contains that smallest ID.
func MergeDuplicateGroups(groups []DuplicateGroup) []DuplicateGroup {
	parent := make(map[int64]int64)
	var find func(int64) int64
	find = func(id int64) int64 {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}

	for _, g := range groups {
		if len(g.IDs) == 0 {
			continue
		}
		for _, id := range g.IDs {
			if _, ok := parent[id]; !ok {
				parent[id] = id
			}
		}
		for _, id := range g.IDs[1:] {
			ra, rb := find(g.IDs[0]), find(id)
			if ra == rb {
				continue
			}
			// smaller ID wins the root so the oldest posting leads the group
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}

	members := make(map[int64][]int64)
	for id := range parent {
		root := find(id)
		members[root] = append(members[root], id)
	}

	keys := make(map[int64]string)
	for _, g := range groups {
		if len(g.IDs) == 0 {
			continue
		}
		root := find(g.IDs[0])
		if _, ok := keys[root]; ok {
			continue
		}
		for _, id := range g.IDs {
			if id == root {
				keys[root] = g.Key
				break
			}
		}
	}

	merged := make([]DuplicateGroup, 0, len(members))
	for root, ids := range members {
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		merged = append(merged, DuplicateGroup{Key: keys[root], IDs: ids})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].IDs[0] < merged[j].IDs[0] })
	return merged
}
