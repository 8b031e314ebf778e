package merge

import (
	"sort"

	"corral/internal/record"
)

// DisjointSet is a union-find structure over record references with path
// compression and union by rank. It implements the transitive grouping rule:
// if A matches B and B matches C, all three belong to one cluster.
type DisjointSet struct {
	parent map[record.Ref]record.Ref
	rank   map[record.Ref]int
}

// NewDisjointSet returns an empty disjoint-set.
func NewDisjointSet() *DisjointSet {
	return &DisjointSet{
		parent: make(map[record.Ref]record.Ref),
		rank:   make(map[record.Ref]int),
	}
}

// Find returns the representative for ref, adding it as a singleton when
// unseen. Paths are compressed on the way up.
func (d *DisjointSet) Find(ref record.Ref) record.Ref {
	parent, ok := d.parent[ref]
	if !ok {
		d.parent[ref] = ref
		return ref
	}
	if parent == ref {
		return ref
	}
	root := d.Find(parent)
	d.parent[ref] = root
	return root
}

// Union links the sets containing a and b.
func (d *DisjointSet) Union(a, b record.Ref) {
	rootA, rootB := d.Find(a), d.Find(b)
	if rootA == rootB {
		return
	}
	if d.rank[rootA] < d.rank[rootB] {
		rootA, rootB = rootB, rootA
	}
	d.parent[rootB] = rootA
	if d.rank[rootA] == d.rank[rootB] {
		d.rank[rootA]++
	}
}

// Clusters returns every set with at least two members, each sorted, with
// the cluster list itself ordered by its first member for determinism.
func (d *DisjointSet) Clusters() [][]record.Ref {
	groups := make(map[record.Ref][]record.Ref)
	for ref := range d.parent {
		root := d.Find(ref)
		groups[root] = append(groups[root], ref)
	}

	clusters := make([][]record.Ref, 0, len(groups))
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Less(members[j]) })
		clusters = append(clusters, members)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i][0].Less(clusters[j][0]) })
	return clusters
}
