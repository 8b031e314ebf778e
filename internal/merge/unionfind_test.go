package merge

import (
	"testing"

	"corral/internal/record"
)

func ref(source, external string) record.Ref {
	return record.Ref{SourceID: source, ExternalID: external}
}

func TestUnionFindTransitiveCluster(t *testing.T) {
	ds := NewDisjointSet()
	a, b, c := ref("alpha", "1"), ref("beta", "2"), ref("gamma", "3")

	// A-B and B-C linked; A-C never directly compared.
	ds.Union(a, b)
	ds.Union(b, c)

	clusters := ds.Clusters()
	if len(clusters) != 1 {
		t.Fatalf("expected one cluster, got %d", len(clusters))
	}
	if len(clusters[0]) != 3 {
		t.Fatalf("expected all three members, got %v", clusters[0])
	}
	if ds.Find(a) != ds.Find(c) {
		t.Fatal("a and c should share a representative")
	}
}

func TestUnionFindSingletonsExcluded(t *testing.T) {
	ds := NewDisjointSet()
	ds.Find(ref("alpha", "1")) // singleton
	ds.Union(ref("beta", "2"), ref("gamma", "3"))

	clusters := ds.Clusters()
	if len(clusters) != 1 || len(clusters[0]) != 2 {
		t.Fatalf("expected one two-member cluster, got %v", clusters)
	}
}

func TestUnionFindDeterministicClusters(t *testing.T) {
	build := func(order []([2]record.Ref)) [][]record.Ref {
		ds := NewDisjointSet()
		for _, pair := range order {
			ds.Union(pair[0], pair[1])
		}
		return ds.Clusters()
	}

	a, b, c, d := ref("a", "1"), ref("b", "2"), ref("c", "3"), ref("d", "4")
	first := build([][2]record.Ref{{a, b}, {c, d}})
	second := build([][2]record.Ref{{c, d}, {b, a}})

	if len(first) != len(second) {
		t.Fatalf("cluster counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if len(first[i]) != len(second[i]) {
			t.Fatalf("cluster %d sizes differ", i)
		}
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("cluster order differs at %d/%d", i, j)
			}
		}
	}
}
