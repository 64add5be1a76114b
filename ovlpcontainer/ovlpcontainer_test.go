package ovlpcontainer

import (
	"testing"

	"ga/overlap"
	"ga/seqid"
)

func TestFilterOneSeqClustersNearDuplicates(t *testing.T) {
	target := seqid.FromRawID(5)
	base := overlap.Range{
		ExtID: target,
		CurBegin: 100, CurEnd: 900,
		ExtBegin: 50, ExtEnd: 850,
		Score: 700,
	}
	nearDup := base
	nearDup.CurBegin, nearDup.CurEnd = 110, 905 // a few bases off, same physical overlap
	nearDup.ExtBegin, nearDup.ExtEnd = 60, 855
	nearDup.Score = 690

	unrelated := overlap.Range{
		ExtID: seqid.FromRawID(6),
		CurBegin: 1200, CurEnd: 1900,
		ExtBegin: 10, ExtEnd: 700,
		Score: 500,
	}

	out := filterOneSeq([]overlap.Range{base, nearDup, unrelated})
	if len(out) != 2 {
		t.Fatalf("expected the two near-duplicate overlaps to collapse into one, got %d results: %+v", len(out), out)
	}

	var keptAgainstTarget overlap.Range
	found := false
	for _, o := range out {
		if o.ExtID == target {
			keptAgainstTarget = o
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a surviving overlap against %v", target)
	}
	if keptAgainstTarget.Score != 700 {
		t.Fatalf("filterOneSeq should keep the higher-scoring member of a cluster, got score %d", keptAgainstTarget.Score)
	}
}

func TestFilterOneSeqKeepsDistinctTargets(t *testing.T) {
	a := overlap.Range{ExtID: seqid.FromRawID(1), CurBegin: 0, CurEnd: 500, ExtBegin: 0, ExtEnd: 500, Score: 400}
	b := overlap.Range{ExtID: seqid.FromRawID(2), CurBegin: 400, CurEnd: 900, ExtBegin: 0, ExtEnd: 500, Score: 400}
	out := filterOneSeq([]overlap.Range{a, b})
	if len(out) != 2 {
		t.Fatalf("overlaps against distinct targets must not be merged, got %d", len(out))
	}
}

func TestStoreOverlapsLockedIsSymmetric(t *testing.T) {
	cur := seqid.FromRawID(0)
	ext := seqid.FromRawID(1)
	ovlp := overlap.Range{
		CurID: cur, ExtID: ext,
		CurBegin: 100, CurEnd: 600, CurLen: 1000,
		ExtBegin: 50, ExtEnd: 550, ExtLen: 900,
	}

	c := &Container{
		overlapIndex:      make(map[seqid.ReadID][]overlap.Range),
		cached:            make(map[seqid.ReadID]bool),
		suggestedChimeras: make(map[seqid.ReadID]bool),
	}
	c.storeOverlapsLocked([]overlap.Range{ovlp}, cur)

	if len(c.overlapIndex[cur]) != 1 {
		t.Fatalf("expected 1 overlap posted under the query id, got %d", len(c.overlapIndex[cur]))
	}
	if len(c.overlapIndex[ext]) != 1 {
		t.Fatalf("expected the symmetric overlap posted under the target id, got %d", len(c.overlapIndex[ext]))
	}
	if c.overlapIndex[ext][0].ExtID != cur {
		t.Fatalf("the target-side view should point back at the query, got ExtID=%v", c.overlapIndex[ext][0].ExtID)
	}
	if !c.cached[cur] || !c.cached[cur.RC()] {
		t.Fatalf("storeOverlapsLocked must mark both strands cached")
	}
}

func TestDSUUnionFind(t *testing.T) {
	d := newDSU(5)
	d.union(0, 1)
	d.union(1, 2)
	if d.find(0) != d.find(2) {
		t.Fatalf("0 and 2 should be in the same set after union(0,1), union(1,2)")
	}
	if d.find(3) == d.find(0) {
		t.Fatalf("3 should remain in its own set")
	}
}
