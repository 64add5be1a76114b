package overlap

import (
	"testing"

	"ga/readstore"
	"ga/seqid"
)

// TestChainOneTargetEmitsColinearChain exercises Phase 3-6 directly on
// a hand-built, perfectly colinear run of matches (constant curPos-extPos
// shift, no gaps), bypassing k-mer indexing entirely.
func TestChainOneTargetEmitsColinearChain(t *testing.T) {
	curID := seqid.FromRawID(0)
	extID := seqid.FromRawID(1)
	store := &fakeStore{reads: []readstore.Read{
		{ID: curID, Sequence: make([]byte, 1000)},
		{ID: extID, Sequence: make([]byte, 1000)},
	}}
	d := NewDetector(Config{
		MinOverlap:        500,
		MaxJump:           100,
		MaxOverhang:       1000,
		CheckOverhang:     false,
		OverlapDivergence: 1.0,
		KmerSize:          15,
	}, store, nil)

	var matches []kmerMatch
	for curPos := int32(0); curPos <= 900; curPos += 50 {
		matches = append(matches, kmerMatch{curPos: curPos, extPos: curPos + 10})
	}

	chains, chimeric := d.chainOneTarget(curID, 1000, extID, matches)
	if chimeric {
		t.Fatalf("a colinear chain between two distinct reads must not be flagged chimeric")
	}
	if len(chains) != 1 {
		t.Fatalf("chainOneTarget returned %d chains, want 1 for one uninterrupted colinear run", len(chains))
	}
	got := chains[0]
	if got.CurBegin != 0 || got.ExtBegin != 10 {
		t.Fatalf("chain begin = (%d,%d), want (0,10)", got.CurBegin, got.ExtBegin)
	}
	if got.CurRange() < 500 {
		t.Fatalf("CurRange() = %d, want >= MinOverlap(500)", got.CurRange())
	}
}

// TestChainOneTargetRejectsBelowMinOverlap exercises Phase 3's
// pre-filter: a shared region shorter than MinOverlap never reaches
// the DP at all.
func TestChainOneTargetRejectsBelowMinOverlap(t *testing.T) {
	curID := seqid.FromRawID(0)
	extID := seqid.FromRawID(1)
	store := &fakeStore{reads: []readstore.Read{
		{ID: curID, Sequence: make([]byte, 1000)},
		{ID: extID, Sequence: make([]byte, 1000)},
	}}
	d := NewDetector(Config{
		MinOverlap:        500,
		MaxJump:           100,
		MaxOverhang:       1000,
		CheckOverhang:     false,
		OverlapDivergence: 1.0,
		KmerSize:          15,
	}, store, nil)

	matches := []kmerMatch{
		{curPos: 0, extPos: 10},
		{curPos: 50, extPos: 60},
		{curPos: 100, extPos: 110}, // shared span only 100bp, well under MinOverlap
	}

	chains, _ := d.chainOneTarget(curID, 1000, extID, matches)
	if len(chains) != 0 {
		t.Fatalf("chainOneTarget returned %d chains, want 0 below MinOverlap", len(chains))
	}
}
