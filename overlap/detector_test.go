package overlap

import (
	"testing"

	"ga/kmeridx"
	"ga/readstore"
	"ga/seqid"
)

type fakeStore struct {
	reads []readstore.Read
}

func (s *fakeStore) GetRecord(id seqid.ReadID) readstore.Read { return s.reads[id.RawID()] }
func (s *fakeStore) IterSeqs() []readstore.Read               { return s.reads }
func (s *fakeStore) SeqLen(id seqid.ReadID) int32 {
	return int32(len(s.reads[id.RawID()].Sequence))
}
func (s *fakeStore) GetMaxSeqID() int32 { return int32(len(s.reads)) }
func (s *fakeStore) GetIndex() map[seqid.ReadID]readstore.Read {
	idx := make(map[seqid.ReadID]readstore.Read)
	for _, r := range s.reads {
		idx[r.ID] = r
	}
	return idx
}
func (s *fakeStore) Sequence(id seqid.ReadID) []byte { return s.reads[id.RawID()].Sequence }

// repeatSeq builds a long pseudo-random (but deterministic) ACGT
// sequence of length n from a fixed-seed linear congruential
// generator, so the sequence is non-periodic and every kmerSize window
// is likely unique within it.
func repeatSeq(n int) []byte {
	const bases = "ACGT"
	out := make([]byte, n)
	state := uint32(12345)
	for i := range out {
		state = state*1103515245 + 12345
		out[i] = bases[(state>>16)&3]
	}
	return out
}

func buildOverlappingPair(t *testing.T) (*fakeStore, *kmeridx.Index) {
	t.Helper()
	full := repeatSeq(2000)
	readA := readstore.Read{ID: seqid.FromRawID(0), Sequence: full[0:1500]}
	readB := readstore.Read{ID: seqid.FromRawID(1), Sequence: full[500:2000]}
	store := &fakeStore{reads: []readstore.Read{readA, readB}}
	idx := kmeridx.New(store, 15, 1, 1000)
	return store, idx
}

func TestGetSeqOverlapsFindsSharedRegion(t *testing.T) {
	store, idx := buildOverlappingPair(t)
	detector := NewDetector(Config{
		MinOverlap:        500,
		MaxJump:           100,
		MaxOverhang:       2000,
		CheckOverhang:     false,
		OverlapDivergence: 0.5,
		KmerSize:          15,
	}, store, idx)

	overlaps, _ := detector.GetSeqOverlaps(store.reads[0], false)
	if len(overlaps) == 0 {
		t.Fatalf("expected at least one overlap between two reads sharing 1000bp")
	}
	o := overlaps[0]
	if o.ExtID != store.reads[1].ID {
		t.Fatalf("overlap target = %v, want %v", o.ExtID, store.reads[1].ID)
	}
	if o.CurRange() < 500 {
		t.Fatalf("CurRange() = %d, want >= MinOverlap(500)", o.CurRange())
	}
}

func TestGetSeqOverlapsRejectsBelowMinOverlap(t *testing.T) {
	store, idx := buildOverlappingPair(t)
	detector := NewDetector(Config{
		MinOverlap:        1900, // longer than the actual ~1000bp shared region
		MaxJump:           100,
		MaxOverhang:       2000,
		OverlapDivergence: 0.5,
		KmerSize:          15,
	}, store, idx)

	overlaps, _ := detector.GetSeqOverlaps(store.reads[0], false)
	if len(overlaps) != 0 {
		t.Fatalf("expected no overlaps once MinOverlap exceeds the shared region, got %d", len(overlaps))
	}
}
