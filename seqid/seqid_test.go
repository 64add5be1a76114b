package seqid

import "testing"

func TestRCInvolution(t *testing.T) {
	id := FromRawID(3)
	rc := id.RC()
	if rc.RC() != id {
		t.Fatalf("rc(rc(id)) = %v, want %v", rc.RC(), id)
	}
	if rc == id {
		t.Fatalf("rc(id) == id for id = %v", id)
	}
}

func TestRawIDSharedBetweenStrands(t *testing.T) {
	id := FromRawID(7)
	if id.RawID() != id.RC().RawID() {
		t.Fatalf("RawID differs between strands: %d vs %d", id.RawID(), id.RC().RawID())
	}
}

func TestStrand(t *testing.T) {
	id := FromRawID(0)
	if !id.Strand() {
		t.Fatalf("forward id should report Strand() == true")
	}
	if id.RC().Strand() {
		t.Fatalf("reverse-complement id should report Strand() == false")
	}
}

func TestNoneID(t *testing.T) {
	if NoneID.Valid() {
		t.Fatalf("NoneID must not be Valid()")
	}
	if FromRawID(0).Valid() == false {
		t.Fatalf("a real id must be Valid()")
	}
}
