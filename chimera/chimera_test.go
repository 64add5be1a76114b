package chimera

import (
	"testing"

	"ga/seqid"
)

type fakeSource struct {
	chimeric map[seqid.ReadID]bool
}

func (f *fakeSource) HasSelfOverlaps(id seqid.ReadID) bool { return f.chimeric[id] }

func TestIsChimericDelegates(t *testing.T) {
	a := seqid.FromRawID(0)
	b := seqid.FromRawID(1)
	src := &fakeSource{chimeric: map[seqid.ReadID]bool{a: true}}
	d := NewDetector(src)

	if !d.IsChimeric(a) {
		t.Fatalf("expected %v to be reported chimeric", a)
	}
	if d.IsChimeric(b) {
		t.Fatalf("expected %v to not be reported chimeric", b)
	}
}
