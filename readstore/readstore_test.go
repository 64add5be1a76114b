package readstore

import (
	"os"
	"path/filepath"
	"testing"

	"ga/seqid"
)

func TestReverseComplement(t *testing.T) {
	got := string(ReverseComplement([]byte("ACGTN")))
	want := "NACGT"
	if got != want {
		t.Fatalf("ReverseComplement(ACGTN) = %s, want %s", got, want)
	}
}

func writeFasta(t *testing.T, records map[string]string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "reads.fa")
	f, err := os.Create(fn)
	if err != nil {
		t.Fatalf("create temp fasta: %v", err)
	}
	defer f.Close()
	for name, seq := range records {
		if _, err := f.WriteString(">" + name + "\n" + seq + "\n"); err != nil {
			t.Fatalf("write temp fasta: %v", err)
		}
	}
	return fn
}

func TestNewFastaStoreLoadsReads(t *testing.T) {
	fn := writeFasta(t, map[string]string{"read1": "ACGTACGTACGT"})
	store := NewFastaStore(fn)

	if store.GetMaxSeqID() != 1 {
		t.Fatalf("GetMaxSeqID() = %d, want 1", store.GetMaxSeqID())
	}
	id := seqid.FromRawID(0)
	if store.SeqLen(id) != 12 {
		t.Fatalf("SeqLen() = %d, want 12", store.SeqLen(id))
	}
	if string(store.Sequence(id)) != "ACGTACGTACGT" {
		t.Fatalf("Sequence(fwd) = %s, want ACGTACGTACGT", store.Sequence(id))
	}
	if string(store.Sequence(id.RC())) != "ACGTACGTACGT" {
		// palindromic sequence under RC by construction of the test input
		t.Fatalf("Sequence(rc) unexpectedly differs for a palindromic test read")
	}
}
