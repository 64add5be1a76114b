// Package readstore loads long reads and serves them to the overlap
// detector, the same way constructcf/preprocess load NGS reads for
// the rest of the ga pipeline -- but here via biogo's FASTA reader,
// matching mapDBG.GetRawReads.
package readstore

import (
	"io"
	"log"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"ga/seqid"
)

// Read is a single long read: its id, free-text description and raw
// forward-strand bases.
type Read struct {
	ID          seqid.ReadID
	Description string
	Sequence    []byte
}

// Store is the external collaborator spec.md calls "ReadStore":
// GetRecord, IterSeqs, SeqLen, GetMaxSeqID, GetIndex.
type Store interface {
	GetRecord(id seqid.ReadID) Read
	IterSeqs() []Read
	SeqLen(id seqid.ReadID) int32
	GetMaxSeqID() int32
	GetIndex() map[seqid.ReadID]Read
	// Sequence returns the bases of id oriented on its own strand:
	// the raw forward bases for a positive id, their reverse
	// complement for a negative one.
	Sequence(id seqid.ReadID) []byte
}

// FastaStore is the default, file-backed Store implementation. Reads
// are loaded once at construction and are immutable thereafter (spec
// "Lifecycle").
type FastaStore struct {
	reads []Read // indexed by RawID
}

var complement = buildComplementTable()

func buildComplementTable() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	pairs := map[byte]byte{
		'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C',
		'a': 't', 't': 'a', 'c': 'g', 'g': 'c',
		'N': 'N', 'n': 'n',
	}
	for k, v := range pairs {
		t[k] = v
	}
	return t
}

// ReverseComplement returns the reverse complement of s.
func ReverseComplement(s []byte) []byte {
	out := make([]byte, len(s))
	n := len(s)
	for i, b := range s {
		out[n-1-i] = complement[b]
	}
	return out
}

// NewFastaStore loads every read in fn, an uncompressed FASTA file
// (.gz/.br input is not decoded here; callers decompress it first),
// and assigns dense 1-based ids in file order.
func NewFastaStore(fn string) *FastaStore {
	f, err := os.Open(fn)
	if err != nil {
		log.Fatalf("[NewFastaStore] open %s failed, err: %v\n", fn, err)
	}
	defer f.Close()

	rs := &FastaStore{}
	reader := fasta.NewReader(f, linear.NewSeq("", nil, alphabet.DNA))
	rawID := 0
	for {
		s, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			log.Fatalf("[NewFastaStore] read %s failed, err: %v\n", fn, err)
		}
		l := s.(*linear.Seq)
		seq := make([]byte, len(l.Seq))
		for i, v := range l.Seq {
			seq[i] = byte(v)
		}
		rawID++
		rs.reads = append(rs.reads, Read{
			ID:          seqid.FromRawID(rawID - 1),
			Description: l.Name(),
			Sequence:    seq,
		})
	}
	if len(rs.reads) == 0 {
		log.Fatalf("[NewFastaStore] no reads loaded from %s\n", fn)
	}
	return rs
}

// GetRecord returns id's record oriented on its own strand, the same
// way Sequence does: a negative id comes back reverse-complemented,
// with ID left set to the id actually requested.
func (rs *FastaStore) GetRecord(id seqid.ReadID) Read {
	r := rs.reads[id.RawID()]
	if id.Strand() {
		return r
	}
	return Read{
		ID:          id,
		Description: r.Description,
		Sequence:    ReverseComplement(r.Sequence),
	}
}

func (rs *FastaStore) IterSeqs() []Read {
	return rs.reads
}

func (rs *FastaStore) SeqLen(id seqid.ReadID) int32 {
	return int32(len(rs.reads[id.RawID()].Sequence))
}

func (rs *FastaStore) GetMaxSeqID() int32 {
	return int32(len(rs.reads))
}

func (rs *FastaStore) GetIndex() map[seqid.ReadID]Read {
	idx := make(map[seqid.ReadID]Read, len(rs.reads)*2)
	for _, r := range rs.reads {
		idx[r.ID] = r
		idx[r.ID.RC()] = r
	}
	return idx
}

func (rs *FastaStore) Sequence(id seqid.ReadID) []byte {
	fwd := rs.reads[id.RawID()].Sequence
	if id.Strand() {
		return fwd
	}
	return ReverseComplement(fwd)
}
