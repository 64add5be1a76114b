// Package kmeridx provides the solid-k-mer vertex index spec.md
// treats as an external collaborator (isSolid, iterKmerPos). It
// adapts the counting-bucket technique of the teacher's own
// cuckoofilter.go -- a fixed-size array of fingerprint+count buckets
// hashed with xxhash, see combineCFItem/Bucket there -- into a
// canonical-k-mer frequency filter plus a position multimap, since
// unlike the NGS cuckoo filter this index also has to answer
// "where did this k-mer occur" rather than only "is this k-mer
// solid".
package kmeridx

import (
	"encoding/binary"
	"log"

	"github.com/cespare/xxhash"

	"ga/readstore"
	"ga/seqid"
)

const (
	numFpBits  = 13
	numCBits   = 3
	fpMask     = (1 << numFpBits) - 1
	maxCount   = (1 << numCBits) - 1
	bucketSize = 4
)

// cfItem packs a fingerprint and a saturating count into one uint16,
// the same layout cuckoofilter.combineCFItem/GetCount/GetFinger use.
type cfItem uint16

func combineItem(fp uint16, count uint16) cfItem {
	return cfItem((fp << numCBits) | (count & maxCount))
}

func (c cfItem) finger() uint16 { return uint16(c) >> numCBits }
func (c cfItem) count() uint16  { return uint16(c) & maxCount }

type bucket [bucketSize]cfItem

// KmerPos is one occurrence of a k-mer: the read it was seen in (on
// whichever strand the occurrence belongs to) and its 0-based offset
// on that strand.
type KmerPos struct {
	ReadID   seqid.ReadID
	Position int32
}

// Index is the concrete VertexIndex. Kmers are canonicalised to the
// lexicographically smaller of themselves and their reverse
// complement before every lookup, so isSolid/iterKmerPos answer
// consistently regardless of which strand's k-mer bit pattern the
// caller happens to be holding.
type Index struct {
	kmerSize  int
	minFreq   int
	maxFreq   int
	buckets   []bucket
	positions map[uint64][]KmerPos
}

// New builds an index over every read in store. minFreq/maxFreq are
// the solid-k-mer frequency band; a k-mer solid test also requires
// the canonical k-mer to have been seen at all (negative Lookup is
// never solid).
func New(store readstore.Store, kmerSize, minFreq, maxFreq int) *Index {
	if kmerSize <= 0 || kmerSize > 31 {
		log.Fatalf("[kmeridx.New] kmerSize must be in (0, 31], got: %d\n", kmerSize)
	}
	if minFreq <= 0 || maxFreq < minFreq {
		log.Fatalf("[kmeridx.New] invalid frequency band [%d, %d]\n", minFreq, maxFreq)
	}

	reads := store.IterSeqs()
	// two slots per k-mer window, so a k-mer is rarely evicted before
	// its count can reach minFreq.
	numWindows := uint64(0)
	for _, r := range reads {
		numWindows += uint64(len(r.Sequence))
	}
	numBuckets := upperPow2(numWindows*2) / bucketSize
	if numBuckets == 0 {
		numBuckets = 1
	}
	idx := &Index{
		kmerSize:  kmerSize,
		minFreq:   minFreq,
		maxFreq:   maxFreq,
		buckets:   make([]bucket, numBuckets),
		positions: make(map[uint64][]KmerPos, len(reads)*64),
	}

	for _, r := range reads {
		idx.indexRead(r)
	}
	return idx
}

func upperPow2(x uint64) uint64 {
	if x == 0 {
		return 0
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	return x
}

func (idx *Index) indexRead(r readstore.Read) {
	k := idx.kmerSize
	EachKmer(r.Sequence, k, func(pos int, fwd uint64) {
		rc := revCompKmer(fwd, k)
		idx.observe(fwd, rc, r.ID, pos, len(r.Sequence), k)
	})
}

// EachKmer calls fn(pos, kmer) for every forward-strand k-mer window
// of seq that is free of non-ACGT bases, 2-bit packed the same way
// throughout this package. Shared by index construction and by the
// overlap detector's own seed-collection pass (spec.md Phase 1), so
// both sides agree on one k-mer encoding.
func EachKmer(seq []byte, k int, fn func(pos int, kmer uint64)) {
	for pos := 0; pos+k <= len(seq); pos++ {
		kmer, ok := EncodeKmer(seq[pos:pos+k], k)
		if !ok {
			continue
		}
		fn(pos, kmer)
	}
}

// EncodeKmer 2-bit packs the first k bytes of s. ok is false if a
// non-ACGT base is present.
func EncodeKmer(s []byte, k int) (kmer uint64, ok bool) {
	for i := 0; i < k; i++ {
		b, good := base2bit(s[i])
		if !good {
			return 0, false
		}
		kmer = (kmer << 2) | b
	}
	return kmer, true
}

func base2bit(b byte) (uint64, bool) {
	switch b {
	case 'A', 'a':
		return 0, true
	case 'C', 'c':
		return 1, true
	case 'G', 'g':
		return 2, true
	case 'T', 't':
		return 3, true
	default:
		return 0, false
	}
}

// observe registers one window of read id at forward-strand position
// pos: the canonical form is counted and its position stored tagged
// by the strand the canonical form actually occurs on.
func (idx *Index) observe(fwd, rc uint64, id seqid.ReadID, pos, readLen, k int) {
	canon, onFwd := fwd, true
	if rc < fwd {
		canon, onFwd = rc, false
	}

	idx.bump(canon)

	var occID seqid.ReadID
	var occPos int32
	if onFwd {
		occID, occPos = id, int32(pos)
	} else {
		occID, occPos = id.RC(), int32(readLen-pos-k)
	}
	idx.positions[canon] = append(idx.positions[canon], KmerPos{ReadID: occID, Position: occPos})
}

func (idx *Index) bucketsFor(canon uint64) (uint64, uint64, uint16) {
	var kb [8]byte
	binary.LittleEndian.PutUint64(kb[:], canon)
	h := xxhash.Sum64(kb[:])
	fp := uint16(h&fpMask) | 1 // never let the fingerprint be zero
	i1 := (h >> numFpBits) % uint64(len(idx.buckets))
	i2 := i1 ^ uint64(fp)%uint64(len(idx.buckets))
	return i1, i2, fp
}

func (idx *Index) bump(canon uint64) {
	i1, i2, fp := idx.bucketsFor(canon)
	if bumpBucket(&idx.buckets[i1], fp) {
		return
	}
	if bumpBucket(&idx.buckets[i2], fp) {
		return
	}
	// both candidate buckets full: evict the lowest-count slot in i1,
	// matching cuckoofilter's reinsert-on-collision behaviour but
	// without the kick chain, since we only need an approximate count.
	worst := 0
	for j := 1; j < bucketSize; j++ {
		if idx.buckets[i1][j].count() < idx.buckets[i1][worst].count() {
			worst = j
		}
	}
	idx.buckets[i1][worst] = combineItem(fp, 1)
}

func bumpBucket(b *bucket, fp uint16) bool {
	empty := -1
	for j := range b {
		if b[j] == 0 {
			if empty < 0 {
				empty = j
			}
			continue
		}
		if b[j].finger() == fp {
			c := b[j].count()
			if c < maxCount {
				c++
			}
			b[j] = combineItem(fp, c)
			return true
		}
	}
	if empty >= 0 {
		b[empty] = combineItem(fp, 1)
		return true
	}
	return false
}

func (idx *Index) lookupCount(canon uint64) uint16 {
	i1, i2, fp := idx.bucketsFor(canon)
	for _, j := range []uint64{i1, i2} {
		for _, it := range idx.buckets[j] {
			if it != 0 && it.finger() == fp {
				return it.count()
			}
		}
	}
	return 0
}

// IsSolid reports whether kmer's canonical frequency falls in
// [minFreq, maxFreq]. The stored count saturates at maxCount (7), so
// a k-mer seen 7 or more times reads as 7: a maxFreq of 7 or more
// rejects no k-mer as too frequent, and a minFreq above 7 is never met.
func (idx *Index) IsSolid(kmer uint64) bool {
	canon := kmer
	if rc := revCompKmer(kmer, idx.kmerSize); rc < canon {
		canon = rc
	}
	c := int(idx.lookupCount(canon))
	return c >= idx.minFreq && c <= idx.maxFreq
}

// IterKmerPos returns every recorded occurrence of kmer (on whichever
// strand) across the read set.
func (idx *Index) IterKmerPos(kmer uint64) []KmerPos {
	canon := kmer
	if rc := revCompKmer(kmer, idx.kmerSize); rc < canon {
		canon = rc
	}
	return idx.positions[canon]
}

// KmerSize is the process-wide k-mer length this index was built with.
func (idx *Index) KmerSize() int { return idx.kmerSize }

func revCompKmer(kmer uint64, k int) uint64 {
	var rc uint64
	for i := 0; i < k; i++ {
		b := (kmer >> uint(2*i)) & 3
		rc |= (3 - b) << uint(2*(k-1-i))
	}
	return rc
}
