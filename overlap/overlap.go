// Package overlap implements the k-mer seed-and-chain overlap
// detector: OverlapRange, the chaining dynamic program and the
// acceptance/reduction passes that turn raw k-mer matches into a
// read's list of pairwise overlaps. Ported from the ABruijn assembler
// (src/sequence/overlap.cpp) into ga's idiom.
package overlap

import "ga/seqid"

// KmerAnchor is one retained (curPos, extPos) seed pair, kept only
// when the caller asks for keepAlignment.
type KmerAnchor struct {
	CurPos int32
	ExtPos int32
}

// Range represents "query read CurID overlaps target read ExtID over
// approximately colinear intervals" -- spec.md's OverlapRange.
type Range struct {
	CurID, ExtID          seqid.ReadID
	CurBegin, CurEnd      int32
	ExtBegin, ExtEnd      int32
	CurLen, ExtLen        int32
	LeftShift, RightShift int32
	Score                 int32
	KmerMatches           []KmerAnchor
}

// CurRange is the length of the query interval.
func (r Range) CurRange() int32 { return r.CurEnd - r.CurBegin }

// ExtRange is the length of the target interval.
func (r Range) ExtRange() int32 { return r.ExtEnd - r.ExtBegin }

func intersect(aBegin, aEnd, bBegin, bEnd int32) int32 {
	lo := aBegin
	if bBegin > lo {
		lo = bBegin
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi < lo {
		return 0
	}
	return hi - lo
}

// CurIntersect returns the length of the intersection of the two
// ranges' query intervals (0 if disjoint).
func (r Range) CurIntersect(other Range) int32 {
	return intersect(r.CurBegin, r.CurEnd, other.CurBegin, other.CurEnd)
}

// ExtIntersect returns the length of the intersection of the two
// ranges' target intervals (0 if disjoint).
func (r Range) ExtIntersect(other Range) int32 {
	return intersect(r.ExtBegin, r.ExtEnd, other.ExtBegin, other.ExtEnd)
}

// Reverse swaps cur and ext, producing the overlap as seen from the
// target's point of view.
func (r Range) Reverse() Range {
	out := r
	out.CurID, out.ExtID = r.ExtID, r.CurID
	out.CurBegin, out.ExtBegin = r.ExtBegin, r.CurBegin
	out.CurEnd, out.ExtEnd = r.ExtEnd, r.CurEnd
	out.CurLen, out.ExtLen = r.ExtLen, r.CurLen
	out.LeftShift, out.RightShift = -r.LeftShift, -r.RightShift
	if len(r.KmerMatches) > 0 {
		out.KmerMatches = make([]KmerAnchor, len(r.KmerMatches))
		for i, a := range r.KmerMatches {
			out.KmerMatches[i] = KmerAnchor{CurPos: a.ExtPos, ExtPos: a.CurPos}
		}
	}
	return out
}

// Complement replaces each id by its reverse complement and mirrors
// positions about the respective read lengths: it is the same
// physical overlap viewed from the opposite strand.
func (r Range) Complement() Range {
	out := r
	out.CurID = r.CurID.RC()
	out.ExtID = r.ExtID.RC()
	out.CurBegin = r.CurLen - r.CurEnd
	out.CurEnd = r.CurLen - r.CurBegin
	out.ExtBegin = r.ExtLen - r.ExtEnd
	out.ExtEnd = r.ExtLen - r.ExtBegin
	out.LeftShift = -r.RightShift
	out.RightShift = -r.LeftShift
	if len(r.KmerMatches) > 0 {
		out.KmerMatches = make([]KmerAnchor, len(r.KmerMatches))
		n := len(r.KmerMatches)
		for i, a := range r.KmerMatches {
			out.KmerMatches[n-1-i] = KmerAnchor{
				CurPos: r.CurLen - a.CurPos,
				ExtPos: r.ExtLen - a.ExtPos,
			}
		}
	}
	return out
}
