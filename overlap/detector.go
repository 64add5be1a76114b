package overlap

import (
	"log"
	"math"
	"sort"

	"ga/kmeridx"
	"ga/readstore"
	"ga/seqid"
)

// MinKmerSurvRate, MaxSecondaryOvlps and MaxLookBack are the magic
// constants spec.md calls out as defaults that must be preserved.
const (
	MinKmerSurvRate   = 0.01
	MaxSecondaryOvlps = 5
	MaxLookBack       = 50
)

// VertexIndex is the solid-k-mer index OverlapDetector consumes. It
// is satisfied structurally by *kmeridx.Index; the detector only
// needs the two read-only queries spec.md names.
type VertexIndex interface {
	IsSolid(kmer uint64) bool
	IterKmerPos(kmer uint64) []kmeridx.KmerPos
}

// Config is the OverlapDetector's fixed-at-construction configuration
// (spec.md section 4.1).
type Config struct {
	MinOverlap        int32
	MaxJump           int32
	MaxOverhang       int32
	CheckOverhang     bool
	MaxCurOverlaps    int
	KeepAlignment     bool
	OverlapDivergence float64 // OVLP_DIVERGENCE, process-wide Config.overlap_divergence_rate
	KmerSize          int
}

// Detector is the stateless, configured-once k-mer seed-and-chain
// overlap detector: spec.md's OverlapDetector.
type Detector struct {
	cfg   Config
	store readstore.Store
	index VertexIndex
}

// NewDetector validates cfg and returns a Detector. Configuration
// errors (spec.md section 7) are fatal at construction.
func NewDetector(cfg Config, store readstore.Store, index VertexIndex) *Detector {
	if cfg.MinOverlap < 0 {
		log.Fatalf("[overlap.NewDetector] minOverlap must be >= 0, got: %d\n", cfg.MinOverlap)
	}
	if cfg.MaxJump <= 0 {
		log.Fatalf("[overlap.NewDetector] maxJump must be > 0, got: %d\n", cfg.MaxJump)
	}
	if cfg.KmerSize <= 0 {
		log.Fatalf("[overlap.NewDetector] kmerSize must be > 0, got: %d\n", cfg.KmerSize)
	}
	if cfg.OverlapDivergence <= 0 {
		log.Fatalf("[overlap.NewDetector] overlap_divergence_rate must be > 0, got: %v\n", cfg.OverlapDivergence)
	}
	return &Detector{cfg: cfg, store: store, index: index}
}

// kmerMatch is one query-to-target k-mer hit, used only inside one
// getSeqOverlaps call (spec.md's KmerMatch).
type kmerMatch struct {
	curPos int32
	extPos int32
}

// GetSeqOverlaps is spec.md's getSeqOverlaps: Phase 1 through 7.
func (d *Detector) GetSeqOverlaps(query readstore.Read, uniqueExtensions bool) ([]Range, bool) {
	if len(query.Sequence) == 0 {
		log.Fatalf("[Detector.GetSeqOverlaps] empty query read: %v\n", query.ID)
	}
	k := d.cfg.KmerSize
	curLen := int32(len(query.Sequence))
	maxSeqID := d.store.GetMaxSeqID()

	seqHitCount := make([]byte, maxSeqID)
	matchesByTarget := make(map[seqid.ReadID][]kmerMatch, 512)
	targetOrder := make([]seqid.ReadID, 0, 512)

	suggestChimeric := false

	// Phase 1: seed collection.
	kmeridx.EachKmer(query.Sequence, k, func(curPos int, kmerVal uint64) {
		if !d.index.IsSolid(kmerVal) {
			return
		}
		prevSeqID := seqid.NoneID
		for _, hit := range d.index.IterKmerPos(kmerVal) {
			if hit.ReadID == query.ID && int(hit.Position) == curPos {
				continue // trivial self-hit
			}
			if prevSeqID != hit.ReadID && prevSeqID != hit.ReadID.RC() {
				raw := hit.ReadID.RawID()
				if raw >= 0 && raw < len(seqHitCount) && seqHitCount[raw] < math.MaxUint8 {
					seqHitCount[raw]++
				}
			}
			prevSeqID = hit.ReadID

			if _, ok := matchesByTarget[hit.ReadID]; !ok {
				targetOrder = append(targetOrder, hit.ReadID)
			}
			matchesByTarget[hit.ReadID] = append(matchesByTarget[hit.ReadID],
				kmerMatch{curPos: int32(curPos), extPos: hit.Position})
		}
	})

	detectedOverlaps := make([]Range, 0, 64)

	// Phase 2-7: per target.
	for _, extID := range targetOrder {
		raw := extID.RawID()
		if raw < 0 || raw >= len(seqHitCount) || float64(seqHitCount[raw]) < MinKmerSurvRate*float64(d.cfg.MinOverlap) {
			delete(matchesByTarget, extID)
			continue
		}
		matches := matchesByTarget[extID]
		delete(matchesByTarget, extID) // release memory as soon as this target is processed

		chains, chimeric := d.chainOneTarget(query.ID, curLen, extID, matches)
		if chimeric {
			suggestChimeric = true
		}
		if len(chains) == 0 {
			continue
		}

		if uniqueExtensions {
			best := chains[0]
			for _, c := range chains[1:] {
				if c.Score > best.Score {
					best = c
				}
			}
			detectedOverlaps = append(detectedOverlaps, best)
		} else {
			detectedOverlaps = appendReduced(detectedOverlaps, chains, k)
		}

		if d.cfg.MaxCurOverlaps > 0 && len(detectedOverlaps) > d.cfg.MaxCurOverlaps {
			break
		}
	}

	return detectedOverlaps, suggestChimeric
}

// chainOneTarget runs Phase 3 (pre-filter), Phase 4 (chaining DP) and
// Phase 5-6 (backtracking, emission, acceptance test) for one target.
func (d *Detector) chainOneTarget(curID seqid.ReadID, curLen int32, extID seqid.ReadID, matches []kmerMatch) ([]Range, bool) {
	extLen := d.store.SeqLen(extID)
	kmerSize := int32(d.cfg.KmerSize)

	// Phase 3: pre-filter.
	minCur, maxCur := matches[0].curPos, matches[len(matches)-1].curPos
	minExt, maxExt := int32(math.MaxInt32), int32(math.MinInt32)
	for _, m := range matches {
		if m.extPos < minExt {
			minExt = m.extPos
		}
		if m.extPos > maxExt {
			maxExt = m.extPos
		}
	}
	if maxCur-minCur < d.cfg.MinOverlap || maxExt-minExt < d.cfg.MinOverlap {
		return nil, false
	}
	if d.cfg.CheckOverhang {
		if min32(minCur, minExt) > d.cfg.MaxOverhang {
			return nil, false
		}
		if min32(curLen-maxCur, extLen-maxExt) > d.cfg.MaxOverhang {
			return nil, false
		}
	}

	// Phase 4: colinear chaining DP.
	n := len(matches)
	scoreTable := make([]int32, n)
	backtrack := make([]int32, n)
	for i := range backtrack {
		backtrack[i] = -1
	}

	skipCurPos := int32(0)
	skipCurID := 0
	for i := 1; i < n; i++ {
		maxScore := int32(0)
		maxID := 0
		curNext, extNext := matches[i].curPos, matches[i].extPos
		noImprovement := 0

		if curNext != skipCurPos {
			skipCurPos = curNext
			skipCurID = i - 1
		}

		for j := skipCurID; j >= 0; j-- {
			curPrev, extPrev := matches[j].curPos, matches[j].extPos
			curDelta, extDelta := curNext-curPrev, extNext-extPrev
			if curDelta > d.cfg.MaxJump {
				break
			}
			if 0 < curDelta && curDelta < d.cfg.MaxJump && 0 < extDelta && extDelta < d.cfg.MaxJump {
				matchScore := min32(min32(curDelta, extDelta), kmerSize)
				jumpDiv := absInt32(curDelta - extDelta)
				var gapCost float64
				if jumpDiv != 0 {
					gapCost = 0.01*float64(kmerSize)*float64(jumpDiv) + math.Log2(float64(jumpDiv))
				}
				nextScore := scoreTable[j] + matchScore - int32(gapCost)
				if nextScore > maxScore {
					maxScore = nextScore
					maxID = j
					noImprovement = 0
				} else {
					noImprovement++
					if noImprovement > MaxLookBack {
						break
					}
				}
			}
		}

		scoreTable[i] = maxInt32(maxScore, kmerSize)
		if maxScore > 0 {
			backtrack[i] = int32(maxID)
		}
	}

	// Phase 5: backtracking and emission. Chain starts are taken from
	// the last match down; every match consumed by a chain has its
	// backtrack link cut, so a later chain that reaches it ends there
	// instead of walking through it again.
	consumed := make([]bool, n)
	var chains []Range
	for chainStart := n - 1; chainStart >= 0; chainStart-- {
		if consumed[chainStart] {
			continue
		}

		pos := chainStart
		lastMatch := matches[pos]
		var firstMatch kmerMatch
		shifts := make([]int32, 0, 64)
		var anchors []KmerAnchor
		totalMatch := kmerSize

		for pos != -1 {
			firstMatch = matches[pos]
			shifts = append(shifts, matches[pos].curPos-matches[pos].extPos)

			prevPos := backtrack[pos]
			backtrack[pos] = -1
			if prevPos != -1 {
				curNext, extNext := matches[pos].curPos, matches[pos].extPos
				curPrev, extPrev := matches[prevPos].curPos, matches[prevPos].extPos
				totalMatch += min32(min32(curNext-curPrev, extNext-extPrev), kmerSize)
			}
			if d.cfg.KeepAlignment {
				if len(anchors) == 0 || anchors[len(anchors)-1].CurPos-matches[pos].curPos > kmerSize {
					anchors = append(anchors, KmerAnchor{CurPos: matches[pos].curPos, ExtPos: matches[pos].extPos})
				}
			}

			consumed[pos] = true
			pos = int(prevPos)
		}
		reverseAnchors(anchors)

		ovlp := Range{
			CurID: curID, ExtID: extID,
			CurBegin: firstMatch.curPos, ExtBegin: firstMatch.extPos,
			CurLen: curLen, ExtLen: extLen,
		}
		ovlp.CurEnd = lastMatch.curPos + kmerSize - 1
		ovlp.ExtEnd = lastMatch.extPos + kmerSize - 1
		ovlp.LeftShift = median(shifts)
		ovlp.RightShift = extLen - curLen + ovlp.LeftShift
		ovlp.Score = scoreTable[chainStart]
		ovlp.KmerMatches = anchors

		chimeric := false
		if float64(totalMatch) > MinKmerSurvRate*float64(ovlp.CurRange()) && d.overlapTest(ovlp, &chimeric) {
			chains = append(chains, ovlp)
		}
		if chimeric {
			return chains, true
		}
	}

	return chains, false
}

// overlapTest is spec.md's Phase 6 acceptance test.
func (d *Detector) overlapTest(ovlp Range, outSuggestChimeric *bool) bool {
	if ovlp.CurRange() < d.cfg.MinOverlap || ovlp.ExtRange() < d.cfg.MinOverlap {
		return false
	}
	lengthDiff := float64(absInt32(ovlp.CurRange() - ovlp.ExtRange()))
	meanLength := float64(ovlp.CurRange()+ovlp.ExtRange()) / 2.0
	if lengthDiff > meanLength*d.cfg.OverlapDivergence {
		return false
	}
	if ovlp.CurID == ovlp.ExtID.RC() {
		*outSuggestChimeric = true
	}
	if d.cfg.CheckOverhang {
		if min32(ovlp.CurBegin, ovlp.ExtBegin) > d.cfg.MaxOverhang {
			return false
		}
		if min32(ovlp.CurLen-ovlp.CurEnd, ovlp.ExtLen-ovlp.ExtEnd) > d.cfg.MaxOverhang {
			return false
		}
	}
	return true
}

// appendReduced implements Phase 7's non-uniqueExtensions path:
// primary/secondary/contained partitioning against one target's
// chains, then emits primaries followed by secondaries.
func appendReduced(dst []Range, chains []Range, kmerSize int) []Range {
	sort.SliceStable(chains, func(i, j int) bool { return chains[i].Score > chains[j].Score })

	type primary struct {
		ovlp      Range
		secondary int
	}
	var primaries []primary
	var secondaries []Range

	for _, ovlp := range chains {
		var assigned *primary
		contained := false
		for i := range primaries {
			prim := &primaries[i]
			inter := ovlp.ExtIntersect(prim.ovlp)
			if ovlp.ExtRange()-inter < int32(kmerSize) {
				contained = true
				break
			}
			if inter > ovlp.ExtRange()/2 {
				assigned = prim
			}
		}
		if contained {
			continue
		}
		if assigned == nil {
			primaries = append(primaries, primary{ovlp: ovlp})
		} else if assigned.secondary < MaxSecondaryOvlps {
			secondaries = append(secondaries, ovlp)
			assigned.secondary++
		}
	}

	for _, p := range primaries {
		dst = append(dst, p.ovlp)
	}
	dst = append(dst, secondaries...)
	return dst
}

func reverseAnchors(a []KmerAnchor) {
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}

func median(v []int32) int32 {
	if len(v) == 0 {
		return 0
	}
	s := append([]int32(nil), v...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s[len(s)/2]
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func absInt32(a int32) int32 {
	if a < 0 {
		return -a
	}
	return a
}
