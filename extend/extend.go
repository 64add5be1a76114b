// Package extend builds contig paths by greedily walking the
// best-supported overlap chain from each unvisited read. Ported from
// ABruijn's Extender (assemble/extender.cpp).
package extend

import (
	"log"
	"sort"

	"ga/overlap"
	"ga/readstore"
	"ga/seqid"
)

// Path is spec.md's ContigPath: an ordered walk of reads, circular if
// the walk returned to its own start.
type Path struct {
	Reads    []seqid.ReadID
	Circular bool
}

// OverlapSource is the subset of ovlpcontainer.Container's surface
// the extender needs: a read-only view of each read's already-found
// overlaps, valid once the finding phase has completed.
type OverlapSource interface {
	OverlapsFor(id seqid.ReadID) []overlap.Range
}

// ChimeraSource flags a read as a probable chimera.
type ChimeraSource interface {
	IsChimeric(id seqid.ReadID) bool
}

// Extender greedily chains overlaps into contig paths, never
// revisiting a read (or its reverse complement) once it has been
// consumed by a path or by one of that path's neighbouring overlaps.
type Extender struct {
	store     readstore.Store
	container OverlapSource
	chim      ChimeraSource

	visited map[seqid.ReadID]bool
}

// NewExtender builds an Extender over store/container, using chim to
// skip chimeric reads as extension seeds and candidates.
func NewExtender(store readstore.Store, container OverlapSource, chim ChimeraSource) *Extender {
	return &Extender{
		store:     store,
		container: container,
		chim:      chim,
		visited:   make(map[seqid.ReadID]bool),
	}
}

func (e *Extender) markVisited(id seqid.ReadID) {
	e.visited[id] = true
	e.visited[id.RC()] = true
}

// isProperRightExtension reports whether ovlp extends curRead to the
// right: the target has more unconsumed sequence past the overlap's
// end than the query does.
func (e *Extender) isProperRightExtension(ovlp overlap.Range) bool {
	curLen := e.store.SeqLen(ovlp.CurID)
	extLen := e.store.SeqLen(ovlp.ExtID)
	return extLen-ovlp.ExtEnd > curLen-ovlp.CurEnd
}

// isProperLeftExtension reports whether ovlp extends its target to
// the left of curRead.
func (e *Extender) isProperLeftExtension(ovlp overlap.Range) bool {
	return ovlp.ExtBegin > ovlp.CurBegin
}

// CountRightExtensions counts readID's proper right-extension
// candidates, used to rank candidate contig-start reads.
func (e *Extender) CountRightExtensions(readID seqid.ReadID) int {
	count := 0
	for _, ovlp := range e.container.OverlapsFor(readID) {
		if e.isProperRightExtension(ovlp) {
			count++
		}
	}
	return count
}

// BranchIndex is a diagnostic-only measure of how consistently
// readID's right-extension candidates agree with each other; it never
// gates which extension StepRight picks.
func (e *Extender) BranchIndex(readID seqid.ReadID) float64 {
	overlaps := e.container.OverlapsFor(readID)
	extensions := make(map[seqid.ReadID]bool)
	for _, ovlp := range overlaps {
		if e.isProperRightExtension(ovlp) && !e.chim.IsChimeric(ovlp.ExtID) {
			extensions[ovlp.ExtID] = true
		}
	}
	if len(extensions) == 0 {
		return 0.0
	}

	var indices []int
	for _, ovlp := range overlaps {
		if !extensions[ovlp.ExtID] {
			continue
		}
		count := 0
		for _, extOvlp := range e.container.OverlapsFor(ovlp.ExtID) {
			if extensions[extOvlp.ExtID] {
				count++
			}
		}
		indices = append(indices, count)
	}

	total := 0.0
	for _, idx := range indices {
		total += (float64(idx) + 1) / float64(len(extensions))
	}
	return total / float64(len(indices))
}

// StepRight picks readID's single best right-extension: the
// unvisited candidate with the highest min(leftSupport, rightSupport)
// among the other candidates, spec.md's "support" score. startReadID
// closes a circular path by being returned verbatim the moment it
// reappears as a candidate.
func (e *Extender) StepRight(readID, startReadID seqid.ReadID) seqid.ReadID {
	overlaps := e.container.OverlapsFor(readID)
	extensions := make(map[seqid.ReadID]bool)
	for _, ovlp := range overlaps {
		if ovlp.CurID == ovlp.ExtID {
			log.Fatalf("[Extender.StepRight] self-overlap on read %v\n", ovlp.CurID)
		}
		if e.isProperRightExtension(ovlp) {
			extensions[ovlp.ExtID] = true
		}
	}

	support := make(map[seqid.ReadID]int, len(extensions))
	for candidate := range extensions {
		leftSupport, rightSupport := 0, 0
		for _, ovlp := range e.container.OverlapsFor(candidate) {
			if !extensions[ovlp.ExtID] {
				continue
			}
			if e.isProperRightExtension(ovlp) {
				rightSupport++
			}
			if e.isProperLeftExtension(ovlp) {
				leftSupport++
			}
		}
		support[candidate] = min(leftSupport, rightSupport)
	}

	candidates := make([]seqid.ReadID, 0, len(extensions))
	for candidate := range extensions {
		candidates = append(candidates, candidate)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].RawID() != candidates[j].RawID() {
			return candidates[i].RawID() < candidates[j].RawID()
		}
		return candidates[i] > candidates[j] // forward strand first
	})

	maxSupport := -1
	best := seqid.NoneID
	for _, candidate := range candidates {
		if candidate == startReadID {
			return startReadID
		}
		if e.visited[candidate] {
			continue
		}
		// ties in support are broken by the candidates' ascending
		// raw-id order established above, not map iteration order.
		if support[candidate] > maxSupport {
			maxSupport = support[candidate]
			best = candidate
		}
	}
	return best
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ExtendRead walks right from startRead until it hits a dead end, a
// previously visited read (a loop), or startRead itself (a circular
// contig).
func (e *Extender) ExtendRead(startRead seqid.ReadID) Path {
	var path Path
	curRead := startRead
	path.Reads = append(path.Reads, curRead)
	e.markVisited(curRead)

	for {
		extRead := e.StepRight(curRead, startRead)

		if extRead == startRead {
			path.Circular = true
			break
		}
		if e.visited[extRead] {
			break // looped back into an already-claimed read
		}
		if !extRead.Valid() {
			break // dead end; direction changes are not attempted
		}

		e.markVisited(extRead)
		curRead = extRead
		path.Reads = append(path.Reads, curRead)
	}
	return path
}

// AssembleContigs repeatedly picks the unvisited, non-chimeric read
// with the most right-extension candidates as a new contig seed,
// extends it, and marks every read overlapping the resulting path as
// visited, until no seed remains.
func (e *Extender) AssembleContigs() []Path {
	e.visited = make(map[seqid.ReadID]bool)
	var paths []Path

	index := e.store.GetIndex()
	allIDs := make([]seqid.ReadID, 0, len(index))
	for id := range index {
		allIDs = append(allIDs, id)
	}
	sort.Slice(allIDs, func(i, j int) bool {
		if allIDs[i].RawID() != allIDs[j].RawID() {
			return allIDs[i].RawID() < allIDs[j].RawID()
		}
		return allIDs[i] > allIDs[j] // forward strand first
	})

	for {
		maxExtension := 0
		startRead := seqid.NoneID
		// ties in right-extension count are broken by ascending raw
		// id, the sorted order established above, not map iteration.
		for _, id := range allIDs {
			if e.visited[id] || e.chim.IsChimeric(id) {
				continue
			}
			if n := e.CountRightExtensions(id); n > maxExtension {
				maxExtension = n
				startRead = id
			}
		}
		if !startRead.Valid() {
			break
		}

		path := e.ExtendRead(startRead)
		paths = append(paths, path)

		for _, readID := range path.Reads {
			for _, ovlp := range e.container.OverlapsFor(readID) {
				e.markVisited(ovlp.ExtID)
			}
		}
	}
	return paths
}
