// Package ovlpcontainer caches overlap-detector output per read,
// keeps it symmetric under reverse-complement, and answers positional
// queries through an interval tree. Ported from ABruijn's
// OverlapContainer (src/sequence/overlap.cpp).
package ovlpcontainer

import (
	"log"
	"sort"
	"sync"

	"github.com/biogo/store/interval"

	"ga/overlap"
	"ga/readstore"
	"ga/seqid"
)

// maxEndsDiff is the cluster-merge tolerance filterOverlaps uses: two
// overlaps against the same target are the same physical overlap if
// both their query- and target-side "uncovered tails" are shorter
// than this.
const maxEndsDiff = 100

// rangeInterval adapts overlap.Range to biogo/store/interval's
// IntInterface so the query-side span can be indexed.
type rangeInterval struct {
	ovlp overlap.Range
	id   uintptr
}

func (r rangeInterval) Overlap(b interval.IntRange) bool {
	return int(r.ovlp.CurEnd) > b.Start && int(r.ovlp.CurBegin) < b.End
}
func (r rangeInterval) ID() uintptr { return r.id }
func (r rangeInterval) Range() interval.IntRange {
	return interval.IntRange{Start: int(r.ovlp.CurBegin), End: int(r.ovlp.CurEnd)}
}
func (r rangeInterval) String() string { return r.ovlp.CurID.String() }

// queryRange adapts a plain interval.IntRange into an
// interval.IntOverlapper so it can be passed to IntTree.Get.
type queryRange interval.IntRange

func (q queryRange) Overlap(b interval.IntRange) bool {
	return q.Start < b.End && q.End > b.Start
}

// Container is spec.md's OverlapContainer: a concurrency-safe cache
// in front of a Detector, with lazy per-read population, clustering,
// and an interval tree for positional lookups.
type Container struct {
	detect  *overlap.Detector
	store   readstore.Store
	onlyMax bool // uniqueExtensions, a.k.a. "only keep the best overlap per target"

	mu                sync.Mutex
	overlapIndex      map[seqid.ReadID][]overlap.Range
	cached            map[seqid.ReadID]bool
	suggestedChimeras map[seqid.ReadID]bool
	ovlpTree          map[seqid.ReadID]*interval.IntTree
	nextIntervalID    uintptr
}

// New builds a Container over store's reads, using detect to compute
// overlaps on demand. onlyMax selects the "keep only the single best
// chain per target" mode (spec.md's uniqueExtensions).
func New(detect *overlap.Detector, store readstore.Store, onlyMax bool) *Container {
	return &Container{
		detect:            detect,
		store:             store,
		onlyMax:           onlyMax,
		overlapIndex:      make(map[seqid.ReadID][]overlap.Range),
		cached:            make(map[seqid.ReadID]bool),
		suggestedChimeras: make(map[seqid.ReadID]bool),
		ovlpTree:          make(map[seqid.ReadID]*interval.IntTree),
	}
}

// SeqOverlaps runs the detector fresh for seqID without touching or
// consulting the cache.
func (c *Container) SeqOverlaps(seqID seqid.ReadID) ([]overlap.Range, bool) {
	record := c.store.GetRecord(seqID)
	return c.detect.GetSeqOverlaps(record, c.onlyMax)
}

// LazySeqOverlaps returns seqID's overlaps, computing and caching
// them (under the shared mutex) on first request.
func (c *Container) LazySeqOverlaps(seqID seqid.ReadID) []overlap.Range {
	c.mu.Lock()
	if !c.cached[seqID] {
		c.mu.Unlock()
		overlaps, suggestChimeric := c.SeqOverlaps(seqID)
		c.mu.Lock()
		c.storeOverlapsLocked(overlaps, seqID)
		if suggestChimeric {
			c.suggestedChimeras[seqID] = true
			c.suggestedChimeras[seqID.RC()] = true
		}
	}
	out := c.overlapIndex[seqID]
	c.mu.Unlock()
	return out
}

// HasSelfOverlaps reports whether seqID's own overlap pass flagged it
// (or its reverse complement) as a probable chimera: an overlap
// against its own reverse-complement strand.
func (c *Container) HasSelfOverlaps(seqID seqid.ReadID) bool {
	c.mu.Lock()
	cached := c.cached[seqID]
	c.mu.Unlock()
	if !cached {
		c.LazySeqOverlaps(seqID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suggestedChimeras[seqID]
}

// storeOverlaps posts one read's detected overlaps into the index
// under all four (cur/ext x fwd/rc) views. Caller holds c.mu.
func (c *Container) storeOverlapsLocked(overlaps []overlap.Range, seqID seqid.ReadID) {
	c.cached[seqID] = true
	c.cached[seqID.RC()] = true

	existing := make(map[seqid.ReadID]bool)
	if c.onlyMax {
		for _, o := range c.overlapIndex[seqID] {
			existing[o.ExtID] = true
		}
	}

	for _, ovlp := range overlaps {
		if c.onlyMax && existing[ovlp.ExtID] {
			continue
		}
		revOvlp := ovlp.Reverse()
		c.overlapIndex[seqID] = append(c.overlapIndex[seqID], ovlp)
		c.overlapIndex[seqID.RC()] = append(c.overlapIndex[seqID.RC()], ovlp.Complement())
		c.overlapIndex[revOvlp.CurID] = append(c.overlapIndex[revOvlp.CurID], revOvlp)
		c.overlapIndex[revOvlp.CurID.RC()] = append(c.overlapIndex[revOvlp.CurID.RC()], revOvlp.Complement())
	}
}

// FindAllOverlaps is the finding phase: every query read's overlaps
// are computed by a worker pool and merged into the shared index
// under the same mutex storeOverlapsLocked uses, then filterOverlaps
// collapses duplicate detections. Workers never share mutable
// detector state, only the final merge is serialized. The detector
// runs with uniqueExtensions off here whatever onlyMax is; onlyMax
// only makes storeOverlapsLocked skip targets the read already lists.
func (c *Container) FindAllOverlaps(numThreads int) {
	reads := c.store.IterSeqs()
	if numThreads <= 0 {
		numThreads = 1
	}

	jobs := make(chan readstore.Read, len(reads))
	for _, r := range reads {
		jobs <- r
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < numThreads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				overlaps, suggestChimeric := c.detect.GetSeqOverlaps(r, false)

				c.mu.Lock()
				c.storeOverlapsLocked(overlaps, r.ID)
				if suggestChimeric {
					c.suggestedChimeras[r.ID] = true
					c.suggestedChimeras[r.ID.RC()] = true
				}
				c.mu.Unlock()
			}
		}()
	}
	wg.Wait()

	numOverlaps := 0
	for _, ovlps := range c.overlapIndex {
		numOverlaps += len(ovlps)
	}
	log.Printf("[Container.FindAllOverlaps] found %d overlaps\n", numOverlaps)

	c.FilterOverlaps()

	numOverlaps = 0
	for _, ovlps := range c.overlapIndex {
		numOverlaps += len(ovlps)
	}
	log.Printf("[Container.FindAllOverlaps] left %d overlaps after filtering\n", numOverlaps)
}

// dsu is a flat-array-backed union-find used only to cluster one
// read's duplicate overlap detections against the same target
// (spec.md design note: no manual node allocation).
type dsu struct{ parent []int }

func newDSU(n int) *dsu {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &dsu{parent: p}
}

func (d *dsu) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *dsu) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra != rb {
		d.parent[ra] = rb
	}
}

// FilterOverlaps clusters, per query read, overlaps against the same
// target whose uncovered query/target tails are both shorter than
// maxEndsDiff, keeping only the highest-scoring member of each
// cluster.
func (c *Container) FilterOverlaps() {
	for seqID, overlaps := range c.overlapIndex {
		c.overlapIndex[seqID] = filterOneSeq(overlaps)
	}
}

func filterOneSeq(overlaps []overlap.Range) []overlap.Range {
	n := len(overlaps)
	if n == 0 {
		return overlaps
	}
	sets := newDSU(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if overlaps[i].ExtID != overlaps[j].ExtID {
				continue
			}
			curDiff := overlaps[i].CurRange() - overlaps[i].CurIntersect(overlaps[j])
			extDiff := overlaps[i].ExtRange() - overlaps[i].ExtIntersect(overlaps[j])
			if curDiff < maxEndsDiff && extDiff < maxEndsDiff {
				sets.union(i, j)
			}
		}
	}

	clusters := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := sets.find(i)
		clusters[root] = append(clusters[root], i)
	}

	out := make([]overlap.Range, 0, len(clusters))
	for _, members := range clusters {
		best := members[0]
		for _, m := range members[1:] {
			if overlaps[m].Score > overlaps[best].Score {
				best = m
			}
		}
		out = append(out, overlaps[best])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurBegin < out[j].CurBegin })
	return out
}

// BuildIntervalTree indexes each read's overlaps by their query-side
// span, for later GetOverlaps lookups.
func (c *Container) BuildIntervalTree() {
	for seqID, overlaps := range c.overlapIndex {
		t := &interval.IntTree{}
		for i, ovlp := range overlaps {
			c.nextIntervalID++
			if err := t.Insert(rangeInterval{ovlp: ovlp, id: c.nextIntervalID}, true); err != nil {
				log.Fatalf("[Container.BuildIntervalTree] insert failed for %v[%d]: %v\n", seqID, i, err)
			}
		}
		t.AdjustRanges()
		c.ovlpTree[seqID] = t
	}
}

// OverlapsFor returns seqID's already-populated overlap list (from a
// prior FindAllOverlaps or LazySeqOverlaps call) without triggering
// detection. The extender relies on this once the finding phase has
// completed, when the index is read-only.
func (c *Container) OverlapsFor(seqID seqid.ReadID) []overlap.Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlapIndex[seqID]
}

// GetOverlaps returns every overlap of seqID whose query-side span
// intersects [start, end).
func (c *Container) GetOverlaps(seqID seqid.ReadID, start, end int32) []overlap.Range {
	t, ok := c.ovlpTree[seqID]
	if !ok {
		return nil
	}
	hits := t.Get(queryRange{Start: int(start), End: int(end)})
	out := make([]overlap.Range, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(rangeInterval).ovlp)
	}
	return out
}
