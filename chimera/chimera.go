// Package chimera flags reads that overlap their own reverse
// complement, a signature of a chimeric (self-ligated) long read.
package chimera

import "ga/seqid"

// OverlapSource is the subset of ovlpcontainer.Container's surface
// chimera detection needs.
type OverlapSource interface {
	HasSelfOverlaps(id seqid.ReadID) bool
}

// Detector wraps an OverlapSource to expose the single
// chimera-screening query the assembler needs before a read is
// allowed to seed or extend a contig.
type Detector struct {
	container OverlapSource
}

// NewDetector wraps container.
func NewDetector(container OverlapSource) *Detector {
	return &Detector{container: container}
}

// IsChimeric reports whether id's overlap pass detected a self-overlap.
func (d *Detector) IsChimeric(id seqid.ReadID) bool {
	return d.container.HasSelfOverlaps(id)
}
