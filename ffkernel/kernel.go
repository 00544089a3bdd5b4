// Package ffkernel computes the radiosity form-factor kernel and
// area-to-area coupling coefficients between two elements, including
// shadow-ray visibility and shaft-culled occluder candidate lists.
//
// It is grounded on original_source/src/GALERKIN/formfactor.cpp's
// PointKernelEval/DoHigherOrderAreaToAreaFormFactor (the pointwise kernel,
// the cluster 1/4 scale factor, and the shadow-cache idea) and on
// shaftculling.cpp/mrvisibility.cpp for occluder pruning and multi-resolution
// visibility, re-expressed over gorad's arena-based element hierarchy.
package ffkernel

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/soypat/gorad"
	"github.com/soypat/gorad/cubature"
)

// elementPoint is one sample position on an element together with its
// outward normal (zero/ignored for clusters, which use the fixed 0.25
// scale factor in place of a true cosine, per Sillion's unified
// hierarchical radiosity).
type elementPoint struct {
	pos       ms3.Vec
	normal    ms3.Vec
	isCluster bool
	u, v      float32 // local reference-domain coordinates, surface elements only
	weight    float32 // cubature weight contributing this sample; 1 for single-node sets
}

// receiverPoint returns the single sample position used on the receiver
// side of a link: a representative interior point for a surface element
// (NReceiverCube is always 1, §3), or its bounding-box center for a
// cluster.
func receiverPoint(h *gorad.Hierarchy, id gorad.ElementID) elementPoint {
	e := h.Element(id)
	if e.IsCluster() {
		bb := e.Geometry().Bounds()
		return elementPoint{pos: ms3.Scale(0.5, ms3.Add(bb.Min, bb.Max)), isCluster: true, weight: 1}
	}
	u, v := float32(1.0/3), float32(1.0/3)
	if e.Patch().NumVertices() == 4 {
		u, v = 0.5, 0.5
	}
	return elementPoint{pos: h.PointAt(id, u, v), normal: h.NormalAt(id), u: u, v: v, weight: 1}
}

// sourceCubaturePoints returns the source-side sample positions: the
// cubature rule's nodes mapped through the element's patch for a surface
// element, or a single bounding-box-center sample for a cluster
// (clusters always use a constant, one-node approximation on the source
// side too; §4.4).
func sourceCubaturePoints(h *gorad.Hierarchy, id gorad.ElementID, rule cubature.Rule) []elementPoint {
	e := h.Element(id)
	if e.IsCluster() {
		bb := e.Geometry().Bounds()
		return []elementPoint{{pos: ms3.Scale(0.5, ms3.Add(bb.Min, bb.Max)), isCluster: true, weight: 1}}
	}
	normal := h.NormalAt(id)
	out := make([]elementPoint, len(rule.Nodes))
	for i, n := range rule.Nodes {
		out[i] = elementPoint{
			pos:    h.PointAt(id, n.U, n.V),
			normal: normal,
			u:      n.U,
			v:      n.V,
			weight: n.W,
		}
	}
	return out
}

// Facing reports whether receiver and source elements can potentially see
// each other: at least one vertex of each must lie in front of the
// other's plane. Clusters (no single plane) always pass.
func Facing(h *gorad.Hierarchy, rcv, src gorad.ElementID) bool {
	re, se := h.Element(rcv), h.Element(src)
	if re.IsCluster() || se.IsCluster() {
		return true
	}
	return partlyInFrontOf(h.Vertices(src), re.Patch()) && partlyInFrontOf(h.Vertices(rcv), se.Patch())
}

func partlyInFrontOf(verts []ms3.Vec, of gorad.Patch) bool {
	n := of.Normal()
	d := of.PlaneConstant()
	for _, v := range verts {
		if ms3.Dot(n, v)+d > 1e-6 {
			return true
		}
	}
	return false
}

// PointKernel evaluates the unoccluded point-to-point radiosity kernel
// cos(rcv)*cos(src)/(pi*dist^2) between a receiver and a source sample,
// returning ok=false when the nodes are coincident, the ray leaves behind
// the source, or hits the receiver from behind — all zero-contribution
// cases (formfactor.cpp's PointKernelEval).
func PointKernel(rcv, src elementPoint) (ff float32, dir ms3.Vec, dist float32, ok bool) {
	d := ms3.Sub(rcv.pos, src.pos)
	dist = math32.Sqrt(ms3.Dot(d, d))
	if dist < 1e-6 {
		return 0, ms3.Vec{}, 0, false
	}
	dir = ms3.Scale(1/dist, d)

	var cosSrc float32
	if src.isCluster {
		cosSrc = 0.25
	} else {
		cosSrc = ms3.Dot(dir, src.normal)
		if cosSrc <= 0 {
			return 0, dir, dist, false
		}
	}
	var cosRcv float32
	if rcv.isCluster {
		cosRcv = 0.25
	} else {
		cosRcv = -ms3.Dot(dir, rcv.normal)
		if cosRcv <= 0 {
			return 0, dir, dist, false
		}
	}
	return cosRcv * cosSrc / (math32.Pi * dist * dist), dir, dist, true
}
