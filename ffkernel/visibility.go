package ffkernel

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/soypat/gorad"
)

// Shaft is the convex region that must be checked for occluders along a
// receiver-source ray bundle, grounded on
// original_source/src/GALERKIN/shaftculling.h's SHAFT. Unlike the
// original's general plane-set shaft, it keeps only the bounding box of
// the two endpoint boxes it is built from (not the endpoint boxes
// themselves) plus up to two omitted geometries; Classify compares
// candidate bounds against that one box.
type Shaft struct {
	Bounds ms3.Box
	omit   [2]gorad.Geometry
}

// BuildBoxShaft returns the shaft bounding the union of a and b, which is
// always a (loose) superset of the true Haines/Wallace shaft but is exact
// enough to cull geometry entirely outside the receiver/source pair
// (shaftculling.cpp's constructShaft, simplified from a plane set to a
// single bounding box).
func BuildBoxShaft(a, b ms3.Box) Shaft {
	return Shaft{Bounds: a.Union(b)}
}

// Omit marks geom as excluded from candidate lists returned by
// CandidateList (shaftculling.h's shaftOmit: the receiver/source
// themselves must never occlude each other).
func (s *Shaft) Omit(geoms ...gorad.Geometry) {
	for i, g := range geoms {
		if i < len(s.omit) {
			s.omit[i] = g
		}
	}
}

func (s *Shaft) isOmitted(g gorad.Geometry) bool {
	return g == s.omit[0] || g == s.omit[1]
}

// ShaftClassify classifies a geometry's bounds against the shaft:
// Outside geometry is pruned entirely, Inside and Overlap are both
// walked (Overlap only differs from Inside when a host wants to open
// compound nodes that merely overlap the shaft instead of treating them
// as solid occluders; gorad always opens compounds, so both are treated
// the same by CandidateList).
type ShaftClassify uint8

const (
	Outside ShaftClassify = iota
	Overlap
	Inside
)

// Classify implements the box/box overlap test named in shaftculling.h.
func (s *Shaft) Classify(b ms3.Box) ShaftClassify {
	if !boxesOverlap(s.Bounds, b) {
		return Outside
	}
	if boxContains(s.Bounds, b) {
		return Inside
	}
	return Overlap
}

func boxesOverlap(a, b ms3.Box) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

func boxContains(outer, inner ms3.Box) bool {
	return outer.Min.X <= inner.Min.X && outer.Max.X >= inner.Max.X &&
		outer.Min.Y <= inner.Min.Y && outer.Max.Y >= inner.Max.Y &&
		outer.Min.Z <= inner.Min.Z && outer.Max.Z >= inner.Max.Z
}

// CandidateList walks root, collecting patches whose bounds are not
// Outside the shaft and which are not in the shaft's omit set
// (shaftculling.cpp's doShaftCulling/shaftCullGeom).
func CandidateList(root gorad.Geometry, shaft *Shaft) []gorad.Patch {
	var out []gorad.Patch
	var walk func(g gorad.Geometry)
	walk = func(g gorad.Geometry) {
		if shaft.isOmitted(g) {
			return
		}
		if shaft.Classify(g.Bounds()) == Outside {
			return
		}
		if g.IsCompound() {
			for _, c := range g.Children() {
				walk(c)
			}
			return
		}
		out = append(out, g.Patches()...)
	}
	walk(root)
	return out
}

// Transmittance tests the ray from origin along dir against the candidate
// occluder patches, returning 255 for fully unoccluded and 0 for blocked
// by an exact shadow-ray test
// (original_source's ShadowTestDiscretisation path, §4.6 "exact
// visibility"). dist is the receiver distance; occluders beyond
// dist*(1-eps) don't count.
func Transmittance(rq gorad.RayQueries, candidates []gorad.Patch, origin, dir ms3.Vec, dist float32) uint8 {
	const eps = 1e-4
	_, hit := rq.PatchListIntersect(candidates, origin, dir, dist*eps, dist*(1-eps))
	if hit {
		return 0
	}
	return 255
}

// MultiResTransmittance approximates Sillion & Drettakis's equivalent-
// blocker multi-resolution visibility (mrvisibility.cpp): rather than an
// exact shadow ray, each candidate cluster/surface occluder contributes
// an opacity proportional to the ratio of its equivalent blocker size
// (BlockerSize) to the receiver distance, compared against a minimum
// feature size derived from scene area and the configured minimum
// relative element area (§4.6). This trades exactness for an O(1)
// candidate-count-independent-ish estimate appropriate for cluster-level
// links, where a full per-leaf shadow ray would defeat the point of
// clustering.
func MultiResTransmittance(h *gorad.Hierarchy, candidates []gorad.ElementID, dist, minFeatureSize float32) uint8 {
	vis := float32(1)
	for _, id := range candidates {
		e := h.Element(id)
		bsize := e.BlockerSize()
		if bsize <= 0 {
			continue
		}
		angularSize := bsize / math32.Max(dist, 1e-6)
		if angularSize < minFeatureSize {
			continue // below the resolvable feature size, ignore (mrvisibility's erosion step)
		}
		opacity := math32.Min(1, angularSize)
		vis *= 1 - opacity
		if vis <= 0 {
			return 0
		}
	}
	return uint8(math32.Round(vis * 255))
}

// MinFeatureSize returns the minimum resolvable blocker size for the
// given scene statistics and configured relative minimum element area,
// matching formfactor.cpp's "2*sqrt(totalArea*relMinArea/pi)".
func MinFeatureSize(totalArea, relativeMinArea float32) float32 {
	return 2 * math32.Sqrt(totalArea*relativeMinArea/math32.Pi)
}
