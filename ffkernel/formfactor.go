package ffkernel

import (
	"github.com/soypat/gorad"
	"github.com/soypat/gorad/cubature"
)

// AreaToAreaFormFactor computes the receiver/source coupling coefficients
// K (row-major [nReceiver][nSource]) and an error estimate DeltaK between
// rcv and src by cubature over the source element with a single,
// representative sample on the receiver (NReceiverCube == 1, §3),
// following formfactor.cpp's DoHigherOrderAreaToAreaFormFactor. ok is
// false when the patches cannot face each other at all (no further work
// needed; formfactor.cpp's Facing check).
//
// scene provides ray queries for exact visibility; candidates is the
// shaft-culled occluder patch list (nil disables shadow testing,
// treating the pair as mutually visible).
func AreaToAreaFormFactor(h *gorad.Hierarchy, cfg gorad.Config, rcv, src gorad.ElementID, scene gorad.RayQueries, candidates []gorad.Patch) (k []float32, deltaK float32, vis uint8, ok bool) {
	if !Facing(h, rcv, src) {
		return nil, 0, 0, false
	}
	re, se := h.Element(rcv), h.Element(src)
	nRcv, nSrc := 1, 1
	if !re.IsCluster() {
		nRcv = re.UsedBasis()
	}
	if !se.IsCluster() {
		nSrc = se.UsedBasis()
	}

	rp := receiverPoint(h, rcv)
	rcvPhi := []float32{1}
	if !re.IsCluster() {
		rcvPhi = gorad.EvalBasis(cfg.BasisType, rp.u, rp.v, nRcv)
	}

	srcPoints := sourceCubaturePoints(h, src, sourceRule(cfg, se))

	k = make([]float32, nRcv*nSrc)
	var minFF, maxFF float32
	haveAny := false
	var visAccum, visWeight float32
	for _, sp := range srcPoints {
		ff, dir, dist, hit := PointKernel(rp, sp)
		if !hit {
			continue
		}
		v := uint8(255)
		if len(candidates) > 0 {
			v = Transmittance(scene, candidates, sp.pos, dir, dist)
		}
		visAccum += float32(v) * sp.weight
		visWeight += sp.weight

		if !haveAny || ff < minFF {
			minFF = ff
		}
		if !haveAny || ff > maxFF {
			maxFF = ff
		}
		haveAny = true

		srcPhi := []float32{1}
		if !se.IsCluster() {
			srcPhi = gorad.EvalBasis(cfg.BasisType, sp.u, sp.v, nSrc)
		}
		for a := 0; a < nRcv; a++ {
			for b := 0; b < nSrc; b++ {
				k[a*nSrc+b] += sp.weight * ff * rcvPhi[a] * srcPhi[b]
			}
		}
	}
	if haveAny {
		deltaK = maxFF - minFF
	}
	if visWeight > 0 {
		vis = uint8(visAccum / visWeight)
	} else {
		vis = 255
	}
	return k, deltaK, vis, true
}

// sourceRule picks the cubature rule used to sample the source element:
// degree and domain (triangle/quad) follow the configured source
// cubature degree and the element's own domain kind. Clusters pass
// through here too (as a non-quad), but sourceCubaturePoints ignores the
// rule for them and samples a single bounding-box-center node.
func sourceRule(cfg gorad.Config, e *gorad.Element) cubature.Rule {
	isQuad := !e.IsCluster() && e.Patch().NumVertices() == 4
	return cubature.ForDegree(uint8(cfg.SourceCubature), isQuad)
}
