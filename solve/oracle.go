// Package solve drives the hierarchical-refinement iteration: the
// refinement oracle that decides whether a link is accurate enough or
// must recurse into a finer pair of elements, light transport across
// accepted links, and the Engine that ties construction, refinement,
// transport and the root package's Hierarchy.PullPush together into
// init/step/radiance_at/stats (§4.8, §4.9, §4.10).
//
// It is grounded on original_source/src/GALERKIN/hierefine.cpp
// (hierarchicRefinementEvaluateInteraction, refineRecursive,
// hierarchicRefinementComputeLightTransport) and shooting.cpp /
// GalerkinRadiosity.cpp for the overall iteration driver shape.
package solve

import (
	"github.com/chewxy/math32"

	"github.com/soypat/gorad"
)

// Verdict is the refinement oracle's decision for one link (hierefine.cpp's
// INTERACTION_EVALUATION_CODE).
type Verdict uint8

const (
	AccurateEnough Verdict = iota
	SubdivideReceiver
	SubdivideSource
)

// oracle bundles the whole-scene statistics the threshold computation
// needs, so it doesn't have to be threaded through every call.
type oracle struct {
	cfg   gorad.Config
	stats gorad.SceneStats
}

func colorToError(c gorad.RGB) float32 { return c.MaxComponent() }

// threshold computes the absolute link-error threshold for a receiver of
// area rcvArea (hierefine.cpp's hierarchicRefinementLinkErrorThreshold).
func (o oracle) threshold(rcvArea float32) float32 {
	switch o.cfg.ErrorNorm {
	case gorad.NormPower:
		return colorToError(o.stats.MaxSelfEmittedPower) * o.cfg.RelativeLinkError / (math32.Pi * math32.Max(rcvArea, 1e-12))
	default:
		return colorToError(o.stats.MaxSelfEmittedRadiance) * o.cfg.RelativeLinkError
	}
}

// approximationError estimates the error incurred by using link l as-is,
// from its DeltaK (the spread of the kernel over the source cubature
// nodes) and the receiver's reflectance and source radiance
// (hierefine.cpp's hierarchicRefinementApproximationError, collapsed to
// the Jacobi/Gauss-Seidel gathering case since shooting's un-shot
// variant differs only in which radiance slice it reads).
func (o oracle) approximationError(h *gorad.Hierarchy, l *gorad.Link) float32 {
	rcv := h.Element(l.Receiver)
	src := h.Element(l.Source)
	var rcvRho gorad.RGB
	if rcv.IsCluster() {
		rcvRho = gorad.Gray(1)
	} else {
		rcvRho = rcv.Rd
	}
	var srcRad gorad.RGB
	if o.cfg.IterationMethod.Shooting() {
		if len(src.UnshotRadiance()) > 0 {
			srcRad = src.UnshotRadiance()[0]
		}
	} else if len(src.Radiance()) > 0 {
		srcRad = src.Radiance()[0]
	}
	err := gorad.ScaleRGB(l.DeltaK, gorad.MulRGB(rcvRho, srcRad))
	return colorToError(absRGB(err))
}

func absRGB(c gorad.RGB) gorad.RGB {
	return gorad.RGB{R: math32.Abs(c.R), G: math32.Abs(c.G), B: math32.Abs(c.B)}
}

// Evaluate decides whether l needs further refinement (hierefine.cpp's
// hierarchicRefinementEvaluateInteraction). When Hierarchical is
// disabled, every link is reported accurate (refinement never runs).
func Evaluate(h *gorad.Hierarchy, cfg gorad.Config, stats gorad.SceneStats, l *gorad.Link) Verdict {
	if !cfg.Hierarchical {
		return AccurateEnough
	}
	o := oracle{cfg: cfg, stats: stats}
	rcv := h.Element(l.Receiver)
	src := h.Element(l.Source)

	rcvArea := rcv.Area()
	thresh := o.threshold(rcvArea)
	errEst := o.approximationError(h, l)
	if errEst <= thresh {
		return AccurateEnough
	}

	minArea := stats.TotalArea * cfg.RelativeMinArea
	// Subdivide the larger of the two elements, unless it's a light
	// source cluster (hierefine.cpp's "don't subdivide a light source
	// cluster" special case) or already below the minimum area.
	srcIsLightCluster := src.IsCluster() && src.IsLightSource
	if srcIsLightCluster || rcvArea > src.Area() {
		if rcvArea > minArea {
			return SubdivideReceiver
		}
		return AccurateEnough
	}
	if src.IsCluster() || src.Area() > minArea {
		return SubdivideSource
	}
	return AccurateEnough
}
