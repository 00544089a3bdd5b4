package solve

import "github.com/soypat/gorad"

// ComputeLightTransport applies one link's coupling coefficients,
// accumulating into the receiver's received radiance from the source's
// total radiance (Jacobi/Gauss-Seidel) or un-shot radiance (Southwell),
// mirroring hierefine.cpp's hierarchicRefinementComputeLightTransport.
// It applies at most NReceiver x NSource coefficients, clamped to each
// endpoint's BasisSize, and does not change either endpoint's UsedBasis.
//
// A cluster receiver's gather first lands as a flat update of its own
// constant radiance bucket (the Isotropic/Oriented clustering-strategy
// answer); for Z_VISIBILITY configurations the Engine immediately
// redistributes that same contribution across the cluster's visible
// member elements via RefineClusterGatherZVisibility, mirroring
// hierefine.cpp's clusterGatherRadiance.
func ComputeLightTransport(h *gorad.Hierarchy, cfg gorad.Config, l *gorad.Link) {
	rcv := h.Element(l.Receiver)
	src := h.Element(l.Source)

	a := l.NReceiver
	if a > rcv.BasisSize() {
		a = rcv.BasisSize()
	}
	b := l.NSource
	if b > src.BasisSize() {
		b = src.BasisSize()
	}

	var srcRad []gorad.RGB
	if cfg.IterationMethod.Shooting() {
		srcRad = src.UnshotRadiance()
	} else {
		srcRad = src.Radiance()
	}
	if len(srcRad) == 0 {
		return
	}

	rcvRad := rcv.ReceivedRadiance()
	if a == 1 && b == 1 {
		rcvRad[0] = gorad.AddRGB(rcvRad[0], gorad.ScaleRGB(l.K[0]*visScale(l.Visibility), srcRad[0]))
		return
	}
	for alpha := 0; alpha < a; alpha++ {
		for beta := 0; beta < b; beta++ {
			if beta >= len(srcRad) || alpha >= len(rcvRad) {
				continue
			}
			k := l.K[alpha*l.NSource+beta] * visScale(l.Visibility)
			rcvRad[alpha] = gorad.AddRGB(rcvRad[alpha], gorad.ScaleRGB(k, srcRad[beta]))
		}
	}
}

func visScale(vis uint8) float32 { return float32(vis) / 255 }
