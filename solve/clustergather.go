package solve

import (
	"github.com/soypat/geometry/ms3"

	"github.com/soypat/gorad"
	"github.com/soypat/gorad/zbuffer"
)

// RefineClusterGatherZVisibility redistributes a cluster receiver's
// flat, just-applied contribution across its visible member elements
// using a scratch Z-buffer render from the source's viewpoint, for
// configurations selecting Z_VISIBILITY clustering. It is a no-op for
// any other strategy or for a non-cluster receiver, leaving
// ComputeLightTransport's flat bucket update as the (isotropic) answer.
//
// Grounded on clustergalerkincpp.cpp's clusterGatherRadiance Z_VISIBILITY
// case: render the receiver cluster as seen from the source, weigh each
// visible member element's share of the contribution by its fraction of
// non-background pixels.
func RefineClusterGatherZVisibility(h *gorad.Hierarchy, cfg gorad.Config, renderer *zbuffer.Renderer, l *gorad.Link) {
	if cfg.ClusteringStrategy != gorad.ZVisibility {
		return
	}
	rcv := h.Element(l.Receiver)
	if !rcv.IsCluster() {
		return
	}
	src := h.Element(l.Source)
	eye := elementMidpoint(h, l.Source, src)

	contribution := gorad.ScaleRGB(l.K[0]*visScale(l.Visibility), sourceRadiance(cfg, src))
	if contribution.IsZero() {
		return
	}

	renderer.RenderCluster(h, l.Receiver, eye)
	counts := renderer.PixelsPerElement()
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return // cluster occupies no pixels from this viewpoint; keep the flat bucket update
	}

	rcvRad := rcv.ReceivedRadiance()
	if len(rcvRad) > 0 {
		rcvRad[0] = gorad.SubRGB(rcvRad[0], contribution)
	}
	for id, count := range counts {
		el := h.Element(id)
		received := el.ReceivedRadiance()
		if len(received) == 0 {
			continue
		}
		weight := float32(count) / float32(total)
		received[0] = gorad.AddRGB(received[0], gorad.ScaleRGB(weight, contribution))
	}
}

func elementMidpoint(h *gorad.Hierarchy, id gorad.ElementID, el *gorad.Element) ms3.Vec {
	if el.IsCluster() {
		bb := el.Geometry().Bounds()
		return ms3.Scale(0.5, ms3.Add(bb.Min, bb.Max))
	}
	return h.PointAt(id, 0.5, 0.5)
}

func sourceRadiance(cfg gorad.Config, src *gorad.Element) gorad.RGB {
	if cfg.IterationMethod.Shooting() {
		if len(src.UnshotRadiance()) > 0 {
			return src.UnshotRadiance()[0]
		}
		return gorad.RGB{}
	}
	if len(src.Radiance()) > 0 {
		return src.Radiance()[0]
	}
	return gorad.RGB{}
}
