package zbuffer

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/soypat/gorad"
)

// Renderer owns one FrameBuffer and the one-entry (cluster, eye) cache
// scratch.cpp keeps in GLOBAL_galerkin_state (lastclusid/lasteye), so
// repeated calls for the same cluster/eye pair in one refinement pass
// don't re-rasterize.
type Renderer struct {
	fb          *FrameBuffer
	haveLast    bool
	lastCluster gorad.ElementID
	lastEye     ms3.Vec
	lastBounds  Bounds2
}

// Bounds2 is the screen-space rectangle a render pass covered, in world
// units along the view's right/up axes (scratch.cpp's BOUNDINGBOX
// returned by scratchRenderElements).
type Bounds2 struct {
	MinX, MaxX, MinY, MaxY float32
}

// NewRenderer allocates a renderer backed by a size x size scratch
// buffer (Config.ScratchFrameBufferSize, §3).
func NewRenderer(size int) *Renderer {
	return &Renderer{fb: NewFrameBuffer(size)}
}

// RenderCluster rasterizes cluster's surface elements as seen from eye
// into the scratch buffer, backface-culled against eye, and returns the
// screen bounds the cluster occupied (scratchRenderElements). Repeated
// calls with the same cluster id and eye point are served from the
// one-entry cache instead of re-rendering.
func (r *Renderer) RenderCluster(h *gorad.Hierarchy, cluster gorad.ElementID, eye ms3.Vec) Bounds2 {
	if r.haveLast && r.lastCluster == cluster && r.lastEye == eye {
		return r.lastBounds
	}
	r.lastCluster = cluster
	r.lastEye = eye
	r.haveLast = true

	el := h.Element(cluster)
	center := clusterMidpoint(h, cluster, el)
	basis := lookAt(eye, center, ms3.Vec{Z: 1})

	var leaves []gorad.ElementID
	h.ForEachLeaf(cluster, func(id gorad.ElementID) { leaves = append(leaves, id) })

	bounds, minArea := screenBounds(h, basis, leaves)
	vp := viewportSize(r.fb.size, bounds, minArea)
	r.fb.vpSize = vp
	r.fb.clear()

	for _, id := range leaves {
		renderElement(h, basis, bounds, vp, r.fb, id, eye)
	}

	r.lastBounds = bounds
	return bounds
}

func clusterMidpoint(h *gorad.Hierarchy, id gorad.ElementID, el *gorad.Element) ms3.Vec {
	if el.IsCluster() {
		bb := el.Geometry().Bounds()
		return ms3.Scale(0.5, ms3.Add(bb.Min, bb.Max))
	}
	return h.PointAt(id, 0.5, 0.5)
}

// screenBounds projects every leaf's world vertices into eye space and
// returns the bounding rectangle on the (right, up) plane, plus the
// smallest leaf area seen (used to size the viewport, as in
// scratch.cpp's cluster->minimumArea).
func screenBounds(h *gorad.Hierarchy, basis viewBasis, leaves []gorad.ElementID) (Bounds2, float32) {
	var b Bounds2
	first := true
	minArea := float32(math32.Inf(1))
	for _, id := range leaves {
		el := h.Element(id)
		if el.Area() < minArea {
			minArea = el.Area()
		}
		for _, v := range h.Vertices(id) {
			x, y, _ := basis.project(v)
			if first {
				b = Bounds2{MinX: x, MaxX: x, MinY: y, MaxY: y}
				first = false
				continue
			}
			if x < b.MinX {
				b.MinX = x
			}
			if x > b.MaxX {
				b.MaxX = x
			}
			if y < b.MinY {
				b.MinY = y
			}
			if y > b.MaxY {
				b.MaxY = y
			}
		}
	}
	if minArea <= 0 || math32.IsInf(minArea, 1) {
		minArea = 1
	}
	return b, minArea
}

// viewportSize picks a viewport edge length proportional to the ratio of
// the cluster's screen footprint to its smallest element's area, capped
// to the frame buffer and floored at 32 pixels (scratch.cpp's vp_size
// computation in scratchRenderElements).
func viewportSize(fbSize int, b Bounds2, minArea float32) int {
	area := (b.MaxX - b.MinX) * (b.MaxY - b.MinY)
	vp := int(area / minArea)
	if vp > fbSize {
		vp = fbSize
	}
	if vp < 32 {
		vp = 32
	}
	return vp
}

func renderElement(h *gorad.Hierarchy, basis viewBasis, b Bounds2, vp int, fb *FrameBuffer, id gorad.ElementID, eye ms3.Vec) {
	el := h.Element(id)
	if el.IsCluster() {
		return
	}
	patch := el.Patch()
	if ms3.Dot(patch.Normal(), eye)+patch.PlaneConstant() < 1e-6 {
		return // backface culled, scratchRenderElementPtr
	}

	world := h.Vertices(id)
	screen := make([][2]float32, len(world))
	depth := make([]float32, len(world))
	for i, w := range world {
		x, y, z := basis.project(w)
		screen[i] = toPixel(x, y, b, vp)
		depth[i] = z
	}

	if len(world) == 3 {
		rasterizeTriangle(fb, vp, screen[0], screen[1], screen[2], depth[0], depth[1], depth[2], id)
		return
	}
	rasterizeTriangle(fb, vp, screen[0], screen[1], screen[2], depth[0], depth[1], depth[2], id)
	rasterizeTriangle(fb, vp, screen[0], screen[2], screen[3], depth[0], depth[2], depth[3], id)
}

func toPixel(x, y float32, b Bounds2, vp int) [2]float32 {
	w := b.MaxX - b.MinX
	h := b.MaxY - b.MinY
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	px := (x - b.MinX) / w * float32(vp)
	py := (y - b.MinY) / h * float32(vp)
	return [2]float32{px, py}
}

// rasterizeTriangle fills a screen-space triangle with a depth test,
// writing id into every pixel it wins (the scratch buffer's equivalent
// of sglPolygon plus SGL's depth-tested pixel write).
func rasterizeTriangle(fb *FrameBuffer, vp int, p0, p1, p2 [2]float32, z0, z1, z2 float32, id gorad.ElementID) {
	minX := int(math32.Floor(math32.Min(p0[0], math32.Min(p1[0], p2[0]))))
	maxX := int(math32.Ceil(math32.Max(p0[0], math32.Max(p1[0], p2[0]))))
	minY := int(math32.Floor(math32.Min(p0[1], math32.Min(p1[1], p2[1]))))
	maxY := int(math32.Ceil(math32.Max(p0[1], math32.Max(p1[1], p2[1]))))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > vp {
		maxX = vp
	}
	if maxY > vp {
		maxY = vp
	}

	area := edge(p0, p1, p2)
	if math32.Abs(area) < 1e-9 {
		return
	}

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			pt := [2]float32{float32(x) + 0.5, float32(y) + 0.5}
			w0 := edge(p1, p2, pt)
			w1 := edge(p2, p0, pt)
			w2 := edge(p0, p1, pt)
			if area < 0 {
				if w0 > 0 || w1 > 0 || w2 > 0 {
					continue
				}
			} else if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			b0, b1, b2 := w0/area, w1/area, w2/area
			z := b0*z0 + b1*z1 + b2*z2
			idx := fb.at(x, y)
			if z < fb.depth[idx] {
				fb.depth[idx] = z
				fb.ids[idx] = id
			}
		}
	}
}

func edge(a, b, p [2]float32) float32 {
	return (p[0]-a[0])*(b[1]-a[1]) - (p[1]-a[1])*(b[0]-a[0])
}

// AverageRadiance scans the last rendered viewport and returns the
// average radiance (or un-shot radiance, when shooting) over its
// non-background pixels, weighted uniformly per pixel
// (scratch.cpp's scratchRadiance).
func (r *Renderer) AverageRadiance(h *gorad.Hierarchy, shooting bool) gorad.RGB {
	fb := r.fb
	var sum gorad.RGB
	n := 0
	for y := 0; y < fb.vpSize; y++ {
		for x := 0; x < fb.vpSize; x++ {
			id := fb.ids[fb.at(x, y)]
			if id == gorad.NoElement {
				continue
			}
			el := h.Element(id)
			var c gorad.RGB
			if shooting {
				if len(el.UnshotRadiance()) > 0 {
					c = el.UnshotRadiance()[0]
				}
			} else if len(el.Radiance()) > 0 {
				c = el.Radiance()[0]
			}
			sum = gorad.AddRGB(sum, c)
			n++
		}
	}
	if n == 0 {
		return gorad.RGB{}
	}
	return gorad.ScaleRGB(1/float32(n), sum)
}

// NonBackgroundPixels counts the pixels in the last rendered viewport
// that hit an element (scratch.cpp's scratchNonBackgroundPixels).
func (r *Renderer) NonBackgroundPixels() int {
	fb := r.fb
	n := 0
	for y := 0; y < fb.vpSize; y++ {
		for x := 0; x < fb.vpSize; x++ {
			if fb.ids[fb.at(x, y)] != gorad.NoElement {
				n++
			}
		}
	}
	return n
}

// PixelsPerElement tallies how many pixels of the last rendered
// viewport each element won, mirroring scratch.cpp's
// scratchPixelsPerElement (which accumulates into the element's tmp
// field; here returned directly instead of mutating element state).
func (r *Renderer) PixelsPerElement() map[gorad.ElementID]int {
	fb := r.fb
	out := make(map[gorad.ElementID]int)
	for y := 0; y < fb.vpSize; y++ {
		for x := 0; x < fb.vpSize; x++ {
			id := fb.ids[fb.at(x, y)]
			if id != gorad.NoElement {
				out[id]++
			}
		}
	}
	return out
}
