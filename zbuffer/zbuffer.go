// Package zbuffer implements the scratch software Z-buffer renderer used
// for intra-cluster visibility: rasterizing a cluster's surface elements
// from a given eye point so gathered radiance can be averaged over the
// visible pixels instead of treated as isotropic.
//
// It is grounded on original_source/src/GALERKIN/scratch.cpp/.h
// (scratchInit, scratchRenderElements, scratchRadiance,
// scratchNonBackgroundPixels, scratchPixelsPerElement), re-expressed as a
// small orthographic rasterizer over gorad's element hierarchy instead of
// the original's SGL software-GL context.
package zbuffer

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/soypat/gorad"
)

// FrameBuffer is a square depth + element-id raster, matching
// scratch.cpp's SGL_CONTEXT frame buffer (one pixel holds either a
// background sentinel or an element pointer).
type FrameBuffer struct {
	size   int
	depth  []float32
	ids    []gorad.ElementID
	vpSize int // active viewport edge length, <= size
}

// NewFrameBuffer allocates a size x size scratch buffer (scratchInit's
// sglOpen(scratch_fb_size, scratch_fb_size)).
func NewFrameBuffer(size int) *FrameBuffer {
	if size <= 0 {
		size = 1
	}
	return &FrameBuffer{
		size:  size,
		depth: make([]float32, size*size),
		ids:   make([]gorad.ElementID, size*size),
	}
}

// clear resets the buffer to background (scratchRenderElements's
// sglClear(nullptr, SGL_MAXIMUM_Z)).
func (fb *FrameBuffer) clear() {
	for i := range fb.ids {
		fb.ids[i] = gorad.NoElement
		fb.depth[i] = math32.Inf(1)
	}
}

func (fb *FrameBuffer) at(x, y int) int { return y*fb.size + x }

func cross(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func normalize(v ms3.Vec) ms3.Vec {
	l := math32.Sqrt(ms3.Dot(v, v))
	if l < 1e-12 {
		return ms3.Vec{Z: 1}
	}
	return ms3.Scale(1/l, v)
}

// viewBasis is an orthonormal eye-space frame, right/up/forward, built to
// look from the eye toward a center point (scratch.cpp's lookAtMatrix).
type viewBasis struct {
	origin       ms3.Vec
	right, up, fwd ms3.Vec
}

func lookAt(eye, center, upHint ms3.Vec) viewBasis {
	fwd := normalize(ms3.Sub(center, eye))
	if math32.Abs(ms3.Dot(fwd, upHint)) > 1-1e-4 {
		upHint = ms3.Vec{Y: 1}
	}
	right := normalize(cross(fwd, upHint))
	up := cross(right, fwd)
	return viewBasis{origin: eye, right: right, up: up, fwd: fwd}
}

// project maps a world point into the eye-space frame: (x,y) are screen
// axes, z grows with distance along the view direction.
func (b viewBasis) project(p ms3.Vec) (x, y, z float32) {
	d := ms3.Sub(p, b.origin)
	return ms3.Dot(d, b.right), ms3.Dot(d, b.up), ms3.Dot(d, b.fwd)
}
