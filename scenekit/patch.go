// Package scenekit is a minimal, concrete reference implementation of the
// Scene/Patch/Geometry collaborators gorad consumes as an external
// dependency (§6 of the spec this engine implements). It plays the role
// the teacher repo's forge/threads package plays for gsdf: concrete,
// parametrized construction in the teacher's idiom, never imported by
// THE CORE itself.
//
// It exists only to build the end-to-end fixtures (single emitter, two
// facing quads, a Cornell-style room, a clustered occluder scene) used by
// gorad's tests and by cmd/goradcli; a production host would bring its
// own mesh/material loader instead.
package scenekit

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gorad"
)

// Quad is a planar 4-vertex patch, vertices given in order so that
// (V0,V1,V2,V3) traversed CCW as seen from the front face matches the
// outward normal.
type Quad struct {
	V0, V1, V2, V3 ms3.Vec
	Albedo         gorad.RGB
	Emittance      gorad.RGB
	Potential      float32
}

// NewQuad validates planarity loosely (no check beyond vertex count,
// matching the "planar... with plane equation" contract the core expects
// from its Patch collaborator) and returns a ready Quad.
func NewQuad(v0, v1, v2, v3 ms3.Vec, albedo gorad.RGB) *Quad {
	return &Quad{V0: v0, V1: v1, V2: v2, V3: v3, Albedo: albedo}
}

// WithEmittance sets the quad's self-emitted exitance in place and returns
// it, for chained construction.
func (q *Quad) WithEmittance(e gorad.RGB) *Quad {
	q.Emittance = e
	return q
}

func (q *Quad) NumVertices() int { return 4 }

func (q *Quad) Vertex(i int) ms3.Vec {
	switch i {
	case 0:
		return q.V0
	case 1:
		return q.V1
	case 2:
		return q.V2
	case 3:
		return q.V3
	default:
		panic(fmt.Sprintf("scenekit: quad vertex index %d out of range", i))
	}
}

func (q *Quad) normalUnnormalized() ms3.Vec {
	e1 := ms3.Sub(q.V1, q.V0)
	e2 := ms3.Sub(q.V3, q.V0)
	return cross(e1, e2)
}

func (q *Quad) Normal() ms3.Vec {
	n := q.normalUnnormalized()
	l := math32.Sqrt(ms3.Dot(n, n))
	if l == 0 {
		return ms3.Vec{Z: 1}
	}
	return ms3.Scale(1/l, n)
}

func (q *Quad) PlaneConstant() float32 {
	n := q.Normal()
	return -ms3.Dot(n, q.V0)
}

// Area approximates the quad's area as the sum of its two triangulated
// halves (V0,V1,V2) and (V0,V2,V3); exact for planar convex quads.
func (q *Quad) Area() float32 {
	a1 := triangleArea(q.V0, q.V1, q.V2)
	a2 := triangleArea(q.V0, q.V2, q.V3)
	return a1 + a2
}

func (q *Quad) Midpoint() ms3.Vec {
	sum := ms3.Add(ms3.Add(q.V0, q.V1), ms3.Add(q.V2, q.V3))
	return ms3.Scale(0.25, sum)
}

// UniformPoint bilinearly interpolates the quad's corners, matching the
// reference-domain corner order gorad uses for quad elements: (0,0)->V0,
// (1,0)->V1, (1,1)->V2, (0,1)->V3.
func (q *Quad) UniformPoint(u, v float32) ms3.Vec {
	w00 := (1 - u) * (1 - v)
	w10 := u * (1 - v)
	w11 := u * v
	w01 := (1 - u) * v
	return ms3.Add(
		ms3.Add(ms3.Scale(w00, q.V0), ms3.Scale(w10, q.V1)),
		ms3.Add(ms3.Scale(w11, q.V2), ms3.Scale(w01, q.V3)),
	)
}

func (q *Quad) AverageAlbedo() gorad.RGB       { return q.Albedo }
func (q *Quad) AverageEmittance() gorad.RGB    { return q.Emittance }
func (q *Quad) DirectPotential() float32       { return q.Potential }

// Triangle is a planar 3-vertex patch.
type Triangle struct {
	V0, V1, V2 ms3.Vec
	Albedo     gorad.RGB
	Emittance  gorad.RGB
	Potential  float32
}

func NewTriangle(v0, v1, v2 ms3.Vec, albedo gorad.RGB) *Triangle {
	return &Triangle{V0: v0, V1: v1, V2: v2, Albedo: albedo}
}

func (t *Triangle) WithEmittance(e gorad.RGB) *Triangle {
	t.Emittance = e
	return t
}

func (t *Triangle) NumVertices() int { return 3 }

func (t *Triangle) Vertex(i int) ms3.Vec {
	switch i {
	case 0:
		return t.V0
	case 1:
		return t.V1
	case 2:
		return t.V2
	default:
		panic(fmt.Sprintf("scenekit: triangle vertex index %d out of range", i))
	}
}

func (t *Triangle) normalUnnormalized() ms3.Vec {
	e1 := ms3.Sub(t.V1, t.V0)
	e2 := ms3.Sub(t.V2, t.V0)
	return cross(e1, e2)
}

func (t *Triangle) Normal() ms3.Vec {
	n := t.normalUnnormalized()
	l := math32.Sqrt(ms3.Dot(n, n))
	if l == 0 {
		return ms3.Vec{Z: 1}
	}
	return ms3.Scale(1/l, n)
}

func (t *Triangle) PlaneConstant() float32 {
	n := t.Normal()
	return -ms3.Dot(n, t.V0)
}

func (t *Triangle) Area() float32 { return triangleArea(t.V0, t.V1, t.V2) }

func (t *Triangle) Midpoint() ms3.Vec {
	return ms3.Scale(1.0/3, ms3.Add(ms3.Add(t.V0, t.V1), t.V2))
}

// UniformPoint uses the barycentric-style map gorad's triangle elements
// assume: (0,0)->V0, (1,0)->V1, (0,1)->V2.
func (t *Triangle) UniformPoint(u, v float32) ms3.Vec {
	w0 := 1 - u - v
	return ms3.Add(ms3.Add(ms3.Scale(w0, t.V0), ms3.Scale(u, t.V1)), ms3.Scale(v, t.V2))
}

func (t *Triangle) AverageAlbedo() gorad.RGB    { return t.Albedo }
func (t *Triangle) AverageEmittance() gorad.RGB { return t.Emittance }
func (t *Triangle) DirectPotential() float32    { return t.Potential }

func cross(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func triangleArea(a, b, c ms3.Vec) float32 {
	e1 := ms3.Sub(b, a)
	e2 := ms3.Sub(c, a)
	n := cross(e1, e2)
	return 0.5 * math32.Sqrt(ms3.Dot(n, n))
}
