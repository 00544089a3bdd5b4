package scenekit

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gorad"
)

// Leaf is a Geometry primitive: a flat list of patches with no further
// structure, the base case gorad's cluster-hierarchy builder bottoms out
// on (§4.1 "cluster hierarchy from geometry").
type Leaf struct {
	patches []gorad.Patch
	bounds  ms3.Box
}

// NewLeaf computes the leaf's bounding box from its patches' vertices.
func NewLeaf(patches ...gorad.Patch) *Leaf {
	l := &Leaf{patches: patches}
	first := true
	for _, p := range patches {
		for i := 0; i < p.NumVertices(); i++ {
			v := p.Vertex(i)
			if first {
				l.bounds = ms3.Box{Min: v, Max: v}
				first = false
				continue
			}
			l.bounds = l.bounds.Union(ms3.Box{Min: v, Max: v})
		}
	}
	return l
}

func (l *Leaf) IsCompound() bool        { return false }
func (l *Leaf) Children() []gorad.Geometry { panic("scenekit: Children called on a Leaf") }
func (l *Leaf) Patches() []gorad.Patch  { return l.patches }
func (l *Leaf) Bounds() ms3.Box         { return l.bounds }

// Compound is a Geometry node aggregating children, used to group patches
// into the spatial clusters the core's cluster hierarchy mirrors (§4.1).
type Compound struct {
	children []gorad.Geometry
	bounds   ms3.Box
}

// NewCompound unions its children's bounds.
func NewCompound(children ...gorad.Geometry) *Compound {
	c := &Compound{children: children}
	first := true
	for _, ch := range children {
		b := ch.Bounds()
		if first {
			c.bounds = b
			first = false
			continue
		}
		c.bounds = c.bounds.Union(b)
	}
	return c
}

func (c *Compound) IsCompound() bool         { return true }
func (c *Compound) Children() []gorad.Geometry { return c.children }
func (c *Compound) Patches() []gorad.Patch   { panic("scenekit: Patches called on a Compound") }
func (c *Compound) Bounds() ms3.Box          { return c.bounds }

// Queries implements gorad.RayQueries with a brute-force ray/patch test:
// triangles via Möller-Trumbore, quads by splitting into two triangles
// along the (V0,V2) diagonal. Fine for the reference fixtures; a host
// embedding a real mesh/accelerator would swap this for its own BVH.
type Queries struct{}

const rayEpsilon = 1e-6

// PatchIntersect implements gorad.RayQueries.
func (Queries) PatchIntersect(p gorad.Patch, origin, dir ms3.Vec, tMin, tMax float32) (gorad.RayHit, bool) {
	switch p.NumVertices() {
	case 3:
		t, ok := rayTriangle(p.Vertex(0), p.Vertex(1), p.Vertex(2), origin, dir, tMin, tMax)
		if !ok {
			return gorad.RayHit{}, false
		}
		return gorad.RayHit{Patch: p, T: t}, true
	case 4:
		if t, ok := rayTriangle(p.Vertex(0), p.Vertex(1), p.Vertex(2), origin, dir, tMin, tMax); ok {
			return gorad.RayHit{Patch: p, T: t}, true
		}
		if t, ok := rayTriangle(p.Vertex(0), p.Vertex(2), p.Vertex(3), origin, dir, tMin, tMax); ok {
			return gorad.RayHit{Patch: p, T: t}, true
		}
		return gorad.RayHit{}, false
	default:
		return gorad.RayHit{}, false
	}
}

// PatchListIntersect implements gorad.RayQueries.
func (q Queries) PatchListIntersect(patches []gorad.Patch, origin, dir ms3.Vec, tMin, tMax float32) (gorad.RayHit, bool) {
	best := gorad.RayHit{}
	found := false
	closest := tMax
	for _, p := range patches {
		hit, ok := q.PatchIntersect(p, origin, dir, tMin, closest)
		if !ok {
			continue
		}
		best = hit
		closest = hit.T
		found = true
	}
	return best, found
}

// rayTriangle is the standard Möller-Trumbore test.
func rayTriangle(v0, v1, v2, origin, dir ms3.Vec, tMin, tMax float32) (float32, bool) {
	e1 := ms3.Sub(v1, v0)
	e2 := ms3.Sub(v2, v0)
	pvec := cross(dir, e2)
	det := ms3.Dot(e1, pvec)
	if math32.Abs(det) < rayEpsilon {
		return 0, false
	}
	invDet := 1 / det
	tvec := ms3.Sub(origin, v0)
	u := ms3.Dot(tvec, pvec) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	qvec := cross(tvec, e1)
	v := ms3.Dot(dir, qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := ms3.Dot(e2, qvec) * invDet
	if t < tMin || t > tMax {
		return 0, false
	}
	return t, true
}
