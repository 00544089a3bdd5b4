package gorad

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// ElementID indexes an Element within a Hierarchy's arena (§9 design
// notes: "pointer graphs... model as indices into element and link
// arenas"). Ids are assigned from 0 upward, so the zero value is the first
// allocated element; use NoElement for "absent".
type ElementID int32

// NoElement is the sentinel for an absent element reference (no parent, no
// regular child yet, ...).
const NoElement ElementID = -1

// ElementKind tags the two concrete element shapes unified under Element
// (§9: "polymorphism over surface vs cluster... model as a tagged
// variant").
type ElementKind uint8

const (
	SurfaceElement ElementKind = iota
	ClusterElement
)

// Element is a node of the radiosity hierarchy: either rooted at a Patch
// (surface) or at an aggregate Geometry (cluster). See §3 "Element".
type Element struct {
	id   ElementID
	kind ElementKind

	patch Patch    // valid when kind == SurfaceElement
	geom  Geometry // valid when kind == ClusterElement

	parent      ElementID
	children    [4]ElementID // regular children, surface only; NoElement until created
	hasChildren bool
	irregular   []ElementID // cluster only, fixed at construction
	childNumber int8        // 0..3, position among parent's regular children

	up      Affine2 // up-transform to parent's (u,v); surface only
	hasUp   bool
	domain  DomainKind // surface only

	area        float32
	minArea     float32
	blockerSize float32

	Rd            RGB
	Ed            RGB
	IsLightSource bool

	basisSize int
	usedBasis int
	radiance  []RGB
	received  []RGB
	unshot    []RGB // nil unless the solve is shooting

	potential         float32
	receivedPotential float32
	unshotPotential   float32
	directPotential   float32

	links []LinkID // interaction list anchored here (source if shooting, receiver if gathering)

	scratch int // reserved scratch integer; nothing writes it, so it stays zero
}

// ID returns the element's identity.
func (e *Element) ID() ElementID { return e.id }

// IsCluster reports whether this element is a cluster element.
func (e *Element) IsCluster() bool { return e.kind == ClusterElement }

// Area returns the element's world-space area (cluster area is the sum of
// its subtree's surface areas, §3).
func (e *Element) Area() float32 { return e.area }

// BlockerSize returns the equivalent blocker diameter used by
// multi-resolution visibility (§3, §4.6).
func (e *Element) BlockerSize() float32 { return e.blockerSize }

// Patch returns the bound patch; only valid for surface elements.
func (e *Element) Patch() Patch { return e.patch }

// Geometry returns the bound aggregate geometry; only valid for cluster
// elements.
func (e *Element) Geometry() Geometry { return e.geom }

// Parent returns the parent element id, or NoElement at the hierarchy
// root.
func (e *Element) Parent() ElementID { return e.parent }

// RegularChildren returns the (possibly unset) regular children array.
// hasChildren reports whether it has been created yet.
func (e *Element) RegularChildren() ([4]ElementID, bool) { return e.children, e.hasChildren }

// IrregularChildren returns a cluster's fixed irregular children.
func (e *Element) IrregularChildren() []ElementID { return e.irregular }

// BasisSize returns the number of basis coefficients allocated (always 1
// for clusters).
func (e *Element) BasisSize() int { return e.basisSize }

// UsedBasis returns the number of basis coefficients actually exercised
// so far this solve.
func (e *Element) UsedBasis() int { return e.usedBasis }

// Radiance returns the element's total radiance coefficients.
func (e *Element) Radiance() []RGB { return e.radiance }

// ReceivedRadiance returns the element's accumulated received radiance
// coefficients.
func (e *Element) ReceivedRadiance() []RGB { return e.received }

// UnshotRadiance returns the element's un-shot radiance coefficients, or
// nil when the solve is not shooting.
func (e *Element) UnshotRadiance() []RGB { return e.unshot }

// Potential, ReceivedPotential, UnshotPotential, DirectPotential expose the
// scalar importance quantities (§3).
func (e *Element) Potential() float32         { return e.potential }
func (e *Element) ReceivedPotential() float32 { return e.receivedPotential }
func (e *Element) UnshotPotential() float32   { return e.unshotPotential }
func (e *Element) DirectPotential() float32   { return e.directPotential }

// Links returns the ids of the links anchored on this element.
func (e *Element) Links() []LinkID { return e.links }

// Hierarchy owns the element and link arenas for one solve: a "solver
// context" (§9 design notes) created fresh per solve so tests can
// instantiate many independently.
type Hierarchy struct {
	elements []Element
	nextID   ElementID

	links Store

	cfg Config

	// counters, decremented on destroy; must reach zero after full
	// teardown (§5, §8 "Link count invariant").
	numElements        int
	numSurfaceElements int
	numClusters        int
}

// NewHierarchy creates an empty solver context for the given
// configuration.
func NewHierarchy(cfg Config) *Hierarchy {
	return &Hierarchy{cfg: cfg, links: newStore()}
}

// NumElements, NumSurfaceElements, NumClusters report live counts,
// asserted to reach zero after DestroyAll (§8).
func (h *Hierarchy) NumElements() int        { return h.numElements }
func (h *Hierarchy) NumSurfaceElements() int { return h.numSurfaceElements }
func (h *Hierarchy) NumClusters() int        { return h.numClusters }

// Links returns the hierarchy's link arena.
func (h *Hierarchy) Links() *Store { return &h.links }

// Link dereferences a link id against the hierarchy's arena.
func (h *Hierarchy) Link(id LinkID) *Link { return h.links.Link(id) }

// Element dereferences an id. Panics on an out-of-range id, which can only
// happen on a programming error (use of an id from a different
// Hierarchy, or of an id after DestroyAll).
func (h *Hierarchy) Element(id ElementID) *Element {
	if id < 0 || int(id) >= len(h.elements) {
		panic(fmt.Sprintf("gorad: invalid ElementID %d", id))
	}
	return &h.elements[id]
}

func (h *Hierarchy) alloc() ElementID {
	id := h.nextID
	h.nextID++
	h.elements = append(h.elements, Element{id: id, parent: NoElement, scratch: 0})
	for i := range h.elements[len(h.elements)-1].children {
		h.elements[len(h.elements)-1].children[i] = NoElement
	}
	return id
}

// CreateTopLevel builds the root surface element for a patch (§4.1).
// radiance[0] starts at the patch's self-emitted radiance, and shooting
// solves also seed unshot_radiance[0] with it.
func (h *Hierarchy) CreateTopLevel(p Patch) ElementID {
	nv := p.NumVertices()
	if nv != 3 && nv != 4 {
		panic(fmt.Sprintf("gorad: patch with %d vertices is not triangle or quad", nv))
	}
	id := h.alloc()
	e := h.Element(id)
	e.kind = SurfaceElement
	e.patch = p
	e.parent = NoElement
	e.hasUp = false
	if nv == 3 {
		e.domain = TriangleDomain
	} else {
		e.domain = QuadDomain
	}
	e.area = p.Area()
	e.blockerSize = 2 * math32.Sqrt(e.area/math32.Pi)
	e.minArea = e.area
	e.directPotential = p.DirectPotential()
	e.Rd = p.AverageAlbedo()
	emittance := p.AverageEmittance()
	e.Ed = ScaleRGB(1/math32.Pi, emittance) // exitance -> radiance
	e.IsLightSource = !emittance.IsZero()

	e.basisSize = h.cfg.BasisType.Size()
	e.usedBasis = 1
	e.radiance = make([]RGB, e.basisSize)
	e.received = make([]RGB, e.basisSize)
	e.radiance[0] = e.Ed // radiance = Ed + Rd*received, with nothing received yet
	if h.cfg.IterationMethod.Shooting() {
		e.unshot = make([]RGB, e.basisSize)
		e.unshot[0] = e.Ed
	}

	h.numElements++
	h.numSurfaceElements++
	return id
}

// RegularSubdivide is the shared quad/triangle regular subdivision; it is
// idempotent and returns the existing children array if already
// subdivided.
func (h *Hierarchy) RegularSubdivide(id ElementID) [4]ElementID {
	parent := h.Element(id)
	if parent.kind != ClusterElement && parent.hasChildren {
		return parent.children
	}
	if parent.kind == ClusterElement {
		panic("gorad: subdividing a cluster element is a programming error")
	}
	nv := parent.patch.NumVertices()
	if nv != 3 && nv != 4 {
		panic(fmt.Sprintf("gorad: patch with %d vertices is not triangle or quad", nv))
	}

	var out [4]ElementID
	for i := 0; i < 4; i++ {
		var up Affine2
		if nv == 4 {
			up = quadChildTransform(i)
		} else {
			up = triChildTransform(i)
		}
		childID := h.alloc()
		// parent may have been reallocated by h.alloc's append; refetch.
		parent = h.Element(id)
		child := h.Element(childID)
		child.kind = SurfaceElement
		child.patch = parent.patch
		child.domain = parent.domain
		child.parent = id
		child.up = up
		child.hasUp = true
		child.childNumber = int8(i)
		child.area = parent.area / 4
		child.blockerSize = 2 * math32.Sqrt(child.area/math32.Pi)
		child.minArea = child.area
		child.Rd = parent.Rd
		child.Ed = parent.Ed
		child.IsLightSource = parent.IsLightSource
		child.directPotential = parent.directPotential
		child.potential = parent.potential

		child.basisSize = parent.basisSize
		child.usedBasis = 1
		child.radiance = pushRadiance(parent.domain, h.cfg.BasisType, parent.radiance, up)
		child.received = make([]RGB, child.basisSize)
		if parent.unshot != nil {
			child.unshot = pushRadiance(parent.domain, h.cfg.BasisType, parent.unshot, up)
		}
		out[i] = childID
		h.numElements++
		h.numSurfaceElements++
	}
	parent = h.Element(id)
	parent.children = out
	parent.hasChildren = true
	return out
}

// CreateClusterHierarchy recurses into an aggregate Geometry, creating one
// cluster element per inner node and surface elements (via
// CreateTopLevel) for primitive leaves, bottom-up initialising area,
// constant radiance/emittance, the light-source flag and blocker size
// (§4.1). Returns NoElement if g is nil (missing scene data, §7).
func (h *Hierarchy) CreateClusterHierarchy(g Geometry) ElementID {
	if g == nil {
		return NoElement
	}
	if !g.IsCompound() {
		// A primitive leaf wraps its patches as a synthetic cluster of
		// surface elements so the caller always gets a cluster-rooted
		// subtree from a compound Scene.Root(), or a bare surface
		// element if there is exactly one patch.
		patches := g.Patches()
		if len(patches) == 1 {
			return h.CreateTopLevel(patches[0])
		}
		ids := make([]ElementID, len(patches))
		for i, p := range patches {
			ids[i] = h.CreateTopLevel(p)
		}
		return h.newCluster(g, ids)
	}
	children := g.Children()
	ids := make([]ElementID, len(children))
	for i, c := range children {
		ids[i] = h.CreateClusterHierarchy(c)
	}
	return h.newCluster(g, ids)
}

func (h *Hierarchy) newCluster(g Geometry, children []ElementID) ElementID {
	id := h.alloc()
	c := h.Element(id)
	c.kind = ClusterElement
	c.geom = g
	c.parent = NoElement
	c.irregular = children
	c.basisSize = 1
	c.usedBasis = 1
	c.radiance = make([]RGB, 1)
	c.received = make([]RGB, 1)
	if h.cfg.IterationMethod.Shooting() {
		c.unshot = make([]RGB, 1)
	}
	c.Rd = Gray(1) // clusters are perfect diffuse absorbers for exchange purposes

	var totalArea float32
	var radianceSum, emittanceSum RGB
	minArea := float32(math32.Inf(1))
	var isLight bool
	bb := g.Bounds()
	for _, childID := range children {
		h.Element(childID).parent = id
		child := h.Element(childID)
		totalArea += child.area
		radianceSum = AddRGB(radianceSum, ScaleRGB(child.area, child.radiance[0]))
		emittanceSum = AddRGB(emittanceSum, ScaleRGB(child.area, child.Ed))
		if child.minArea < minArea {
			minArea = child.minArea
		}
		isLight = isLight || child.IsLightSource
	}
	c.area = totalArea
	if totalArea > 0 {
		c.radiance[0] = ScaleRGB(1/totalArea, radianceSum)
		c.Ed = ScaleRGB(1/totalArea, emittanceSum)
	}
	if h.cfg.IterationMethod.Shooting() {
		var unshotSum RGB
		for _, childID := range children {
			child := h.Element(childID)
			if child.unshot != nil {
				unshotSum = AddRGB(unshotSum, ScaleRGB(child.area, child.unshot[0]))
			}
		}
		if totalArea > 0 {
			c.unshot[0] = ScaleRGB(1/totalArea, unshotSum)
		}
	}
	c.minArea = minArea
	c.IsLightSource = isLight
	size := bb.Size()
	c.blockerSize = math32.Max(size.X, math32.Max(size.Y, size.Z))

	h.numElements++
	h.numClusters++
	return id
}

// RegularLeafAt descends from top through regular children, remapping
// (u,v) at each step, returning the leaf element containing the point and
// its (u,v) within that leaf's own domain (§4.1).
func (h *Hierarchy) RegularLeafAt(top ElementID, u, v float32) (ElementID, float32, float32) {
	id := top
	for {
		e := h.Element(id)
		children, has := e.RegularChildren()
		if !has {
			return id, u, v
		}
		ci, cu, cv := locateChild(e.domain, u, v)
		id = children[ci]
		u, v = cu, cv
	}
}

// locateChild determines which regular child's sub-domain (u,v) falls
// into and returns the point remapped into that child's local frame. It
// is the geometric inverse of {quad,tri}ChildTransform.
func locateChild(kind DomainKind, u, v float32) (child int, cu, cv float32) {
	if kind == QuadDomain {
		switch {
		case u < 0.5 && v < 0.5:
			return 0, u * 2, v * 2
		case u >= 0.5 && v < 0.5:
			return 1, (u-0.5)*2, v*2
		case u < 0.5 && v >= 0.5:
			return 2, u*2, (v-0.5)*2
		default:
			return 3, (u-0.5)*2, (v-0.5)*2
		}
	}
	// Triangle: corners at (0,0),(1,0),(0,1) are children 0,1,2; the
	// central inverted child 3 covers what remains (§4.1). u+v<=0.5
	// already implies u<=0.5 and v<=0.5, so the four regions partition
	// the reference triangle without further conditions.
	switch {
	case u+v <= 0.5:
		return 0, u * 2, v * 2
	case u > 0.5:
		return 1, u*2 - 1, v * 2
	case v > 0.5:
		return 2, u * 2, v*2 - 1
	default:
		return 3, 1 - 2*u, 1 - 2*v
	}
}

// Vertices returns the 3 or 4 world-space corners of a surface element
// (composing up-transforms to the root patch and evaluating its uniform
// parametric map) or the 8 bounding-box corners of a cluster element
// (§4.1).
func (h *Hierarchy) Vertices(id ElementID) []ms3.Vec {
	e := h.Element(id)
	if e.kind == ClusterElement {
		bb := e.geom.Bounds()
		mn, mx := bb.Min, bb.Max
		return []ms3.Vec{
			{X: mn.X, Y: mn.Y, Z: mn.Z}, {X: mx.X, Y: mn.Y, Z: mn.Z},
			{X: mn.X, Y: mx.Y, Z: mn.Z}, {X: mx.X, Y: mx.Y, Z: mn.Z},
			{X: mn.X, Y: mn.Y, Z: mx.Z}, {X: mx.X, Y: mn.Y, Z: mx.Z},
			{X: mn.X, Y: mx.Y, Z: mx.Z}, {X: mx.X, Y: mx.Y, Z: mx.Z},
		}
	}
	nv := e.patch.NumVertices()
	corners := referenceCorners(e.domain, nv)
	up := composedUpTransform(h, id)
	out := make([]ms3.Vec, nv)
	for i, c := range corners {
		pu, pv := up.Apply(c[0], c[1])
		out[i] = e.patch.UniformPoint(pu, pv)
	}
	return out
}

// PointAt maps (u,v) in a surface element's own local reference domain to
// a world-space point, composing its chain of up-transforms to the root
// patch before evaluating the patch's parametric map (§3 "Parametric
// map"). Only valid for surface elements.
func (h *Hierarchy) PointAt(id ElementID, u, v float32) ms3.Vec {
	e := h.Element(id)
	up := composedUpTransform(h, id)
	pu, pv := up.Apply(u, v)
	return e.patch.UniformPoint(pu, pv)
}

// NormalAt returns a surface element's (constant across subdivision)
// outward normal.
func (h *Hierarchy) NormalAt(id ElementID) ms3.Vec {
	return h.Element(id).patch.Normal()
}

func referenceCorners(kind DomainKind, nv int) [][2]float32 {
	if kind == QuadDomain && nv == 4 {
		return [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	}
	return [][2]float32{{0, 0}, {1, 0}, {0, 1}}
}

// composedUpTransform composes an element's chain of up-transforms to the
// root patch.
func composedUpTransform(h *Hierarchy, id ElementID) Affine2 {
	e := h.Element(id)
	if !e.hasUp {
		return IdentityAffine2
	}
	return Compose(composedUpTransform(h, e.parent), e.up)
}

// ForEachLeaf performs a depth-first traversal of root's subtree, visiting
// irregular children before regular children and calling fn on every leaf
// (an element with no regular and no irregular children), in insertion
// order (§5 "Ordering").
func (h *Hierarchy) ForEachLeaf(root ElementID, fn func(ElementID)) {
	e := h.Element(root)
	if len(e.irregular) > 0 {
		for _, c := range e.irregular {
			h.ForEachLeaf(c, fn)
		}
		return
	}
	if e.hasChildren {
		for _, c := range e.children {
			h.ForEachLeaf(c, fn)
		}
		return
	}
	fn(root)
}

// Destroy recursively destroys id's regular and irregular children,
// destroys links owned on id, and decrements the live counters (§4.1,
// §5). It does not compact the arena (ids stay allocated but dead);
// DestroyAll on a throwaway Hierarchy is the normal teardown path for the
// zero-counters invariant in §8.
func (h *Hierarchy) Destroy(id ElementID) {
	e := h.Element(id)
	for _, c := range e.irregular {
		h.Destroy(c)
	}
	if e.hasChildren {
		for _, c := range e.children {
			h.Destroy(c)
		}
	}
	for _, lid := range e.links {
		h.links.Destroy(lid)
	}
	e.links = nil
	if e.kind == ClusterElement {
		h.numClusters--
	} else {
		h.numSurfaceElements--
	}
	h.numElements--
}

// DestroyAll tears down every root in roots; used at the end of a solve
// and by tests asserting the §8 zero-counters invariant.
func (h *Hierarchy) DestroyAll(roots ...ElementID) {
	for _, r := range roots {
		h.Destroy(r)
	}
}
