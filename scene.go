package gorad

import "github.com/soypat/geometry/ms3"

// RGB is a triple of radiometric quantities (radiance, power, reflectance...)
// carried per spectral channel. The zero value is black.
//
// RGB follows the value-type, free-function arithmetic convention of
// [ms3.Vec]: operations are package-level functions over immutable values
// rather than mutating methods, so an RGB can be passed and compared like
// any other small value.
type RGB struct {
	R, G, B float32
}

// Gray returns an achromatic RGB with all channels set to v.
func Gray(v float32) RGB { return RGB{R: v, G: v, B: v} }

// AddRGB returns the componentwise sum a+b.
func AddRGB(a, b RGB) RGB { return RGB{a.R + b.R, a.G + b.G, a.B + b.B} }

// SubRGB returns the componentwise difference a-b.
func SubRGB(a, b RGB) RGB { return RGB{a.R - b.R, a.G - b.G, a.B - b.B} }

// ScaleRGB returns a scaled by s.
func ScaleRGB(s float32, a RGB) RGB { return RGB{s * a.R, s * a.G, s * a.B} }

// MulRGB returns the componentwise (Hadamard) product of a and b, used to
// apply a reflectance to an incident radiance.
func MulRGB(a, b RGB) RGB { return RGB{a.R * b.R, a.G * b.G, a.B * b.B} }

// MaxComponent returns the largest of the three channels.
func (c RGB) MaxComponent() float32 {
	m := c.R
	if c.G > m {
		m = c.G
	}
	if c.B > m {
		m = c.B
	}
	return m
}

// IsZero reports whether all channels are exactly zero.
func (c RGB) IsZero() bool { return c.R == 0 && c.G == 0 && c.B == 0 }

// Patch is a planar polygon (triangle or quad) collaborator supplied by the
// external scene representation. The core treats it as read-only: no
// operation in this package mutates a Patch.
type Patch interface {
	// NumVertices returns 3 or 4.
	NumVertices() int
	// Vertex returns the i'th corner in world space, i < NumVertices().
	Vertex(i int) ms3.Vec
	// Normal returns the unit outward normal of the patch's plane.
	Normal() ms3.Vec
	// PlaneConstant returns d in the plane equation Normal()·p + d = 0.
	PlaneConstant() float32
	// Area returns the world-space area of the patch.
	Area() float32
	// Midpoint returns the area centroid in world space.
	Midpoint() ms3.Vec
	// UniformPoint maps (u,v) in the patch's reference domain ([0,1]^2 for
	// quads, barycentric-ish unit triangle for triangles) to a world point.
	UniformPoint(u, v float32) ms3.Vec
	// AverageAlbedo returns the diffuse reflectance (Rd) of the patch.
	AverageAlbedo() RGB
	// AverageEmittance returns the diffuse self-emitted exitance (Ed, in
	// W/m^2) of the patch; zero for non-emitters.
	AverageEmittance() RGB
	// DirectPotential returns the precomputed view-importance seed value
	// used when importance_driven is enabled.
	DirectPotential() float32
}

// Geometry is either a primitive leaf exposing a patch list, or a compound
// aggregate exposing children; it is the external bounding-volume hierarchy
// the core clusters over. The core never mutates Geometry.
type Geometry interface {
	// IsCompound reports whether this node aggregates children (true) or is
	// a primitive leaf exposing Patches (false).
	IsCompound() bool
	// Children returns the child geometries of a compound node. Must not be
	// called on a primitive.
	Children() []Geometry
	// Patches returns the patch list of a primitive node. Must not be
	// called on a compound node.
	Patches() []Patch
	// Bounds returns the axis-aligned bounding box of the subtree rooted
	// here.
	Bounds() ms3.Box
}

// RayHit describes the result of a ray/patch intersection query.
type RayHit struct {
	Patch Patch
	T     float32
}

// RayQueries groups the ray-intersection collaborators the form-factor
// kernel and multi-resolution visibility consult. All methods must be safe
// to call repeatedly; none mutate scene geometry.
type RayQueries interface {
	// PatchIntersect tests a single patch, returning ok=false on a miss or
	// a hit outside [tMin, tMax].
	PatchIntersect(p Patch, origin, dir ms3.Vec, tMin, tMax float32) (hit RayHit, ok bool)
	// PatchListIntersect tests a ray against a list of patches, returning
	// the closest hit.
	PatchListIntersect(patches []Patch, origin, dir ms3.Vec, tMin, tMax float32) (hit RayHit, ok bool)
}

// SceneStats carries whole-scene scalars needed to scale refinement
// thresholds and seed potential.
type SceneStats struct {
	TotalArea            float32
	MaxSelfEmittedRadiance RGB
	MaxSelfEmittedPower    RGB
	MaxDirectPotential     float32
	MaxDirectImportance    float32
}

// Scene is the external collaborator the core consumes: a top-level
// geometry tree plus whole-scene statistics and ray queries. The core never
// mutates Scene; init builds the element hierarchy and link graph over it.
type Scene interface {
	Root() Geometry
	Stats() SceneStats
	RayQueries
}
