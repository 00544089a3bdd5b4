package scenekit

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gorad"
)

// Common axis unit vectors used to orient the fixture quads below.
var (
	axisX = ms3.Vec{X: 1}
	axisY = ms3.Vec{Y: 1}
	axisZ = ms3.Vec{Z: 1}
)

// SingleQuadEmitter builds the simplest possible scene: one unit quad at
// the origin, lying in the XY plane facing +Z, emitting uniformly. Used to
// exercise the degenerate case of a hierarchy with a single root element
// and no interactions at all.
func SingleQuadEmitter(emittance gorad.RGB) *Scene {
	q := axisQuad(ms3.Vec{}, axisX, axisY, 0.5, 0.5, gorad.RGB{}).WithEmittance(emittance)
	return NewScene(NewLeaf(q))
}

// TwoParallelQuads builds two unit quads separated by distance d along Z,
// facing each other: one emitter (at z=0, facing +Z) and one pure
// reflector (at z=d, facing -Z). This is the standard two-patch
// configuration for checking closed-form parallel-plate form factors and
// reciprocity (Fij*Ai == Fji*Aj).
func TwoParallelQuads(d float32, emittance, albedo gorad.RGB) *Scene {
	emitter := axisQuad(ms3.Vec{}, axisX, axisY, 0.5, 0.5, gorad.RGB{}).WithEmittance(emittance)
	// Facing -Z means traversal order must flip orientation relative to
	// axisQuad's default +Z-facing winding.
	receiverCenter := ms3.Vec{Z: d}
	receiver := axisQuad(receiverCenter, axisY, axisX, 0.5, 0.5, albedo)
	return NewScene(NewLeaf(emitter, receiver))
}

// CornellBox builds a three-patch open-sided box cross-section: a floor,
// a ceiling, and a back wall, forming a U-shape in the XZ/Y cross
// section. The floor is a diffuse emitter (standing in for area-light
// illumination), the ceiling and back wall are pure reflectors. Side
// walls and a front opening are intentionally omitted to keep the
// hierarchy small while still exercising multi-bounce transport between
// three mutually visible patches: the floor faces +Y, the ceiling faces
// -Y toward it, and the back wall faces -Z into the box.
func CornellBox(size float32, floorEmittance, wallAlbedo gorad.RGB) *Scene {
	h := size / 2
	floor := axisQuad(ms3.Vec{Y: -h}, axisZ, axisX, h, h, gorad.RGB{}).WithEmittance(floorEmittance)
	ceiling := axisQuad(ms3.Vec{Y: h}, axisX, axisZ, h, h, wallAlbedo)
	back := axisQuad(ms3.Vec{Z: h}, axisY, axisX, h, h, wallAlbedo)
	return NewScene(NewLeaf(floor, ceiling, back))
}

// ClusteredOccluder builds a scene with a large emitter, a receiver, and
// a small occluding patch suspended between them, grouped into two
// spatial clusters (emitter+occluder vs. receiver) so the cluster
// hierarchy and shaft-culling/visibility paths are exercised against a
// partially-blocked configuration rather than the trivial fully-visible
// case.
func ClusteredOccluder(gap, occluderSize float32, emittance, albedo gorad.RGB) *Scene {
	emitter := axisQuad(ms3.Vec{}, axisX, axisY, 1, 1, gorad.RGB{}).WithEmittance(emittance)
	occluder := axisQuad(ms3.Vec{Z: gap / 2}, axisX, axisY, occluderSize, occluderSize, gorad.RGB{})
	receiver := axisQuad(ms3.Vec{Z: gap}, axisY, axisX, 1, 1, albedo)

	sourceSide := NewLeaf(emitter, occluder)
	receiverSide := NewLeaf(receiver)
	return NewScene(NewCompound(sourceSide, receiverSide))
}
