package gorad

// Affine2 is the 2x2-plus-translation "up-transform" mapping a surface
// sub-element's local (u,v) to its parent's (u,v) (§3 "Parametric map").
// The identity transform (present at the top level, where it is simply
// omitted) is Affine2{A: 1, D: 1}.
type Affine2 struct {
	A, B, C, D float32
	Tx, Ty     float32
}

// IdentityAffine2 is the neutral up-transform.
var IdentityAffine2 = Affine2{A: 1, D: 1}

// Apply maps (u,v) in the child's local frame to the parent's frame.
func (m Affine2) Apply(u, v float32) (pu, pv float32) {
	return m.A*u + m.B*v + m.Tx, m.C*u + m.D*v + m.Ty
}

// Compose returns the up-transform equivalent to first applying inner,
// then outer: Compose(outer, inner).Apply(u,v) == outer.Apply(inner.Apply(u,v)).
// Composing a leaf's chain of up-transforms up to the top yields the
// (u,v) on the root patch (§3).
func Compose(outer, inner Affine2) Affine2 {
	// Build the composed linear map by applying outer to inner's basis
	// vectors and translation.
	a, c := outer.Apply2x2(inner.A, inner.C)
	b, d := outer.Apply2x2(inner.B, inner.D)
	tx, ty := outer.Apply(inner.Tx, inner.Ty)
	return Affine2{A: a, B: b, C: c, D: d, Tx: tx, Ty: ty}
}

// Apply2x2 applies only the linear (non-translating) part of the
// transform, used internally by Compose.
func (m Affine2) Apply2x2(x, y float32) (float32, float32) {
	return m.A*x + m.B*y, m.C*x + m.D*y
}

// quadChildTransform returns the up-transform of regular quad child i
// (0=SW, 1=SE, 2=NW, 3=NE), each mapping the child's unit square onto
// the corresponding quadrant of the parent's unit square.
func quadChildTransform(i int) Affine2 {
	switch i {
	case 0:
		return Affine2{A: 0.5, D: 0.5}
	case 1:
		return Affine2{A: 0.5, D: 0.5, Tx: 0.5}
	case 2:
		return Affine2{A: 0.5, D: 0.5, Ty: 0.5}
	case 3:
		return Affine2{A: 0.5, D: 0.5, Tx: 0.5, Ty: 0.5}
	default:
		panic("quadChildTransform: child index out of range")
	}
}

// triChildTransform returns the up-transform of regular triangle child i:
// 0,1,2 are the corner triangles at the three vertices of the unit right
// triangle, and 3 is the central triangle, inverted, with negative scale
// factors and translation (0.5,0.5) per §4.1.
func triChildTransform(i int) Affine2 {
	switch i {
	case 0: // corner at (0,0)
		return Affine2{A: 0.5, D: 0.5}
	case 1: // corner at (1,0)
		return Affine2{A: 0.5, D: 0.5, Tx: 0.5}
	case 2: // corner at (0,1)
		return Affine2{A: 0.5, D: 0.5, Ty: 0.5}
	case 3: // central, inverted
		return Affine2{A: -0.5, D: -0.5, Tx: 0.5, Ty: 0.5}
	default:
		panic("triChildTransform: child index out of range")
	}
}
