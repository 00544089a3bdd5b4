package gorad

import (
	"gonum.org/v1/gonum/mat"

	"github.com/soypat/gorad/cubature"
)

// DomainKind selects which reference domain a surface element's basis and
// cubature nodes live on. A patch's domain kind is fixed at the root and
// shared by every descendant (quad subdivision keeps quads, triangle
// subdivision keeps triangles; §4.1).
type DomainKind uint8

const (
	TriangleDomain DomainKind = iota
	QuadDomain
)

// monomialExponents lists the (i,j) exponent pairs of the degree-ordered
// monomial basis u^i*v^j used on surface elements. The first entry is
// always (0,0) — the constant function 1 — satisfying the invariant that
// basis function 0 is the constant, which also makes degenerate
// constant-only evaluation on clusters well defined (§4.3).
var monomialExponents = [...][2]int{
	{0, 0},
	{1, 0}, {0, 1},
	{2, 0}, {1, 1}, {0, 2},
	{3, 0}, {2, 1}, {1, 2}, {0, 3},
}

// EvalBasis evaluates the first n basis functions of basisType at (u,v).
// n is normally basisType.Size() but callers performing partial
// (used_basis-limited) evaluation may request fewer.
func EvalBasis(basisType BasisType, u, v float32, n int) []float32 {
	if n <= 0 {
		n = basisType.Size()
	}
	out := make([]float32, n)
	for k := 0; k < n; k++ {
		e := monomialExponents[k]
		out[k] = ipow(u, e[0]) * ipow(v, e[1])
	}
	return out
}

func ipow(x float32, n int) float32 {
	r := float32(1)
	for i := 0; i < n; i++ {
		r *= x
	}
	return r
}

// massMatrixCache memoises the (domain kind, basis type) mass matrix: the
// average, over the reference domain, of phi_alpha*phi_beta. Populated
// lazily; a solver context never mutates scene geometry so sharing this
// cache across Engines of the same process is safe.
var massMatrixCache = map[[2]uint8]*mat.Dense{}

func projectionRule(kind DomainKind) cubature.Rule {
	if kind == QuadDomain {
		return cubature.QuadRule(7)
	}
	return cubature.TriangleRule(7)
}

// massMatrix returns (and caches) the n x n mass matrix for basisType on
// the given domain kind, using the normalised-weight cubature convention
// (§4.3): entries are domain averages, not integrals.
func massMatrix(kind DomainKind, basisType BasisType) *mat.Dense {
	key := [2]uint8{uint8(kind), uint8(basisType)}
	if m, ok := massMatrixCache[key]; ok {
		return m
	}
	n := basisType.Size()
	rule := projectionRule(kind)
	m := mat.NewDense(n, n, nil)
	for _, node := range rule.Nodes {
		phi := EvalBasis(basisType, node.U, node.V, n)
		for a := 0; a < n; a++ {
			for b := 0; b < n; b++ {
				m.Set(a, b, m.At(a, b)+float64(node.W*phi[a]*phi[b]))
			}
		}
	}
	massMatrixCache[key] = m
	return m
}

// pushRadiance restricts a parent's radiance function (given by its basis
// coefficients over its own reference domain) to a child sub-domain
// reached through up, returning the child's basis coefficients (§4.1: the
// "push" projection). Channels are solved jointly via a single mass-matrix
// factorisation.
func pushRadiance(kind DomainKind, basisType BasisType, parent []RGB, up Affine2) []RGB {
	n := basisType.Size()
	if len(parent) < n {
		n = len(parent)
	}
	childN := basisType.Size()
	rule := projectionRule(kind)
	rhs := mat.NewDense(childN, 3, nil)
	for _, node := range rule.Nodes {
		pu, pv := up.Apply(node.U, node.V)
		parentPhi := EvalBasis(basisType, pu, pv, n)
		var lp RGB
		for k := 0; k < n; k++ {
			lp = AddRGB(lp, ScaleRGB(parentPhi[k], parent[k]))
		}
		childPhi := EvalBasis(basisType, node.U, node.V, childN)
		for b := 0; b < childN; b++ {
			w := node.W * childPhi[b]
			rhs.Set(b, 0, rhs.At(b, 0)+float64(w*lp.R))
			rhs.Set(b, 1, rhs.At(b, 1)+float64(w*lp.G))
			rhs.Set(b, 2, rhs.At(b, 2)+float64(w*lp.B))
		}
	}
	return solveCoeffs(kind, basisType, rhs)
}

// pullRadiance reconciles four regular children's basis coefficients into
// their parent's, weighting each child by its 1/4 share of the parent
// domain (§4.1 regular-subdivision area invariant; §4.9 pull).
func pullRadiance(kind DomainKind, basisType BasisType, children [4][]RGB, ups [4]Affine2) []RGB {
	n := basisType.Size()
	rule := projectionRule(kind)
	rhs := mat.NewDense(n, 3, nil)
	for c := 0; c < 4; c++ {
		childCoeffs := children[c]
		if childCoeffs == nil {
			continue
		}
		childN := len(childCoeffs)
		for _, node := range rule.Nodes {
			childPhi := EvalBasis(basisType, node.U, node.V, childN)
			var lc RGB
			for k := 0; k < childN; k++ {
				lc = AddRGB(lc, ScaleRGB(childPhi[k], childCoeffs[k]))
			}
			pu, pv := ups[c].Apply(node.U, node.V)
			parentPhi := EvalBasis(basisType, pu, pv, n)
			w := node.W * 0.25 // each child covers 1/4 of the parent domain
			for a := 0; a < n; a++ {
				val := w * parentPhi[a]
				rhs.Set(a, 0, rhs.At(a, 0)+float64(val*lc.R))
				rhs.Set(a, 1, rhs.At(a, 1)+float64(val*lc.G))
				rhs.Set(a, 2, rhs.At(a, 2)+float64(val*lc.B))
			}
		}
	}
	return solveCoeffs(kind, basisType, rhs)
}

// solveCoeffs solves massMatrix(kind,basisType)*x = rhs for the n x 3
// coefficient matrix x, returning it as []RGB. Constant bases (the
// overwhelmingly common case, n=1) take a closed-form shortcut since the
// 1x1 mass matrix is trivially invertible and gonum's general solver
// would be pure overhead.
func solveCoeffs(kind DomainKind, basisType BasisType, rhs *mat.Dense) []RGB {
	n, _ := rhs.Dims()
	if n == 1 {
		m00 := massMatrix(kind, basisType).At(0, 0)
		if m00 == 0 {
			return []RGB{{}}
		}
		return []RGB{{
			R: float32(rhs.At(0, 0) / m00),
			G: float32(rhs.At(0, 1) / m00),
			B: float32(rhs.At(0, 2) / m00),
		}}
	}
	var x mat.Dense
	err := x.Solve(massMatrix(kind, basisType), rhs)
	out := make([]RGB, n)
	if err != nil {
		// Singular mass matrix (degenerate domain): fall back to the
		// constant component only, which is always well-conditioned.
		m00 := massMatrix(kind, basisType).At(0, 0)
		out[0] = RGB{
			R: float32(rhs.At(0, 0) / m00),
			G: float32(rhs.At(0, 1) / m00),
			B: float32(rhs.At(0, 2) / m00),
		}
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = RGB{R: float32(x.At(i, 0)), G: float32(x.At(i, 1)), B: float32(x.At(i, 2))}
	}
	return out
}

// pushPotential restricts a parent's scalar potential to a child: unlike
// radiance, potential is inherited scalar-wise (§4.1: "potential is
// inherited scalar-wise"), i.e. unchanged by subdivision.
func pushPotential(parent float32) float32 { return parent }

// pullPotential reconciles four children's potentials into their parent
// as an unweighted mean, mirroring pushPotential's scalar treatment.
func pullPotential(children [4]float32, present [4]bool) float32 {
	var sum float32
	var count float32
	for i, p := range present {
		if p {
			sum += children[i]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / count
}
