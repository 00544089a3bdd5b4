// Package cubature provides static, normalised cubature rules over the
// reference domains used by the radiosity form-factor kernel: the unit
// triangle, the unit square and the unit cube.
//
// Every rule in this package is normalised once, at construction, such
// that its weights sum to 1 over its reference domain (§4.3): a cubature
// sum Σ w[i]·f(node[i]) approximates the *average* of f over the domain,
// not its integral. Callers that need the integral multiply by the
// domain's world-space area separately (§4.4 step 5), which is why
// weights are not left at their natural quadrature-rule values.
package cubature

import "github.com/chewxy/math32"

// Node is a single weighted abscissa. T is the third barycentric
// coordinate (1-U-V) for triangle rules and is zero for quad/cube rules.
type Node struct {
	U, V, T, W float32
}

// Rule is an immutable cubature rule: a normalised set of weighted nodes
// on a reference domain.
type Rule struct {
	Nodes []Node
}

// NumNodes returns the number of cubature nodes in the rule.
func (r Rule) NumNodes() int { return len(r.Nodes) }

// gaussPoint is one 1D Gauss-Legendre abscissa/weight pair on [-1,1].
type gaussPoint struct {
	x, w float32
}

// gaussLegendreTable holds the classical Gauss-Legendre nodes for n=1..5
// points on [-1,1], enough to integrate polynomials exactly up to degree
// 2n-1 = 9.
var gaussLegendreTable = map[int][]gaussPoint{
	1: {{0, 2}},
	2: {
		{-0.5773502691896257, 1},
		{0.5773502691896257, 1},
	},
	3: {
		{-0.7745966692414834, 0.5555555555555556},
		{0, 0.8888888888888888},
		{0.7745966692414834, 0.5555555555555556},
	},
	4: {
		{-0.8611363115940526, 0.3478548451374538},
		{-0.3399810435848563, 0.6521451548625461},
		{0.3399810435848563, 0.6521451548625461},
		{0.8611363115940526, 0.3478548451374538},
	},
	5: {
		{-0.9061798459386640, 0.2369268850561891},
		{-0.5384693101056831, 0.4786286704993665},
		{0, 0.5688888888888889},
		{0.5384693101056831, 0.4786286704993665},
		{0.9061798459386640, 0.2369268850561891},
	},
}

// gaussLegendre01 returns n Gauss-Legendre nodes and weights rescaled to
// [0,1], with weights summing to 1.
func gaussLegendre01(n int) []gaussPoint {
	if n < 1 {
		n = 1
	}
	if n > 5 {
		n = 5
	}
	src := gaussLegendreTable[n]
	dst := make([]gaussPoint, len(src))
	for i, p := range src {
		dst[i] = gaussPoint{x: (p.x + 1) * 0.5, w: p.w * 0.5}
	}
	return dst
}

// pointsForDegree returns the 1D point count needed for a cubature rule
// to be exact to the requested total degree, clamped to the table's
// supported range.
func pointsForDegree(degree int) int {
	n := (degree + 2) / 2
	if n < 1 {
		n = 1
	}
	if n > 5 {
		n = 5
	}
	return n
}

func normalize(nodes []Node) Rule {
	var sum float32
	for _, n := range nodes {
		sum += n.W
	}
	if sum != 0 && sum != 1 {
		inv := 1 / sum
		for i := range nodes {
			nodes[i].W *= inv
		}
	}
	return Rule{Nodes: nodes}
}

// TriangleRule returns a cubature rule on the unit right triangle
// {(u,v): u>=0, v>=0, u+v<=1}, built via a Duffy (collapsed-square)
// transform of a tensor Gauss-Legendre rule so that arbitrary requested
// degrees need no hand-tabulated symmetric points.
func TriangleRule(degree int) Rule {
	n := pointsForDegree(degree + 1) // +1 to compensate for the Jacobian's linear factor
	gx := gaussLegendre01(n)
	gy := gaussLegendre01(n)
	nodes := make([]Node, 0, n*n)
	for _, py := range gy {
		jac := 1 - py.x
		for _, px := range gx {
			u := px.x * jac
			v := py.x
			nodes = append(nodes, Node{
				U: u,
				V: v,
				T: 1 - u - v,
				W: px.w * py.w * jac,
			})
		}
	}
	return normalize(nodes)
}

// QuadRule returns a tensor-product Gauss-Legendre cubature rule on the
// unit square [0,1]^2.
func QuadRule(degree int) Rule {
	n := pointsForDegree(degree)
	gx := gaussLegendre01(n)
	gy := gaussLegendre01(n)
	nodes := make([]Node, 0, n*n)
	for _, py := range gy {
		for _, px := range gx {
			nodes = append(nodes, Node{U: px.x, V: py.x, W: px.w * py.w})
		}
	}
	return normalize(nodes)
}

// CubeRule9 returns the fixed 9-point rule used for cluster receivers
// (§4.4): the 8 corners plus the centre of the unit cube [0,1]^3, equally
// weighted.
func CubeRule9() Rule {
	nodes := make([]Node, 0, 9)
	for _, z := range [2]float32{0, 1} {
		for _, y := range [2]float32{0, 1} {
			for _, x := range [2]float32{0, 1} {
				nodes = append(nodes, Node{U: x, V: y, T: z, W: 1})
			}
		}
	}
	nodes = append(nodes, Node{U: 0.5, V: 0.5, T: 0.5, W: 1})
	return normalize(nodes)
}

// degreeFromProduct maps a product-variant degree tag (used by
// CubatureDegree's three ProductX values in the gorad package) onto an
// equivalent simplex degree.
func degreeFromProduct(tag int) int {
	switch tag {
	case 0:
		return 4
	case 1:
		return 6
	case 2:
		return 8
	default:
		return 4
	}
}

// ForDegree resolves a CubatureDegree-like tag (1-9 direct, 10-12 product
// variants) into a triangle rule. isQuad selects QuadRule instead.
func ForDegree(tag uint8, isQuad bool) Rule {
	var degree int
	if tag >= 10 {
		degree = degreeFromProduct(int(tag) - 10)
	} else {
		degree = int(tag)
		if degree < 1 {
			degree = 1
		}
	}
	if isQuad {
		return QuadRule(degree)
	}
	return TriangleRule(degree)
}

// WeightsSumTo1 reports whether the rule's normalisation invariant holds
// within tol; exercised directly by tests, but also useful for runtime
// assertions when constructing a rule from an unexpected degree.
func WeightsSumTo1(r Rule, tol float32) bool {
	var sum float32
	for _, n := range r.Nodes {
		sum += n.W
	}
	return math32.Abs(sum-1) <= tol
}
