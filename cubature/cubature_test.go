package cubature

import "testing"

const tol = 1e-5

func TestTriangleRuleWeightsSumToOne(t *testing.T) {
	for degree := 1; degree <= 9; degree++ {
		r := TriangleRule(degree)
		if !WeightsSumTo1(r, tol) {
			t.Errorf("degree %d: weights do not sum to 1", degree)
		}
		if r.NumNodes() == 0 {
			t.Errorf("degree %d: empty rule", degree)
		}
	}
}

func TestQuadRuleWeightsSumToOne(t *testing.T) {
	for degree := 1; degree <= 9; degree++ {
		r := QuadRule(degree)
		if !WeightsSumTo1(r, tol) {
			t.Errorf("degree %d: weights do not sum to 1", degree)
		}
	}
}

func TestCubeRule9(t *testing.T) {
	r := CubeRule9()
	if r.NumNodes() != 9 {
		t.Fatalf("want 9 nodes, got %d", r.NumNodes())
	}
	if !WeightsSumTo1(r, tol) {
		t.Error("cube rule weights do not sum to 1")
	}
}

func TestTriangleNodesInsideDomain(t *testing.T) {
	r := TriangleRule(5)
	for _, n := range r.Nodes {
		if n.U < -tol || n.V < -tol || n.U+n.V > 1+tol {
			t.Errorf("node %v outside reference triangle", n)
		}
	}
}

func TestForDegreeProductVariants(t *testing.T) {
	for _, tag := range []uint8{10, 11, 12} {
		r := ForDegree(tag, false)
		if !WeightsSumTo1(r, tol) {
			t.Errorf("product tag %d: weights do not sum to 1", tag)
		}
	}
}
