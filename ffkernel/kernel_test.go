package ffkernel_test

import (
	"testing"

	"github.com/soypat/gorad"
	"github.com/soypat/gorad/ffkernel"
	"github.com/soypat/gorad/scenekit"
)

func newHierarchy(cfg gorad.Config) *gorad.Hierarchy {
	return gorad.NewHierarchy(cfg)
}

func TestFacingParallelQuadsFaceEachOther(t *testing.T) {
	scene := scenekit.TwoParallelQuads(1, gorad.Gray(5), gorad.Gray(0.5))
	cfg := gorad.DefaultConfig()
	cfg.Clustered = false
	h := newHierarchy(cfg)

	patches := scene.Root().Patches()
	if len(patches) != 2 {
		t.Fatalf("got %d patches, want 2 (emitter, receiver)", len(patches))
	}
	emitter := h.CreateTopLevel(patches[0])
	receiver := h.CreateTopLevel(patches[1])
	defer h.DestroyAll(emitter, receiver)

	if !ffkernel.Facing(h, receiver, emitter) {
		t.Fatal("two quads facing each other across a gap must report Facing")
	}
}

func TestPointAtIsDeterministic(t *testing.T) {
	scene := scenekit.SingleQuadEmitter(gorad.Gray(1))
	cfg := gorad.DefaultConfig()
	cfg.Clustered = false
	h := newHierarchy(cfg)

	var patch gorad.Patch
	root := scene.Root()
	if root.IsCompound() {
		patch = root.Children()[0].Patches()[0]
	} else {
		patch = root.Patches()[0]
	}
	id := h.CreateTopLevel(patch)
	defer h.DestroyAll(id)

	p1 := h.PointAt(id, 0.5, 0.5)
	p2 := h.PointAt(id, 0.5, 0.5)
	if p1 != p2 {
		t.Fatalf("PointAt(0.5,0.5) should be deterministic, got %v and %v", p1, p2)
	}
}

func TestAreaToAreaFormFactorBetweenParallelQuadsIsPositive(t *testing.T) {
	scene := scenekit.TwoParallelQuads(1, gorad.Gray(5), gorad.Gray(0.5))
	cfg := gorad.DefaultConfig()
	cfg.Clustered = false
	h := newHierarchy(cfg)

	patches := scene.Root().Patches()
	if len(patches) != 2 {
		t.Fatalf("got %d patches, want 2 (emitter, receiver)", len(patches))
	}
	emitter := h.CreateTopLevel(patches[0])
	receiver := h.CreateTopLevel(patches[1])
	defer h.DestroyAll(emitter, receiver)

	k, _, vis, ok := ffkernel.AreaToAreaFormFactor(h, cfg, receiver, emitter, scene, nil)
	if !ok {
		t.Fatal("parallel facing quads should produce a valid form factor")
	}
	if vis == 0 {
		t.Fatal("with no occluder candidates, visibility must be unoccluded")
	}
	if len(k) != 1 || k[0] <= 0 {
		t.Fatalf("k = %v, want a single positive coefficient", k)
	}
}

func TestShaftClassifyOutsideSkipsDisjointBounds(t *testing.T) {
	scene := scenekit.ClusteredOccluder(2, 0.3, gorad.Gray(5), gorad.Gray(0.5))
	root := scene.Root()
	if !root.IsCompound() {
		t.Fatal("ClusteredOccluder should return a compound root")
	}
	// Build a shaft around the first child only; the second child's far
	// bounds should classify as Outside.
	shaft := ffkernel.BuildBoxShaft(root.Children()[0].Bounds(), root.Children()[0].Bounds())
	got := shaft.Classify(root.Children()[1].Bounds())
	if got != ffkernel.Outside {
		t.Fatalf("the receiver side lies beyond the source-side shaft and should classify as Outside, got %v", got)
	}
}

func TestCandidateListOmitsMarkedGeometry(t *testing.T) {
	scene := scenekit.ClusteredOccluder(2, 0.3, gorad.Gray(5), gorad.Gray(0.5))
	root := scene.Root()
	shaft := ffkernel.BuildBoxShaft(root.Bounds(), root.Bounds())
	shaft.Omit(root)
	got := ffkernel.CandidateList(root, &shaft)
	if len(got) != 0 {
		t.Fatalf("omitting the root should yield no candidates, got %d", len(got))
	}
}

func TestMinFeatureSizeScalesWithArea(t *testing.T) {
	small := ffkernel.MinFeatureSize(1, 1e-6)
	large := ffkernel.MinFeatureSize(100, 1e-6)
	if !(large > small) {
		t.Fatalf("MinFeatureSize should grow with total area: small=%v large=%v", small, large)
	}
}
