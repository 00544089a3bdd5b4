package solve_test

import (
	"testing"

	"github.com/soypat/gorad"
	"github.com/soypat/gorad/scenekit"
	"github.com/soypat/gorad/solve"
)

func runToDone(t *testing.T, e *solve.Engine, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		if e.Step() == solve.Done {
			return
		}
	}
	t.Fatalf("solve did not reach Done within %d steps", maxSteps)
}

func TestSingleQuadEmitterSolvesWithoutLinks(t *testing.T) {
	scene := scenekit.SingleQuadEmitter(gorad.Gray(2))
	cfg := gorad.DefaultConfig()
	cfg.Clustered = false
	e, err := solve.New(scene, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	runToDone(t, e, 8)
	roots := e.Roots()
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	rad := e.RadianceAt(roots[0], 0.5, 0.5)
	if rad.IsZero() {
		t.Fatal("a lone emitter's own radiance must be nonzero (self-emission, no incoming light needed)")
	}
}

func TestTwoParallelQuadsTransportsEnergy(t *testing.T) {
	scene := scenekit.TwoParallelQuads(1, gorad.Gray(10), gorad.Gray(0.8))
	cfg := gorad.DefaultConfig()
	cfg.Clustered = false
	e, err := solve.New(scene, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	runToDone(t, e, 16)
	roots := e.Roots()
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	receiver := roots[1]
	rad := e.RadianceAt(receiver, 0.5, 0.5)
	if rad.IsZero() {
		t.Fatal("a reflector facing a unit emitter a finite distance away must receive nonzero radiance")
	}
}

func TestStatsBreakdownSumsToTotalLinks(t *testing.T) {
	scene := scenekit.TwoParallelQuads(1, gorad.Gray(10), gorad.Gray(0.8))
	cfg := gorad.DefaultConfig()
	cfg.Clustered = false
	e, err := solve.New(scene, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	runToDone(t, e, 16)
	stats := e.Stats()
	sum := stats.ClusterCluster + stats.ClusterSurface + stats.SurfaceCluster + stats.SurfaceSurface
	if sum != stats.NumLinks {
		t.Fatalf("cc+cs+sc+ss = %d, want NumLinks = %d", sum, stats.NumLinks)
	}
	if stats.SurfaceElements == 0 {
		t.Fatal("two facing quads must report at least one surface element")
	}
	if stats.CPUSeconds < 0 {
		t.Fatalf("CPUSeconds = %v, want >= 0", stats.CPUSeconds)
	}
}

func TestClusteredOccluderScenePreservesElementCount(t *testing.T) {
	scene := scenekit.ClusteredOccluder(2, 0.3, gorad.Gray(5), gorad.Gray(0.5))
	cfg := gorad.DefaultConfig()
	e, err := solve.New(scene, cfg)
	if err != nil {
		t.Fatal(err)
	}

	runToDone(t, e, 16)
	stats := e.Stats()
	if stats.NumElements == 0 {
		t.Fatal("solve should have created at least the top-level elements")
	}
	e.Close()
	if e.Stats().NumElements != 0 {
		t.Fatalf("NumElements() = %d after Close, want 0", e.Stats().NumElements)
	}
}
