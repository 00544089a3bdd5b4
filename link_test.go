package gorad_test

import (
	"testing"

	"github.com/soypat/gorad"
	"github.com/soypat/gorad/scenekit"
)

func TestLinkCountersBalanceAcrossKinds(t *testing.T) {
	h := gorad.NewHierarchy(gorad.DefaultConfig())
	scene := scenekit.TwoParallelQuads(1, gorad.Gray(1), gorad.Gray(0.5))
	patches := scene.Root().(*scenekit.Leaf).Patches()
	a := h.CreateTopLevel(patches[0])
	b := h.CreateTopLevel(patches[1])

	store := h.Links()
	ss := store.NewLink(h, b, a, []float32{0.1}, 0, 1, 1, 1, 255)
	if store.Total() != 1 || store.SurfaceSurface() != 1 {
		t.Fatalf("after one surface-surface link: total=%d ss=%d", store.Total(), store.SurfaceSurface())
	}

	dup := store.StoreOn(h, a, ss)
	if store.Total() != 2 || store.SurfaceSurface() != 2 {
		t.Fatalf("after StoreOn duplicate: total=%d ss=%d", store.Total(), store.SurfaceSurface())
	}
	if !h.Link(dup).IsDuplicate() {
		t.Fatal("StoreOn must mark its copy as a duplicate")
	}

	// dup is anchored on a's interaction list, so DestroyAll frees it along
	// with the elements; ss was never anchored on either endpoint (NewLink
	// alone does not register it on an element) and must be freed directly.
	h.DestroyAll(a, b)
	store.Destroy(ss)
	if store.Total() != 0 {
		t.Fatalf("Total() = %d after destroying both links, want 0", store.Total())
	}
	if store.SurfaceSurface() != 0 {
		t.Fatalf("SurfaceSurface() = %d after destroying both links, want 0", store.SurfaceSurface())
	}
}

func TestLinkClassificationByEndpointKind(t *testing.T) {
	h := gorad.NewHierarchy(gorad.DefaultConfig())
	scene := scenekit.ClusteredOccluder(2, 0.3, gorad.Gray(4), gorad.Gray(0.5))
	root := h.CreateClusterHierarchy(scene.Root())
	c := h.Element(root)
	if !c.IsCluster() {
		t.Fatal("clustered occluder scene root must be a cluster")
	}
	clusters := c.IrregularChildren()
	if len(clusters) != 2 {
		t.Fatalf("got %d top clusters, want 2", len(clusters))
	}

	// sourceSide (emitter+occluder) synthesizes a cluster; receiverSide has
	// a single patch and is promoted straight to a surface element, so the
	// link between them is cluster-surface, not cluster-cluster.
	store := h.Links()
	id := store.NewLink(h, clusters[0], clusters[1], []float32{0.01}, 0, 1, 1, 1, 200)
	if store.ClusterSurface() != 1 {
		t.Fatalf("ClusterSurface() = %d, want 1", store.ClusterSurface())
	}
	store.Destroy(id)
	h.DestroyAll(root)
	if h.NumElements() != 0 {
		t.Fatalf("NumElements() = %d after teardown, want 0", h.NumElements())
	}
}
