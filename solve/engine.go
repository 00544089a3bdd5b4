package solve

import (
	"time"

	"github.com/soypat/geometry/ms3"
	"gonum.org/v1/gonum/stat"

	"github.com/soypat/gorad"
	"github.com/soypat/gorad/ffkernel"
	"github.com/soypat/gorad/zbuffer"
)

// Status is returned from Engine.Step, grounded on GalerkinRadiosity.cpp's
// iteration_nr-driven loop: the caller re-invokes Step until it reports
// Done.
type Status uint8

const (
	Continue Status = iota
	Done
)

// interaction is one live link in the Engine's working set. It holds only
// the link id; occluderCandidates re-walks the scene tree from its root
// for every link it builds.
type interaction struct {
	link gorad.LinkID
}

// Engine drives one radiosity solve: it owns a Hierarchy built over a
// Scene, the active set of interaction links, and the iteration count,
// exposing init/step/radiance_at/stats per §4.10.
type Engine struct {
	h       *gorad.Hierarchy
	scene   gorad.Scene
	cfg     gorad.Config
	roots    []gorad.ElementID
	working  []interaction
	iter     int
	done     bool
	maxIter  int
	renderer *zbuffer.Renderer
	start    time.Time

	// ambientHistory records one ambient-radiance sample per completed
	// iteration (§4.10: "scene total un-shot power / total area, used
	// for visualisation only"), shooting solves only; Stats() reduces it
	// with gonum/stat for a running mean/variance a host can chart
	// without recomputing it from Stats() snapshots itself.
	ambientHistory []float64
}

// Stats summarizes the running solve, exposed for monitoring
// (gorad/httpapi streams this) and implementing §6's
// `Engine::stats() → {elements, surface_elements, clusters, interactions,
// cc/cs/sc/ss, iteration_number, cpu_seconds}` contract.
type Stats struct {
	Iteration       int
	NumElements     int
	SurfaceElements int
	Clusters        int
	NumLinks        int
	ClusterCluster  int
	ClusterSurface  int
	SurfaceCluster  int
	SurfaceSurface  int
	Done            bool
	CPUSeconds      float64

	// AmbientRadiance is the most recent "scene total un-shot power /
	// total area" estimate (§4.10), zero for gathering solves.
	// UnshotPowerMean/Variance reduce the whole AmbientRadiance history
	// with gonum/stat, a running summary a host can display without
	// polling every intermediate Stats() snapshot itself.
	AmbientRadiance    float32
	UnshotPowerMean    float64
	UnshotPowerVariance float64
}

// New builds the element hierarchy over scene and seeds the initial
// interaction set between every pair of mutually facing top-level
// elements (GalerkinRadiosity.cpp's doGalerkinOneBounce-equivalent
// bootstrap), ready for repeated Step calls.
func New(scene gorad.Scene, cfg gorad.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := gorad.NewHierarchy(cfg)
	e := &Engine{h: h, scene: scene, cfg: cfg, maxIter: 64, renderer: zbuffer.NewRenderer(cfg.ScratchFrameBufferSize), start: time.Now()}

	root := scene.Root()
	if root == nil {
		e.done = true
		return e, nil
	}
	if cfg.Clustered {
		e.roots = []gorad.ElementID{h.CreateClusterHierarchy(root)}
	} else {
		var walk func(g gorad.Geometry)
		walk = func(g gorad.Geometry) {
			if g.IsCompound() {
				for _, c := range g.Children() {
					walk(c)
				}
				return
			}
			for _, p := range g.Patches() {
				e.roots = append(e.roots, h.CreateTopLevel(p))
			}
		}
		walk(root)
	}

	for i := 0; i < len(e.roots); i++ {
		for j := 0; j < len(e.roots); j++ {
			if i == j {
				continue
			}
			if in, ok := e.link(e.roots[i], e.roots[j]); ok {
				e.working = append(e.working, in)
			}
		}
	}
	return e, nil
}

// link creates (and stores, shooting on the source / gathering on the
// receiver per link.go's StoreOn convention) a single interaction between
// rcv and src, if they face each other at all and are not fully
// occluded.
func (e *Engine) link(rcv, src gorad.ElementID) (interaction, bool) {
	candidates := e.occluderCandidates(rcv, src)
	k, deltaK, vis, ok := ffkernel.AreaToAreaFormFactor(e.h, e.cfg, rcv, src, e.scene, candidates)
	if !ok || vis == 0 {
		return interaction{}, false
	}
	re, se := e.h.Element(rcv), e.h.Element(src)
	nRcv, nSrc := 1, 1
	if !re.IsCluster() {
		nRcv = re.UsedBasis()
	}
	if !se.IsCluster() {
		nSrc = se.UsedBasis()
	}
	id := e.h.Links().NewLink(e.h, rcv, src, k, deltaK, nRcv, nSrc, 1, vis)
	host := rcv
	if e.cfg.IterationMethod.Shooting() {
		host = src
	}
	anchored := e.h.Links().StoreOn(e.h, host, id)
	e.h.Links().Destroy(id) // id's own storage now lives solely in the anchored duplicate
	return interaction{link: anchored}, true
}

// occluderCandidates shaft-culls the scene for geometry that might
// occlude rcv from src. The two endpoints are not explicitly omitted:
// Transmittance's tMin/tMax margins around the ray already exclude hits
// on the sample points themselves, and a subdivided element no longer
// corresponds to a single Geometry node to omit by reference.
func (e *Engine) occluderCandidates(rcv, src gorad.ElementID) []gorad.Patch {
	if !e.cfg.ExactVisibility && !e.cfg.MultiResVisibility {
		return nil
	}
	root := e.scene.Root()
	if root == nil {
		return nil
	}
	a, b := e.h.Element(rcv), e.h.Element(src)
	shaft := ffkernel.BuildBoxShaft(boundsOf(a, rcv, e.h), boundsOf(b, src, e.h))
	return ffkernel.CandidateList(root, &shaft)
}

func boundsOf(e *gorad.Element, id gorad.ElementID, h *gorad.Hierarchy) ms3.Box {
	if e.IsCluster() {
		return e.Geometry().Bounds()
	}
	vs := h.Vertices(id)
	bb := ms3.Box{Min: vs[0], Max: vs[0]}
	for _, v := range vs[1:] {
		bb = bb.Union(ms3.Box{Min: v, Max: v})
	}
	return bb
}

// Step runs one refinement-and-transport pass over the working
// interaction set, subdividing links the oracle flags as inaccurate and
// applying light transport to the ones it accepts (§4.8, §4.9). It
// returns Done once a pass produces no further subdivisions or the
// iteration cap is hit.
func (e *Engine) Step() Status {
	if e.done {
		return Done
	}
	e.iter++
	stats := e.scene.Stats()
	var next []interaction
	refined := false

	for _, in := range e.working {
		l := e.h.Link(in.link)
		switch Evaluate(e.h, e.cfg, stats, l) {
		case SubdivideReceiver:
			refined = true
			for _, child := range e.subdivide(l.Receiver) {
				e.linkAppend(&next, child, l.Source)
			}
		case SubdivideSource:
			refined = true
			for _, child := range e.subdivide(l.Source) {
				e.linkAppend(&next, l.Receiver, child)
			}
		default:
			ComputeLightTransport(e.h, e.cfg, l)
			RefineClusterGatherZVisibility(e.h, e.cfg, e.renderer, l)
			next = append(next, in)
		}
	}
	e.working = next
	e.pullAndReflect()
	e.recordAmbientEstimate(stats)

	if !refined || e.iter >= e.maxIter {
		e.done = true
		return Done
	}
	return Continue
}

// subdivide returns id's finer children, regular-subdividing a surface
// element or exposing a cluster's fixed irregular children (clusters are
// never created on demand here; a single-patch geometry leaf is built as
// a surface element rather than a wrapping cluster, so it subdivides
// regularly).
func (e *Engine) subdivide(id gorad.ElementID) []gorad.ElementID {
	el := e.h.Element(id)
	if el.IsCluster() {
		return el.IrregularChildren()
	}
	children := e.h.RegularSubdivide(id)
	return children[:]
}

func (e *Engine) linkAppend(next *[]interaction, rcv, src gorad.ElementID) {
	if in, ok := e.link(rcv, src); ok {
		*next = append(*next, in)
	}
}

// pullAndReflect runs the full §4.9 push-pull reconciliation over the
// whole hierarchy — a bottom-up pull averaging/projecting every
// non-leaf's radiance, un-shot radiance and potential from its children,
// followed by a top-down push redistributing each parent's received
// contribution back into those same children (gorad.Hierarchy.PullPush)
// — and then, at every leaf, applies the reflection equation (radiance =
// Ed + Rd*received), clears received for the next pass, and (shooting
// only) moves the newly reflected contribution into un-shot radiance so
// it is available to shoot on the next iteration.
func (e *Engine) pullAndReflect() {
	e.h.PullPush(e.roots...)
	shooting := e.cfg.IterationMethod.Shooting()
	for _, root := range e.roots {
		e.h.ForEachLeaf(root, func(id gorad.ElementID) {
			el := e.h.Element(id)
			received := el.ReceivedRadiance()
			rad := el.Radiance()
			unshot := el.UnshotRadiance()
			for i := range rad {
				if i >= len(received) {
					break
				}
				contribution := gorad.MulRGB(el.Rd, received[i])
				rad[i] = gorad.AddRGB(el.Ed, contribution)
				if shooting && i < len(unshot) {
					unshot[i] = gorad.AddRGB(unshot[i], contribution)
				}
				received[i] = gorad.RGB{}
			}
		})
	}
}

// RadianceAt evaluates the solved radiance at (u,v) on the given element,
// summing its basis coefficients (§4.10 "radiance_at").
func (e *Engine) RadianceAt(id gorad.ElementID, u, v float32) gorad.RGB {
	el := e.h.Element(id)
	n := el.UsedBasis()
	if n == 0 {
		n = 1
	}
	phi := gorad.EvalBasis(e.cfg.BasisType, u, v, n)
	var out gorad.RGB
	rad := el.Radiance()
	for i := 0; i < n && i < len(rad); i++ {
		out = gorad.AddRGB(out, gorad.ScaleRGB(phi[i], rad[i]))
	}
	return out
}

// Stats reports the solve's current progress.
func (e *Engine) Stats() Stats {
	links := e.h.Links()
	s := Stats{
		Iteration:       e.iter,
		NumElements:     e.h.NumElements(),
		SurfaceElements: e.h.NumSurfaceElements(),
		Clusters:        e.h.NumClusters(),
		NumLinks:        links.Total(),
		ClusterCluster:  links.ClusterCluster(),
		ClusterSurface:  links.ClusterSurface(),
		SurfaceCluster:  links.SurfaceCluster(),
		SurfaceSurface:  links.SurfaceSurface(),
		Done:            e.done,
		CPUSeconds:      time.Since(e.start).Seconds(),
	}
	if n := len(e.ambientHistory); n > 0 {
		s.AmbientRadiance = float32(e.ambientHistory[n-1])
		s.UnshotPowerMean, s.UnshotPowerVariance = stat.MeanVariance(e.ambientHistory, nil)
	}
	return s
}

// recordAmbientEstimate appends this iteration's "total un-shot power /
// total area" sample (§4.10) to ambientHistory. Gathering solves have no
// un-shot radiance to sum, so the estimate stays at zero for them.
func (e *Engine) recordAmbientEstimate(stats gorad.SceneStats) {
	if !e.cfg.IterationMethod.Shooting() || stats.TotalArea <= 0 {
		return
	}
	var power float32
	for _, root := range e.roots {
		e.h.ForEachLeaf(root, func(id gorad.ElementID) {
			el := e.h.Element(id)
			unshot := el.UnshotRadiance()
			if len(unshot) == 0 {
				return
			}
			power += el.Area() * unshot[0].MaxComponent()
		})
	}
	e.ambientHistory = append(e.ambientHistory, float64(power/stats.TotalArea))
}

// Hierarchy exposes the underlying element/link arena for callers that
// need direct access (tests, scenekit-driven tools).
func (e *Engine) Hierarchy() *gorad.Hierarchy { return e.h }

// Roots returns the top-level element ids the solve was seeded with.
func (e *Engine) Roots() []gorad.ElementID { return e.roots }

// Close tears down the engine's element and link arena.
func (e *Engine) Close() {
	e.h.DestroyAll(e.roots...)
}
