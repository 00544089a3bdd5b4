package scenekit

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gorad"
)

// Scene implements gorad.Scene over a fixed root Geometry, computing its
// SceneStats once at construction (the scenes built here are small and
// static; a host with a dynamic scene would recompute stats on rebuild).
type Scene struct {
	Queries
	root  gorad.Geometry
	stats gorad.SceneStats
}

// NewScene walks root's patch tree once to fill in SceneStats (§6 "whole
// scene statistics").
func NewScene(root gorad.Geometry) *Scene {
	s := &Scene{root: root}
	var area float32
	var maxRad, maxPow gorad.RGB
	var maxPot, maxImp float32
	var walk func(g gorad.Geometry)
	walk = func(g gorad.Geometry) {
		if g.IsCompound() {
			for _, c := range g.Children() {
				walk(c)
			}
			return
		}
		for _, p := range g.Patches() {
			a := p.Area()
			area += a
			e := p.AverageEmittance()
			if e.MaxComponent() > maxRad.MaxComponent() {
				maxRad = e
			}
			power := gorad.ScaleRGB(a, e)
			if power.MaxComponent() > maxPow.MaxComponent() {
				maxPow = power
			}
			if d := p.DirectPotential(); d > maxPot {
				maxPot = d
				maxImp = d
			}
		}
	}
	walk(root)
	s.stats = gorad.SceneStats{
		TotalArea:              area,
		MaxSelfEmittedRadiance: maxRad,
		MaxSelfEmittedPower:    maxPow,
		MaxDirectPotential:     maxPot,
		MaxDirectImportance:    maxImp,
	}
	return s
}

func (s *Scene) Root() gorad.Geometry     { return s.root }
func (s *Scene) Stats() gorad.SceneStats { return s.stats }

// axisQuad builds an axis-aligned rectangular Quad centered at c, spanning
// halfU along u and halfV along v. Its corners run (-u-v, +u-v, +u+v,
// -u+v), so its outward normal is u×v: swapping u and v flips the facing.
func axisQuad(c ms3.Vec, u, v ms3.Vec, halfU, halfV float32, albedo gorad.RGB) *Quad {
	du := ms3.Scale(halfU, u)
	dv := ms3.Scale(halfV, v)
	v0 := ms3.Sub(ms3.Sub(c, du), dv)
	v1 := ms3.Sub(ms3.Add(c, du), dv)
	v2 := ms3.Add(ms3.Add(c, du), dv)
	v3 := ms3.Add(ms3.Sub(c, du), dv)
	return NewQuad(v0, v1, v2, v3, albedo)
}
