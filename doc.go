// Package gorad implements a hierarchical-refinement radiosity engine: an
// element hierarchy over patches and geometry clusters, a link (interaction)
// graph between elements, a refinement oracle driving adaptive subdivision,
// and the push-pull transport that keeps multi-resolution radiance
// consistent across levels.
//
// The package never loads scenes, writes images, or performs ray-traced
// rendering; it consumes a Scene through the interfaces in scene.go and
// produces a per-element radiance distribution sampled by RadianceAt.
package gorad
