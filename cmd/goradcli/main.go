// Command goradcli runs a hierarchical-refinement radiosity solve over
// one of the built-in reference scenes and reports its final stats, or
// serves the running solve over HTTP for interactive stepping.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/soypat/gorad"
	"github.com/soypat/gorad/httpapi"
	"github.com/soypat/gorad/scenekit"
	"github.com/soypat/gorad/solve"
)

func main() {
	scene := flag.String("scene", "two-quads", "reference scene: single-quad, two-quads, cornell, clustered-occluder")
	hierarchical := flag.Bool("hierarchical", true, "enable adaptive subdivision")
	clustered := flag.Bool("clustered", true, "build a cluster hierarchy over compound scenes")
	shooting := flag.Bool("shooting", false, "use Southwell shooting instead of Jacobi gathering")
	maxSteps := flag.Int("max-steps", 32, "maximum refinement-and-transport passes")
	serve := flag.String("serve", "", "if set, serve the solve over HTTP at this address instead of running to completion")
	flag.Parse()

	s := buildScene(*scene)
	if s == nil {
		log.Fatalf("goradcli: unknown scene %q", *scene)
	}

	cfg := gorad.DefaultConfig()
	cfg.Hierarchical = *hierarchical
	cfg.Clustered = *clustered
	if *shooting {
		cfg.IterationMethod = gorad.Southwell
	}

	engine, err := solve.New(s, cfg)
	if err != nil {
		log.Fatalf("goradcli: %v", err)
	}
	defer engine.Close()

	if *serve != "" {
		srv := httpapi.NewServer(httpapi.Config{Address: *serve, Debug: true}, engine)
		go srv.Hub().Run(context.Background())
		log.Printf("goradcli: serving solve at %s", *serve)
		log.Fatal(srv.Run(*serve))
	}

	for i := 0; i < *maxSteps; i++ {
		if engine.Step() == solve.Done {
			break
		}
	}
	stats := engine.Stats()
	log.Printf("goradcli: solve finished after %d iterations (%d elements, %d links)",
		stats.Iteration, stats.NumElements, stats.NumLinks)
}

func buildScene(name string) gorad.Scene {
	switch name {
	case "single-quad":
		return scenekit.SingleQuadEmitter(gorad.Gray(2))
	case "two-quads":
		return scenekit.TwoParallelQuads(1, gorad.Gray(10), gorad.Gray(0.8))
	case "cornell":
		return scenekit.CornellBox(2, gorad.Gray(5), gorad.Gray(0.7))
	case "clustered-occluder":
		return scenekit.ClusteredOccluder(1, 0.4, gorad.Gray(8), gorad.Gray(0.6))
	default:
		return nil
	}
}
