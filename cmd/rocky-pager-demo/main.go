// Command rocky-pager-demo drives a TerrainTilePager through a sequence of
// synthetic camera frames — a simulated dolly-in toward the globe surface —
// and reports tile registry churn each frame. It exercises the whole
// pipeline end to end (Map -> Factory -> Pager -> Runtime) without a GPU,
// continuing the teacher's single-binary cmd/ idiom (stdlib flag, log).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/rs/zerolog"

	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/layer"
	"github.com/pelicanmapping/rocky-terrain/internal/layer/mbtiles"
	"github.com/pelicanmapping/rocky-terrain/internal/obslog"
	"github.com/pelicanmapping/rocky-terrain/internal/runtime"
	"github.com/pelicanmapping/rocky-terrain/internal/terrain/model"
	"github.com/pelicanmapping/rocky-terrain/internal/terrain/node"
	"github.com/pelicanmapping/rocky-terrain/internal/terrain/pager"
	"github.com/pelicanmapping/rocky-terrain/internal/terrain/state"
)

func main() {
	var (
		imagePath   string
		elevPath    string
		frames      int
		concurrency int
		cacheSize   int
		logLevel    string
	)

	flag.StringVar(&imagePath, "image", "", "Path to an MBTiles file to serve as the color layer (optional)")
	flag.StringVar(&elevPath, "elevation", "", "Path to an MBTiles file to serve as the elevation layer (optional)")
	flag.IntVar(&frames, "frames", 48, "Number of synthetic camera frames to simulate")
	flag.IntVar(&concurrency, "concurrency", 4, "Worker pool concurrency")
	flag.IntVar(&cacheSize, "cache-size", 256, "Ancestor-fallback cache entries per raster kind")
	flag.StringVar(&logLevel, "log-level", "info", "Component log level: debug, info, warn, error")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rocky-pager-demo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Drives a terrain pager through synthetic camera frames and reports tile churn.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if lvl, err := zerolog.ParseLevel(logLevel); err == nil {
		obslog.SetLevel(lvl)
	}

	m := layer.NewMap("rocky-pager-demo")
	profile := mustProfile()

	if imagePath != "" {
		il := mbtiles.NewImageLayer("color", imagePath)
		if s := il.Open(context.Background()); s.Failed() {
			log.Fatalf("opening image layer %s: %v", imagePath, s)
		}
		m.AddLayer(il)
		profile = il.Profile()
	}
	if elevPath != "" {
		el := mbtiles.NewElevationLayer("elevation", elevPath)
		if s := el.Open(context.Background()); s.Failed() {
			log.Fatalf("opening elevation layer %s: %v", elevPath, s)
		}
		m.AddLayer(el)
		profile = el.Profile()
	}

	rt := runtime.New(concurrency)
	factory := model.NewFactory(cacheSize)
	p := pager.New(rt, factory, m, pager.DefaultSettings)

	root := p.CreateTile(rootKey(profile), nil, true)

	log.Printf("rocky-pager-demo: profile=%s frames=%d concurrency=%d", profile.SRS().Name, frames, concurrency)

	for frame := 1; frame <= frames; frame++ {
		ctx := dollyInFrame(root, frame, frames)
		pingTree(p, root, ctx)
		p.Update(context.Background(), uint64(frame))

		log.Printf("frame %3d: tiles=%d pending-ops=%d", frame, p.Size(), rt.PendingOps())
	}

	if err := rt.Wait(); err != nil {
		log.Fatalf("runtime shutdown: %v", err)
	}

	st := state.New()
	ds := st.Bind(nil, root.Surface)
	log.Printf("root descriptor set: color=%q elevation=%q normal=%q", ds.Color.Name, ds.Elevation.Name, ds.Normal.Name)
}

func mustProfile() geo.Profile {
	p, ok := geo.NamedProfile("global-geodetic")
	if !ok {
		log.Fatalf("loading default profile: unrecognized name")
	}
	return p
}

func rootKey(profile geo.Profile) geo.TileKey {
	return geo.TileKey{LOD: 0, X: 0, Y: 0, Profile: profile}
}

// dollyInFrame interpolates the eye position from well outside the globe
// down to just above its surface over the course of frames, so the
// screen-space subdivision criterion in internal/terrain/pager progressively
// triggers deeper LOD loads.
func dollyInFrame(root *node.TerrainTileNode, frame, frames int) pager.RecordContext {
	t := float64(frame) / float64(frames)
	radius := root.Surface.Bound.Radius
	dist := radius*20*(1-t) + radius*1.05*t

	center := root.Surface.Bound.Center
	eye := geo.Point3{X: center.X, Y: center.Y, Z: center.Z + math.Max(dist, 1)}

	return pager.RecordContext{
		Frame:          uint64(frame),
		Eye:            eye,
		ViewportHeight: 1000,
	}
}

// pingTree pings n and recursively every currently-attached child, mirroring
// a record traversal descending into whatever subtiles have already merged.
func pingTree(p *pager.Pager, n *node.TerrainTileNode, ctx pager.RecordContext) {
	p.Ping(n.Key, ctx)
	qg := n.Children()
	if qg == nil {
		return
	}
	for _, child := range qg.Children {
		if child != nil {
			pingTree(p, child, ctx)
		}
	}
}
