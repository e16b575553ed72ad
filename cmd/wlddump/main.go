package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eq-zone-loader/internal/wld"
)

func main() {
	name := flag.String("name", "", "Scene file inside the archive (default: <zone>.wld)")
	verbose := flag.Bool("v", false, "Print per-mesh and per-skeleton detail")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: wlddump [flags] <archive.s3d>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	archivePath := flag.Arg(0)

	sceneName := *name
	if sceneName == "" {
		base := filepath.Base(archivePath)
		sceneName = strings.TrimSuffix(base, filepath.Ext(base)) + ".wld"
	}

	zone, err := wld.LoadFromArchive(archivePath, sceneName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s : %s\n", archivePath, sceneName)
	fmt.Printf("  meshes:       %d\n", len(zone.Geometries))
	fmt.Printf("  object defs:  %d\n", len(zone.ObjectDefs))
	fmt.Printf("  placeables:   %d\n", len(zone.Placeables))
	fmt.Printf("  skeletons:    %d\n", len(zone.Skeletons))
	fmt.Printf("  track defs:   %d\n", len(zone.TrackDefs))
	fmt.Printf("  lights:       %d\n", len(zone.Lights))
	fmt.Printf("  vertex anims: %d\n", len(zone.VertexAnims))
	if zone.BSP != nil {
		fmt.Printf("  bsp nodes:    %d\n", len(zone.BSP.Nodes))
		fmt.Printf("  bsp regions:  %d (declared %d)\n", len(zone.BSP.Regions), zone.RegionCount)
		fmt.Printf("  pvs data:     %v\n", zone.HasPVSData())
	}

	if combined := zone.CombinedGeometry(); combined != nil {
		fmt.Printf("  combined:     %d vertices, %d triangles, %d textures\n",
			len(combined.Vertices), len(combined.Triangles), len(combined.TextureNames))
		fmt.Printf("  bounds:       min %v  max %v\n", combined.Min, combined.Max)
	}

	if !*verbose {
		return
	}

	for _, g := range zone.Geometries {
		anim := ""
		if g.VertexAnim != nil {
			anim = fmt.Sprintf("  [%d anim frames]", len(g.VertexAnim.Frames))
		}
		fmt.Printf("  mesh %-24s %6d verts %6d tris%s\n",
			g.Name, len(g.Vertices), len(g.Triangles), anim)
	}
	for idx, s := range zone.Skeletons {
		fmt.Printf("  skeleton %-20s (frag %d) %d bones, %d roots\n",
			s.Name, idx, len(s.Bones), len(s.Roots))
	}
	for _, p := range zone.Placeables {
		fmt.Printf("  placeable %-19s at %v rot %v\n", p.Name, p.Position, p.Rotation)
	}
	for _, l := range zone.Lights {
		fmt.Printf("  light %-23s at %v r=%.1f rgb=(%.2f %.2f %.2f)\n",
			l.Name, l.Position, l.Radius, l.R, l.G, l.B)
	}
}
