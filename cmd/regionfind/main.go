package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eq-zone-loader/internal/mathutil"
	"eq-zone-loader/internal/wld"
)

var kindNames = map[wld.RegionKind]string{
	wld.RegionNormal:        "normal",
	wld.RegionWater:         "water",
	wld.RegionLava:          "lava",
	wld.RegionPVP:           "pvp",
	wld.RegionZoneLine:      "zoneline",
	wld.RegionWaterBlockLOS: "water-block-los",
	wld.RegionFreezingWater: "freezing-water",
	wld.RegionSlippery:      "slippery",
	wld.RegionUnknown:       "unknown",
}

func main() {
	name := flag.String("name", "", "Scene file inside the archive (default: <zone>.wld)")
	x := flag.Float64("x", 0, "Query X")
	y := flag.Float64("y", 0, "Query Y")
	z := flag.Float64("z", 0, "Query Z")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: regionfind [flags] <archive.s3d>")
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
	if zone.BSP == nil {
		fmt.Fprintln(os.Stderr, "Error: scene carries no spatial index")
		os.Exit(1)
	}

	p := mathutil.Vec3{float32(*x), float32(*y), float32(*z)}
	region := zone.BSP.FindRegion(p)
	if region == nil {
		fmt.Printf("(%.1f %.1f %.1f): no region\n", p[0], p[1], p[2])
		return
	}

	var kinds []string
	for _, k := range region.Kinds {
		kinds = append(kinds, kindNames[k])
	}
	if len(kinds) == 0 {
		kinds = []string{"normal"}
	}

	fmt.Printf("(%.1f %.1f %.1f): %s", p[0], p[1], p[2], strings.Join(kinds, ", "))
	if region.ContainsPolygons {
		fmt.Printf("  mesh frag %d", region.MeshRef)
	}
	fmt.Println()

	if zl := zone.BSP.CheckZoneLine(p); zl != nil {
		switch zl.Kind {
		case wld.ZoneLineReference:
			fmt.Printf("  zone line: reference index %d\n", zl.Index)
		case wld.ZoneLineAbsolute:
			fmt.Printf("  zone line: zone %d at (%.0f %.0f %.0f) heading %.0f\n",
				zl.ZoneID, zl.X, zl.Y, zl.Z, zl.Heading)
		}
	}
}
