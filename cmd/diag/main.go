package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/star/covergrid/internal/footprint"
	"github.com/star/covergrid/internal/geometry"
)

// Quick footprint inspection for a single satellite position. Prints the
// coverage cone and every cell of the rasterized footprint.
func main() {
	if len(os.Args) < 4 || len(os.Args) > 5 {
		fmt.Fprintf(os.Stderr, "usage: %s <lat> <lon> <alt-km> [min-elevation-deg]\n", os.Args[0])
		os.Exit(2)
	}

	lat := parseArg(os.Args[1], "lat")
	lon := parseArg(os.Args[2], "lon")
	altKm := parseArg(os.Args[3], "alt-km")
	minElev := 35.0
	if len(os.Args) == 5 {
		minElev = parseArg(os.Args[4], "min-elevation-deg")
	}

	half, err := geometry.CapHalfAngle(altKm, minElev)
	if err != nil {
		fmt.Println("ERROR computing coverage cone:", err)
		os.Exit(1)
	}
	fmt.Printf("cap half-angle: %.4f rad (%.2f°)\n", half, geometry.Degrees(half))
	if area, err := geometry.CapSurfaceArea(altKm, minElev); err == nil {
		fmt.Printf("cap area: %.0f km²\n", area)
	}

	rast := footprint.NewRasterizer(footprint.DefaultConfig())
	cells, err := rast.Rasterize(lat, lon, half)
	if err != nil {
		fmt.Println("ERROR rasterizing footprint:", err)
		os.Exit(1)
	}

	ids := make([]string, 0, len(cells))
	for c := range cells {
		ids = append(ids, c.String())
	}
	sort.Strings(ids)

	fmt.Printf("footprint: %d cells at resolution %d\n", len(cells), rast.Resolution())
	for _, id := range ids {
		fmt.Println(" ", id)
	}
}

func parseArg(s, name string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %q is not a number\n", name, s)
		os.Exit(2)
	}
	return v
}
