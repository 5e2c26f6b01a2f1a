package router

import (
	"fmt"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/geo"
	"github.com/lintang-b-s/regionroute/pkg/roadgraph"
)

// buildRoute turns redressed route points into the deliverable route. The
// directions engine doubles every interior junction in its polyline, which is
// verified here rather than assumed: a size mismatch aborts the route instead
// of emitting a corrupt timing table.
func buildRoute(routePoints []datastructure.RoutePoint, starter *roadgraph.Starter,
	directions DirectionsEngine) (datastructure.Route, error) {
	if len(routePoints) == 0 {
		return datastructure.Route{}, fmt.Errorf("no route points to build from")
	}

	// collapse consecutive points with identical geography, keeping the
	// earlier arrival time
	deduped := routePoints[:1]
	for _, rp := range routePoints[1:] {
		prev := deduped[len(deduped)-1]
		if starter.GetPoint(rp.Point) == starter.GetPoint(prev.Point) {
			continue
		}
		deduped = append(deduped, rp)
	}
	routePoints = deduped

	if len(routePoints) == 1 {
		point := starter.GetPoint(routePoints[0].Point)
		return datastructure.Route{
			Polyline: []datastructure.Coordinate{point},
			Times:    []datastructure.TimeIndex{{Index: 0, Time: routePoints[0].Time}},
			Eta:      routePoints[0].Time,
		}, nil
	}

	junctions := make([]datastructure.Junction, 0, len(routePoints))
	for _, rp := range routePoints {
		junctions = append(junctions, datastructure.NewJunction(starter.GetPoint(rp.Point)))
	}

	polyline, instructions, err := directions.Reconstruct(junctions)
	if err != nil {
		return datastructure.Route{}, fmt.Errorf("reconstruct junctions: %w", err)
	}

	if len(polyline)+2 != 2*len(routePoints) {
		return datastructure.Route{}, fmt.Errorf(
			"reconstructed polyline has %d points, want %d for %d route points",
			len(polyline), 2*len(routePoints)-2, len(routePoints))
	}
	if polyline[0] != junctions[0].Point ||
		polyline[len(polyline)-1] != junctions[len(junctions)-1].Point {
		return datastructure.Route{}, fmt.Errorf("reconstruction moved the route endpoints")
	}

	// first and last polyline points take the terminal route point times,
	// every interior route point covers its two duplicated polyline indices
	times := make([]datastructure.TimeIndex, len(polyline))
	times[0] = datastructure.TimeIndex{Index: 0, Time: routePoints[0].Time}
	for i := 1; i+1 < len(routePoints); i++ {
		t := routePoints[i].Time
		times[2*i-1] = datastructure.TimeIndex{Index: 2*i - 1, Time: t}
		times[2*i] = datastructure.TimeIndex{Index: 2 * i, Time: t}
	}
	last := len(polyline) - 1
	times[last] = datastructure.TimeIndex{
		Index: last, Time: routePoints[len(routePoints)-1].Time,
	}

	dist := 0.0
	for i := 1; i < len(polyline); i++ {
		dist += geo.HaversineDistanceM(polyline[i-1].Lat, polyline[i-1].Lon,
			polyline[i].Lat, polyline[i].Lon)
	}

	return datastructure.Route{
		Polyline:     polyline,
		Times:        times,
		Instructions: instructions,
		Eta:          routePoints[len(routePoints)-1].Time,
		Dist:         dist,
	}, nil
}
