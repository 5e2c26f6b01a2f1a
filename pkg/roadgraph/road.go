package roadgraph

import (
	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/geo"
	"github.com/lintang-b-s/regionroute/pkg/vehicle"
)

// Road is one road feature of the region: an ordered polyline plus the
// attributes the cost model needs. Roads are immutable after graph load.
type Road struct {
	Category vehicle.Category
	Oneway   bool
	Access   vehicle.Mask
	Points   []datastructure.Coordinate

	segmentLengths []float64 // meters, cached at construction
}

func NewRoad(category vehicle.Category, oneway bool, access vehicle.Mask,
	points []datastructure.Coordinate) *Road {
	lengths := make([]float64, 0, max(len(points)-1, 0))
	for i := 0; i+1 < len(points); i++ {
		lengths = append(lengths, geo.HaversineDistanceM(
			points[i].Lat, points[i].Lon, points[i+1].Lat, points[i+1].Lon))
	}
	return &Road{
		Category:       category,
		Oneway:         oneway,
		Access:         access,
		Points:         points,
		segmentLengths: lengths,
	}
}

func (r *Road) PointsCount() int {
	return len(r.Points)
}

// SegmentLengthM returns the length in meters of the segment starting at
// point index i.
func (r *Road) SegmentLengthM(i int) float64 {
	return r.segmentLengths[i]
}
