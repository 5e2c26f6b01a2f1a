package estimator

import (
	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/geo"
	"github.com/lintang-b-s/regionroute/pkg/traffic"
	"github.com/lintang-b-s/regionroute/pkg/vehicle"
)

const kmhToMs = 1000.0 / 3600.0

// EdgeEstimator weighs directed segment traversals for one vehicle profile
// and one immutable traffic snapshot. Costs are seconds.
type EdgeEstimator struct {
	model    vehicle.Model
	coloring traffic.Coloring
}

func New(model vehicle.Model, coloring traffic.Coloring) *EdgeEstimator {
	return &EdgeEstimator{model: model, coloring: coloring}
}

// SegmentCost returns the traversal time of one directed segment. Effective
// speed is the profile speed bounded by the category limit, scaled down by
// the traffic speed group when the snapshot covers the segment. Cost is
// proportional to length, so partial traversals stay monotone.
func (e *EdgeEstimator) SegmentCost(lengthMeters float64, category vehicle.Category,
	featureID, segmentIndex uint32, forward bool) float64 {
	speed := e.model.Speed(category)
	if limit := vehicle.CategoryMaxSpeed(category); speed > limit {
		speed = limit
	}
	if speed <= 0 {
		// roads of disallowed categories are filtered at graph load, this is
		// a safety net only
		return 0
	}

	group := e.coloring.Lookup(traffic.NewEdgeKey(featureID, segmentIndex, forward))
	speed *= group.Factor()

	return lengthMeters / (speed * kmhToMs)
}

// HeuristicCost is an admissible lower bound on the travel time between two
// points: straight line distance over the fastest speed of the profile.
func (e *EdgeEstimator) HeuristicCost(from, to datastructure.Coordinate) float64 {
	distM := geo.HaversineDistanceM(from.Lat, from.Lon, to.Lat, to.Lon)
	return distM / (e.model.MaxSpeed() * kmhToMs)
}
