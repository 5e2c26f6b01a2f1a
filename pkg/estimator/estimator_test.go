package estimator

import (
	"testing"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/geo"
	"github.com/lintang-b-s/regionroute/pkg/traffic"
	"github.com/lintang-b-s/regionroute/pkg/vehicle"

	"github.com/stretchr/testify/assert"
)

func TestSegmentCostFreeFlow(t *testing.T) {
	est := New(vehicle.NewCarModel(), nil)

	// residential: car 30 km/h, category cap 30 km/h -> 30 km/h
	cost := est.SegmentCost(1000, vehicle.Residential, 1, 0, true)
	assert.InDelta(t, 1000.0/(30.0*1000.0/3600.0), cost, 1e-9)
}

func TestSegmentCostCategoryBoundsProfileSpeed(t *testing.T) {
	est := New(vehicle.NewCarModel(), nil)

	// service: car profile 15 km/h < cap 20 km/h, profile wins
	costService := est.SegmentCost(1000, vehicle.Service, 1, 0, true)
	assert.InDelta(t, 1000.0/(15.0*1000.0/3600.0), costService, 1e-9)
}

func TestSegmentCostProportionalToLength(t *testing.T) {
	est := New(vehicle.NewCarModel(), nil)

	full := est.SegmentCost(800, vehicle.Primary, 2, 0, true)
	half := est.SegmentCost(400, vehicle.Primary, 2, 0, true)
	assert.InDelta(t, full/2, half, 1e-9)
}

func TestSegmentCostTrafficFactor(t *testing.T) {
	coloring := traffic.Coloring{
		traffic.NewEdgeKey(5, 1, true): traffic.G2, // factor 0.5
	}
	est := New(vehicle.NewCarModel(), coloring)

	congested := est.SegmentCost(1000, vehicle.Primary, 5, 1, true)
	free := est.SegmentCost(1000, vehicle.Primary, 5, 1, false) // reverse has no data
	assert.InDelta(t, free*2, congested, 1e-9)
}

func TestHeuristicAdmissible(t *testing.T) {
	est := New(vehicle.NewCarModel(), nil)

	from := datastructure.NewCoordinate(-7.7828, 110.3671)
	to := datastructure.NewCoordinate(-7.8014, 110.3644)

	h := est.HeuristicCost(from, to)

	// true cost of covering the same distance on any category is never below h
	distM := geo.HaversineDistanceM(from.Lat, from.Lon, to.Lat, to.Lon)
	for c := vehicle.Category(0); c < vehicle.CategoryCount; c++ {
		if !vehicle.NewCarModel().IsAllowed(c) {
			continue
		}
		assert.LessOrEqual(t, h, est.SegmentCost(distM, c, 1, 0, true)+1e-9)
	}

	assert.Equal(t, 0.0, est.HeuristicCost(from, from))
}
