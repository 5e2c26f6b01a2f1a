package snap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/roadgraph"
	"github.com/lintang-b-s/regionroute/pkg/vehicle"
)

func snapTestGraph(t *testing.T) *roadgraph.Graph {
	t.Helper()

	roads := map[uint32]*roadgraph.Road{
		// west-east street
		10: roadgraph.NewRoad(vehicle.Residential, false, vehicle.AllMask,
			[]datastructure.Coordinate{
				datastructure.NewCoordinate(-6.1800, 106.8200),
				datastructure.NewCoordinate(-6.1800, 106.8210),
				datastructure.NewCoordinate(-6.1800, 106.8220),
			}),
		// parallel street roughly 110m further south
		20: roadgraph.NewRoad(vehicle.Residential, false, vehicle.AllMask,
			[]datastructure.Coordinate{
				datastructure.NewCoordinate(-6.1810, 106.8200),
				datastructure.NewCoordinate(-6.1810, 106.8210),
				datastructure.NewCoordinate(-6.1810, 106.8220),
			}),
	}
	g, err := roadgraph.NewGraph(roads, [][]datastructure.RoadPoint{
		{datastructure.NewRoadPoint(10, 0)},
		{datastructure.NewRoadPoint(10, 2)},
		{datastructure.NewRoadPoint(20, 0)},
		{datastructure.NewRoadPoint(20, 2)},
	})
	require.NoError(t, err)
	return g
}

func TestIndexGraphInsertsEverySegment(t *testing.T) {
	rs := NewRoadSnapper()
	rs.IndexGraph("jakarta", snapTestGraph(t))
	assert.Equal(t, 4, rs.Size())
}

func TestFindClosestEdgesRanksByDistance(t *testing.T) {
	rs := NewRoadSnapper()
	rs.IndexGraph("jakarta", snapTestGraph(t))

	// just south of the first segment of feature 10
	candidates := rs.FindClosestEdges(-6.18005, 106.8205)
	require.NotEmpty(t, candidates)

	best := candidates[0]
	assert.Equal(t, "jakarta", best.Region)
	assert.Equal(t, datastructure.NewRoadPoint(10, 0), best.Point)

	// the parallel street is further away in every candidate slot before it
	seenFarStreet := false
	for _, c := range candidates {
		if c.Point.FeatureID == 20 {
			seenFarStreet = true
		} else {
			assert.False(t, seenFarStreet, "feature 10 candidate ranked after feature 20")
		}
	}
}

func TestFindClosestEdgesHonorsCandidateCap(t *testing.T) {
	rs := NewRoadSnapper()

	// a long polyline with many segments near the query point
	points := make([]datastructure.Coordinate, 0, 12)
	for i := 0; i < 12; i++ {
		points = append(points, datastructure.NewCoordinate(-6.1800, 106.8200+float64(i)*0.0001))
	}
	roads := map[uint32]*roadgraph.Road{
		5: roadgraph.NewRoad(vehicle.Residential, false, vehicle.AllMask, points),
	}
	g, err := roadgraph.NewGraph(roads, [][]datastructure.RoadPoint{
		{datastructure.NewRoadPoint(5, 0)},
		{datastructure.NewRoadPoint(5, 11)},
	})
	require.NoError(t, err)
	rs.IndexGraph("jakarta", g)

	candidates := rs.FindClosestEdges(-6.1800, 106.8205)
	assert.Len(t, candidates, MaxRoadCandidates)
}

func TestFindClosestEdgesDeterministicOnTies(t *testing.T) {
	rs := NewRoadSnapper()
	rs.IndexGraph("jakarta", snapTestGraph(t))

	// equidistant between the two parallel streets, so every candidate pair
	// ties on distance and ranking falls back to the road point order
	first := rs.FindClosestEdges(-6.1805, 106.8205)
	require.NotEmpty(t, first)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, rs.FindClosestEdges(-6.1805, 106.8205))
	}
	assert.Equal(t, uint32(10), first[0].Point.FeatureID)
}

func TestFindClosestEdgesEmptyIndex(t *testing.T) {
	rs := NewRoadSnapper()
	assert.Empty(t, rs.FindClosestEdges(-6.18, 106.82))
}
