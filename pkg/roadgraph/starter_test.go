package roadgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/regionroute/pkg/estimator"
	"github.com/lintang-b-s/regionroute/pkg/vehicle"
)

// corridorGraph is a single road, feature 7, running through five points with
// joints only at both ends: joint 0 at point 0, joint 1 at point 4.
func corridorGraph(t *testing.T, oneway bool) *Graph {
	t.Helper()

	roads := map[uint32]*Road{
		7: NewRoad(vehicle.Residential, oneway, vehicle.AllMask, []datastructure.Coordinate{
			datastructure.NewCoordinate(-6.1800, 106.8200),
			datastructure.NewCoordinate(-6.1800, 106.8205),
			datastructure.NewCoordinate(-6.1800, 106.8210),
			datastructure.NewCoordinate(-6.1800, 106.8215),
			datastructure.NewCoordinate(-6.1800, 106.8220),
		}),
	}
	g, err := NewGraph(roads, [][]datastructure.RoadPoint{
		{datastructure.NewRoadPoint(7, 0)},
		{datastructure.NewRoadPoint(7, 4)},
	})
	require.NoError(t, err)
	return g
}

func carEstimator() *estimator.EdgeEstimator {
	return estimator.New(vehicle.NewCarModel(), nil)
}

func searchTargets(edges []routingalgorithm.Edge[Vertex]) []Vertex {
	targets := make([]Vertex, 0, len(edges))
	for _, e := range edges {
		targets = append(targets, e.To)
	}
	return targets
}

func TestStarterValidatesRoadPoints(t *testing.T) {
	g := corridorGraph(t, false)

	_, err := NewStarter(g, carEstimator(),
		datastructure.NewRoadPoint(99, 0), datastructure.NewRoadPoint(7, 1))
	assert.Error(t, err)

	_, err = NewStarter(g, carEstimator(),
		datastructure.NewRoadPoint(7, 1), datastructure.NewRoadPoint(7, 42))
	assert.Error(t, err)
}

func TestStarterRealJointEndpoints(t *testing.T) {
	g := crossGraph(t)
	s, err := NewStarter(g, carEstimator(),
		datastructure.NewRoadPoint(10, 0), datastructure.NewRoadPoint(20, 2))
	require.NoError(t, err)

	start, finish := s.GetStartVertex(), s.GetFinishVertex()
	assert.Equal(t, Vertex{Prev: 0, Curr: 0}, start)
	assert.Equal(t, Vertex{Prev: 4, Curr: 4}, finish)

	out := s.GetOutgoingEdges(start)
	require.Len(t, out, 1)
	assert.Equal(t, Vertex{Prev: 0, Curr: 1}, out[0].To)
	assert.Greater(t, out[0].Weight, 0.0)

	// reaching the finish joint offers the zero-cost arrival transition next
	// to the regular expansion
	atFinish := s.GetOutgoingEdges(Vertex{Prev: 1, Curr: 4})
	assert.Contains(t, searchTargets(atFinish), finish)
	assert.Contains(t, searchTargets(atFinish), Vertex{Prev: 4, Curr: 1})

	// the finish self-pair is terminal
	assert.Empty(t, s.GetOutgoingEdges(finish))

	// backward origin: predecessors arrive with zero weight
	in := s.GetIngoingEdges(finish)
	require.Len(t, in, 1)
	assert.Equal(t, Vertex{Prev: 1, Curr: 4}, in[0].To)
	assert.Equal(t, 0.0, in[0].Weight)
}

func TestStarterFakeEndpoints(t *testing.T) {
	g := corridorGraph(t, false)
	startPoint := datastructure.NewRoadPoint(7, 1)
	finishPoint := datastructure.NewRoadPoint(7, 3)
	s, err := NewStarter(g, carEstimator(), startPoint, finishPoint)
	require.NoError(t, err)

	startJoint := JointID(g.JointsCount())
	finishJoint := startJoint + 1
	assert.Equal(t, Vertex{Prev: startJoint, Curr: startJoint}, s.GetStartVertex())
	assert.Equal(t, Vertex{Prev: finishJoint, Curr: finishJoint}, s.GetFinishVertex())

	out := s.GetOutgoingEdges(s.GetStartVertex())
	require.Len(t, out, 3)
	targets := searchTargets(out)
	assert.Contains(t, targets, Vertex{Prev: startJoint, Curr: 0})
	assert.Contains(t, targets, Vertex{Prev: startJoint, Curr: 1})
	assert.Contains(t, targets, Vertex{Prev: startJoint, Curr: finishJoint})

	// the direct corridor is shorter than going via either end joint
	var direct, viaEnd float64
	for _, e := range out {
		switch e.To.Curr {
		case finishJoint:
			direct = e.Weight
		case 1:
			viaEnd = e.Weight
		}
	}
	assert.Greater(t, direct, 0.0)
	assert.Less(t, direct, viaEnd)

	// expanding the far end joint offers the partial-length arrival
	atEnd := s.GetOutgoingEdges(Vertex{Prev: startJoint, Curr: 1})
	assert.Contains(t, searchTargets(atEnd), Vertex{Prev: 1, Curr: finishJoint})

	// backward origin lists both real arrival joints plus the direct edge
	in := s.GetIngoingEdges(s.GetFinishVertex())
	assert.ElementsMatch(t, []Vertex{
		{Prev: 0, Curr: finishJoint},
		{Prev: 1, Curr: finishJoint},
		{Prev: startJoint, Curr: finishJoint},
	}, searchTargets(in))

	// backward and forward weights of the direct corridor agree
	preds := s.GetIngoingEdges(Vertex{Prev: startJoint, Curr: finishJoint})
	require.Len(t, preds, 1)
	assert.Equal(t, s.GetStartVertex(), preds[0].To)
	assert.InDelta(t, direct, preds[0].Weight, 1e-9)
}

func TestStarterOnewayCorridor(t *testing.T) {
	g := corridorGraph(t, true)
	s, err := NewStarter(g, carEstimator(),
		datastructure.NewRoadPoint(7, 1), datastructure.NewRoadPoint(7, 3))
	require.NoError(t, err)

	startJoint := JointID(g.JointsCount())
	finishJoint := startJoint + 1

	// no walking against point order: only the direct edge and the far end
	out := s.GetOutgoingEdges(s.GetStartVertex())
	assert.ElementsMatch(t, []Vertex{
		{Prev: startJoint, Curr: 1},
		{Prev: startJoint, Curr: finishJoint},
	}, searchTargets(out))

	// the finish is reachable from the lower-index joint only
	in := s.GetIngoingEdges(s.GetFinishVertex())
	assert.ElementsMatch(t, []Vertex{
		{Prev: 0, Curr: finishJoint},
		{Prev: startJoint, Curr: finishJoint},
	}, searchTargets(in))
}

func TestStarterRestrictionAppliesToStartFeature(t *testing.T) {
	g := crossGraph(t)
	g.ApplyRestrictions([]Restriction{{FromFeatureID: 10, ToFeatureID: 20}})

	// point 1 of feature 10 carries no joint, so the start joint is synthetic
	// and its incoming feature at the crossing is feature 10
	s, err := NewStarter(g, carEstimator(),
		datastructure.NewRoadPoint(10, 1), datastructure.NewRoadPoint(20, 2))
	require.NoError(t, err)

	startJoint := JointID(g.JointsCount())
	out := s.GetOutgoingEdges(Vertex{Prev: startJoint, Curr: 1})
	for _, e := range out {
		assert.NotEqual(t, JointID(3), e.To.Curr)
		assert.NotEqual(t, JointID(4), e.To.Curr)
	}
	assert.ElementsMatch(t, []Vertex{
		{Prev: 1, Curr: 0},
		{Prev: 1, Curr: 2},
	}, searchTargets(out))
}

func TestStarterSameStartAndFinish(t *testing.T) {
	g := corridorGraph(t, false)
	point := datastructure.NewRoadPoint(7, 2)
	s, err := NewStarter(g, carEstimator(), point, point)
	require.NoError(t, err)

	assert.Equal(t, s.GetStartVertex(), s.GetFinishVertex())

	routePoints, err := s.RedressRoute([]JointID{s.GetStartVertex().Curr})
	require.NoError(t, err)
	require.Len(t, routePoints, 1)
	assert.Equal(t, point, routePoints[0].Point)
	assert.Equal(t, 0.0, routePoints[0].Time)
}

func TestRedressRouteDirectCorridor(t *testing.T) {
	g := corridorGraph(t, false)
	s, err := NewStarter(g, carEstimator(),
		datastructure.NewRoadPoint(7, 1), datastructure.NewRoadPoint(7, 3))
	require.NoError(t, err)

	startJoint := JointID(g.JointsCount())
	finishJoint := startJoint + 1

	routePoints, err := s.RedressRoute([]JointID{startJoint, finishJoint})
	require.NoError(t, err)

	require.Len(t, routePoints, 3)
	assert.Equal(t, datastructure.NewRoadPoint(7, 1), routePoints[0].Point)
	assert.Equal(t, datastructure.NewRoadPoint(7, 2), routePoints[1].Point)
	assert.Equal(t, datastructure.NewRoadPoint(7, 3), routePoints[2].Point)

	assert.Equal(t, 0.0, routePoints[0].Time)
	for i := 1; i < len(routePoints); i++ {
		assert.Greater(t, routePoints[i].Time, routePoints[i-1].Time)
	}
}

func TestRedressRouteViaJoints(t *testing.T) {
	g := crossGraph(t)
	s, err := NewStarter(g, carEstimator(),
		datastructure.NewRoadPoint(10, 0), datastructure.NewRoadPoint(20, 2))
	require.NoError(t, err)

	// west end -> crossing -> south end
	routePoints, err := s.RedressRoute([]JointID{0, 1, 4})
	require.NoError(t, err)

	require.Len(t, routePoints, 4)
	assert.Equal(t, datastructure.NewRoadPoint(10, 0), routePoints[0].Point)
	assert.Equal(t, datastructure.NewRoadPoint(10, 1), routePoints[1].Point)
	assert.Equal(t, datastructure.NewRoadPoint(10, 2), routePoints[2].Point)
	assert.Equal(t, datastructure.NewRoadPoint(20, 2), routePoints[3].Point)

	for i := 1; i < len(routePoints); i++ {
		assert.Greater(t, routePoints[i].Time, routePoints[i-1].Time)
	}

	_, err = s.RedressRoute([]JointID{0, 4})
	assert.Error(t, err)
}

func TestStarterHeuristicIsAdmissibleOnCorridor(t *testing.T) {
	g := corridorGraph(t, false)
	s, err := NewStarter(g, carEstimator(),
		datastructure.NewRoadPoint(7, 1), datastructure.NewRoadPoint(7, 3))
	require.NoError(t, err)

	var direct float64
	for _, e := range s.GetOutgoingEdges(s.GetStartVertex()) {
		if e.To == (Vertex{Prev: s.GetStartVertex().Curr, Curr: s.GetFinishVertex().Curr}) {
			direct = e.Weight
		}
	}
	require.Greater(t, direct, 0.0)

	h := s.HeuristicCostEstimate(s.GetStartVertex(), s.GetFinishVertex())
	assert.LessOrEqual(t, h, direct+1e-9)
	assert.GreaterOrEqual(t, h, 0.0)
}
