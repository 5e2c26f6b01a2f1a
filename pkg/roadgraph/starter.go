package roadgraph

import (
	"fmt"
	"math"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/regionroute/pkg/vehicle"
)

// CostEstimator weighs directed segment traversals and bounds remaining
// travel time for the search heuristic.
type CostEstimator interface {
	SegmentCost(lengthMeters float64, category vehicle.Category,
		featureID, segmentIndex uint32, forward bool) float64
	HeuristicCost(from, to datastructure.Coordinate) float64
}

// fakeEdge connects a synthetic joint to the real graph along the feature the
// query point was snapped to. from/to are point indices in travel direction.
type fakeEdge struct {
	target  JointID
	weight  float64
	feature uint32
	from    uint32
	to      uint32
}

// Starter wraps one loaded graph plus the resolved start and finish road
// points of a single request, so the bidirectional search can treat arbitrary
// query points as native vertices. The synthetic joints get ids past the
// graph's arena and live only as long as the starter.
type Starter struct {
	graph *Graph
	est   CostEstimator

	start  datastructure.RoadPoint
	finish datastructure.RoadPoint

	startJoint  JointID
	finishJoint JointID
	startFake   bool
	finishFake  bool

	startEdges     []fakeEdge           // start joint -> graph (or directly to finish)
	finishArrivals map[JointID]fakeEdge // graph -> finish joint
	arrivalOrder   []JointID            // deterministic iteration over finishArrivals
}

// NewStarter validates both road points against the loaded graph and
// precomputes the synthetic edges.
func NewStarter(g *Graph, est CostEstimator,
	start, finish datastructure.RoadPoint) (*Starter, error) {
	for _, rp := range []datastructure.RoadPoint{start, finish} {
		road, ok := g.Road(rp.FeatureID)
		if !ok {
			return nil, fmt.Errorf("road point references feature %d not present in graph", rp.FeatureID)
		}
		if int(rp.PointIndex) >= road.PointsCount() {
			return nil, fmt.Errorf("road point index %d out of range for feature %d",
				rp.PointIndex, rp.FeatureID)
		}
	}

	s := &Starter{
		graph:          g,
		est:            est,
		start:          start,
		finish:         finish,
		finishArrivals: make(map[JointID]fakeEdge),
	}

	nextFake := g.JointsCount()
	if joint, ok := g.JointOfPoint(start); ok {
		s.startJoint = joint
	} else {
		s.startJoint = JointID(nextFake)
		s.startFake = true
		nextFake++
	}

	switch {
	case start == finish:
		s.finishJoint = s.startJoint
		s.finishFake = s.startFake
	default:
		if joint, ok := g.JointOfPoint(finish); ok {
			s.finishJoint = joint
		} else {
			s.finishJoint = JointID(nextFake)
			s.finishFake = true
		}
	}

	if s.startFake {
		s.buildStartEdges()
	}
	if s.finishFake && s.finishJoint != s.startJoint {
		s.buildFinishArrivals()
	}
	return s, nil
}

func (s *Starter) GetStartVertex() Vertex {
	return Vertex{Prev: s.startJoint, Curr: s.startJoint}
}

func (s *Starter) GetFinishVertex() Vertex {
	return Vertex{Prev: s.finishJoint, Curr: s.finishJoint}
}

// GetPoint returns the geographic position of a road point of this request's
// graph. Road points were validated at construction.
func (s *Starter) GetPoint(rp datastructure.RoadPoint) datastructure.Coordinate {
	point, _ := s.graph.GetPoint(rp)
	return point
}

// JointPoint returns the position representing a joint: for the synthetic
// joints the snapped query point, for real joints their first road point.
func (s *Starter) JointPoint(j JointID) datastructure.Coordinate {
	if j == s.startJoint && s.startFake {
		return s.GetPoint(s.start)
	}
	if j == s.finishJoint && s.finishFake {
		return s.GetPoint(s.finish)
	}
	points := s.graph.JointPoints(j)
	if len(points) == 0 {
		return datastructure.Coordinate{}
	}
	return s.GetPoint(points[0])
}

// rangeCost is the travel time between two point indices of one feature, in
// either direction.
func (s *Starter) rangeCost(featureID uint32, from, to uint32) float64 {
	road, _ := s.graph.Road(featureID)
	cost := 0.0
	if to > from {
		for i := from; i < to; i++ {
			cost += s.est.SegmentCost(road.SegmentLengthM(int(i)), road.Category, featureID, i, true)
		}
	} else {
		for i := to; i < from; i++ {
			cost += s.est.SegmentCost(road.SegmentLengthM(int(i)), road.Category, featureID, i, false)
		}
	}
	return cost
}

// buildStartEdges walks the snapped feature from the start point in both
// legal directions until the first joint, recording partial-length edges. A
// finish point met on the way (same feature, no joint between) gets a direct
// edge.
func (s *Starter) buildStartEdges() {
	road, _ := s.graph.Road(s.start.FeatureID)

	walk := func(dir int) {
		idx := int(s.start.PointIndex) + dir
		for idx >= 0 && idx < road.PointsCount() {
			pointIdx := uint32(idx)
			if s.finishFake && s.start.FeatureID == s.finish.FeatureID &&
				pointIdx == s.finish.PointIndex && s.finishJoint != s.startJoint {
				s.startEdges = append(s.startEdges, fakeEdge{
					target:  s.finishJoint,
					weight:  s.rangeCost(s.start.FeatureID, s.start.PointIndex, pointIdx),
					feature: s.start.FeatureID,
					from:    s.start.PointIndex,
					to:      pointIdx,
				})
			}
			rp := datastructure.NewRoadPoint(s.start.FeatureID, pointIdx)
			if joint, ok := s.graph.JointOfPoint(rp); ok {
				s.startEdges = append(s.startEdges, fakeEdge{
					target:  joint,
					weight:  s.rangeCost(s.start.FeatureID, s.start.PointIndex, pointIdx),
					feature: s.start.FeatureID,
					from:    s.start.PointIndex,
					to:      pointIdx,
				})
				return
			}
			idx += dir
		}
	}

	walk(+1)
	if !road.Oneway {
		walk(-1)
	}
}

// buildFinishArrivals records, per reachable joint, the partial-length edge
// from that joint to the finish point along the snapped feature.
func (s *Starter) buildFinishArrivals() {
	road, _ := s.graph.Road(s.finish.FeatureID)

	record := func(joint JointID, jointIdx uint32) {
		edge := fakeEdge{
			target:  s.finishJoint,
			weight:  s.rangeCost(s.finish.FeatureID, jointIdx, s.finish.PointIndex),
			feature: s.finish.FeatureID,
			from:    jointIdx,
			to:      s.finish.PointIndex,
		}
		if existing, ok := s.finishArrivals[joint]; !ok || edge.weight < existing.weight {
			if !ok {
				s.arrivalOrder = append(s.arrivalOrder, joint)
			}
			s.finishArrivals[joint] = edge
		}
	}

	// joint at a lower index travels in point order, always legal
	if joint, jointIdx, ok := s.graph.walkToJoint(s.finish.FeatureID, s.finish.PointIndex, -1); ok {
		record(joint, jointIdx)
	}
	// joint at a higher index travels against point order
	if !road.Oneway {
		if joint, jointIdx, ok := s.graph.walkToJoint(s.finish.FeatureID, s.finish.PointIndex, +1); ok {
			record(joint, jointIdx)
		}
	}
}

// incomingFeatures lists the features that can carry the already fixed move
// prev -> curr, for restriction checks at curr.
func (s *Starter) incomingFeatures(prev, curr JointID) []uint32 {
	if prev == curr {
		return nil
	}
	if prev == s.startJoint && s.startFake {
		return []uint32{s.start.FeatureID}
	}
	return s.graph.ConnectingFeatures(prev, curr)
}

// GetOutgoingEdges expands a search vertex for the forward frontier.
func (s *Starter) GetOutgoingEdges(v Vertex) []routingalgorithm.Edge[Vertex] {
	if v == s.GetFinishVertex() {
		return nil
	}

	var out []routingalgorithm.Edge[Vertex]
	if v.Curr == s.finishJoint {
		// arrival transition into the finish self-pair
		out = append(out, routingalgorithm.Edge[Vertex]{To: s.GetFinishVertex(), Weight: 0})
		if s.finishFake {
			return out
		}
	}

	if v.Curr == s.startJoint && s.startFake {
		if v.Prev != v.Curr {
			return out
		}
		for _, fe := range s.startEdges {
			out = append(out, routingalgorithm.Edge[Vertex]{
				To: Vertex{Prev: v.Curr, Curr: fe.target}, Weight: fe.weight,
			})
		}
		return out
	}

	inFeatures := s.incomingFeatures(v.Prev, v.Curr)
	for _, e := range s.graph.outgoingJointEdges(v.Curr) {
		if !s.graph.TransitionAllowed(inFeatures, e.FeatureID) {
			continue
		}
		out = append(out, routingalgorithm.Edge[Vertex]{
			To:     Vertex{Prev: v.Curr, Curr: e.Target},
			Weight: s.rangeCost(e.FeatureID, e.From, e.To),
		})
	}

	if s.finishFake && s.finishJoint != s.startJoint {
		if fe, ok := s.finishArrivals[v.Curr]; ok && s.graph.TransitionAllowed(inFeatures, fe.feature) {
			out = append(out, routingalgorithm.Edge[Vertex]{
				To: Vertex{Prev: v.Curr, Curr: s.finishJoint}, Weight: fe.weight,
			})
		}
	}
	return out
}

type connOption struct {
	feature uint32
	weight  float64
}

// connectionOptions lists the forward edges joining two joints, one entry per
// feature with the cheapest weight.
func (s *Starter) connectionOptions(a, b JointID) []connOption {
	var opts []connOption

	if a == s.startJoint && s.startFake {
		for _, fe := range s.startEdges {
			if fe.target == b {
				opts = append(opts, connOption{feature: fe.feature, weight: fe.weight})
			}
		}
		return opts
	}

	if b == s.finishJoint && s.finishFake {
		if fe, ok := s.finishArrivals[a]; ok {
			opts = append(opts, connOption{feature: fe.feature, weight: fe.weight})
		}
		return opts
	}

	for _, e := range s.graph.outgoingJointEdges(a) {
		if e.Target != b {
			continue
		}
		weight := s.rangeCost(e.FeatureID, e.From, e.To)
		replaced := false
		for i := range opts {
			if opts[i].feature == e.FeatureID {
				if weight < opts[i].weight {
					opts[i].weight = weight
				}
				replaced = true
				break
			}
		}
		if !replaced {
			opts = append(opts, connOption{feature: e.FeatureID, weight: weight})
		}
	}
	return opts
}

// minAllowedWeight picks the cheapest connection option whose feature is not
// restricted against the incoming feature. inFeature < 0 disables filtering.
func (s *Starter) minAllowedWeight(opts []connOption, inFeature int64) (float64, bool) {
	best := math.MaxFloat64
	found := false
	for _, opt := range opts {
		if inFeature >= 0 && s.graph.IsRestricted(uint32(inFeature), opt.feature) {
			continue
		}
		if opt.weight < best {
			best = opt.weight
			found = true
		}
	}
	return best, found
}

// GetIngoingEdges expands a search vertex for the backward frontier: it
// enumerates predecessor pairs (x, prev) of the pair (prev, curr); the
// transition weight is the cost of the fixed move prev -> curr.
func (s *Starter) GetIngoingEdges(v Vertex) []routingalgorithm.Edge[Vertex] {
	if v == s.GetStartVertex() {
		return nil
	}

	a, b := v.Prev, v.Curr

	if a == b {
		// self-pair: predecessors carry the zero-cost arrival transition
		var out []routingalgorithm.Edge[Vertex]
		if a == s.finishJoint && s.finishFake {
			for _, joint := range s.arrivalOrder {
				out = append(out, routingalgorithm.Edge[Vertex]{To: Vertex{Prev: joint, Curr: a}})
			}
			if s.startFake {
				for _, fe := range s.startEdges {
					if fe.target == s.finishJoint {
						out = append(out, routingalgorithm.Edge[Vertex]{To: Vertex{Prev: s.startJoint, Curr: a}})
						break
					}
				}
			}
			return out
		}
		for _, e := range s.graph.ingoingJointEdges(a) {
			out = append(out, routingalgorithm.Edge[Vertex]{To: Vertex{Prev: e.Target, Curr: a}})
		}
		if s.startFake {
			for _, fe := range s.startEdges {
				if fe.target == a {
					out = append(out, routingalgorithm.Edge[Vertex]{To: Vertex{Prev: s.startJoint, Curr: a}})
					break
				}
			}
		}
		return out
	}

	if a == s.finishJoint && s.finishFake {
		// the fake finish joint has no outgoing edges, so (finish, b) never
		// occurs on a forward path
		return nil
	}

	opts := s.connectionOptions(a, b)
	if len(opts) == 0 {
		return nil
	}

	var out []routingalgorithm.Edge[Vertex]

	if a == s.startJoint {
		// the start self-pair precedes (start, b) without restriction context
		if weight, ok := s.minAllowedWeight(opts, -1); ok {
			out = append(out, routingalgorithm.Edge[Vertex]{To: s.GetStartVertex(), Weight: weight})
		}
		if s.startFake {
			return out
		}
	}

	for _, e := range s.graph.ingoingJointEdges(a) {
		if weight, ok := s.minAllowedWeight(opts, int64(e.FeatureID)); ok {
			out = append(out, routingalgorithm.Edge[Vertex]{
				To: Vertex{Prev: e.Target, Curr: a}, Weight: weight,
			})
		}
	}
	if s.startFake {
		for _, fe := range s.startEdges {
			if fe.target != a {
				continue
			}
			if weight, ok := s.minAllowedWeight(opts, int64(s.start.FeatureID)); ok {
				out = append(out, routingalgorithm.Edge[Vertex]{
					To: Vertex{Prev: s.startJoint, Curr: a}, Weight: weight,
				})
			}
			break
		}
	}
	return out
}

// HeuristicCostEstimate is the admissible bound between two search vertices.
func (s *Starter) HeuristicCostEstimate(from, to Vertex) float64 {
	return s.est.HeuristicCost(s.JointPoint(from.Curr), s.JointPoint(to.Curr))
}

// connectingPath picks the cheapest feature walk joining two consecutive path
// joints: (feature, point indices in travel order).
func (s *Starter) connectingPath(a, b JointID) (uint32, []uint32, error) {
	indicesBetween := func(feature uint32, from, to uint32) []uint32 {
		dir := 1
		count := int(to) - int(from)
		if count < 0 {
			dir = -1
			count = -count
		}
		indices := make([]uint32, 0, count+1)
		for i := int(from); ; i += dir {
			indices = append(indices, uint32(i))
			if uint32(i) == to {
				break
			}
		}
		return indices
	}

	if a == s.startJoint && s.startFake {
		bestWeight := math.MaxFloat64
		var best *fakeEdge
		for i, fe := range s.startEdges {
			if fe.target == b && fe.weight < bestWeight {
				bestWeight = fe.weight
				best = &s.startEdges[i]
			}
		}
		if best == nil {
			return 0, nil, fmt.Errorf("no start connection to joint %d", b)
		}
		return best.feature, indicesBetween(best.feature, best.from, best.to), nil
	}

	if b == s.finishJoint && s.finishFake {
		fe, ok := s.finishArrivals[a]
		if !ok {
			return 0, nil, fmt.Errorf("no finish connection from joint %d", a)
		}
		return fe.feature, indicesBetween(fe.feature, fe.from, fe.to), nil
	}

	bestWeight := math.MaxFloat64
	var best *JointEdge
	edges := s.graph.outgoingJointEdges(a)
	for i, e := range edges {
		if e.Target != b {
			continue
		}
		if weight := s.rangeCost(e.FeatureID, e.From, e.To); weight < bestWeight {
			bestWeight = weight
			best = &edges[i]
		}
	}
	if best == nil {
		return 0, nil, fmt.Errorf("joints %d and %d are not adjacent", a, b)
	}
	return best.FeatureID, indicesBetween(best.FeatureID, best.From, best.To), nil
}

// RedressRoute expands a joint path back into concrete road points with
// cumulative travel times, substituting the original start and finish road
// points at the ends.
func (s *Starter) RedressRoute(joints []JointID) ([]datastructure.RoutePoint, error) {
	if len(joints) == 0 {
		return nil, fmt.Errorf("empty joint path")
	}

	routePoints := []datastructure.RoutePoint{datastructure.NewRoutePoint(s.start, 0)}
	time := 0.0

	for i := 0; i+1 < len(joints); i++ {
		feature, indices, err := s.connectingPath(joints[i], joints[i+1])
		if err != nil {
			return nil, err
		}
		road, _ := s.graph.Road(feature)
		for k := 1; k < len(indices); k++ {
			from, to := indices[k-1], indices[k]
			segIdx := from
			forward := to > from
			if !forward {
				segIdx = to
			}
			time += s.est.SegmentCost(road.SegmentLengthM(int(segIdx)), road.Category,
				feature, segIdx, forward)
			routePoints = append(routePoints,
				datastructure.NewRoutePoint(datastructure.NewRoadPoint(feature, to), time))
		}
	}

	// the finish joint may own several coincident road points, report the
	// resolved one
	if len(routePoints) > 1 && !s.finishFake {
		routePoints[len(routePoints)-1].Point = s.finish
	}
	return routePoints, nil
}
