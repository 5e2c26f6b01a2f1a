package roadgraph

import (
	"fmt"
	"sort"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
)

// JointID indexes the graph's joint arena. IDs are only meaningful inside the
// graph instance that produced them and are never persisted.
type JointID int32

const InvalidJointID JointID = -1

// Vertex is a search-space vertex: the pair (previous joint, current joint).
// Reachability depends on the incoming direction because restrictions are
// keyed on (incoming feature, outgoing feature), so a plain joint is not
// enough. Start and finish are self-pairs.
type Vertex struct {
	Prev JointID
	Curr JointID
}

// JointEdge is a derived edge between two joints, produced by walking a
// feature's point sequence. From and To are point indices on the feature in
// travel direction; for ingoing edges Target is the source joint.
type JointEdge struct {
	Target    JointID
	FeatureID uint32
	From      uint32
	To        uint32
}

// Restriction forbids entering ToFeatureID directly after traversing
// FromFeatureID.
type Restriction struct {
	FromFeatureID uint32
	ToFeatureID   uint32
}

type restrictionKey struct {
	from uint32
	to   uint32
}

// Graph is the road network of one region. It owns a contiguous joint arena
// and hands out JointIDs; all geometry stays in the road table. The graph is
// single-owner per request, no internal locking.
type Graph struct {
	roads      map[uint32]*Road
	featureIDs []uint32 // ascending, for deterministic iteration

	pointsOfJoint [][]datastructure.RoadPoint
	jointOfPoint  map[datastructure.RoadPoint]JointID

	restrictions map[restrictionKey]struct{}
}

// NewGraph builds a graph from a road table and a joint arena. Every joint
// entry must reference an existing road point; entries are kept sorted by
// (feature, index) so adjacency expansion is deterministic.
func NewGraph(roads map[uint32]*Road, joints [][]datastructure.RoadPoint) (*Graph, error) {
	featureIDs := make([]uint32, 0, len(roads))
	for id := range roads {
		featureIDs = append(featureIDs, id)
	}
	sort.Slice(featureIDs, func(i, j int) bool { return featureIDs[i] < featureIDs[j] })

	g := &Graph{
		roads:         roads,
		featureIDs:    featureIDs,
		pointsOfJoint: make([][]datastructure.RoadPoint, 0, len(joints)),
		jointOfPoint:  make(map[datastructure.RoadPoint]JointID),
		restrictions:  make(map[restrictionKey]struct{}),
	}

	for _, entries := range joints {
		id := JointID(len(g.pointsOfJoint))
		kept := make([]datastructure.RoadPoint, 0, len(entries))
		for _, rp := range entries {
			road, ok := roads[rp.FeatureID]
			if !ok {
				// road dropped by the vehicle mask filter, the joint keeps its
				// id so remaining ids stay stable
				continue
			}
			if int(rp.PointIndex) >= road.PointsCount() {
				return nil, fmt.Errorf("joint %d references point %d of feature %d with only %d points",
					id, rp.PointIndex, rp.FeatureID, road.PointsCount())
			}
			if prev, dup := g.jointOfPoint[rp]; dup {
				return nil, fmt.Errorf("road point (%d,%d) belongs to joints %d and %d",
					rp.FeatureID, rp.PointIndex, prev, id)
			}
			g.jointOfPoint[rp] = id
			kept = append(kept, rp)
		}
		sort.Slice(kept, func(i, j int) bool {
			if kept[i].FeatureID != kept[j].FeatureID {
				return kept[i].FeatureID < kept[j].FeatureID
			}
			return kept[i].PointIndex < kept[j].PointIndex
		})
		g.pointsOfJoint = append(g.pointsOfJoint, kept)
	}

	return g, nil
}

// ApplyRestrictions attaches turn-ban data. Must run after load and before
// any search on this graph.
func (g *Graph) ApplyRestrictions(rs []Restriction) {
	for _, r := range rs {
		g.restrictions[restrictionKey{from: r.FromFeatureID, to: r.ToFeatureID}] = struct{}{}
	}
}

func (g *Graph) IsRestricted(fromFeature, toFeature uint32) bool {
	_, ok := g.restrictions[restrictionKey{from: fromFeature, to: toFeature}]
	return ok
}

// TransitionAllowed reports whether a move onto toFeature is legal for at
// least one of the incoming features. An empty incoming set (start self-pair)
// is never restricted.
func (g *Graph) TransitionAllowed(inFeatures []uint32, toFeature uint32) bool {
	if len(inFeatures) == 0 {
		return true
	}
	for _, f := range inFeatures {
		if !g.IsRestricted(f, toFeature) {
			return true
		}
	}
	return false
}

func (g *Graph) JointsCount() int32 {
	return int32(len(g.pointsOfJoint))
}

func (g *Graph) JointOfPoint(rp datastructure.RoadPoint) (JointID, bool) {
	id, ok := g.jointOfPoint[rp]
	return id, ok
}

func (g *Graph) JointPoints(id JointID) []datastructure.RoadPoint {
	return g.pointsOfJoint[id]
}

func (g *Graph) Road(featureID uint32) (*Road, bool) {
	r, ok := g.roads[featureID]
	return r, ok
}

func (g *Graph) FeatureIDs() []uint32 {
	return g.featureIDs
}

// GetPoint returns the geographic position of a road point.
func (g *Graph) GetPoint(rp datastructure.RoadPoint) (datastructure.Coordinate, error) {
	road, ok := g.roads[rp.FeatureID]
	if !ok {
		return datastructure.Coordinate{}, fmt.Errorf("unknown feature %d", rp.FeatureID)
	}
	if int(rp.PointIndex) >= road.PointsCount() {
		return datastructure.Coordinate{}, fmt.Errorf("point %d out of range for feature %d",
			rp.PointIndex, rp.FeatureID)
	}
	return road.Points[rp.PointIndex], nil
}

// walkToJoint walks the feature from index start in direction dir (+1 or -1)
// until the first jointed point. Returns the joint and its point index.
func (g *Graph) walkToJoint(featureID uint32, start uint32, dir int) (JointID, uint32, bool) {
	road, ok := g.roads[featureID]
	if !ok {
		return InvalidJointID, 0, false
	}
	idx := int(start) + dir
	for idx >= 0 && idx < road.PointsCount() {
		if joint, ok := g.jointOfPoint[datastructure.NewRoadPoint(featureID, uint32(idx))]; ok {
			return joint, uint32(idx), true
		}
		idx += dir
	}
	return InvalidJointID, 0, false
}

// outgoingJointEdges enumerates the unfiltered edges leaving a joint, in the
// stored (feature, index) order.
func (g *Graph) outgoingJointEdges(curr JointID) []JointEdge {
	var edges []JointEdge
	for _, rp := range g.pointsOfJoint[curr] {
		road := g.roads[rp.FeatureID]

		// travel in point order is always allowed
		if target, endIdx, ok := g.walkToJoint(rp.FeatureID, rp.PointIndex, +1); ok {
			edges = append(edges, JointEdge{
				Target: target, FeatureID: rp.FeatureID, From: rp.PointIndex, To: endIdx,
			})
		}
		// against point order only on two-way roads
		if !road.Oneway {
			if target, endIdx, ok := g.walkToJoint(rp.FeatureID, rp.PointIndex, -1); ok {
				edges = append(edges, JointEdge{
					Target: target, FeatureID: rp.FeatureID, From: rp.PointIndex, To: endIdx,
				})
			}
		}
	}
	return edges
}

// ingoingJointEdges enumerates the unfiltered edges arriving at a joint.
// Target is the source joint; From/To stay in travel direction, so To is the
// point index at curr.
func (g *Graph) ingoingJointEdges(curr JointID) []JointEdge {
	var edges []JointEdge
	for _, rp := range g.pointsOfJoint[curr] {
		road := g.roads[rp.FeatureID]

		// source at a lower index travels in point order
		if source, srcIdx, ok := g.walkToJoint(rp.FeatureID, rp.PointIndex, -1); ok {
			edges = append(edges, JointEdge{
				Target: source, FeatureID: rp.FeatureID, From: srcIdx, To: rp.PointIndex,
			})
		}
		// source at a higher index travels against point order
		if !road.Oneway {
			if source, srcIdx, ok := g.walkToJoint(rp.FeatureID, rp.PointIndex, +1); ok {
				edges = append(edges, JointEdge{
					Target: source, FeatureID: rp.FeatureID, From: srcIdx, To: rp.PointIndex,
				})
			}
		}
	}
	return edges
}

// ConnectingFeatures lists the features carrying a direct edge from one joint
// to another, ascending. Empty when from == to or no edge exists.
func (g *Graph) ConnectingFeatures(from, to JointID) []uint32 {
	if from == to || from == InvalidJointID ||
		int(from) >= len(g.pointsOfJoint) || int(to) >= len(g.pointsOfJoint) {
		return nil
	}
	seen := make(map[uint32]struct{})
	var features []uint32
	for _, e := range g.ingoingJointEdges(to) {
		if e.Target != from {
			continue
		}
		if _, dup := seen[e.FeatureID]; dup {
			continue
		}
		seen[e.FeatureID] = struct{}{}
		features = append(features, e.FeatureID)
	}
	sort.Slice(features, func(i, j int) bool { return features[i] < features[j] })
	return features
}

// GetOutgoingEdges returns the edges leaving v.Curr whose transition is not
// forbidden by a restriction keyed on (incoming feature, outgoing feature).
// Order is deterministic for a fixed graph state.
func (g *Graph) GetOutgoingEdges(v Vertex) []JointEdge {
	inFeatures := g.ConnectingFeatures(v.Prev, v.Curr)
	all := g.outgoingJointEdges(v.Curr)
	edges := all[:0]
	for _, e := range all {
		if g.TransitionAllowed(inFeatures, e.FeatureID) {
			edges = append(edges, e)
		}
	}
	return edges
}

// GetIngoingEdges mirrors GetOutgoingEdges for the backward search: it
// returns the edges arriving at v.Prev that may legally be followed by the
// already fixed move v.Prev -> v.Curr.
func (g *Graph) GetIngoingEdges(v Vertex) []JointEdge {
	outFeatures := g.ConnectingFeatures(v.Prev, v.Curr)
	all := g.ingoingJointEdges(v.Prev)
	edges := all[:0]
	for _, e := range all {
		if len(outFeatures) == 0 {
			edges = append(edges, e)
			continue
		}
		for _, f := range outFeatures {
			if !g.IsRestricted(e.FeatureID, f) {
				edges = append(edges, e)
				break
			}
		}
	}
	return edges
}
