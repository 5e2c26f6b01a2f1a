package osmparser

import (
	"context"
	"io"
	"log"
	"os"
	"sort"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/roadgraph"
	"github.com/lintang-b-s/regionroute/pkg/vehicle"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

type nodeKind uint8

const (
	endNode nodeKind = iota
	betweenNode
	junctionNode
)

type nodeCoord struct {
	lat float64
	lon float64
}

type rawRestriction struct {
	fromWay int64
	viaNode int64
	toWay   int64
	only    bool
}

// ParsedRegion is the output of one pbf import: everything needed to build
// and serialize a region's road graph.
type ParsedRegion struct {
	Roads        map[uint32]*roadgraph.Road
	Joints       [][]datastructure.RoadPoint
	Restrictions []roadgraph.Restriction
}

type OsmParser struct {
	wayNodeMap      map[int64]nodeKind
	acceptedNodeMap map[int64]nodeCoord
	barrierNodes    map[int64]bool
	rawRestrictions []rawRestriction

	// filled while splitting ways into features
	nextFeatureID  uint32
	wayFeatures    map[int64][]uint32
	nodeRoadPoints map[int64][]datastructure.RoadPoint
	featureEnds    map[uint32][2]int64 // first and last osm node of a feature
}

func NewOsmParser() *OsmParser {
	return &OsmParser{
		wayNodeMap:      make(map[int64]nodeKind),
		acceptedNodeMap: make(map[int64]nodeCoord),
		barrierNodes:    make(map[int64]bool),
		wayFeatures:     make(map[int64][]uint32),
		nodeRoadPoints:  make(map[int64][]datastructure.RoadPoint),
		featureEnds:     make(map[uint32][2]int64),
	}
}

var highwayCategory = map[string]vehicle.Category{
	"motorway":       vehicle.Motorway,
	"motorway_link":  vehicle.Motorway,
	"trunk":          vehicle.Trunk,
	"trunk_link":     vehicle.Trunk,
	"primary":        vehicle.Primary,
	"primary_link":   vehicle.Primary,
	"secondary":      vehicle.Secondary,
	"secondary_link": vehicle.Secondary,
	"tertiary":       vehicle.Tertiary,
	"tertiary_link":  vehicle.Tertiary,
	"unclassified":   vehicle.Unclassified,
	"residential":    vehicle.Residential,
	"service":        vehicle.Service,
	"living_street":  vehicle.LivingStreet,
	"cycleway":       vehicle.Cycleway,
	"footway":        vehicle.Footway,
	"path":           vehicle.Footway,
	"pedestrian":     vehicle.Footway,
	"steps":          vehicle.Footway,
}

func categoryAccess(c vehicle.Category) vehicle.Mask {
	switch c {
	case vehicle.Motorway, vehicle.Trunk:
		return vehicle.CarMask
	case vehicle.Cycleway:
		return vehicle.BicycleMask | vehicle.PedestrianMask
	case vehicle.Footway:
		return vehicle.BicycleMask | vehicle.PedestrianMask
	default:
		return vehicle.AllMask
	}
}

func acceptOsmWay(way *osm.Way) (vehicle.Category, bool) {
	highway := way.Tags.Find("highway")
	if highway == "" {
		return 0, false
	}
	c, ok := highwayCategory[highway]
	if !ok {
		return 0, false
	}
	if way.Tags.Find("access") == "no" || way.Tags.Find("area") == "yes" {
		return 0, false
	}
	return c, true
}

func isOneway(way *osm.Way) (oneway bool, reversed bool) {
	switch way.Tags.Find("oneway") {
	case "yes", "1", "true":
		return true, false
	case "-1":
		return true, true
	}
	if way.Tags.Find("junction") == "roundabout" {
		return true, false
	}
	return false, false
}

// Parse scans the pbf twice. The first scan classifies way nodes into
// endpoints, in-between points and junctions and collects turn restriction
// relations. The second scan picks up node coordinates and splits each
// accepted way into road features at junction nodes.
func (p *OsmParser) Parse(mapFile string) (*ParsedRegion, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := osmpbf.New(context.Background(), f, 0)
	// must not be parallel
	countWays := 0
	for scanner.Scan() {
		o := scanner.Object()

		switch o.ObjectID().Type() {
		case osm.TypeWay:
			way := o.(*osm.Way)
			if len(way.Nodes) < 2 {
				continue
			}
			if _, ok := acceptOsmWay(way); !ok {
				continue
			}
			if (countWays+1)%50000 == 0 {
				log.Printf("reading openstreetmap ways: %d...", countWays+1)
			}
			countWays++

			for i, n := range way.Nodes {
				if _, ok := p.wayNodeMap[int64(n.ID)]; !ok {
					if i == 0 || i == len(way.Nodes)-1 {
						p.wayNodeMap[int64(n.ID)] = endNode
					} else {
						p.wayNodeMap[int64(n.ID)] = betweenNode
					}
				} else {
					p.wayNodeMap[int64(n.ID)] = junctionNode
				}
			}
		case osm.TypeRelation:
			relation := o.(*osm.Relation)
			p.collectRestriction(relation)
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, err
	}
	scanner.Close()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	scanner = osmpbf.New(context.Background(), f, 0)
	// must not be parallel
	defer scanner.Close()

	roads := make(map[uint32]*roadgraph.Road)
	countWays = 0
	countNodes := 0
	for scanner.Scan() {
		o := scanner.Object()

		switch o.ObjectID().Type() {
		case osm.TypeNode:
			if (countNodes+1)%50000 == 0 {
				log.Printf("processing openstreetmap nodes: %d...", countNodes+1)
			}
			countNodes++
			n := o.(*osm.Node)
			if _, ok := p.wayNodeMap[int64(n.ID)]; ok {
				p.acceptedNodeMap[int64(n.ID)] = nodeCoord{lat: n.Lat, lon: n.Lon}
			}
			if n.Tags.Find("barrier") != "" || n.Tags.Find("ford") != "" {
				p.barrierNodes[int64(n.ID)] = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	scanner = osmpbf.New(context.Background(), f, 0)
	defer scanner.Close()

	for scanner.Scan() {
		o := scanner.Object()

		switch o.ObjectID().Type() {
		case osm.TypeWay:
			way := o.(*osm.Way)
			if len(way.Nodes) < 2 {
				continue
			}
			category, ok := acceptOsmWay(way)
			if !ok {
				continue
			}
			if (countWays+1)%50000 == 0 {
				log.Printf("processing openstreetmap ways: %d...", countWays+1)
			}
			countWays++

			p.processWay(way, category, roads)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	joints := p.buildJoints()
	restrictions := p.resolveRestrictions()

	log.Printf("total road features: %d", len(roads))
	log.Printf("total joints: %d", len(joints))
	log.Printf("total turn restrictions: %d", len(restrictions))

	return &ParsedRegion{
		Roads:        roads,
		Joints:       joints,
		Restrictions: restrictions,
	}, nil
}

func (p *OsmParser) collectRestriction(relation *osm.Relation) {
	if relation.Tags.Find("type") != "restriction" {
		return
	}
	restriction := relation.Tags.Find("restriction")
	if restriction == "" {
		return
	}
	only := false
	switch {
	case len(restriction) > 5 && restriction[:5] == "only_":
		only = true
	case len(restriction) > 3 && restriction[:3] == "no_":
	default:
		return
	}

	raw := rawRestriction{fromWay: -1, viaNode: -1, toWay: -1, only: only}
	for _, member := range relation.Members {
		switch {
		case member.Role == "from" && member.Type == osm.TypeWay:
			raw.fromWay = member.Ref
		case member.Role == "to" && member.Type == osm.TypeWay:
			raw.toWay = member.Ref
		case member.Role == "via" && member.Type == osm.TypeNode:
			raw.viaNode = member.Ref
		}
	}
	// via-way restrictions span more than one transition, skip them
	if raw.fromWay == -1 || raw.toWay == -1 || raw.viaNode == -1 {
		return
	}
	p.rawRestrictions = append(p.rawRestrictions, raw)
}

func (p *OsmParser) splitsWay(nodeID int64) bool {
	if p.wayNodeMap[nodeID] == junctionNode {
		return true
	}
	return p.barrierNodes[nodeID]
}

// processWay splits one osm way into road features at junction and barrier
// nodes, so every feature meets other features only at its endpoints or at
// explicitly shared points.
func (p *OsmParser) processWay(way *osm.Way, category vehicle.Category,
	roads map[uint32]*roadgraph.Road) {
	oneway, reversedDir := isOneway(way)
	access := categoryAccess(category)

	nodeIDs := make([]int64, 0, len(way.Nodes))
	for _, n := range way.Nodes {
		id := int64(n.ID)
		if _, ok := p.acceptedNodeMap[id]; !ok {
			continue
		}
		nodeIDs = append(nodeIDs, id)
	}
	if reversedDir {
		for i, j := 0, len(nodeIDs)-1; i < j; i, j = i+1, j-1 {
			nodeIDs[i], nodeIDs[j] = nodeIDs[j], nodeIDs[i]
		}
	}
	if len(nodeIDs) < 2 {
		return
	}

	segment := []int64{nodeIDs[0]}
	for i := 1; i < len(nodeIDs); i++ {
		segment = append(segment, nodeIDs[i])
		if i < len(nodeIDs)-1 && p.splitsWay(nodeIDs[i]) {
			p.emitFeature(int64(way.ID), segment, category, oneway, access, roads)
			segment = []int64{nodeIDs[i]}
		}
	}
	if len(segment) >= 2 {
		p.emitFeature(int64(way.ID), segment, category, oneway, access, roads)
	}
}

func (p *OsmParser) emitFeature(wayID int64, nodeIDs []int64,
	category vehicle.Category, oneway bool, access vehicle.Mask,
	roads map[uint32]*roadgraph.Road) {
	featureID := p.nextFeatureID
	p.nextFeatureID++

	points := make([]datastructure.Coordinate, 0, len(nodeIDs))
	for i, id := range nodeIDs {
		coord := p.acceptedNodeMap[id]
		points = append(points, datastructure.NewCoordinate(coord.lat, coord.lon))
		p.nodeRoadPoints[id] = append(p.nodeRoadPoints[id],
			datastructure.NewRoadPoint(featureID, uint32(i)))
	}

	roads[featureID] = roadgraph.NewRoad(category, oneway, access, points)
	p.wayFeatures[wayID] = append(p.wayFeatures[wayID], featureID)
	p.featureEnds[featureID] = [2]int64{nodeIDs[0], nodeIDs[len(nodeIDs)-1]}
}

// buildJoints groups the road points sharing a physical node. A node becomes
// a joint when a feature ends there or when several features pass through it.
func (p *OsmParser) buildJoints() [][]datastructure.RoadPoint {
	jointNodes := make([]int64, 0)
	for nodeID, rps := range p.nodeRoadPoints {
		if len(rps) > 1 {
			jointNodes = append(jointNodes, nodeID)
			continue
		}
		rp := rps[0]
		ends := p.featureEnds[rp.FeatureID]
		if nodeID == ends[0] || nodeID == ends[1] {
			jointNodes = append(jointNodes, nodeID)
		}
	}
	// deterministic joint ids across runs
	sort.Slice(jointNodes, func(i, j int) bool { return jointNodes[i] < jointNodes[j] })

	joints := make([][]datastructure.RoadPoint, 0, len(jointNodes))
	for _, nodeID := range jointNodes {
		rps := p.nodeRoadPoints[nodeID]
		group := make([]datastructure.RoadPoint, len(rps))
		copy(group, rps)
		joints = append(joints, group)
	}
	return joints
}

// resolveRestrictions maps raw osm way level restrictions onto feature pairs.
// A way may have been split into several features, so the pair is resolved to
// the features actually touching the via node. An only_* restriction bans the
// transition onto every other feature at the via node.
func (p *OsmParser) resolveRestrictions() []roadgraph.Restriction {
	seen := make(map[[2]uint32]struct{})
	out := make([]roadgraph.Restriction, 0, len(p.rawRestrictions))

	add := func(from, to uint32) {
		key := [2]uint32{from, to}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, roadgraph.Restriction{FromFeatureID: from, ToFeatureID: to})
	}

	for _, raw := range p.rawRestrictions {
		fromFeature, ok := p.featureAtNode(raw.fromWay, raw.viaNode)
		if !ok {
			continue
		}
		toFeature, ok := p.featureAtNode(raw.toWay, raw.viaNode)
		if !ok {
			continue
		}
		if !raw.only {
			add(fromFeature, toFeature)
			continue
		}
		for _, rp := range p.nodeRoadPoints[raw.viaNode] {
			if rp.FeatureID == toFeature || rp.FeatureID == fromFeature {
				continue
			}
			add(fromFeature, rp.FeatureID)
		}
	}
	return out
}

func (p *OsmParser) featureAtNode(wayID, nodeID int64) (uint32, bool) {
	for _, featureID := range p.wayFeatures[wayID] {
		ends := p.featureEnds[featureID]
		if ends[0] == nodeID || ends[1] == nodeID {
			return featureID, true
		}
	}
	return 0, false
}
