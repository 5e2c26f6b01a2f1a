package roadgraph

import (
	"errors"
	"fmt"

	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/vehicle"
)

// Section tags inside a region's map data container.
const (
	GraphSectionTag       = "roadgraph"
	RestrictionSectionTag = "restrictions"
)

const (
	graphSectionVersion       uint16 = 1
	restrictionSectionVersion uint16 = 1
)

var (
	ErrBadGraphSection       = errors.New("malformed road graph section")
	ErrBadRestrictionSection = errors.New("malformed restriction section")
)

type serializedRoad struct {
	FeatureID uint32
	Category  uint8
	Oneway    bool
	Access    uint8
	Lats      []float64
	Lons      []float64
}

type serializedJointEntry struct {
	FeatureID  uint32
	PointIndex uint32
}

type serializedGraph struct {
	Version uint16
	Roads   []serializedRoad
	Joints  [][]serializedJointEntry
}

type serializedRestrictions struct {
	Version uint16
	Pairs   [][2]uint32
}

// SerializeGraph packs the full graph (all access classes) into a graph
// section: kelindar/binary payload behind zstd.
func SerializeGraph(g *Graph) ([]byte, error) {
	sg := serializedGraph{Version: graphSectionVersion}

	for _, featureID := range g.featureIDs {
		road := g.roads[featureID]
		sr := serializedRoad{
			FeatureID: featureID,
			Category:  uint8(road.Category),
			Oneway:    road.Oneway,
			Access:    uint8(road.Access),
			Lats:      make([]float64, 0, len(road.Points)),
			Lons:      make([]float64, 0, len(road.Points)),
		}
		for _, p := range road.Points {
			sr.Lats = append(sr.Lats, p.Lat)
			sr.Lons = append(sr.Lons, p.Lon)
		}
		sg.Roads = append(sg.Roads, sr)
	}

	for _, entries := range g.pointsOfJoint {
		se := make([]serializedJointEntry, 0, len(entries))
		for _, rp := range entries {
			se = append(se, serializedJointEntry{FeatureID: rp.FeatureID, PointIndex: rp.PointIndex})
		}
		sg.Joints = append(sg.Joints, se)
	}

	bb, err := binary.Marshal(&sg)
	if err != nil {
		return nil, fmt.Errorf("marshal graph section: %w", err)
	}
	return zstd.Compress(nil, bb)
}

// DeserializeGraph parses a graph section, dropping roads the vehicle mask
// forbids. Truncated or version-mismatched input fails without exposing a
// partial graph.
func DeserializeGraph(section []byte, mask vehicle.Mask) (*Graph, error) {
	decompressed, err := zstd.Decompress(nil, section)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadGraphSection, err)
	}

	var sg serializedGraph
	if err := binary.Unmarshal(decompressed, &sg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadGraphSection, err)
	}
	if sg.Version != graphSectionVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadGraphSection, sg.Version)
	}

	roads := make(map[uint32]*Road, len(sg.Roads))
	for _, sr := range sg.Roads {
		if len(sr.Lats) != len(sr.Lons) || len(sr.Lats) < 2 {
			return nil, fmt.Errorf("%w: feature %d has inconsistent geometry", ErrBadGraphSection, sr.FeatureID)
		}
		if vehicle.Category(sr.Category) >= vehicle.CategoryCount {
			return nil, fmt.Errorf("%w: feature %d has unknown category %d", ErrBadGraphSection, sr.FeatureID, sr.Category)
		}
		if vehicle.Mask(sr.Access)&mask == 0 {
			continue
		}
		points := make([]datastructure.Coordinate, 0, len(sr.Lats))
		for i := range sr.Lats {
			points = append(points, datastructure.NewCoordinate(sr.Lats[i], sr.Lons[i]))
		}
		roads[sr.FeatureID] = NewRoad(vehicle.Category(sr.Category), sr.Oneway,
			vehicle.Mask(sr.Access), points)
	}

	joints := make([][]datastructure.RoadPoint, 0, len(sg.Joints))
	for _, entries := range sg.Joints {
		rps := make([]datastructure.RoadPoint, 0, len(entries))
		for _, e := range entries {
			rps = append(rps, datastructure.NewRoadPoint(e.FeatureID, e.PointIndex))
		}
		joints = append(joints, rps)
	}

	g, err := NewGraph(roads, joints)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadGraphSection, err)
	}
	return g, nil
}

// SerializeRestrictions packs a restriction set into its section.
func SerializeRestrictions(rs []Restriction) ([]byte, error) {
	sr := serializedRestrictions{Version: restrictionSectionVersion}
	for _, r := range rs {
		sr.Pairs = append(sr.Pairs, [2]uint32{r.FromFeatureID, r.ToFeatureID})
	}
	bb, err := binary.Marshal(&sr)
	if err != nil {
		return nil, fmt.Errorf("marshal restriction section: %w", err)
	}
	return zstd.Compress(nil, bb)
}

// DeserializeRestrictions parses a restriction section.
func DeserializeRestrictions(section []byte) ([]Restriction, error) {
	decompressed, err := zstd.Decompress(nil, section)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRestrictionSection, err)
	}
	var sr serializedRestrictions
	if err := binary.Unmarshal(decompressed, &sr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRestrictionSection, err)
	}
	if sr.Version != restrictionSectionVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadRestrictionSection, sr.Version)
	}
	restrictions := make([]Restriction, 0, len(sr.Pairs))
	for _, p := range sr.Pairs {
		restrictions = append(restrictions, Restriction{FromFeatureID: p[0], ToFeatureID: p[1]})
	}
	return restrictions, nil
}
