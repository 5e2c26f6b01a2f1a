package kv

import (
	"fmt"

	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
)

type kvEdge struct {
	Region      string
	FeatureID   uint32
	PointIndex  uint32
	SegStartLat float64
	SegStartLon float64
	SegEndLat   float64
	SegEndLon   float64
}

type kvEdgeList struct {
	Edges []kvEdge
}

func encodeEdges(edges []datastructure.EdgeCandidate) ([]byte, error) {
	list := kvEdgeList{Edges: make([]kvEdge, 0, len(edges))}
	for _, e := range edges {
		list.Edges = append(list.Edges, kvEdge{
			Region:      e.Region,
			FeatureID:   e.Point.FeatureID,
			PointIndex:  e.Point.PointIndex,
			SegStartLat: e.SegStart.Lat,
			SegStartLon: e.SegStart.Lon,
			SegEndLat:   e.SegEnd.Lat,
			SegEndLon:   e.SegEnd.Lon,
		})
	}
	bb, err := binary.Marshal(&list)
	if err != nil {
		return nil, fmt.Errorf("marshal edges: %w", err)
	}
	return zstd.Compress(nil, bb)
}

func decodeEdges(bb []byte) ([]datastructure.EdgeCandidate, error) {
	decompressed, err := zstd.Decompress(nil, bb)
	if err != nil {
		return nil, fmt.Errorf("decompress edges: %w", err)
	}
	var list kvEdgeList
	if err := binary.Unmarshal(decompressed, &list); err != nil {
		return nil, fmt.Errorf("unmarshal edges: %w", err)
	}

	edges := make([]datastructure.EdgeCandidate, 0, len(list.Edges))
	for _, e := range list.Edges {
		edges = append(edges, datastructure.EdgeCandidate{
			Region:   e.Region,
			Point:    datastructure.NewRoadPoint(e.FeatureID, e.PointIndex),
			SegStart: datastructure.NewCoordinate(e.SegStartLat, e.SegStartLon),
			SegEnd:   datastructure.NewCoordinate(e.SegEndLat, e.SegEndLon),
		})
	}
	return edges, nil
}
