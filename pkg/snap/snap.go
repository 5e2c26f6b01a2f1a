package snap

import (
	"github.com/dhconnelly/rtreego"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/geo"
	"github.com/lintang-b-s/regionroute/pkg/roadgraph"
	"github.com/lintang-b-s/regionroute/pkg/util"
)

const (
	// MaxRoadCandidates bounds how many snapped segments a query point may
	// resolve to.
	MaxRoadCandidates = 6

	// leaf bounding boxes are squares of 2*leafTol degrees around the
	// segment midpoint
	leafTol = 0.0001

	// overfetch factor: the k nearest midpoints are not always the k nearest
	// segments
	overFetch = 4
)

type edgeLeaf struct {
	location  rtreego.Point
	candidate datastructure.EdgeCandidate
}

func (l *edgeLeaf) Bounds() rtreego.Rect {
	return l.location.ToRect(leafTol)
}

// RoadSnapper indexes every road segment of the registered regions for
// nearest-edge lookup.
type RoadSnapper struct {
	rtree *rtreego.Rtree
}

func NewRoadSnapper() *RoadSnapper {
	return &RoadSnapper{rtree: rtreego.NewTree(2, 25, 50)}
}

// IndexGraph inserts one region's road segments. Leaves live at the segment
// midpoint and carry the feature vertex starting the segment.
func (rs *RoadSnapper) IndexGraph(region string, g *roadgraph.Graph) {
	for _, featureID := range g.FeatureIDs() {
		road, _ := g.Road(featureID)
		for i := 0; i+1 < road.PointsCount(); i++ {
			segStart := road.Points[i]
			segEnd := road.Points[i+1]
			rs.rtree.Insert(&edgeLeaf{
				location: rtreego.Point{
					(segStart.Lat + segEnd.Lat) / 2,
					(segStart.Lon + segEnd.Lon) / 2,
				},
				candidate: datastructure.EdgeCandidate{
					Region:   region,
					Point:    datastructure.NewRoadPoint(featureID, uint32(i)),
					SegStart: segStart,
					SegEnd:   segEnd,
				},
			})
		}
	}
}

func (rs *RoadSnapper) Size() int {
	return rs.rtree.Size()
}

// FindClosestEdges returns up to MaxRoadCandidates snapped segments ordered
// by distance from the query point to the segment.
func (rs *RoadSnapper) FindClosestEdges(lat, lon float64) []datastructure.EdgeCandidate {
	neighbors := rs.rtree.NearestNeighbors(overFetch*MaxRoadCandidates, rtreego.Point{lat, lon})

	type ranked struct {
		candidate datastructure.EdgeCandidate
		distSq    float64
	}
	candidates := make([]ranked, 0, len(neighbors))
	for _, spatial := range neighbors {
		leaf, ok := spatial.(*edgeLeaf)
		if !ok || leaf == nil {
			continue
		}
		distSq := geo.SquaredDistanceToSegmentM(
			leaf.candidate.SegStart.Lat, leaf.candidate.SegStart.Lon,
			leaf.candidate.SegEnd.Lat, leaf.candidate.SegEnd.Lon,
			lat, lon)
		candidates = append(candidates, ranked{candidate: leaf.candidate, distSq: distSq})
	}

	// ties broken by road point so equal distances rank the same across runs
	candidates = util.QuickSortG(candidates, func(a, b ranked) int {
		switch {
		case a.distSq < b.distSq:
			return -1
		case a.distSq > b.distSq:
			return 1
		case a.candidate.Point.FeatureID != b.candidate.Point.FeatureID:
			return int(a.candidate.Point.FeatureID) - int(b.candidate.Point.FeatureID)
		default:
			return int(a.candidate.Point.PointIndex) - int(b.candidate.Point.PointIndex)
		}
	})
	if len(candidates) > MaxRoadCandidates {
		candidates = candidates[:MaxRoadCandidates]
	}

	result := make([]datastructure.EdgeCandidate, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.candidate)
	}
	return result
}
