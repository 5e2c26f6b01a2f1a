package service

import (
	"context"
	"math"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/geo"
	"github.com/lintang-b-s/regionroute/pkg/router"
	"github.com/lintang-b-s/regionroute/pkg/util"
)

type RouteEngine interface {
	CalculateRoute(region string, start, finish datastructure.Coordinate,
		delegate router.Delegate) (datastructure.Route, router.Code)
}

type KVDB interface {
	GetNearestRoadSegments(lat, lon float64) ([]datastructure.EdgeCandidate, error)
}

type RegionStore interface {
	Regions() ([]string, error)
}

type NavigationService struct {
	engine  RouteEngine
	kv      KVDB
	regions RegionStore
}

func NewNavigationService(engine RouteEngine, kv KVDB, regions RegionStore) *NavigationService {
	return &NavigationService{engine: engine, kv: kv, regions: regions}
}

// ShortestPath computes a route between two coordinates inside one region.
// Request cancellation reaches the engine through the context delegate.
func (s *NavigationService) ShortestPath(ctx context.Context, region string,
	start, finish datastructure.Coordinate) (datastructure.Route, router.Code) {
	delegate := router.NewContextDelegate(ctx, nil, nil)
	return s.engine.CalculateRoute(region, start, finish, delegate)
}

func (s *NavigationService) NearestRoadSegments(ctx context.Context, lat, lon float64) (
	[]datastructure.EdgeCandidate, []float64, error) {
	edges, err := s.kv.GetNearestRoadSegments(lat, lon)
	if err != nil {
		return nil, nil, err
	}
	dists := make([]float64, 0, len(edges))
	for _, e := range edges {
		sq := geo.SquaredDistanceToSegmentM(e.SegStart.Lat, e.SegStart.Lon,
			e.SegEnd.Lat, e.SegEnd.Lon, lat, lon)
		dists = append(dists, util.RoundFloat(math.Sqrt(sq), 2))
	}
	return edges, dists, nil
}

func (s *NavigationService) RegionList(ctx context.Context) ([]string, error) {
	return s.regions.Regions()
}
