package router

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/regionroute/pkg/estimator"
	"github.com/lintang-b-s/regionroute/pkg/geo"
	"github.com/lintang-b-s/regionroute/pkg/mapdata"
	"github.com/lintang-b-s/regionroute/pkg/roadgraph"
	"github.com/lintang-b-s/regionroute/pkg/traffic"
	"github.com/lintang-b-s/regionroute/pkg/vehicle"
)

const (
	// progress is reported to the delegate in steps of this many percent
	progressInterval = 2.0
	// one point-visited notification per this many relaxed edges
	drawPointsPeriod = 10
)

// RegionHandle is one request's lease on a region's map data.
type RegionHandle interface {
	Region() string
	ReadSection(tag string) ([]byte, error)
	Close()
}

// MapDataSource resolves regions into scoped leases.
type MapDataSource interface {
	ResolveRegion(region string) (RegionHandle, error)
}

// NearestEdgeIndex finds road segments close to a query point.
type NearestEdgeIndex interface {
	FindClosestEdges(lat, lon float64) []datastructure.EdgeCandidate
}

// TrafficProvider hands out immutable congestion snapshots per region.
type TrafficProvider interface {
	TrafficForRegion(region string) (traffic.Coloring, bool)
}

// DirectionsEngine densifies junctions into the final polyline with turn
// annotations.
type DirectionsEngine interface {
	Reconstruct(junctions []datastructure.Junction) (
		[]datastructure.Coordinate, []datastructure.Instruction, error)
}

// VehicleModelFactory selects the speed/access model for a region.
type VehicleModelFactory interface {
	ModelForRegion(region string) vehicle.Model
}

// StorageSource adapts mapdata.Storage to the MapDataSource contract.
type StorageSource struct {
	storage *mapdata.Storage
}

func NewStorageSource(storage *mapdata.Storage) StorageSource {
	return StorageSource{storage: storage}
}

func (s StorageSource) ResolveRegion(region string) (RegionHandle, error) {
	handle, err := s.storage.ResolveRegion(region)
	if err != nil {
		return nil, err
	}
	return handle, nil
}

// SingleRegionRouter computes point-to-point routes confined to one region.
// Every request loads its own graph instance, so a router is safe for
// concurrent use.
type SingleRegionRouter struct {
	mapData    MapDataSource
	index      NearestEdgeIndex
	models     VehicleModelFactory
	traffic    TrafficProvider
	directions DirectionsEngine
	log        *zap.Logger
}

func NewSingleRegionRouter(mapData MapDataSource, index NearestEdgeIndex,
	models VehicleModelFactory, trafficProvider TrafficProvider,
	directions DirectionsEngine, log *zap.Logger) *SingleRegionRouter {
	return &SingleRegionRouter{
		mapData:    mapData,
		index:      index,
		models:     models,
		traffic:    trafficProvider,
		directions: directions,
		log:        log,
	}
}

// CalculateRoute runs the request state machine: resolve endpoints, load the
// graph, search, build. Panics from data access are contained here and
// reported as InternalError, never propagated.
func (r *SingleRegionRouter) CalculateRoute(region string,
	start, finish datastructure.Coordinate, delegate Delegate) (
	route datastructure.Route, code Code) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("route computation panicked",
				zap.String("region", region), zap.Any("panic", rec))
			route, code = datastructure.Route{}, InternalError
		}
	}()

	startPoint, ok := r.resolveEndpoint(region, start)
	if !ok {
		return datastructure.Route{}, StartPointNotFound
	}
	finishPoint, ok := r.resolveEndpoint(region, finish)
	if !ok {
		return datastructure.Route{}, EndPointNotFound
	}

	handle, err := r.mapData.ResolveRegion(region)
	if err != nil {
		r.log.Warn("region unavailable", zap.String("region", region), zap.Error(err))
		return datastructure.Route{}, RouteFileNotExist
	}
	defer handle.Close()

	model := r.models.ModelForRegion(region)
	graph, code := r.loadGraph(handle, model.Mask())
	if code != NoError {
		return datastructure.Route{}, code
	}

	// the vehicle mask may have dropped the snapped features
	if _, ok := graph.Road(startPoint.FeatureID); !ok {
		return datastructure.Route{}, StartPointNotFound
	}
	if _, ok := graph.Road(finishPoint.FeatureID); !ok {
		return datastructure.Route{}, EndPointNotFound
	}

	var coloring traffic.Coloring
	if r.traffic != nil {
		// snapshot taken once, later traffic updates are not observed
		// mid-search
		coloring, _ = r.traffic.TrafficForRegion(region)
	}
	est := estimator.New(model, coloring)

	starter, err := roadgraph.NewStarter(graph, est, startPoint, finishPoint)
	if err != nil {
		r.log.Error("starter construction failed", zap.String("region", region), zap.Error(err))
		return datastructure.Route{}, InternalError
	}

	joints, code := r.search(starter, start, finish, delegate)
	if code != NoError {
		return datastructure.Route{}, code
	}

	routePoints, err := starter.RedressRoute(joints)
	if err != nil {
		r.log.Error("route redressing failed", zap.String("region", region), zap.Error(err))
		return datastructure.Route{}, InternalError
	}

	route, err = buildRoute(routePoints, starter, r.directions)
	if err != nil {
		r.log.Error("route build failed", zap.String("region", region), zap.Error(err))
		return datastructure.Route{}, InternalError
	}

	if delegate != nil {
		delegate.OnProgress(100)
	}
	return route, NoError
}

// resolveEndpoint snaps a query point to the in-region candidate segment with
// the smallest perpendicular distance.
func (r *SingleRegionRouter) resolveEndpoint(region string,
	point datastructure.Coordinate) (datastructure.RoadPoint, bool) {
	candidates := r.index.FindClosestEdges(point.Lat, point.Lon)

	best := datastructure.RoadPoint{}
	bestDist := math.MaxFloat64
	found := false
	for _, c := range candidates {
		if c.Region != region {
			continue
		}
		dist := geo.SquaredDistanceToSegmentM(
			c.SegStart.Lat, c.SegStart.Lon, c.SegEnd.Lat, c.SegEnd.Lon,
			point.Lat, point.Lon)
		if dist < bestDist {
			bestDist = dist
			best = c.Point
			found = true
		}
	}
	return best, found
}

func (r *SingleRegionRouter) loadGraph(handle RegionHandle, mask vehicle.Mask) (
	*roadgraph.Graph, Code) {
	graphSection, err := handle.ReadSection(roadgraph.GraphSectionTag)
	if err != nil {
		r.log.Warn("graph section unreadable",
			zap.String("region", handle.Region()), zap.Error(err))
		return nil, RouteFileNotExist
	}
	graph, err := roadgraph.DeserializeGraph(graphSection, mask)
	if err != nil {
		r.log.Warn("graph section corrupt",
			zap.String("region", handle.Region()), zap.Error(err))
		return nil, RouteFileNotExist
	}

	restrictionSection, err := handle.ReadSection(roadgraph.RestrictionSectionTag)
	switch {
	case errors.Is(err, mapdata.ErrSectionNotFound):
		// a region without turn bans is valid
	case err != nil:
		r.log.Warn("restriction section unreadable",
			zap.String("region", handle.Region()), zap.Error(err))
		return nil, RouteFileNotExist
	default:
		restrictions, err := roadgraph.DeserializeRestrictions(restrictionSection)
		if err != nil {
			r.log.Warn("restriction section corrupt",
				zap.String("region", handle.Region()), zap.Error(err))
			return nil, RouteFileNotExist
		}
		graph.ApplyRestrictions(restrictions)
	}
	return graph, NoError
}

// search runs the bidirectional search and unwraps the pair-space path into
// the joint sequence.
func (r *SingleRegionRouter) search(starter *roadgraph.Starter,
	start, finish datastructure.Coordinate, delegate Delegate) ([]roadgraph.JointID, Code) {
	progress := routingalgorithm.NewProgress(start, finish)
	lastReported := 0.0
	visited := 0

	onVisit := func(from, to roadgraph.Vertex) {
		if delegate == nil {
			return
		}
		point := starter.JointPoint(to.Curr)
		visited++
		if visited%drawPointsPeriod == 0 {
			delegate.OnPointCheck(point)
		}
		if value := progress.UpdateBidirected(point); value-lastReported >= progressInterval {
			lastReported = value
			delegate.OnProgress(value)
		}
	}

	var routingDelegate routingalgorithm.Delegate
	if delegate != nil {
		routingDelegate = delegate
	}
	result, rcode := routingalgorithm.FindPathBidirectional[roadgraph.Vertex](
		starter, starter.GetStartVertex(), starter.GetFinishVertex(),
		routingDelegate, onVisit)
	switch rcode {
	case routingalgorithm.Cancelled:
		return nil, Cancelled
	case routingalgorithm.NoPath:
		return nil, NoPath
	}

	// each pair carries its Curr joint; the terminal self-pair duplicates
	// the joint before it
	joints := make([]roadgraph.JointID, 0, len(result.Path))
	for _, v := range result.Path {
		joints = append(joints, v.Curr)
	}
	if len(joints) >= 2 && joints[len(joints)-1] == joints[len(joints)-2] {
		joints = joints[:len(joints)-1]
	}
	return joints, NoError
}
