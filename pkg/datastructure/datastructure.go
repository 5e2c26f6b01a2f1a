package datastructure

import (
	"github.com/twpayne/go-polyline"
)

type Coordinate struct {
	Lat float64
	Lon float64
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Lat: lat, Lon: lon}
}

// RoadPoint identifies one vertex of one road feature's polyline. Immutable.
type RoadPoint struct {
	FeatureID  uint32
	PointIndex uint32
}

func NewRoadPoint(featureID, pointIndex uint32) RoadPoint {
	return RoadPoint{FeatureID: featureID, PointIndex: pointIndex}
}

// RoutePoint is a road point with the cumulative travel time (seconds) at
// which it is reached.
type RoutePoint struct {
	Point RoadPoint
	Time  float64
}

func NewRoutePoint(point RoadPoint, time float64) RoutePoint {
	return RoutePoint{Point: point, Time: time}
}

// Junction is a route waypoint handed to the directions engine. Altitude is a
// placeholder until pedestrian profiles model elevation.
type Junction struct {
	Point    Coordinate
	Altitude float64
}

const DefaultAltitudeMeters = 0.0

func NewJunction(point Coordinate) Junction {
	return Junction{Point: point, Altitude: DefaultAltitudeMeters}
}

// TimeIndex maps one polyline index to the elapsed travel time at that point.
type TimeIndex struct {
	Index int
	Time  float64
}

// Instruction is one turn annotation produced by the directions engine.
type Instruction struct {
	Turn        Turn
	Description string
	Point       Coordinate
}

type Turn uint8

const (
	TurnNone Turn = iota
	TurnGoStraight
	TurnSlightLeft
	TurnLeft
	TurnSharpLeft
	TurnSlightRight
	TurnRight
	TurnSharpRight
	TurnUTurn
)

func (t Turn) String() string {
	switch t {
	case TurnGoStraight:
		return "continue"
	case TurnSlightLeft:
		return "turn slight left"
	case TurnLeft:
		return "turn left"
	case TurnSharpLeft:
		return "turn sharp left"
	case TurnSlightRight:
		return "turn slight right"
	case TurnRight:
		return "turn right"
	case TurnSharpRight:
		return "turn sharp right"
	case TurnUTurn:
		return "make a u-turn"
	default:
		return "depart"
	}
}

// Route is the final deliverable: dense polyline, per-index elapsed times and
// turn annotations.
type Route struct {
	Polyline     []Coordinate
	Times        []TimeIndex
	Instructions []Instruction
	Eta          float64 // seconds
	Dist         float64 // meters
}

// EdgeCandidate is a snapped road segment returned by the nearest-edge index.
type EdgeCandidate struct {
	Region   string
	Point    RoadPoint // feature vertex starting the snapped segment
	SegStart Coordinate
	SegEnd   Coordinate
}

// EncodePolyline encodes coords with the google polyline algorithm for API
// responses.
func EncodePolyline(coords []Coordinate) string {
	latLons := make([][]float64, 0, len(coords))
	for _, c := range coords {
		latLons = append(latLons, []float64{c.Lat, c.Lon})
	}
	return string(polyline.EncodeCoords(latLons))
}
