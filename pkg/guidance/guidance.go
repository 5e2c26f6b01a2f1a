package guidance

import (
	"errors"
	"math"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/geo"
)

var ErrNoJunctions = errors.New("no junctions to reconstruct")

// DirectionsEngine densifies a junction chain into the final route polyline
// and annotates it with turn instructions.
type DirectionsEngine struct{}

func NewDirectionsEngine() *DirectionsEngine {
	return &DirectionsEngine{}
}

// Reconstruct returns the route polyline and its instructions. Every interior
// junction appears twice in the polyline, once as the end of the incoming leg
// and once as the start of the outgoing leg, so a polyline built from n
// junctions has 2n-2 points.
func (d *DirectionsEngine) Reconstruct(junctions []datastructure.Junction) (
	[]datastructure.Coordinate, []datastructure.Instruction, error) {
	if len(junctions) == 0 {
		return nil, nil, ErrNoJunctions
	}
	if len(junctions) == 1 {
		return []datastructure.Coordinate{junctions[0].Point}, nil, nil
	}

	polyline := make([]datastructure.Coordinate, 0, 2*len(junctions)-2)
	polyline = append(polyline, junctions[0].Point)
	for i := 1; i+1 < len(junctions); i++ {
		polyline = append(polyline, junctions[i].Point, junctions[i].Point)
	}
	polyline = append(polyline, junctions[len(junctions)-1].Point)

	instructions := []datastructure.Instruction{{
		Turn:        datastructure.TurnNone,
		Description: datastructure.TurnNone.String(),
		Point:       junctions[0].Point,
	}}

	for i := 1; i+1 < len(junctions); i++ {
		prev, base, next := junctions[i-1].Point, junctions[i].Point, junctions[i+1].Point
		prevOrientation := calcOrientation(prev.Lat, prev.Lon, base.Lat, base.Lon)
		turn := getTurnDirection(base.Lat, base.Lon, next.Lat, next.Lon, prevOrientation)
		if turn == datastructure.TurnGoStraight {
			continue
		}
		instructions = append(instructions, datastructure.Instruction{
			Turn:        turn,
			Description: turn.String(),
			Point:       base,
		})
	}
	return polyline, instructions, nil
}

func calcOrientation(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.BearingTo(lat1, lon1, lat2, lon2) * math.Pi / 180
}

// alignOrientation shifts orientation by a full turn so its difference to
// baseOrientation stays within (-pi, pi].
func alignOrientation(baseOrientation, orientation float64) float64 {
	if baseOrientation >= 0 {
		if orientation < -math.Pi+baseOrientation {
			return orientation + 2*math.Pi
		}
		return orientation
	}
	if orientation > math.Pi+baseOrientation {
		return orientation - 2*math.Pi
	}
	return orientation
}

func calculateOrientationDelta(prevLatitude, prevLongitude, latitude, longitude,
	prevOrientation float64) float64 {
	orientation := calcOrientation(prevLatitude, prevLongitude, latitude, longitude)
	orientation = alignOrientation(prevOrientation, orientation)
	return orientation - prevOrientation
}

func getTurnDirection(prevLatitude, prevLongitude, latitude, longitude,
	prevOrientation float64) datastructure.Turn {
	delta := calculateOrientationDelta(prevLatitude, prevLongitude, latitude, longitude,
		prevOrientation)
	deltaDegree := math.Abs(delta) * (180 / math.Pi)

	switch {
	case deltaDegree < 12:
		return datastructure.TurnGoStraight
	case deltaDegree < 40:
		if delta < 0 {
			return datastructure.TurnSlightLeft
		}
		return datastructure.TurnSlightRight
	case deltaDegree < 105:
		if delta < 0 {
			return datastructure.TurnLeft
		}
		return datastructure.TurnRight
	case deltaDegree < 165:
		if delta < 0 {
			return datastructure.TurnSharpLeft
		}
		return datastructure.TurnSharpRight
	default:
		return datastructure.TurnUTurn
	}
}
