package routingalgorithm

import (
	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/geo"
	"github.com/lintang-b-s/regionroute/pkg/util"
)

// Progress interpolates 0-100 completion for the bidirectional search from
// the remaining straight-line distance of whichever frontier got further.
// Values are monotonic non-decreasing.
type Progress struct {
	start           datastructure.Coordinate
	finish          datastructure.Coordinate
	initialDistance float64
	lastValue       float64
}

func NewProgress(start, finish datastructure.Coordinate) *Progress {
	return &Progress{
		start:           start,
		finish:          finish,
		initialDistance: geo.HaversineDistanceM(start.Lat, start.Lon, finish.Lat, finish.Lon),
	}
}

func (p *Progress) GetLastValue() float64 {
	return p.lastValue
}

// UpdateBidirected folds in the endpoint of the edge just relaxed and returns
// the current progress value.
func (p *Progress) UpdateBidirected(point datastructure.Coordinate) float64 {
	if p.initialDistance == 0 {
		p.lastValue = 100
		return p.lastValue
	}

	forwardRemaining := geo.HaversineDistanceM(point.Lat, point.Lon, p.finish.Lat, p.finish.Lon)
	backwardRemaining := geo.HaversineDistanceM(point.Lat, point.Lon, p.start.Lat, p.start.Lon)

	remaining := forwardRemaining
	if backwardRemaining < remaining {
		remaining = backwardRemaining
	}

	value := util.Clamp(100.0*(1.0-remaining/p.initialDistance), 0, 100)
	if value > p.lastValue {
		p.lastValue = value
	}
	return p.lastValue
}
