package geo

import (
	"github.com/golang/geo/s2"
)

// ProjectPointToLine projects snap onto the segment (segStartLat/Lon,
// segEndLat/Lon) and returns the projection's lat/lon.
func ProjectPointToLine(segStartLat, segStartLon, segEndLat, segEndLon,
	snapLat, snapLon float64) (float64, float64) {
	segStartS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(segStartLat, segStartLon))
	segEndS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(segEndLat, segEndLon))
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snapLat, snapLon))
	projection := s2.Project(snapS2, segStartS2, segEndS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees()
}

// SquaredDistanceToSegmentM returns the squared distance in meters from
// (snapLat, snapLon) to its projection onto the segment. Used to rank nearby
// edge candidates when resolving a query point.
func SquaredDistanceToSegmentM(segStartLat, segStartLon, segEndLat, segEndLon,
	snapLat, snapLon float64) float64 {
	projLat, projLon := ProjectPointToLine(segStartLat, segStartLon, segEndLat, segEndLon,
		snapLat, snapLon)
	dist := HaversineDistanceM(snapLat, snapLon, projLat, projLon)
	return dist * dist
}
