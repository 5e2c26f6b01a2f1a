package geo

import "math"

const (
	earthRadiusKM = 6371.0
	earthRadiusM  = 6371007
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

// CalculateHaversineDistance returns the great-circle distance in km.
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	longOne = degreeToRadians(longOne)
	latTwo = degreeToRadians(latTwo)
	longTwo = degreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

// HaversineDistanceM returns the great-circle distance in meters.
func HaversineDistanceM(latOne, longOne, latTwo, longTwo float64) float64 {
	return CalculateHaversineDistance(latOne, longOne, latTwo, longTwo) * 1000.0
}

// GetDestinationPoint returns the point reached after travelling distKM km
// from (lat, lon) at the given bearing (degrees).
func GetDestinationPoint(lat, lon float64, bearing, distKM float64) (float64, float64) {
	angularDist := distKM / earthRadiusKM
	bearingRad := degreeToRadians(bearing)

	latRad := degreeToRadians(lat)
	lonRad := degreeToRadians(lon)

	destLat := math.Asin(math.Sin(latRad)*math.Cos(angularDist) +
		math.Cos(latRad)*math.Sin(angularDist)*math.Cos(bearingRad))
	destLon := lonRad + math.Atan2(math.Sin(bearingRad)*math.Sin(angularDist)*math.Cos(latRad),
		math.Cos(angularDist)-math.Sin(latRad)*math.Sin(destLat))

	return destLat * (180.0 / math.Pi), destLon * (180.0 / math.Pi)
}

// BearingTo returns the initial bearing in degrees [-180, 180] from the first
// point to the second.
func BearingTo(latOne, lonOne, latTwo, lonTwo float64) float64 {
	latOneRad := degreeToRadians(latOne)
	latTwoRad := degreeToRadians(latTwo)
	deltaLon := degreeToRadians(lonTwo - lonOne)

	y := math.Sin(deltaLon) * math.Cos(latTwoRad)
	x := math.Cos(latOneRad)*math.Sin(latTwoRad) -
		math.Sin(latOneRad)*math.Cos(latTwoRad)*math.Cos(deltaLon)
	return math.Atan2(y, x) * (180.0 / math.Pi)
}
