package spatial

import (
	"math"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// PointInPolygon checks if a point is inside a polygon using ray casting
func PointInPolygon(point Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1

	for i := 0; i < len(polygon); i++ {
		if ((polygon[i].Lat > point.Lat) != (polygon[j].Lat > point.Lat)) &&
			(point.Lon < (polygon[j].Lon-polygon[i].Lon)*(point.Lat-polygon[i].Lat)/(polygon[j].Lat-polygon[i].Lat)+polygon[i].Lon) {
			inside = !inside
		}
		j = i
	}

	return inside
}

// PolygonArea calculates the area of a polygon in square meters using the
// shoelace formula with a local flat-earth scale. Adequate for the small
// (hectare-scale) polygons this system works with.
func PolygonArea(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}

	var sum float64
	for i := 0; i < len(points); i++ {
		j := (i + 1) % len(points)
		sum += (points[j].Lon - points[i].Lon) * (points[j].Lat + points[i].Lat)
	}

	latRad := points[0].Lat * math.Pi / 180
	metersPerDegreeLat := 111320.0
	metersPerDegreeLon := 111320.0 * math.Cos(latRad)

	return math.Abs(sum) * metersPerDegreeLat * metersPerDegreeLon / 2.0
}

// CellSquare builds the square cell polygon around a centroid. sideMeters is
// the cell edge length (100m for the standard 1 ha grid).
func CellSquare(center Point, sideMeters float64) []Point {
	halfLat := (sideMeters / 2) / 111320.0
	lonScale := 111320.0 * math.Cos(center.Lat*math.Pi/180)
	if lonScale == 0 {
		lonScale = 111320.0
	}
	halfLon := (sideMeters / 2) / lonScale

	return []Point{
		{Lat: center.Lat - halfLat, Lon: center.Lon - halfLon},
		{Lat: center.Lat - halfLat, Lon: center.Lon + halfLon},
		{Lat: center.Lat + halfLat, Lon: center.Lon + halfLon},
		{Lat: center.Lat + halfLat, Lon: center.Lon - halfLon},
	}
}

// intersectionSampleGrid is the per-axis sampling density used to estimate
// polygon intersection areas. 16x16 keeps the estimate deterministic and
// cheap while resolving boundary slivers well below a tenth of a cell.
const intersectionSampleGrid = 16

// IntersectionAreaEstimate estimates the area (square meters) of the overlap
// between a small subject polygon and an arbitrary clip polygon by sampling a
// fixed grid of points over the subject's bounding box. Deterministic and
// independent of vertex order.
func IntersectionAreaEstimate(subject, clip []Point) float64 {
	if len(subject) < 3 || len(clip) < 3 {
		return 0
	}

	minLat, maxLat := subject[0].Lat, subject[0].Lat
	minLon, maxLon := subject[0].Lon, subject[0].Lon
	for _, p := range subject[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}

	latStep := (maxLat - minLat) / intersectionSampleGrid
	lonStep := (maxLon - minLon) / intersectionSampleGrid
	if latStep == 0 || lonStep == 0 {
		return 0
	}

	inside := 0
	total := 0
	for i := 0; i < intersectionSampleGrid; i++ {
		for j := 0; j < intersectionSampleGrid; j++ {
			// Sample at sub-cell centers to avoid edge ambiguity.
			p := Point{
				Lat: minLat + (float64(i)+0.5)*latStep,
				Lon: minLon + (float64(j)+0.5)*lonStep,
			}
			total++
			if PointInPolygon(p, subject) && PointInPolygon(p, clip) {
				inside++
			}
		}
	}

	bboxArea := PolygonArea([]Point{
		{Lat: minLat, Lon: minLon},
		{Lat: minLat, Lon: maxLon},
		{Lat: maxLat, Lon: maxLon},
		{Lat: maxLat, Lon: minLon},
	})

	return bboxArea * float64(inside) / float64(total)
}

// PolygonsIntersect reports whether the subject polygon overlaps the clip
// polygon, using vertex containment in both directions plus the sampled
// interior check for the crossing cases.
func PolygonsIntersect(subject, clip []Point) bool {
	for _, p := range subject {
		if PointInPolygon(p, clip) {
			return true
		}
	}
	for _, p := range clip {
		if PointInPolygon(p, subject) {
			return true
		}
	}
	return IntersectionAreaEstimate(subject, clip) > 0
}
