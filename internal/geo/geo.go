// Package geo has the distance and containment primitives used to match
// huddles to a searcher's position.
package geo

import (
	"math"
	"strings"
)

const (
	EarthRadiusKm = 6371.0
	kmPerDegree   = 111.0

	geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

func ValidLongitude(lon float64) bool {
	return !math.IsNaN(lon) && lon >= -180 && lon <= 180
}

func (p Point) Valid() bool {
	return ValidLatitude(p.Lat) && ValidLongitude(p.Lon)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceKm is the great-circle distance between a and b using the haversine formula.
func DistanceKm(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func Within(center, p Point, radiusKm float64) bool {
	return DistanceKm(center, p) <= radiusKm
}

// Box returns a box that contains every point within radiusKm of center.
// It over-covers, so callers confirm candidates with Within.
func Box(center Point, radiusKm float64) BoundingBox {
	latDelta := radiusKm / kmPerDegree

	lonDelta := 180.0
	if cosLat := math.Cos(toRadians(center.Lat)); cosLat > 1e-9 {
		lonDelta = math.Min(180, radiusKm/(kmPerDegree*cosLat))
	}

	box := BoundingBox{
		MinLat: math.Max(-90, center.Lat-latDelta),
		MaxLat: math.Min(90, center.Lat+latDelta),
		MinLon: center.Lon - lonDelta,
		MaxLon: center.Lon + lonDelta,
	}

	// near the poles or across the antimeridian just widen to the full range
	if box.MinLat == -90 || box.MaxLat == 90 || box.MinLon < -180 || box.MaxLon > 180 {
		box.MinLon = -180
		box.MaxLon = 180
	}

	return box
}

func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Geohash encodes p as a base32 geohash of the given precision.
func Geohash(p Point, precision int) string {
	if precision <= 0 {
		return ""
	}

	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}

	var sb strings.Builder
	sb.Grow(precision)

	bit, ch := 0, 0
	even := true

	for sb.Len() < precision {
		if even {
			mid := (lonRange[0] + lonRange[1]) / 2
			if p.Lon >= mid {
				ch = ch<<1 | 1
				lonRange[0] = mid
			} else {
				ch <<= 1
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if p.Lat >= mid {
				ch = ch<<1 | 1
				latRange[0] = mid
			} else {
				ch <<= 1
				latRange[1] = mid
			}
		}
		even = !even

		bit++
		if bit == 5 {
			sb.WriteByte(geohashAlphabet[ch])
			bit, ch = 0, 0
		}
	}

	return sb.String()
}
