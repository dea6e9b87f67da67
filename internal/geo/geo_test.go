package geo

import (
	"math"
	"testing"
)

var bangalore = Point{Lat: 12.9716, Lon: 77.5946}

func TestDistanceKm(t *testing.T) {
	testCases := []struct {
		name  string
		a, b  Point
		minKm float64
		maxKm float64
	}{
		{"same point", bangalore, bangalore, 0, 0.0001},
		{"one km north", bangalore, Point{Lat: 12.9786, Lon: 77.5946}, 0.7, 0.85},
		{"five km east", bangalore, Point{Lat: 12.9716, Lon: 77.6446}, 5.2, 5.7},
		{"far south east", bangalore, Point{Lat: 12.8716, Lon: 77.7446}, 18, 21},
		{"paris to london", Point{Lat: 48.8566, Lon: 2.3522}, Point{Lat: 51.5074, Lon: -0.1278}, 340, 347},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceKm(tc.a, tc.b)
			if got < tc.minKm || got > tc.maxKm {
				t.Errorf("DistanceKm = %.4f; want between %.2f and %.2f", got, tc.minKm, tc.maxKm)
			}
			if back := DistanceKm(tc.b, tc.a); math.Abs(back-got) > 1e-9 {
				t.Errorf("distance not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestWithinRadius(t *testing.T) {
	near := Point{Lat: 12.9786, Lon: 77.5946}
	mid := Point{Lat: 12.9716, Lon: 77.6446}
	far := Point{Lat: 12.8716, Lon: 77.7446}

	count := func(radius float64) int {
		n := 0
		for _, p := range []Point{near, mid, far} {
			if Within(bangalore, p, radius) {
				n++
			}
		}
		return n
	}

	if got := count(2); got != 1 {
		t.Errorf("2km radius matched %d; want 1", got)
	}
	if got := count(10); got != 2 {
		t.Errorf("10km radius matched %d; want 2", got)
	}
	if got := count(50); got != 3 {
		t.Errorf("50km radius matched %d; want 3", got)
	}
}

func TestBoxCoversRadius(t *testing.T) {
	box := Box(bangalore, 10)

	for _, p := range []Point{
		{Lat: 12.9716 + 0.089, Lon: 77.5946},
		{Lat: 12.9716 - 0.089, Lon: 77.5946},
		{Lat: 12.9716, Lon: 77.5946 + 0.09},
		{Lat: 12.9716, Lon: 77.5946 - 0.09},
	} {
		if Within(bangalore, p, 10) && !box.Contains(p) {
			t.Errorf("box %+v misses in-radius point %+v", box, p)
		}
	}

	if box.Contains(Point{Lat: 13.5, Lon: 77.5946}) {
		t.Error("box should not contain a point 58km north")
	}
}

func TestBoxNearPoleSpansAllLongitudes(t *testing.T) {
	box := Box(Point{Lat: 89.95, Lon: 10}, 20)
	if box.MinLon != -180 || box.MaxLon != 180 {
		t.Errorf("polar box longitudes = [%v, %v]; want full range", box.MinLon, box.MaxLon)
	}
	if box.MaxLat != 90 {
		t.Errorf("polar box MaxLat = %v; want 90", box.MaxLat)
	}
}

func TestGeohash(t *testing.T) {
	testCases := []struct {
		name      string
		point     Point
		precision int
		want      string
	}{
		{"reference point", Point{Lat: 57.64911, Lon: 10.40744}, 11, "u4pruydqqvj"},
		{"reference prefix", Point{Lat: 57.64911, Lon: 10.40744}, 5, "u4pru"},
		{"origin", Point{Lat: 0, Lon: 0}, 4, "s000"},
		{"zero precision", bangalore, 0, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Geohash(tc.point, tc.precision); got != tc.want {
				t.Errorf("Geohash(%+v, %d) = %q; want %q", tc.point, tc.precision, got, tc.want)
			}
		})
	}
}

func TestPointValid(t *testing.T) {
	testCases := []struct {
		name  string
		point Point
		want  bool
	}{
		{"bangalore", bangalore, true},
		{"lat too high", Point{Lat: 999, Lon: 77}, false},
		{"lon too low", Point{Lat: 0, Lon: -181}, false},
		{"nan", Point{Lat: math.NaN(), Lon: 0}, false},
		{"edges", Point{Lat: -90, Lon: 180}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.point.Valid(); got != tc.want {
				t.Errorf("Valid() = %v; want %v", got, tc.want)
			}
		})
	}
}
