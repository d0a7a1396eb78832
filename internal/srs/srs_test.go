package srs

import (
	"math"
	"testing"
)

func TestEllipsoidRoundTrip(t *testing.T) {
	tests := []struct {
		name             string
		lat, lon, height float64
	}{
		{"origin", 0, 0, 0},
		{"zurich", 47.3769, 8.5417, 400},
		{"nyc", 40.7128, -74.0060, 10},
		{"south pole vicinity", -89.0, 0, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z := WGS84.GeographicToGeocentric(tt.lat, tt.lon, tt.height)
			lat, lon, h := WGS84.GeocentricToGeographic(x, y, z)

			if math.Abs(lat-tt.lat) > 1e-6 {
				t.Errorf("lat round trip = %.9f, want %.9f", lat, tt.lat)
			}
			if math.Abs(lon-tt.lon) > 1e-6 {
				t.Errorf("lon round trip = %.9f, want %.9f", lon, tt.lon)
			}
			if math.Abs(h-tt.height) > 1e-3 {
				t.Errorf("height round trip = %.6f, want %.6f", h, tt.height)
			}
		})
	}
}

func TestSRSHorizontallyEquivalentIgnoresVerticalDatum(t *testing.T) {
	a := SRS{Name: "wgs84", Classification: Geodetic, Ellipsoid: WGS84, VerticalDatum: "egm96"}
	b := SRS{Name: "wgs84", Classification: Geodetic, Ellipsoid: WGS84, VerticalDatum: "ellipsoidal"}

	if !a.HorizontallyEquivalent(b) {
		t.Error("expected horizontal equivalence despite differing vertical datum")
	}
	if a.Equivalent(b) {
		t.Error("did not expect full equivalence with differing vertical datum")
	}
}

func TestSRSToGeocentricRoundTrip(t *testing.T) {
	toECEF, err := Geodetic.To(ECEF)
	if err != nil {
		t.Fatalf("To(ECEF): %v", err)
	}
	toGeo, err := ECEF.To(Geodetic)
	if err != nil {
		t.Fatalf("To(Geodetic): %v", err)
	}

	x, y, z := toECEF(8.5417, 47.3769, 400)
	lon, lat, h := toGeo(x, y, z)

	if math.Abs(lon-8.5417) > 1e-6 || math.Abs(lat-47.3769) > 1e-6 || math.Abs(h-400) > 1e-3 {
		t.Errorf("round trip via SRS.To = (%.6f,%.6f,%.3f), want (8.5417,47.3769,400)", lon, lat, h)
	}
}
