package fields

import (
	"errors"
	"math"
	"testing"

	"github.com/charlieegan3/exiflab/pkg/exif"
)

func TestDecimalToDMS(t *testing.T) {
	testCases := map[string]struct {
		decimal  float64
		axis     Axis
		expected [3]exif.Rational
		ref      string
	}{
		"new york latitude": {
			decimal:  40.7128,
			axis:     Latitude,
			expected: [3]exif.Rational{{Num: 40, Den: 1}, {Num: 42, Den: 1}, {Num: 4608, Den: 100}},
			ref:      "N",
		},
		"new york longitude": {
			decimal:  -74.006,
			axis:     Longitude,
			expected: [3]exif.Rational{{Num: 74, Den: 1}, {Num: 0, Den: 1}, {Num: 2160, Den: 100}},
			ref:      "W",
		},
		"rounding carries into minutes": {
			decimal:  10.9999999,
			axis:     Latitude,
			expected: [3]exif.Rational{{Num: 11, Den: 1}, {Num: 0, Den: 1}, {Num: 0, Den: 100}},
			ref:      "N",
		},
		"zero": {
			decimal:  0,
			axis:     Longitude,
			expected: [3]exif.Rational{{Num: 0, Den: 1}, {Num: 0, Den: 1}, {Num: 0, Den: 100}},
			ref:      "E",
		},
		"south pole": {
			decimal:  -90,
			axis:     Latitude,
			expected: [3]exif.Rational{{Num: 90, Den: 1}, {Num: 0, Den: 1}, {Num: 0, Den: 100}},
			ref:      "S",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			dms, ref, err := DecimalToDMS(tc.decimal, tc.axis)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if dms != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, dms)
			}
			if ref != tc.ref {
				t.Fatalf("expected ref %s, got %s", tc.ref, ref)
			}
		})
	}
}

func TestGPSRoundTrip(t *testing.T) {
	for _, axis := range []Axis{Latitude, Longitude} {
		limit := int(axis.limit() * 10000)
		// every 4 decimal value is too many for a unit test, a coprime stride
		// still visits all residues of the seconds field
		for i := -limit; i <= limit; i += 7919 {
			d := float64(i) / 10000

			dms, ref, err := DecimalToDMS(d, axis)
			if err != nil {
				t.Fatalf("%s %f: unexpected error: %s", axis, d, err)
			}

			back, err := DMSToDecimal(dms[:], ref)
			if err != nil {
				t.Fatalf("%s %f: unexpected error: %s", axis, d, err)
			}
			if math.Abs(back-d) > 1e-4 {
				t.Fatalf("%s %f: round trip gave %f", axis, d, back)
			}
			if (d < 0) != (back < 0) {
				t.Fatalf("%s %f: sign lost, ref %s", axis, d, ref)
			}
		}
	}
}

func TestCoordinateErrors(t *testing.T) {
	if _, _, err := DecimalToDMS(90.0001, Latitude); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected out of range latitude to fail, got %v", err)
	}
	if _, _, err := DecimalToDMS(math.NaN(), Longitude); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected NaN to fail, got %v", err)
	}
	if _, _, err := DecimalToDMS(180, Longitude); err != nil {
		t.Fatalf("expected 180 to be valid, got %v", err)
	}

	testCases := map[string]struct {
		dms []exif.Rational
		ref string
	}{
		"zero denominator": {
			dms: []exif.Rational{{Num: 1, Den: 1}, {Num: 2, Den: 0}, {Num: 3, Den: 1}},
			ref: "N",
		},
		"bad reference": {
			dms: []exif.Rational{{Num: 1, Den: 1}, {Num: 2, Den: 1}, {Num: 3, Den: 1}},
			ref: "X",
		},
		"short triple": {
			dms: []exif.Rational{{Num: 1, Den: 1}},
			ref: "E",
		},
		"latitude out of range": {
			dms: []exif.Rational{{Num: 91, Den: 1}, {Num: 0, Den: 1}, {Num: 0, Den: 1}},
			ref: "S",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := DMSToDecimal(tc.dms, tc.ref); !errors.Is(err, ErrInvalidCoordinate) {
				t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
			}
		})
	}
}

func TestSetCoordinates(t *testing.T) {
	var gps exif.Directory
	gps.Set(exif.ASCII(exif.TagGPSMapDatum, "WGS-84"))

	if err := SetCoordinates(&gps, 51.5007, -0.1246); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, ok := gps.Get(exif.TagGPSMapDatum); ok {
		t.Fatalf("expected the directory to be rebuilt")
	}

	lat, ok, err := Coordinate(&gps, Latitude)
	if err != nil || !ok {
		t.Fatalf("expected latitude, got %v %v", ok, err)
	}
	lon, ok, err := Coordinate(&gps, Longitude)
	if err != nil || !ok {
		t.Fatalf("expected longitude, got %v %v", ok, err)
	}
	if round4(lat) != 51.5007 || round4(lon) != -0.1246 {
		t.Fatalf("unexpected position %f, %f", lat, lon)
	}

	version, _ := gps.Get(exif.TagGPSVersionID)
	if ints, _ := version.Ints(); len(ints) != 4 || ints[0] != 2 || ints[1] != 2 {
		t.Fatalf("unexpected version %v", ints)
	}
}
