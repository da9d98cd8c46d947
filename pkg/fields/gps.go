package fields

import (
	"errors"
	"fmt"
	"math"

	"github.com/charlieegan3/exiflab/pkg/exif"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

type Axis int

const (
	Latitude Axis = iota
	Longitude
)

func (a Axis) String() string {
	if a == Longitude {
		return "longitude"
	}

	return "latitude"
}

func (a Axis) limit() float64 {
	if a == Longitude {
		return 180
	}

	return 90
}

func (a Axis) refs() (positive, negative string) {
	if a == Longitude {
		return "E", "W"
	}

	return "N", "S"
}

func axisOf(ref string) (Axis, bool, error) {
	switch ref {
	case "N":
		return Latitude, false, nil
	case "S":
		return Latitude, true, nil
	case "E":
		return Longitude, false, nil
	case "W":
		return Longitude, true, nil
	}

	return 0, false, fmt.Errorf("%w: reference %q", ErrInvalidCoordinate, ref)
}

// hundredths of an arcsecond per degree
const dmsScale = 360000

// DMSToDecimal converts a degrees, minutes, seconds triple and its reference letter
// into signed decimal degrees. South and west are negative.
func DMSToDecimal(dms []exif.Rational, ref string) (float64, error) {
	axis, negative, err := axisOf(ref)
	if err != nil {
		return 0, err
	}
	if len(dms) != 3 {
		return 0, fmt.Errorf("%w: expected 3 components, got %d", ErrInvalidCoordinate, len(dms))
	}

	var parts [3]float64
	for i, r := range dms {
		v, err := r.Float()
		if err != nil {
			return 0, fmt.Errorf("%w: component %d: %s", ErrInvalidCoordinate, i, err)
		}
		parts[i] = v
	}

	d := parts[0] + parts[1]/60 + parts[2]/3600
	if d > axis.limit() {
		return 0, fmt.Errorf("%w: %f exceeds %s range", ErrInvalidCoordinate, d, axis)
	}
	if negative {
		d = -d
	}

	return d, nil
}

// DecimalToDMS splits signed decimal degrees into whole degrees and minutes and
// seconds in hundredths, with the reference letter for the sign.
func DecimalToDMS(d float64, axis Axis) ([3]exif.Rational, string, error) {
	var dms [3]exif.Rational

	if math.IsNaN(d) || math.IsInf(d, 0) || math.Abs(d) > axis.limit() {
		return dms, "", fmt.Errorf("%w: %f is not a valid %s", ErrInvalidCoordinate, d, axis)
	}

	positive, negative := axis.refs()
	ref := positive
	if d < 0 {
		ref = negative
	}

	h := uint64(math.Round(math.Abs(d) * dmsScale))
	dms[0] = exif.Rational{Num: uint32(h / dmsScale), Den: 1}
	dms[1] = exif.Rational{Num: uint32(h % dmsScale / 6000), Den: 1}
	dms[2] = exif.Rational{Num: uint32(h % 6000), Den: 100}

	return dms, ref, nil
}

// Coordinate reads the latitude or longitude held in a GPS directory.
func Coordinate(gps *exif.Directory, axis Axis) (float64, bool, error) {
	valueTag, refTag := exif.TagGPSLatitude, exif.TagGPSLatitudeRef
	if axis == Longitude {
		valueTag, refTag = exif.TagGPSLongitude, exif.TagGPSLongitudeRef
	}

	value, ok := gps.Get(valueTag)
	if !ok {
		return 0, false, nil
	}
	refEntry, ok := gps.Get(refTag)
	if !ok {
		return 0, false, fmt.Errorf("%w: %s without reference", ErrInvalidCoordinate, axis)
	}

	ref, err := refEntry.String()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s", ErrInvalidCoordinate, err)
	}
	dms, err := value.Rationals()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s", ErrInvalidCoordinate, err)
	}

	d, err := DMSToDecimal(dms, ref)
	if err != nil {
		return 0, false, err
	}
	if expected, _, _ := axisOf(ref); expected != axis {
		return 0, false, fmt.Errorf("%w: reference %q on %s", ErrInvalidCoordinate, ref, axis)
	}

	return d, true, nil
}

// SetCoordinates replaces the GPS directory with a position.
func SetCoordinates(gps *exif.Directory, lat, lon float64) error {
	latDMS, latRef, err := DecimalToDMS(lat, Latitude)
	if err != nil {
		return err
	}
	lonDMS, lonRef, err := DecimalToDMS(lon, Longitude)
	if err != nil {
		return err
	}

	gps.Clear()
	gps.Set(exif.Bytes(exif.TagGPSVersionID, 2, 2, 0, 0))
	gps.Set(exif.ASCII(exif.TagGPSLatitudeRef, latRef))
	gps.Set(exif.Rationals(exif.TagGPSLatitude, latDMS[:]...))
	gps.Set(exif.ASCII(exif.TagGPSLongitudeRef, lonRef))
	gps.Set(exif.Rationals(exif.TagGPSLongitude, lonDMS[:]...))

	return nil
}

// round4 matches the precision coordinates are edited at.
func round4(d float64) float64 {
	return math.Round(d*10000) / 10000
}
