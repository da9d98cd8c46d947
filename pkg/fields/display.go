package fields

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/charlieegan3/exiflab/pkg/exif"
)

var ErrInvalidDisplay = errors.New("invalid display value")

// maxDecimals bounds the denominator chosen when parsing decimal display strings.
const maxDecimals = 6

// FormatRationalDisplay renders a rational the way the editor shows it: exposure
// times with a unit numerator as 1/d, apertures as f/x.x, focal lengths in whole
// millimetres and anything else with one decimal.
func FormatRationalDisplay(tag exif.Tag, r exif.Rational) (string, error) {
	v, err := r.Float()
	if err != nil {
		return "", err
	}

	switch tag {
	case exif.TagExposureTime:
		if r.Num == 1 {
			return fmt.Sprintf("1/%d", r.Den), nil
		}
	case exif.TagFNumber:
		return fmt.Sprintf("f/%.1f", v), nil
	case exif.TagFocalLength:
		return fmt.Sprintf("%dmm", int64(math.Round(v))), nil
	}

	return fmt.Sprintf("%.1f", v), nil
}

// ParseRationalDisplay is the inverse of FormatRationalDisplay. It also accepts
// plain decimals for every tag.
func ParseRationalDisplay(tag exif.Tag, s string) (exif.Rational, error) {
	s = strings.TrimSpace(s)

	switch tag {
	case exif.TagExposureTime:
		if rest, ok := strings.CutPrefix(s, "1/"); ok {
			d, err := strconv.ParseUint(rest, 10, 32)
			if err != nil || d == 0 {
				return exif.Rational{}, fmt.Errorf("%w: exposure time %q", ErrInvalidDisplay, s)
			}
			return exif.Rational{Num: 1, Den: uint32(d)}, nil
		}
	case exif.TagFNumber:
		s = strings.TrimPrefix(strings.TrimPrefix(s, "f/"), "F/")
	case exif.TagFocalLength:
		s = strings.TrimSpace(strings.TrimSuffix(s, "mm"))
	}

	return parseDecimal(s)
}

func parseDecimal(s string) (exif.Rational, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || len(frac) > maxDecimals {
		return exif.Rational{}, fmt.Errorf("%w: %q", ErrInvalidDisplay, s)
	}

	den := uint64(1)
	for range frac {
		den *= 10
	}

	num, err := strconv.ParseUint(whole+frac, 10, 32)
	if err != nil {
		return exif.Rational{}, fmt.Errorf("%w: %q", ErrInvalidDisplay, s)
	}

	return exif.Rational{Num: uint32(num), Den: uint32(den)}, nil
}

// Clean drops control characters, which some cameras leave in padded strings.
func Clean(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// FormatValue renders an entry for listings.
func FormatValue(kind exif.Kind, e exif.Entry) string {
	if e.Opaque() {
		return fmt.Sprintf("(%d bytes, %s)", len(e.Raw), e.Type)
	}

	switch v := e.Value.(type) {
	case string:
		return Clean(v)
	case []byte:
		if e.Type == exif.TypeUndefined {
			if printable(v) {
				return string(v)
			}
			return fmt.Sprintf("(%d bytes)", len(v))
		}
	case []exif.Rational:
		if len(v) == 1 && kind != exif.KindGPS {
			if s, err := FormatRationalDisplay(e.Tag, v[0]); err == nil {
				return s
			}
		}
		parts := make([]string, 0, len(v))
		for _, r := range v {
			f, _ := r.Float()
			if kind == exif.KindGPS {
				parts = append(parts, fmt.Sprintf("%.2f", f))
			} else {
				parts = append(parts, fmt.Sprintf("%.1f", f))
			}
		}
		return strings.Join(parts, ", ")
	case []exif.SRational:
		parts := make([]string, 0, len(v))
		for _, r := range v {
			f, _ := r.Float()
			parts = append(parts, fmt.Sprintf("%.1f", f))
		}
		return strings.Join(parts, ", ")
	case []float32:
		return join(v, "%g")
	case []float64:
		return join(v, "%g")
	}

	if ints, err := e.Ints(); err == nil {
		return join(ints, "%d")
	}

	return fmt.Sprintf("%v", e.Value)
}

func join[T any](values []T, format string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf(format, v))
	}

	return strings.Join(parts, ", ")
}

func printable(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}

	return true
}

type Item struct {
	Tag   uint16 `json:"tag"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Listing is the display form of one directory.
type Listing struct {
	Directory string `json:"directory"`
	Items     []Item `json:"items"`
}

// Describe lists every non empty directory of a block, in layout order.
func Describe(b *exif.Block) []Listing {
	var listings []Listing
	for _, kind := range exif.Kinds {
		d := b.Directory(kind)
		if d.Len() == 0 {
			continue
		}

		l := Listing{Directory: kind.String()}
		for _, e := range d.Entries() {
			l.Items = append(l.Items, Item{
				Tag:   uint16(e.Tag),
				Name:  exif.DisplayName(kind, e.Tag),
				Value: FormatValue(kind, e),
			})
		}
		listings = append(listings, l)
	}

	return listings
}
