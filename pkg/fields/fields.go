package fields

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charlieegan3/exiflab/pkg/exif"
	"github.com/charlieegan3/exiflab/pkg/profiles"
)

// DefaultSoftware is written when no software is set.
const DefaultSoftware = "ExifLab"

const (
	NotAvailable = "N/A"
	Removed      = "REMOVED"
)

// Fields is the editable view of a block. Every field is the complete desired
// state of its tags: a set field writes them, an empty field removes them, and a
// field still equal to what the block holds leaves its tags as they are.
type Fields struct {
	// Device is the name of the profile last applied, if any.
	Device string `json:"device,omitempty"`

	Make     string `json:"make,omitempty"`
	Model    string `json:"model,omitempty"`
	Software string `json:"software,omitempty"`

	LensModel    string `json:"lens_model,omitempty"`
	ExposureTime string `json:"exposure_time,omitempty"`
	FNumber      string `json:"fnumber,omitempty"`
	FocalLength  string `json:"focal_length,omitempty"`
	ISO          uint16 `json:"iso,omitempty"`

	// Exact values behind the display strings above. They are written as long as
	// their display string has not been edited.
	ExposureTimeValue *exif.Rational `json:"exposure_time_value,omitempty"`
	FNumberValue      *exif.Rational `json:"fnumber_value,omitempty"`
	FocalLengthValue  *exif.Rational `json:"focal_length_value,omitempty"`

	DateTime *DateTime `json:"date_time,omitempty"`
	// DateTimeRaw is an original capture time that could not be parsed.
	DateTimeRaw string `json:"date_time_raw,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type Options struct {
	DefaultSoftware string
}

func (o Options) software(f Fields) string {
	if f.Software != "" {
		return f.Software
	}
	if o.DefaultSoftware != "" {
		return o.DefaultSoftware
	}

	return DefaultSoftware
}

var displayTags = []struct {
	tag   exif.Tag
	field func(*Fields) *string
	value func(*Fields) **exif.Rational
}{
	{
		exif.TagExposureTime,
		func(f *Fields) *string { return &f.ExposureTime },
		func(f *Fields) **exif.Rational { return &f.ExposureTimeValue },
	},
	{
		exif.TagFNumber,
		func(f *Fields) *string { return &f.FNumber },
		func(f *Fields) **exif.Rational { return &f.FNumberValue },
	},
	{
		exif.TagFocalLength,
		func(f *Fields) *string { return &f.FocalLength },
		func(f *Fields) **exif.Rational { return &f.FocalLengthValue },
	},
}

// FromBlock reads the editable fields of a block. Values that cannot be read are
// left empty and reported in the returned error.
func FromBlock(b *exif.Block) (Fields, error) {
	var (
		f    Fields
		errs []error
	)

	text := func(d *exif.Directory, tag exif.Tag) string {
		e, ok := d.Get(tag)
		if !ok {
			return ""
		}
		s, err := e.String()
		if err != nil {
			errs = append(errs, err)
			return ""
		}
		return Clean(s)
	}

	f.Make = text(&b.Image, exif.TagMake)
	f.Model = text(&b.Image, exif.TagModel)
	f.Software = text(&b.Image, exif.TagSoftware)
	f.LensModel = text(&b.Capture, exif.TagLensModel)

	for _, dt := range displayTags {
		e, ok := b.Capture.Get(dt.tag)
		if !ok {
			continue
		}
		s, r, err := displayRational(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*dt.field(&f) = s
		*dt.value(&f) = &r
	}

	if e, ok := b.Capture.Get(exif.TagISOSpeedRatings); ok {
		ints, err := e.Ints()
		switch {
		case err != nil:
			errs = append(errs, err)
		case len(ints) > 0 && ints[0] > 0 && ints[0] <= 0xFFFF:
			f.ISO = uint16(ints[0])
		}
	}

	if s := text(&b.Capture, exif.TagDateTimeOriginal); s != "" {
		dt, err := ParseDateTime(s)
		if err != nil {
			errs = append(errs, err)
			f.DateTimeRaw = s
		} else {
			f.DateTime = &dt
		}
	}

	lat, latOK, latErr := Coordinate(&b.GPS, Latitude)
	lon, lonOK, lonErr := Coordinate(&b.GPS, Longitude)
	errs = append(errs, latErr, lonErr)
	if latOK && lonOK {
		lat, lon = round4(lat), round4(lon)
		f.Latitude, f.Longitude = &lat, &lon
	}

	return f, errors.Join(errs...)
}

func displayRational(e exif.Entry) (string, exif.Rational, error) {
	rs, err := e.Rationals()
	if err != nil {
		return "", exif.Rational{}, err
	}
	if len(rs) != 1 {
		return "", exif.Rational{}, fmt.Errorf("%w: tag 0x%04X has %d values", exif.ErrValueMismatch, uint16(e.Tag), len(rs))
	}

	s, err := FormatRationalDisplay(e.Tag, rs[0])
	if err != nil {
		return "", exif.Rational{}, err
	}

	return s, rs[0], nil
}

// rational resolves a display field to the value to write. The exact value wins
// while the display string still describes it.
func rational(tag exif.Tag, s string, exact *exif.Rational) (exif.Rational, error) {
	if exact != nil && exact.Den != 0 {
		if shown, err := FormatRationalDisplay(tag, *exact); err == nil && shown == s {
			return *exact, nil
		}
	}

	r, err := ParseRationalDisplay(tag, s)
	if err != nil {
		return exif.Rational{}, err
	}
	if r.Den == 0 {
		return exif.Rational{}, fmt.Errorf("tag 0x%04X: %w", uint16(tag), exif.ErrZeroDenominator)
	}

	return r, nil
}

func sameRational(a, b *exif.Rational) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func dateTimeText(f Fields) string {
	if f.DateTime != nil {
		return FormatDateTime(*f.DateTime)
	}

	return f.DateTimeRaw
}

// Apply writes the fields into the block. Nothing is written unless every field
// is valid. Tags whose field still matches the block are left byte for byte; the
// GPS directory is always rebuilt from scratch.
func Apply(b *exif.Block, f Fields, opts Options) error {
	// unreadable values read as empty, so an empty field leaves them alone
	current, _ := FromBlock(b)

	var gps exif.Directory
	switch {
	case f.Latitude != nil && f.Longitude != nil:
		if err := SetCoordinates(&gps, *f.Latitude, *f.Longitude); err != nil {
			return err
		}
	case f.Latitude != nil || f.Longitude != nil:
		return fmt.Errorf("%w: latitude and longitude must be set together", ErrInvalidCoordinate)
	}

	// nil entries are removed, missing ones are left alone
	rationals := make(map[exif.Tag]*exif.Rational)
	for _, dt := range displayTags {
		s, exact := *dt.field(&f), *dt.value(&f)
		switch {
		case s == *dt.field(&current) && (exact == nil || sameRational(exact, *dt.value(&current))):
		case s == "":
			rationals[dt.tag] = nil
		default:
			r, err := rational(dt.tag, s, exact)
			if err != nil {
				return err
			}
			rationals[dt.tag] = &r
		}
	}

	setText(&b.Image, exif.TagMake, current.Make, f.Make)
	setText(&b.Image, exif.TagModel, current.Model, f.Model)
	setText(&b.Image, exif.TagSoftware, current.Software, opts.software(f))
	setText(&b.Capture, exif.TagLensModel, current.LensModel, f.LensModel)

	for tag, r := range rationals {
		if r == nil {
			b.Capture.Delete(tag)
			continue
		}
		b.Capture.Set(exif.Rationals(tag, *r))
	}

	switch {
	case f.ISO == current.ISO:
	case f.ISO == 0:
		b.Capture.Delete(exif.TagISOSpeedRatings)
	default:
		b.Capture.Set(exif.Short(exif.TagISOSpeedRatings, f.ISO))
	}

	if dateTimeText(f) != dateTimeText(current) {
		if f.DateTime != nil {
			s := FormatDateTime(*f.DateTime)
			b.Capture.Set(exif.ASCII(exif.TagDateTimeOriginal, s))
			b.Capture.Set(exif.ASCII(exif.TagDateTimeDigitized, s))
		} else {
			b.Capture.Delete(exif.TagDateTimeOriginal)
			b.Capture.Delete(exif.TagDateTimeDigitized)
		}
	}

	b.GPS = gps

	return nil
}

func setText(d *exif.Directory, tag exif.Tag, current, s string) {
	switch s {
	case "":
		d.Delete(tag)
	case current:
	default:
		d.Set(exif.ASCII(tag, s))
	}
}

// UseProfile copies a profile into the fields, exact values included. Capture
// fields the profile does not define keep their values. Software is reset to the
// profile's, so an empty one falls back to the default on apply.
func (f *Fields) UseProfile(p profiles.Profile) error {
	next := *f
	next.Device = p.Name
	next.Make = p.Make
	next.Model = p.Model
	next.Software = p.Software

	c := p.Capture
	for _, v := range []struct {
		frac  profiles.Fraction
		tag   exif.Tag
		field *string
		value **exif.Rational
	}{
		{c.FNumber, exif.TagFNumber, &next.FNumber, &next.FNumberValue},
		{c.ExposureTime, exif.TagExposureTime, &next.ExposureTime, &next.ExposureTimeValue},
		{c.FocalLength, exif.TagFocalLength, &next.FocalLength, &next.FocalLengthValue},
	} {
		if !v.frac.Defined() {
			continue
		}
		r := v.frac.Rational()
		s, err := FormatRationalDisplay(v.tag, r)
		if err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
		*v.field, *v.value = s, &r
	}
	if c.ISO > 0 {
		next.ISO = c.ISO
	}
	if c.LensModel != "" {
		next.LensModel = c.LensModel
	}

	*f = next

	return nil
}

// ClearPrivacy removes location and capture time.
func (f *Fields) ClearPrivacy() {
	f.DateTime = nil
	f.DateTimeRaw = ""
	f.Latitude = nil
	f.Longitude = nil
}

// ClearDevice removes the fields that identify the camera.
func (f *Fields) ClearDevice() {
	f.Device = ""
	f.Make = ""
	f.Model = ""
	f.Software = ""
	f.LensModel = ""
}

func (f *Fields) ClearAll() {
	*f = Fields{}
}

// Change is one row of the summary shown before applying.
type Change struct {
	Label string `json:"label"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

func (c Change) Changed() bool {
	if c.Old == NotAvailable && c.New == Removed {
		return false
	}

	return c.Old != c.New
}

// Changes compares the original block with the fields about to be applied.
func Changes(original *exif.Block, f Fields, opts Options) []Change {
	if original == nil {
		original = exif.NewBlock()
	}
	old, _ := FromBlock(original)

	text := func(label, before, after string) Change {
		c := Change{Label: label, Old: before, New: after}
		if c.Old == "" {
			c.Old = NotAvailable
		}
		if c.New == "" {
			c.New = Removed
		}
		return c
	}

	iso := func(v uint16) string {
		if v == 0 {
			return ""
		}
		return strconv.Itoa(int(v))
	}

	location := func(lat, lon *float64) string {
		if lat == nil || lon == nil {
			return ""
		}
		return fmt.Sprintf("%.4f, %.4f", *lat, *lon)
	}

	return []Change{
		text("Make", old.Make, f.Make),
		text("Device Model", old.Model, f.Model),
		text("Software", old.Software, opts.software(f)),
		text("Date/Time", dateTimeText(old), dateTimeText(f)),
		text("Location", location(old.Latitude, old.Longitude), location(f.Latitude, f.Longitude)),
		text("Aperture", old.FNumber, f.FNumber),
		text("Exposure Time", old.ExposureTime, f.ExposureTime),
		text("ISO", iso(old.ISO), iso(f.ISO)),
		text("Focal Length", old.FocalLength, f.FocalLength),
		text("Lens Model", old.LensModel, f.LensModel),
	}
}
