package fields

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var ErrMalformedDateTime = errors.New("malformed date time")

// DateTimeLayout is the canonical form of capture timestamps.
const DateTimeLayout = "2006:01:02 15:04:05"

var dateTimePattern = regexp.MustCompile(`^(\d{4}):(\d{2}):(\d{2}) (\d{2}):(\d{2}):(\d{2})$`)

// DateTime is a wall clock capture time. EXIF timestamps carry no zone.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

func FormatDateTime(dt DateTime) string {
	return fmt.Sprintf("%04d:%02d:%02d %02d:%02d:%02d", dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
}

// ParseDateTime accepts exactly YYYY:MM:DD HH:MM:SS with a real calendar date.
func ParseDateTime(s string) (DateTime, error) {
	m := dateTimePattern.FindStringSubmatch(s)
	if m == nil {
		return DateTime{}, fmt.Errorf("%w: %q", ErrMalformedDateTime, s)
	}

	var parts [6]int
	for i := range parts {
		// the pattern guarantees digits
		parts[i], _ = strconv.Atoi(m[i+1])
	}
	dt := DateTime{Year: parts[0], Month: parts[1], Day: parts[2], Hour: parts[3], Minute: parts[4], Second: parts[5]}

	if dt.Hour > 23 || dt.Minute > 59 || dt.Second > 59 {
		return DateTime{}, fmt.Errorf("%w: %q has an invalid time", ErrMalformedDateTime, s)
	}
	if dt.Month < 1 || dt.Month > 12 || dt.Day < 1 || FromTime(dt.Time()) != dt {
		return DateTime{}, fmt.Errorf("%w: %q has an invalid date", ErrMalformedDateTime, s)
	}

	return dt, nil
}

func (dt DateTime) String() string {
	return FormatDateTime(dt)
}

// Time places the timestamp in UTC.
func (dt DateTime) Time() time.Time {
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, 0, time.UTC)
}

func FromTime(t time.Time) DateTime {
	return DateTime{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

func (dt DateTime) MarshalText() ([]byte, error) {
	return []byte(FormatDateTime(dt)), nil
}

func (dt *DateTime) UnmarshalText(b []byte) error {
	parsed, err := ParseDateTime(string(b))
	if err != nil {
		return err
	}
	*dt = parsed

	return nil
}
