package jpeg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrUnsupportedContainer = errors.New("unsupported container")
	ErrCorruptContainer     = errors.New("corrupt container")
	ErrSegmentPresent       = errors.New("exif segment already present")
	ErrSegmentTooLarge      = errors.New("exif segment too large")
)

const (
	markerPrefix = 0xFF

	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerTEM  = 0x01
	markerRST0 = 0xD0
	markerRST7 = 0xD7
	markerAPP1 = 0xE1

	// the length field counts itself
	maxPayload = 0xFFFF - 2
)

// ExifHeader prefixes the payload of an APP1 segment carrying EXIF data.
var ExifHeader = []byte("Exif\x00\x00")

// Segment is a marker segment found before the start of scan.
type Segment struct {
	Marker byte
	// Offset is the position of the 0xFF byte that introduces the marker.
	Offset int
	// Size covers the marker, the length field and the payload.
	Size    int
	Payload []byte
}

func (s Segment) IsExif() bool {
	return s.Marker == markerAPP1 && bytes.HasPrefix(s.Payload, ExifHeader)
}

// Location is the position of an EXIF payload inside a JPEG stream.
type Location struct {
	Offset int
	Length int
}

// Segments lists the marker segments between SOI and SOS (or EOI).
func Segments(b []byte) ([]Segment, error) {
	if len(b) < 2 || b[0] != markerPrefix || b[1] != markerSOI {
		return nil, ErrUnsupportedContainer
	}

	var segments []Segment
	pos := 2
	for {
		if pos >= len(b) {
			return nil, fmt.Errorf("%w: missing start of scan", ErrCorruptContainer)
		}
		if b[pos] != markerPrefix {
			return nil, fmt.Errorf("%w: expected marker at offset %d", ErrCorruptContainer, pos)
		}

		start := pos
		// any number of 0xFF fill bytes may precede a marker
		for pos < len(b) && b[pos] == markerPrefix {
			pos++
		}
		if pos >= len(b) {
			return nil, fmt.Errorf("%w: truncated marker at offset %d", ErrCorruptContainer, start)
		}

		marker := b[pos]
		pos++

		switch {
		case marker == markerSOS || marker == markerEOI:
			return segments, nil
		case marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7):
			continue
		case marker == 0x00:
			return nil, fmt.Errorf("%w: stuffed byte outside scan at offset %d", ErrCorruptContainer, start)
		}

		if pos+2 > len(b) {
			return nil, fmt.Errorf("%w: truncated length for marker 0x%02X", ErrCorruptContainer, marker)
		}
		length := int(binary.BigEndian.Uint16(b[pos : pos+2]))
		if length < 2 {
			return nil, fmt.Errorf("%w: invalid length %d for marker 0x%02X", ErrCorruptContainer, length, marker)
		}
		end := pos + length
		if end > len(b) {
			return nil, fmt.Errorf("%w: segment 0x%02X overruns stream", ErrCorruptContainer, marker)
		}

		segments = append(segments, Segment{
			Marker:  marker,
			Offset:  start,
			Size:    end - start,
			Payload: b[pos+2 : end],
		})

		pos = end
	}
}

// LocateSegment finds the first APP1 EXIF payload. The payload starts with ExifHeader.
func LocateSegment(b []byte) (Location, bool, error) {
	segments, err := Segments(b)
	if err != nil {
		return Location{}, false, err
	}

	for _, s := range segments {
		if s.IsExif() {
			return Location{
				Offset: s.Offset + s.Size - len(s.Payload),
				Length: len(s.Payload),
			}, true, nil
		}
	}

	return Location{}, false, nil
}

// Extract returns a copy of the EXIF payload, or nil when there is none.
func Extract(b []byte) ([]byte, error) {
	loc, ok, err := LocateSegment(b)
	if err != nil || !ok {
		return nil, err
	}

	return bytes.Clone(b[loc.Offset : loc.Offset+loc.Length]), nil
}

// Strip returns a copy of b without any APP1 EXIF segments.
func Strip(b []byte) ([]byte, error) {
	segments, err := Segments(b)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(b))
	pos := 0
	for _, s := range segments {
		if !s.IsExif() {
			continue
		}
		out = append(out, b[pos:s.Offset]...)
		pos = s.Offset + s.Size
	}
	out = append(out, b[pos:]...)

	return out, nil
}

// Splice inserts segment as an APP1 payload directly after SOI. b must not already
// carry an EXIF segment.
func Splice(segment, b []byte) ([]byte, error) {
	if len(segment) > maxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrSegmentTooLarge, len(segment))
	}

	segments, err := Segments(b)
	if err != nil {
		return nil, err
	}
	for _, s := range segments {
		if s.IsExif() {
			return nil, ErrSegmentPresent
		}
	}

	out := make([]byte, 0, len(b)+len(segment)+4)
	out = append(out, b[:2]...)
	out = append(out, markerPrefix, markerAPP1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(segment)+2))
	out = append(out, segment...)
	out = append(out, b[2:]...)

	return out, nil
}

// Replace strips any existing EXIF segments from b and splices in segment.
func Replace(segment, b []byte) ([]byte, error) {
	stripped, err := Strip(b)
	if err != nil {
		return nil, err
	}

	return Splice(segment, stripped)
}
