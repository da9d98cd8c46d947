package exif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Preamble is the fixed prefix of an EXIF APP1 payload.
var Preamble = []byte("Exif\x00\x00")

const (
	tiffHeaderSize = 8
	tiffMagic      = 42
	entrySize      = 12
)

type rawEntry struct {
	tag   Tag
	typ   Type
	count uint32
	// data holds the exact value bytes for known types and the 4 byte value field
	// for unknown types.
	data []byte
}

type rawIFD struct {
	entries []rawEntry
	next    uint32
}

func (d rawIFD) pointer(tag Tag, order binary.ByteOrder) (uint32, bool) {
	for _, e := range d.entries {
		if e.tag != tag {
			continue
		}
		switch {
		case len(e.data) >= 4 && (e.typ == TypeLong || e.typ == typeIFD):
			return order.Uint32(e.data), true
		case len(e.data) >= 2 && e.typ == TypeShort:
			return uint32(order.Uint16(e.data)), true
		}
	}

	return 0, false
}

// typeIFD is the TIFF-EP type some writers use for directory pointers.
const typeIFD Type = 13

type reader struct {
	buf     []byte
	order   binary.ByteOrder
	visited map[uint32]bool
}

func (r *reader) readIFD(offset uint32) (rawIFD, error) {
	var ifd rawIFD

	if r.visited[offset] {
		return ifd, fmt.Errorf("%w: directory at offset %d visited twice", ErrCorruptDirectory, offset)
	}
	r.visited[offset] = true

	start := uint64(offset)
	if start+2 > uint64(len(r.buf)) {
		return ifd, fmt.Errorf("%w: directory offset %d beyond segment", ErrTruncatedDirectory, offset)
	}

	count := uint64(r.order.Uint16(r.buf[start:]))
	end := start + 2 + count*entrySize
	if end > uint64(len(r.buf)) {
		return ifd, fmt.Errorf("%w: %d entries at offset %d exceed segment", ErrTruncatedDirectory, count, offset)
	}

	for i := uint64(0); i < count; i++ {
		p := start + 2 + i*entrySize
		e := rawEntry{
			tag:   Tag(r.order.Uint16(r.buf[p:])),
			typ:   Type(r.order.Uint16(r.buf[p+2:])),
			count: r.order.Uint32(r.buf[p+4:]),
		}
		field := r.buf[p+8 : p+12]

		size := uint64(e.typ.Size())
		if e.typ == typeIFD {
			size = 4
		}
		total := size * uint64(e.count)

		switch {
		case size == 0:
			e.data = bytes.Clone(field)
		case total <= 4:
			e.data = bytes.Clone(field[:total])
		default:
			valueOffset := uint64(r.order.Uint32(field))
			if valueOffset+total > uint64(len(r.buf)) {
				return ifd, fmt.Errorf(
					"%w: tag 0x%04X needs %d bytes at offset %d",
					ErrTruncatedDirectory, uint16(e.tag), total, valueOffset,
				)
			}
			e.data = bytes.Clone(r.buf[valueOffset : valueOffset+total])
		}

		ifd.entries = append(ifd.entries, e)
	}

	// some writers omit the next pointer on sub-directories
	if end+4 <= uint64(len(r.buf)) {
		ifd.next = r.order.Uint32(r.buf[end:])
	}

	return ifd, nil
}

func (r *reader) directory(kind Kind, ifd rawIFD) Directory {
	var d Directory
	for _, raw := range ifd.entries {
		if pointerTag(kind, raw.tag) {
			continue
		}
		d.Set(r.entry(kind, raw))
	}

	return d
}

func (r *reader) entry(kind Kind, raw rawEntry) Entry {
	opaque := Opaque(raw.tag, raw.typ, raw.count, raw.data)
	if !Known(kind, raw.tag) || raw.typ.Size() == 0 {
		return opaque
	}

	e := Entry{Tag: raw.tag, Type: raw.typ, Count: raw.count}
	n := int(raw.count)
	data := raw.data
	order := r.order

	switch raw.typ {
	case TypeASCII:
		s := data
		if i := bytes.IndexByte(s, 0); i >= 0 {
			s = s[:i]
		}
		return ASCII(raw.tag, string(s))
	case TypeByte, TypeUndefined:
		e.Value = bytes.Clone(data)
		if e.Value.([]byte) == nil {
			e.Value = []byte{}
		}
	case TypeSByte:
		v := make([]int8, n)
		for i := range v {
			v[i] = int8(data[i])
		}
		e.Value = v
	case TypeShort:
		v := make([]uint16, n)
		for i := range v {
			v[i] = order.Uint16(data[i*2:])
		}
		e.Value = v
	case TypeSShort:
		v := make([]int16, n)
		for i := range v {
			v[i] = int16(order.Uint16(data[i*2:]))
		}
		e.Value = v
	case TypeLong:
		v := make([]uint32, n)
		for i := range v {
			v[i] = order.Uint32(data[i*4:])
		}
		e.Value = v
	case TypeSLong:
		v := make([]int32, n)
		for i := range v {
			v[i] = int32(order.Uint32(data[i*4:]))
		}
		e.Value = v
	case TypeRational:
		v := make([]Rational, n)
		for i := range v {
			v[i] = Rational{Num: order.Uint32(data[i*8:]), Den: order.Uint32(data[i*8+4:])}
			if v[i].Den == 0 {
				return opaque
			}
		}
		e.Value = v
	case TypeSRational:
		v := make([]SRational, n)
		for i := range v {
			v[i] = SRational{Num: int32(order.Uint32(data[i*8:])), Den: int32(order.Uint32(data[i*8+4:]))}
			if v[i].Den == 0 {
				return opaque
			}
		}
		e.Value = v
	case TypeFloat:
		v := make([]float32, n)
		for i := range v {
			v[i] = math.Float32frombits(order.Uint32(data[i*4:]))
		}
		e.Value = v
	case TypeDouble:
		v := make([]float64, n)
		for i := range v {
			v[i] = math.Float64frombits(order.Uint64(data[i*8:]))
		}
		e.Value = v
	default:
		return opaque
	}

	return e
}

func tiffBody(segment []byte) ([]byte, binary.ByteOrder, error) {
	segment = bytes.TrimPrefix(segment, Preamble)
	if len(segment) < tiffHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(segment))
	}

	var order binary.ByteOrder
	switch string(segment[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("%w: byte order marker %q", ErrInvalidHeader, segment[:2])
	}

	if order.Uint16(segment[2:]) != tiffMagic {
		return nil, nil, fmt.Errorf("%w: bad magic", ErrInvalidHeader)
	}

	return segment, order, nil
}

// Decode parses an EXIF payload (with or without the Exif preamble). Any structural
// problem fails the whole decode.
func Decode(segment []byte) (*Block, error) {
	return decode(segment, false)
}

// DecodeLenient parses what it can. Directories that cannot be read are left empty
// and their errors are joined into the returned error; the block is never nil.
func DecodeLenient(segment []byte) (*Block, error) {
	return decode(segment, true)
}

func decode(segment []byte, lenient bool) (*Block, error) {
	buf, order, err := tiffBody(segment)
	if err != nil {
		if lenient {
			return NewBlock(), err
		}
		return nil, err
	}

	r := &reader{buf: buf, order: order, visited: make(map[uint32]bool)}
	b := &Block{ByteOrder: order}

	var errs []error
	fail := func(kind Kind, err error) error {
		err = fmt.Errorf("%s directory: %w", kind, err)
		if !lenient {
			return err
		}
		errs = append(errs, err)
		return nil
	}

	ifd0, err := r.readIFD(order.Uint32(buf[4:]))
	if err != nil {
		if err := fail(KindImage, err); err != nil {
			return nil, err
		}
		return b, errors.Join(errs...)
	}
	b.Image = r.directory(KindImage, ifd0)

	if offset, ok := ifd0.pointer(TagExifPointer, order); ok {
		capture, err := r.readIFD(offset)
		if err != nil {
			if err := fail(KindCapture, err); err != nil {
				return nil, err
			}
		} else {
			b.Capture = r.directory(KindCapture, capture)

			if offset, ok := capture.pointer(TagInteropPointer, order); ok {
				interop, err := r.readIFD(offset)
				if err != nil {
					if err := fail(KindInterop, err); err != nil {
						return nil, err
					}
				} else {
					b.Interop = r.directory(KindInterop, interop)
				}
			}
		}
	}

	if offset, ok := ifd0.pointer(TagGPSPointer, order); ok {
		gps, err := r.readIFD(offset)
		if err != nil {
			if err := fail(KindGPS, err); err != nil {
				return nil, err
			}
		} else {
			b.GPS = r.directory(KindGPS, gps)
		}
	}

	if ifd0.next != 0 {
		if err := r.thumbnail(b, ifd0.next); err != nil {
			if err := fail(KindThumbnail, err); err != nil {
				return nil, err
			}
			b.Thumbnail = Directory{}
			b.ThumbnailData = nil
		}
	}

	return b, errors.Join(errs...)
}

func (r *reader) thumbnail(b *Block, offset uint32) error {
	ifd1, err := r.readIFD(offset)
	if err != nil {
		return err
	}
	b.Thumbnail = r.directory(KindThumbnail, ifd1)

	start, ok := ifd1.pointer(TagThumbnailOffset, r.order)
	if !ok {
		return nil
	}
	length, ok := ifd1.pointer(TagThumbnailLength, r.order)
	if !ok || length == 0 {
		return nil
	}

	end := uint64(start) + uint64(length)
	if end > uint64(len(r.buf)) {
		return fmt.Errorf("%w: thumbnail of %d bytes at offset %d", ErrTruncatedDirectory, length, start)
	}
	b.ThumbnailData = bytes.Clone(r.buf[start:end])

	return nil
}
