package exif

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// byteOrder is what the encoder writes with. Both binary.BigEndian and
// binary.LittleEndian implement it.
type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// encodingOrder maps any byte order onto the standard implementation of the same
// endianness.
func encodingOrder(o binary.ByteOrder) byteOrder {
	probe := make([]byte, 2)
	o.PutUint16(probe, 1)
	if probe[0] == 1 {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

type field struct {
	tag   Tag
	typ   Type
	count uint32
	data  []byte
	// ref resolves the offset stored by pointer fields once layout is known.
	ref func() uint32
}

type plan struct {
	kind   Kind
	fields []field
	offset int
	values []int
	next   func() uint32
}

func (p *plan) size() int {
	n := 2 + entrySize*len(p.fields) + 4
	for _, f := range p.fields {
		if len(f.data) > 4 {
			n += align(len(f.data))
		}
	}

	return n
}

func align(n int) int {
	return n + n%2
}

// Encode serializes the block into an APP1 payload, Exif preamble included. The
// block's byte order is kept; a block without one is written big-endian.
func Encode(b *Block) ([]byte, error) {
	order := encodingOrder(b.order())

	plans := make(map[Kind]*plan, len(Kinds))
	for _, kind := range Kinds {
		fields, err := encodeDirectory(kind, b.Directory(kind), order)
		if err != nil {
			return nil, fmt.Errorf("%s directory: %w", kind, err)
		}
		plans[kind] = &plan{kind: kind, fields: fields}
	}

	image, capture, gps, interop, thumbnail := plans[KindImage], plans[KindCapture], plans[KindGPS], plans[KindInterop], plans[KindThumbnail]

	hasInterop := len(interop.fields) > 0
	hasCapture := len(capture.fields) > 0 || hasInterop
	hasGPS := len(gps.fields) > 0
	hasThumbnail := len(thumbnail.fields) > 0 || len(b.ThumbnailData) > 0

	if hasCapture {
		image.fields = append(image.fields, pointerField(TagExifPointer, capture))
	}
	if hasGPS {
		image.fields = append(image.fields, pointerField(TagGPSPointer, gps))
	}
	if hasInterop {
		capture.fields = append(capture.fields, pointerField(TagInteropPointer, interop))
	}

	written := []*plan{image}
	if hasCapture {
		written = append(written, capture)
	}
	if hasGPS {
		written = append(written, gps)
	}
	if hasInterop {
		written = append(written, interop)
	}

	var blobOffset int
	if hasThumbnail {
		written = append(written, thumbnail)
		image.next = func() uint32 { return uint32(thumbnail.offset) }

		if len(b.ThumbnailData) > 0 {
			length := make([]byte, 4)
			order.PutUint32(length, uint32(len(b.ThumbnailData)))
			thumbnail.fields = append(thumbnail.fields,
				field{tag: TagThumbnailOffset, typ: TypeLong, count: 1, data: make([]byte, 4), ref: func() uint32 { return uint32(blobOffset) }},
				field{tag: TagThumbnailLength, typ: TypeLong, count: 1, data: length},
			)
		}
	}

	offset := tiffHeaderSize
	for _, p := range written {
		if len(p.fields) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: %s directory has %d entries", ErrValueMismatch, p.kind, len(p.fields))
		}
		sort.SliceStable(p.fields, func(i, j int) bool { return p.fields[i].tag < p.fields[j].tag })

		p.offset = offset
		p.values = make([]int, len(p.fields))
		valueOffset := offset + 2 + entrySize*len(p.fields) + 4
		for i, f := range p.fields {
			if len(f.data) > 4 {
				p.values[i] = valueOffset
				valueOffset += align(len(f.data))
			}
		}
		offset += p.size()
	}
	if hasThumbnail {
		blobOffset = offset
		offset += len(b.ThumbnailData)
	}
	if offset > math.MaxUint32 {
		return nil, fmt.Errorf("%w: block of %d bytes", ErrValueMismatch, offset)
	}

	out := make([]byte, offset)
	a := newArena(out)

	if order == binary.LittleEndian {
		copy(out, "II")
	} else {
		copy(out, "MM")
	}
	order.PutUint16(out[2:], tiffMagic)
	order.PutUint32(out[4:], uint32(image.offset))
	if err := a.claim(0, tiffHeaderSize); err != nil {
		return nil, err
	}
	a.reference(image.offset)

	for _, p := range written {
		if err := writeDirectory(a, p, order); err != nil {
			return nil, fmt.Errorf("%s directory: %w", p.kind, err)
		}
	}

	if hasThumbnail && len(b.ThumbnailData) > 0 {
		if err := a.claim(blobOffset, len(b.ThumbnailData)); err != nil {
			return nil, err
		}
		copy(out[blobOffset:], b.ThumbnailData)
	}

	if err := a.check(); err != nil {
		return nil, err
	}

	return append(append([]byte{}, Preamble...), out...), nil
}

func pointerField(tag Tag, target *plan) field {
	return field{
		tag:   tag,
		typ:   TypeLong,
		count: 1,
		data:  make([]byte, 4),
		ref:   func() uint32 { return uint32(target.offset) },
	}
}

func writeDirectory(a *arena, p *plan, order byteOrder) error {
	if err := a.claim(p.offset, 2+entrySize*len(p.fields)+4); err != nil {
		return err
	}

	buf := a.buf
	order.PutUint16(buf[p.offset:], uint16(len(p.fields)))

	for i, f := range p.fields {
		if f.ref != nil {
			target := f.ref()
			order.PutUint32(f.data, target)
			a.reference(int(target))
		}

		pos := p.offset + 2 + i*entrySize
		order.PutUint16(buf[pos:], uint16(f.tag))
		order.PutUint16(buf[pos+2:], uint16(f.typ))
		order.PutUint32(buf[pos+4:], f.count)

		if len(f.data) <= 4 {
			copy(buf[pos+8:pos+12], f.data)
			continue
		}

		valueOffset := p.values[i]
		order.PutUint32(buf[pos+8:], uint32(valueOffset))
		if err := a.claim(valueOffset, align(len(f.data))); err != nil {
			return err
		}
		a.reference(valueOffset)
		copy(buf[valueOffset:], f.data)
	}

	var next uint32
	if p.next != nil {
		next = p.next()
		a.reference(int(next))
	}
	order.PutUint32(buf[p.offset+2+entrySize*len(p.fields):], next)

	return nil
}

func encodeDirectory(kind Kind, d *Directory, order byteOrder) ([]field, error) {
	var fields []field
	for _, e := range d.entries {
		if pointerTag(kind, e.Tag) {
			continue
		}

		data, count, err := encodeValue(e, order)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field{tag: e.Tag, typ: e.Type, count: count, data: data})
	}

	return fields, nil
}

func encodeValue(e Entry, order byteOrder) ([]byte, uint32, error) {
	mismatch := func() ([]byte, uint32, error) {
		return nil, 0, fmt.Errorf("%w: tag 0x%04X declared %s x%d", ErrValueMismatch, uint16(e.Tag), e.Type, e.Count)
	}

	if e.Opaque() {
		size := e.Type.Size()
		if size == 0 {
			if len(e.Raw) != 4 {
				return mismatch()
			}
			return e.Raw, e.Count, nil
		}
		if uint64(len(e.Raw)) != uint64(size)*uint64(e.Count) {
			return mismatch()
		}
		return e.Raw, e.Count, nil
	}

	var (
		out []byte
		n   int
	)
	switch v := e.Value.(type) {
	case string:
		if e.Type != TypeASCII || e.Count != uint32(len(v)+1) {
			return mismatch()
		}
		out = append([]byte(v), 0)
		return out, e.Count, nil
	case []byte:
		if e.Type != TypeByte && e.Type != TypeUndefined {
			return mismatch()
		}
		out, n = v, len(v)
	case []int8:
		if e.Type != TypeSByte {
			return mismatch()
		}
		for _, x := range v {
			out = append(out, byte(x))
		}
		n = len(v)
	case []uint16:
		if e.Type != TypeShort {
			return mismatch()
		}
		for _, x := range v {
			out = order.AppendUint16(out, x)
		}
		n = len(v)
	case []int16:
		if e.Type != TypeSShort {
			return mismatch()
		}
		for _, x := range v {
			out = order.AppendUint16(out, uint16(x))
		}
		n = len(v)
	case []uint32:
		if e.Type != TypeLong {
			return mismatch()
		}
		for _, x := range v {
			out = order.AppendUint32(out, x)
		}
		n = len(v)
	case []int32:
		if e.Type != TypeSLong {
			return mismatch()
		}
		for _, x := range v {
			out = order.AppendUint32(out, uint32(x))
		}
		n = len(v)
	case []Rational:
		if e.Type != TypeRational {
			return mismatch()
		}
		for _, x := range v {
			if x.Den == 0 {
				return nil, 0, fmt.Errorf("tag 0x%04X: %w", uint16(e.Tag), ErrZeroDenominator)
			}
			out = order.AppendUint32(out, x.Num)
			out = order.AppendUint32(out, x.Den)
		}
		n = len(v)
	case []SRational:
		if e.Type != TypeSRational {
			return mismatch()
		}
		for _, x := range v {
			if x.Den == 0 {
				return nil, 0, fmt.Errorf("tag 0x%04X: %w", uint16(e.Tag), ErrZeroDenominator)
			}
			out = order.AppendUint32(out, uint32(x.Num))
			out = order.AppendUint32(out, uint32(x.Den))
		}
		n = len(v)
	case []float32:
		if e.Type != TypeFloat {
			return mismatch()
		}
		for _, x := range v {
			out = order.AppendUint32(out, math.Float32bits(x))
		}
		n = len(v)
	case []float64:
		if e.Type != TypeDouble {
			return mismatch()
		}
		for _, x := range v {
			out = order.AppendUint64(out, math.Float64bits(x))
		}
		n = len(v)
	default:
		return mismatch()
	}

	if uint32(n) != e.Count {
		return mismatch()
	}

	return out, e.Count, nil
}

// arena tracks the regions of an encoded block. Regions are claimed in ascending
// order and may not overlap; every stored offset must start a claimed region.
type arena struct {
	buf    []byte
	end    int
	starts map[int]bool
	refs   []int
}

func newArena(buf []byte) *arena {
	return &arena{buf: buf, starts: make(map[int]bool)}
}

func (a *arena) claim(start, size int) error {
	if start < a.end {
		return fmt.Errorf("%w: region at %d overlaps previous region ending at %d", ErrDanglingOffset, start, a.end)
	}
	if start+size > len(a.buf) {
		return fmt.Errorf("%w: region at %d of %d bytes exceeds block", ErrDanglingOffset, start, size)
	}
	a.starts[start] = true
	a.end = start + size

	return nil
}

func (a *arena) reference(offset int) {
	a.refs = append(a.refs, offset)
}

func (a *arena) check() error {
	for _, r := range a.refs {
		if r >= len(a.buf) || !a.starts[r] {
			return fmt.Errorf("%w: offset %d", ErrDanglingOffset, r)
		}
	}

	return nil
}
