package exif

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"sort"
)

// Directory maps tags to entries. Entries are kept sorted by tag, the order they are
// serialized in.
type Directory struct {
	entries []Entry
}

func (d *Directory) index(tag Tag) (int, bool) {
	i := sort.Search(len(d.entries), func(i int) bool { return d.entries[i].Tag >= tag })
	return i, i < len(d.entries) && d.entries[i].Tag == tag
}

func (d *Directory) Get(tag Tag) (Entry, bool) {
	i, ok := d.index(tag)
	if !ok {
		return Entry{}, false
	}

	return d.entries[i], true
}

// Set adds the entry, replacing any entry with the same tag.
func (d *Directory) Set(e Entry) {
	i, ok := d.index(e.Tag)
	if ok {
		d.entries[i] = e
		return
	}

	d.entries = append(d.entries, Entry{})
	copy(d.entries[i+1:], d.entries[i:])
	d.entries[i] = e
}

func (d *Directory) Delete(tag Tag) bool {
	i, ok := d.index(tag)
	if !ok {
		return false
	}

	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	return true
}

func (d *Directory) Clear() {
	d.entries = nil
}

func (d *Directory) Len() int {
	return len(d.entries)
}

// Entries returns the entries in tag order. The slice is a copy.
func (d *Directory) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}

func (d *Directory) Equal(o *Directory) bool {
	if len(d.entries) != len(o.entries) {
		return false
	}
	for i := range d.entries {
		if !d.entries[i].Equal(o.entries[i]) {
			return false
		}
	}

	return true
}

func (d *Directory) clone() Directory {
	var c Directory
	for _, e := range d.entries {
		c.entries = append(c.entries, e.clone())
	}

	return c
}

func (e Entry) Equal(o Entry) bool {
	if e.Tag != o.Tag || e.Type != o.Type || e.Count != o.Count {
		return false
	}
	if e.Opaque() || o.Opaque() {
		return e.Opaque() && o.Opaque() && bytes.Equal(e.Raw, o.Raw)
	}

	return reflect.DeepEqual(e.Value, o.Value)
}

func (e Entry) clone() Entry {
	c := e
	if e.Raw != nil {
		c.Raw = bytes.Clone(e.Raw)
	}

	switch v := e.Value.(type) {
	case []byte:
		c.Value = append([]byte{}, v...)
	case []int8:
		c.Value = append([]int8{}, v...)
	case []uint16:
		c.Value = append([]uint16{}, v...)
	case []int16:
		c.Value = append([]int16{}, v...)
	case []uint32:
		c.Value = append([]uint32{}, v...)
	case []int32:
		c.Value = append([]int32{}, v...)
	case []Rational:
		c.Value = append([]Rational{}, v...)
	case []SRational:
		c.Value = append([]SRational{}, v...)
	case []float32:
		c.Value = append([]float32{}, v...)
	case []float64:
		c.Value = append([]float64{}, v...)
	}

	return c
}

// Block is the decoded content of an EXIF segment.
type Block struct {
	// ByteOrder is fixed when a block is decoded: opaque entries hold bytes in
	// this order.
	ByteOrder binary.ByteOrder

	Image     Directory
	Capture   Directory
	GPS       Directory
	Interop   Directory
	Thumbnail Directory

	// ThumbnailData is the JPEG referenced by the thumbnail directory, if any.
	ThumbnailData []byte
}

// NewBlock returns an empty big-endian block.
func NewBlock() *Block {
	return &Block{ByteOrder: binary.BigEndian}
}

func (b *Block) Directory(kind Kind) *Directory {
	switch kind {
	case KindImage:
		return &b.Image
	case KindCapture:
		return &b.Capture
	case KindGPS:
		return &b.GPS
	case KindInterop:
		return &b.Interop
	case KindThumbnail:
		return &b.Thumbnail
	default:
		return nil
	}
}

// Empty reports whether no directory holds an entry and there is no thumbnail.
func (b *Block) Empty() bool {
	for _, k := range Kinds {
		if b.Directory(k).Len() > 0 {
			return false
		}
	}

	return len(b.ThumbnailData) == 0
}

func (b *Block) Clone() *Block {
	c := &Block{
		ByteOrder: b.ByteOrder,
		Image:     b.Image.clone(),
		Capture:   b.Capture.clone(),
		GPS:       b.GPS.clone(),
		Interop:   b.Interop.clone(),
		Thumbnail: b.Thumbnail.clone(),
	}
	if b.ThumbnailData != nil {
		c.ThumbnailData = bytes.Clone(b.ThumbnailData)
	}

	return c
}

func (b *Block) Equal(o *Block) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.order() != o.order() {
		return false
	}
	for _, k := range Kinds {
		if !b.Directory(k).Equal(o.Directory(k)) {
			return false
		}
	}

	return bytes.Equal(b.ThumbnailData, o.ThumbnailData)
}

func (b *Block) order() binary.ByteOrder {
	if b.ByteOrder == nil {
		return binary.BigEndian
	}

	return b.ByteOrder
}
