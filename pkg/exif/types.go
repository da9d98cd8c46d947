package exif

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHeader      = errors.New("invalid tiff header")
	ErrTruncatedDirectory = errors.New("truncated directory")
	ErrCorruptDirectory   = errors.New("corrupt directory")
	ErrZeroDenominator    = errors.New("rational with zero denominator")
	ErrDanglingOffset     = errors.New("dangling offset")
	ErrValueMismatch      = errors.New("value does not match type")
)

// Type is a TIFF field type.
type Type uint16

const (
	TypeByte      Type = 1
	TypeASCII     Type = 2
	TypeShort     Type = 3
	TypeLong      Type = 4
	TypeRational  Type = 5
	TypeSByte     Type = 6
	TypeUndefined Type = 7
	TypeSShort    Type = 8
	TypeSLong     Type = 9
	TypeSRational Type = 10
	TypeFloat     Type = 11
	TypeDouble    Type = 12
)

var typeSizes = map[Type]int{
	TypeByte:      1,
	TypeASCII:     1,
	TypeShort:     2,
	TypeLong:      4,
	TypeRational:  8,
	TypeSByte:     1,
	TypeUndefined: 1,
	TypeSShort:    2,
	TypeSLong:     4,
	TypeSRational: 8,
	TypeFloat:     4,
	TypeDouble:    8,
}

// Size is the width in bytes of one value of the type, 0 when the type is unknown.
func (t Type) Size() int {
	return typeSizes[t]
}

func (t Type) String() string {
	switch t {
	case TypeByte:
		return "BYTE"
	case TypeASCII:
		return "ASCII"
	case TypeShort:
		return "SHORT"
	case TypeLong:
		return "LONG"
	case TypeRational:
		return "RATIONAL"
	case TypeSByte:
		return "SBYTE"
	case TypeUndefined:
		return "UNDEFINED"
	case TypeSShort:
		return "SSHORT"
	case TypeSLong:
		return "SLONG"
	case TypeSRational:
		return "SRATIONAL"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	default:
		return fmt.Sprintf("TYPE(%d)", uint16(t))
	}
}

type Rational struct {
	Num uint32
	Den uint32
}

func (r Rational) Float() (float64, error) {
	if r.Den == 0 {
		return 0, ErrZeroDenominator
	}

	return float64(r.Num) / float64(r.Den), nil
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

type SRational struct {
	Num int32
	Den int32
}

func (r SRational) Float() (float64, error) {
	if r.Den == 0 {
		return 0, ErrZeroDenominator
	}

	return float64(r.Num) / float64(r.Den), nil
}

func (r SRational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Entry is one field of a directory.
//
// Entries for known tags carry a typed Value: string for ASCII, []byte for BYTE and
// UNDEFINED, []int8, []uint16, []int16, []uint32, []int32, []Rational, []SRational,
// []float32 or []float64 for the remaining types. Entries for unknown tags, unknown
// types, or rationals that cannot be represented carry the encoded value bytes in Raw
// instead, in the byte order of the block they were read from.
type Entry struct {
	Tag   Tag
	Type  Type
	Count uint32
	Value any
	Raw   []byte
}

// Opaque reports whether the entry is kept as raw bytes.
func (e Entry) Opaque() bool {
	return e.Value == nil
}

func ASCII(tag Tag, s string) Entry {
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(s) + 1), Value: s}
}

func Bytes(tag Tag, v ...byte) Entry {
	return Entry{Tag: tag, Type: TypeByte, Count: uint32(len(v)), Value: v}
}

func Undefined(tag Tag, v []byte) Entry {
	return Entry{Tag: tag, Type: TypeUndefined, Count: uint32(len(v)), Value: v}
}

func Short(tag Tag, v ...uint16) Entry {
	return Entry{Tag: tag, Type: TypeShort, Count: uint32(len(v)), Value: v}
}

func Long(tag Tag, v ...uint32) Entry {
	return Entry{Tag: tag, Type: TypeLong, Count: uint32(len(v)), Value: v}
}

func Rationals(tag Tag, v ...Rational) Entry {
	return Entry{Tag: tag, Type: TypeRational, Count: uint32(len(v)), Value: v}
}

func SRationals(tag Tag, v ...SRational) Entry {
	return Entry{Tag: tag, Type: TypeSRational, Count: uint32(len(v)), Value: v}
}

// Opaque builds an entry whose value is carried as raw bytes.
func Opaque(tag Tag, typ Type, count uint32, raw []byte) Entry {
	return Entry{Tag: tag, Type: typ, Count: count, Raw: raw}
}

func (e Entry) String() (string, error) {
	s, ok := e.Value.(string)
	if !ok {
		return "", fmt.Errorf("%w: tag 0x%04X is %s", ErrValueMismatch, uint16(e.Tag), e.Type)
	}

	return s, nil
}

// Ints widens BYTE, SHORT, LONG and their signed variants.
func (e Entry) Ints() ([]int64, error) {
	var out []int64
	switch v := e.Value.(type) {
	case []byte:
		if e.Type != TypeByte {
			break
		}
		for _, x := range v {
			out = append(out, int64(x))
		}
		return out, nil
	case []int8:
		for _, x := range v {
			out = append(out, int64(x))
		}
		return out, nil
	case []uint16:
		for _, x := range v {
			out = append(out, int64(x))
		}
		return out, nil
	case []int16:
		for _, x := range v {
			out = append(out, int64(x))
		}
		return out, nil
	case []uint32:
		for _, x := range v {
			out = append(out, int64(x))
		}
		return out, nil
	case []int32:
		for _, x := range v {
			out = append(out, int64(x))
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: tag 0x%04X is %s", ErrValueMismatch, uint16(e.Tag), e.Type)
}

// Rationals returns the value of a RATIONAL entry. Entries demoted to raw bytes
// because a denominator was zero report ErrZeroDenominator.
func (e Entry) Rationals() ([]Rational, error) {
	if v, ok := e.Value.([]Rational); ok {
		return v, nil
	}
	if e.Type == TypeRational && e.Opaque() {
		return nil, fmt.Errorf("tag 0x%04X: %w", uint16(e.Tag), ErrZeroDenominator)
	}

	return nil, fmt.Errorf("%w: tag 0x%04X is %s", ErrValueMismatch, uint16(e.Tag), e.Type)
}

func (e Entry) SRationals() ([]SRational, error) {
	if v, ok := e.Value.([]SRational); ok {
		return v, nil
	}
	if e.Type == TypeSRational && e.Opaque() {
		return nil, fmt.Errorf("tag 0x%04X: %w", uint16(e.Tag), ErrZeroDenominator)
	}

	return nil, fmt.Errorf("%w: tag 0x%04X is %s", ErrValueMismatch, uint16(e.Tag), e.Type)
}
