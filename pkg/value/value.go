// ABOUTME: Tag+little-endian wire codec for the closed set of primitive record values
// ABOUTME: Strings are length-prefixed with a single byte, capped at 255 UTF-8 bytes

package value

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/nainya/kenchidb/pkg/kerr"
)

// Tag identifies the wire variant of a Value.
type Tag byte

const (
	TagByte Tag = iota + 1
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagBool
	TagString
)

// MaxStringBytes is the largest UTF-8 byte length a string Value may carry.
const MaxStringBytes = 255

// Value is a tagged union over the closed set of primitive record values.
type Value struct {
	Tag    Tag
	Byte   byte
	Short  int16
	Int    int32
	Long   int64
	Float  float32
	Double float64
	Bool   bool
	Str    string
}

func FromByte(v byte) Value     { return Value{Tag: TagByte, Byte: v} }
func FromShort(v int16) Value   { return Value{Tag: TagShort, Short: v} }
func FromInt(v int32) Value     { return Value{Tag: TagInt, Int: v} }
func FromLong(v int64) Value    { return Value{Tag: TagLong, Long: v} }
func FromFloat(v float32) Value { return Value{Tag: TagFloat, Float: v} }
func FromDouble(v float64) Value {
	return Value{Tag: TagDouble, Double: v}
}
func FromBool(v bool) Value { return Value{Tag: TagBool, Bool: v} }

// FromString builds a string Value; the string must encode to at most
// MaxStringBytes UTF-8 bytes.
func FromString(v string) (Value, error) {
	if n := len(v); n > MaxStringBytes {
		return Value{}, kerr.New(kerr.InvalidArgument, "value.from_string",
			fmt.Sprintf("string is %d bytes, max is %d", n, MaxStringBytes))
	}
	if !utf8.ValidString(v) {
		return Value{}, kerr.New(kerr.InvalidArgument, "value.from_string", "not valid UTF-8")
	}
	return Value{Tag: TagString, Str: v}, nil
}

// Encode serialises v as a tag byte followed by its little-endian body.
func Encode(v Value) []byte {
	switch v.Tag {
	case TagByte:
		return []byte{byte(TagByte), v.Byte}
	case TagShort:
		buf := make([]byte, 3)
		buf[0] = byte(TagShort)
		binary.LittleEndian.PutUint16(buf[1:], uint16(v.Short))
		return buf
	case TagInt:
		buf := make([]byte, 5)
		buf[0] = byte(TagInt)
		binary.LittleEndian.PutUint32(buf[1:], uint32(v.Int))
		return buf
	case TagLong:
		buf := make([]byte, 9)
		buf[0] = byte(TagLong)
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.Long))
		return buf
	case TagFloat:
		buf := make([]byte, 5)
		buf[0] = byte(TagFloat)
		binary.LittleEndian.PutUint32(buf[1:], math.Float32bits(v.Float))
		return buf
	case TagDouble:
		buf := make([]byte, 9)
		buf[0] = byte(TagDouble)
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v.Double))
		return buf
	case TagBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return []byte{byte(TagBool), b}
	case TagString:
		body := []byte(v.Str)
		buf := make([]byte, 2+len(body))
		buf[0] = byte(TagString)
		buf[1] = byte(len(body))
		copy(buf[2:], body)
		return buf
	default:
		panic(fmt.Sprintf("value: unknown tag %d", v.Tag))
	}
}

// Decode reads one Value from the front of data, returning the value and
// the number of bytes consumed.
func Decode(data []byte) (Value, int, error) {
	if len(data) < 1 {
		return Value{}, 0, kerr.New(kerr.Corrupt, "value.decode", "empty input")
	}
	tag := Tag(data[0])
	switch tag {
	case TagByte:
		if len(data) < 2 {
			return Value{}, 0, shortRead("byte", 2, len(data))
		}
		return Value{Tag: TagByte, Byte: data[1]}, 2, nil
	case TagShort:
		if len(data) < 3 {
			return Value{}, 0, shortRead("short", 3, len(data))
		}
		return Value{Tag: TagShort, Short: int16(binary.LittleEndian.Uint16(data[1:3]))}, 3, nil
	case TagInt:
		if len(data) < 5 {
			return Value{}, 0, shortRead("int", 5, len(data))
		}
		return Value{Tag: TagInt, Int: int32(binary.LittleEndian.Uint32(data[1:5]))}, 5, nil
	case TagLong:
		if len(data) < 9 {
			return Value{}, 0, shortRead("long", 9, len(data))
		}
		return Value{Tag: TagLong, Long: int64(binary.LittleEndian.Uint64(data[1:9]))}, 9, nil
	case TagFloat:
		if len(data) < 5 {
			return Value{}, 0, shortRead("float", 5, len(data))
		}
		return Value{Tag: TagFloat, Float: math.Float32frombits(binary.LittleEndian.Uint32(data[1:5]))}, 5, nil
	case TagDouble:
		if len(data) < 9 {
			return Value{}, 0, shortRead("double", 9, len(data))
		}
		return Value{Tag: TagDouble, Double: math.Float64frombits(binary.LittleEndian.Uint64(data[1:9]))}, 9, nil
	case TagBool:
		if len(data) < 2 {
			return Value{}, 0, shortRead("bool", 2, len(data))
		}
		return Value{Tag: TagBool, Bool: data[1] != 0}, 2, nil
	case TagString:
		if len(data) < 2 {
			return Value{}, 0, shortRead("string length", 2, len(data))
		}
		n := int(data[1])
		if len(data) < 2+n {
			return Value{}, 0, shortRead("string body", 2+n, len(data))
		}
		return Value{Tag: TagString, Str: string(data[2 : 2+n])}, 2 + n, nil
	default:
		return Value{}, 0, kerr.New(kerr.Corrupt, "value.decode", fmt.Sprintf("unknown tag %d", tag))
	}
}

func shortRead(what string, want, got int) error {
	return kerr.New(kerr.Corrupt, "value.decode", fmt.Sprintf("%s needs %d bytes, have %d", what, want, got))
}
