// Package gguf implements a minimal reader for the GGUF container format used
// to ship the quantized translator model (spec §4.F step 1): a magic header,
// a metadata key-value table, a tensor descriptor table, then the tensor
// data itself, aligned per the "general.alignment" metadata key.
package gguf

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tonybenoy/anuvad/pkg/apperrors"
)

const (
	magic            = "GGUF"
	defaultAlignment = 32
)

// ValueType enumerates GGUF's metadata value tags.
type ValueType uint32

const (
	TypeUint8   ValueType = 0
	TypeInt8    ValueType = 1
	TypeUint16  ValueType = 2
	TypeInt16   ValueType = 3
	TypeUint32  ValueType = 4
	TypeInt32   ValueType = 5
	TypeFloat32 ValueType = 6
	TypeBool    ValueType = 7
	TypeString  ValueType = 8
	TypeArray   ValueType = 9
	TypeUint64  ValueType = 10
	TypeInt64   ValueType = 11
	TypeFloat64 ValueType = 12
)

// TensorInfo describes one tensor's shape, quantization type, and byte
// offset into the data section (relative to its aligned start).
type TensorInfo struct {
	Name       string
	Dims       []uint64
	GGMLType   uint32
	Offset     uint64
}

// File is a parsed GGUF container: metadata, tensor descriptors, and the raw
// data section bytes (still quantized; pkg/tensor's Engine interprets them).
type File struct {
	Version       uint32
	Metadata      map[string]interface{}
	Tensors       []TensorInfo
	DataSection   []byte
	Alignment     uint64
}

type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if c.pos+n > len(c.data) {
		return nil, fmt.Errorf("gguf: unexpected EOF at offset %d wanting %d bytes", c.pos, n)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) u64() (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) i8() (int8, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (c *cursor) f32() (float32, error) {
	v, err := c.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (c *cursor) f64() (float64, error) {
	v, err := c.u64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (c *cursor) str() (string, error) {
	n, err := c.u64()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) value(t ValueType) (interface{}, error) {
	switch t {
	case TypeUint8:
		b, err := c.bytes(1)
		return uint8FromByte(b), err
	case TypeInt8:
		return c.i8()
	case TypeUint16:
		b, err := c.bytes(2)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint16(b), nil
	case TypeInt16:
		b, err := c.bytes(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(b)), nil
	case TypeUint32:
		return c.u32()
	case TypeInt32:
		v, err := c.u32()
		return int32(v), err
	case TypeFloat32:
		return c.f32()
	case TypeBool:
		b, err := c.bytes(1)
		if err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case TypeString:
		return c.str()
	case TypeUint64:
		return c.u64()
	case TypeInt64:
		v, err := c.u64()
		return int64(v), err
	case TypeFloat64:
		return c.f64()
	case TypeArray:
		elemType, err := c.u32()
		if err != nil {
			return nil, err
		}
		n, err := c.u64()
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, n)
		for i := range out {
			v, err := c.value(ValueType(elemType))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("gguf: unknown metadata value type %d", t)
	}
}

func uint8FromByte(b []byte) uint8 {
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// Parse reads a full GGUF file from memory.
func Parse(data []byte) (*File, error) {
	c := &cursor{data: data}

	m, err := c.bytes(4)
	if err != nil || string(m) != magic {
		return nil, apperrors.ModelLoad("gguf: bad magic, expected %q", magic)
	}

	version, err := c.u32()
	if err != nil {
		return nil, apperrors.ModelLoad("gguf: %v", err)
	}

	tensorCount, err := c.u64()
	if err != nil {
		return nil, apperrors.ModelLoad("gguf: %v", err)
	}
	kvCount, err := c.u64()
	if err != nil {
		return nil, apperrors.ModelLoad("gguf: %v", err)
	}

	metadata := make(map[string]interface{}, kvCount)
	for i := uint64(0); i < kvCount; i++ {
		key, err := c.str()
		if err != nil {
			return nil, apperrors.ModelLoad("gguf: metadata key %d: %v", i, err)
		}
		vt, err := c.u32()
		if err != nil {
			return nil, apperrors.ModelLoad("gguf: metadata type %d: %v", i, err)
		}
		val, err := c.value(ValueType(vt))
		if err != nil {
			return nil, apperrors.ModelLoad("gguf: metadata value %q: %v", key, err)
		}
		metadata[key] = val
	}

	alignment := uint64(defaultAlignment)
	if v, ok := metadata["general.alignment"]; ok {
		if u, ok := v.(uint32); ok {
			alignment = uint64(u)
		}
	}

	tensors := make([]TensorInfo, tensorCount)
	for i := range tensors {
		name, err := c.str()
		if err != nil {
			return nil, apperrors.ModelLoad("gguf: tensor %d name: %v", i, err)
		}
		nDims, err := c.u32()
		if err != nil {
			return nil, apperrors.ModelLoad("gguf: tensor %d ndims: %v", i, err)
		}
		dims := make([]uint64, nDims)
		for d := range dims {
			dims[d], err = c.u64()
			if err != nil {
				return nil, apperrors.ModelLoad("gguf: tensor %d dim %d: %v", i, d, err)
			}
		}
		ggmlType, err := c.u32()
		if err != nil {
			return nil, apperrors.ModelLoad("gguf: tensor %d type: %v", i, err)
		}
		offset, err := c.u64()
		if err != nil {
			return nil, apperrors.ModelLoad("gguf: tensor %d offset: %v", i, err)
		}
		tensors[i] = TensorInfo{Name: name, Dims: dims, GGMLType: ggmlType, Offset: offset}
	}

	dataStart := alignUp(c.pos, int(alignment))
	if dataStart > len(data) {
		return nil, apperrors.ModelLoad("gguf: aligned data section starts past EOF")
	}

	return &File{
		Version:     version,
		Metadata:    metadata,
		Tensors:     tensors,
		DataSection: data[dataStart:],
		Alignment:   alignment,
	}, nil
}

func alignUp(pos, align int) int {
	if align <= 0 {
		return pos
	}
	rem := pos % align
	if rem == 0 {
		return pos
	}
	return pos + (align - rem)
}

// TensorBytes returns the raw quantized bytes for the named tensor, bounded
// by the next tensor's offset (or the end of the data section for the last).
func (f *File) TensorBytes(name string) ([]byte, error) {
	for i, t := range f.Tensors {
		if t.Name != name {
			continue
		}
		end := uint64(len(f.DataSection))
		if i+1 < len(f.Tensors) {
			end = f.Tensors[i+1].Offset
		}
		if t.Offset > uint64(len(f.DataSection)) || end > uint64(len(f.DataSection)) {
			return nil, apperrors.ModelLoad("gguf: tensor %q offsets out of range", name)
		}
		return f.DataSection[t.Offset:end], nil
	}
	return nil, apperrors.ModelLoad("gguf: tensor %q not found", name)
}

// StringMeta returns a string metadata value, or "" if absent/wrong type.
func (f *File) StringMeta(key string) string {
	if v, ok := f.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// Uint32Meta returns a uint32 metadata value, or 0 if absent/wrong type.
func (f *File) Uint32Meta(key string) uint32 {
	if v, ok := f.Metadata[key].(uint32); ok {
		return v
	}
	return 0
}
