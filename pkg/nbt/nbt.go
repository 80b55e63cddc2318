// Package nbt implements the tagged structured-data format used for item
// metadata, height maps, block entities and dimension descriptions.
package nbt

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

// Tag types
const (
	TagEnd byte = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

const (
	// MaxDepth bounds compound/list nesting.
	MaxDepth = 512
	// MaxArrayLength bounds the element count of arrays and lists.
	MaxArrayLength = 1 << 24
)

// Field is one named value of a compound.
type Field struct {
	Name  string
	Value any
}

// Compound is an ordered mapping of names to typed values. Values are one of
// int8, int16, int32, int64, float32, float64, []byte, string, List,
// *Compound, []int32 or []int64.
type Compound struct {
	Fields []Field
}

// List is a homogeneous sequence of values of one tag type.
type List struct {
	Type  byte
	Items []any
}

// NewCompound returns a compound holding the given fields in order.
func NewCompound(fields ...Field) *Compound {
	return &Compound{Fields: fields}
}

// Len returns the number of fields.
func (c *Compound) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Fields)
}

// Get returns the value stored under name.
func (c *Compound) Get(name string) (any, bool) {
	if c == nil {
		return nil, false
	}
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value stored under name, or appends it.
func (c *Compound) Set(name string, v any) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			c.Fields[i].Value = v
			return
		}
	}
	c.Fields = append(c.Fields, Field{Name: name, Value: v})
}

// Compound returns the nested compound stored under name.
func (c *Compound) Compound(name string) (*Compound, bool) {
	v, ok := c.Get(name)
	if !ok {
		return nil, false
	}
	nested, ok := v.(*Compound)
	return nested, ok
}

// String returns the string stored under name.
func (c *Compound) String(name string) (string, bool) {
	v, ok := c.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns an integral value stored under name widened to int64.
func (c *Compound) Int(name string) (int64, bool) {
	v, ok := c.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// LongArray returns the long array stored under name.
func (c *Compound) LongArray(name string) ([]int64, bool) {
	v, ok := c.Get(name)
	if !ok {
		return nil, false
	}
	a, ok := v.([]int64)
	return a, ok
}

// TypeOf returns the tag type for a Go value.
func TypeOf(v any) (byte, error) {
	switch v.(type) {
	case int8:
		return TagByte, nil
	case int16:
		return TagShort, nil
	case int32:
		return TagInt, nil
	case int64:
		return TagLong, nil
	case float32:
		return TagFloat, nil
	case float64:
		return TagDouble, nil
	case []byte:
		return TagByteArray, nil
	case string:
		return TagString, nil
	case List:
		return TagList, nil
	case *Compound:
		return TagCompound, nil
	case []int32:
		return TagIntArray, nil
	case []int64:
		return TagLongArray, nil
	}
	return 0, fmt.Errorf("%w: no tag for %T", protocol.ErrUnknownTag, v)
}

// Read reads a root compound. A lone TagEnd byte stands for "no data" and
// yields a nil compound.
func Read(r io.Reader) (*Compound, error) {
	_, c, err := ReadNamed(r)
	return c, err
}

// ReadNamed reads a root compound and its name.
func ReadNamed(r io.Reader) (string, *Compound, error) {
	tagType, err := protocol.ReadByte(r)
	if err != nil {
		return "", nil, err
	}
	if tagType == TagEnd {
		return "", nil, nil
	}
	if tagType != TagCompound {
		return "", nil, fmt.Errorf("%w: root tag %#x is not a compound", protocol.ErrUnknownTag, tagType)
	}
	name, err := readString(r)
	if err != nil {
		return "", nil, err
	}
	c, err := readCompound(r, 0)
	if err != nil {
		return "", nil, err
	}
	return name, c, nil
}

// Write writes c as a root compound named name. A nil compound is written as
// a lone TagEnd byte.
func Write(w io.Writer, name string, c *Compound) error {
	if c == nil {
		return protocol.WriteByte(w, TagEnd)
	}
	if err := protocol.WriteByte(w, TagCompound); err != nil {
		return err
	}
	if err := writeString(w, name); err != nil {
		return err
	}
	return writeCompound(w, c, 0)
}

func readString(r io.Reader) (string, error) {
	length, err := protocol.ReadUint16(r)
	if err != nil {
		return "", err
	}
	buf, err := protocol.ReadBytes(r, int(length))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("%w: tag string is not valid UTF-8", protocol.ErrInvalidEncoding)
	}
	return string(buf), nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("%w: tag string of %d bytes", protocol.ErrInvalidEncoding, len(s))
	}
	if err := protocol.WriteUint16(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// remaining is implemented by in-memory readers such as bytes.Reader.
type remaining interface {
	Len() int
}

// readLength reads an element count. When the reader knows how much input is
// left, a count whose elements of elemSize bytes cannot fit is rejected
// before anything is allocated.
func readLength(r io.Reader, elemSize int) (int, error) {
	n, err := protocol.ReadInt32(r)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > MaxArrayLength {
		return 0, fmt.Errorf("%w: array length %d", protocol.ErrInvalidEncoding, n)
	}
	if rem, ok := r.(remaining); ok && int(n)*elemSize > rem.Len() {
		return 0, fmt.Errorf("%w: array length %d exceeds the %d bytes left", protocol.ErrInvalidEncoding, n, rem.Len())
	}
	return int(n), nil
}

func readCompound(r io.Reader, depth int) (*Compound, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", protocol.ErrInvalidEncoding, MaxDepth)
	}
	c := &Compound{}
	for {
		tagType, err := protocol.ReadByte(r)
		if err != nil {
			return nil, err
		}
		if tagType == TagEnd {
			return c, nil
		}
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		v, err := readPayload(r, tagType, depth+1)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		c.Fields = append(c.Fields, Field{Name: name, Value: v})
	}
}

func readPayload(r io.Reader, tagType byte, depth int) (any, error) {
	switch tagType {
	case TagByte:
		return protocol.ReadInt8(r)
	case TagShort:
		return protocol.ReadInt16(r)
	case TagInt:
		return protocol.ReadInt32(r)
	case TagLong:
		return protocol.ReadInt64(r)
	case TagFloat:
		return protocol.ReadFloat32(r)
	case TagDouble:
		return protocol.ReadFloat64(r)
	case TagByteArray:
		n, err := readLength(r, 1)
		if err != nil {
			return nil, err
		}
		return protocol.ReadBytes(r, n)
	case TagString:
		return readString(r)
	case TagList:
		return readList(r, depth)
	case TagCompound:
		return readCompound(r, depth)
	case TagIntArray:
		n, err := readLength(r, 4)
		if err != nil {
			return nil, err
		}
		a := make([]int32, n)
		for i := range a {
			if a[i], err = protocol.ReadInt32(r); err != nil {
				return nil, err
			}
		}
		return a, nil
	case TagLongArray:
		n, err := readLength(r, 8)
		if err != nil {
			return nil, err
		}
		a := make([]int64, n)
		for i := range a {
			if a[i], err = protocol.ReadInt64(r); err != nil {
				return nil, err
			}
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: %#x", protocol.ErrUnknownTag, tagType)
}

func readList(r io.Reader, depth int) (List, error) {
	if depth > MaxDepth {
		return List{}, fmt.Errorf("%w: nesting deeper than %d", protocol.ErrInvalidEncoding, MaxDepth)
	}
	elemType, err := protocol.ReadByte(r)
	if err != nil {
		return List{}, err
	}
	n, err := readLength(r, 1)
	if err != nil {
		return List{}, err
	}
	if elemType == TagEnd {
		// Empty lists are typed TagEnd on the wire.
		if n != 0 {
			return List{}, fmt.Errorf("%w: %d elements of type end", protocol.ErrInvalidEncoding, n)
		}
		return List{Type: TagEnd}, nil
	}
	if elemType > TagLongArray {
		return List{}, fmt.Errorf("%w: list of %#x", protocol.ErrUnknownTag, elemType)
	}
	l := List{Type: elemType, Items: make([]any, 0, min(n, 1024))}
	for i := 0; i < n; i++ {
		v, err := readPayload(r, elemType, depth+1)
		if err != nil {
			return List{}, err
		}
		l.Items = append(l.Items, v)
	}
	return l, nil
}

func writeCompound(w io.Writer, c *Compound, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", protocol.ErrInvalidEncoding, MaxDepth)
	}
	for _, f := range c.Fields {
		tagType, err := TypeOf(f.Value)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		if err := protocol.WriteByte(w, tagType); err != nil {
			return err
		}
		if err := writeString(w, f.Name); err != nil {
			return err
		}
		if err := writePayload(w, f.Value, depth+1); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return protocol.WriteByte(w, TagEnd)
}

func writePayload(w io.Writer, v any, depth int) error {
	switch val := v.(type) {
	case int8:
		return protocol.WriteByte(w, byte(val))
	case int16:
		return protocol.WriteInt16(w, val)
	case int32:
		return protocol.WriteInt32(w, val)
	case int64:
		return protocol.WriteInt64(w, val)
	case float32:
		return protocol.WriteFloat32(w, val)
	case float64:
		return protocol.WriteFloat64(w, val)
	case []byte:
		if err := protocol.WriteInt32(w, int32(len(val))); err != nil {
			return err
		}
		_, err := w.Write(val)
		return err
	case string:
		return writeString(w, val)
	case List:
		return writeList(w, val, depth)
	case *Compound:
		return writeCompound(w, val, depth)
	case []int32:
		if err := protocol.WriteInt32(w, int32(len(val))); err != nil {
			return err
		}
		for _, n := range val {
			if err := protocol.WriteInt32(w, n); err != nil {
				return err
			}
		}
		return nil
	case []int64:
		if err := protocol.WriteInt32(w, int32(len(val))); err != nil {
			return err
		}
		for _, n := range val {
			if err := protocol.WriteInt64(w, n); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: no tag for %T", protocol.ErrUnknownTag, v)
}

func writeList(w io.Writer, l List, depth int) error {
	if err := protocol.WriteByte(w, l.Type); err != nil {
		return err
	}
	if err := protocol.WriteInt32(w, int32(len(l.Items))); err != nil {
		return err
	}
	for i, item := range l.Items {
		tagType, err := TypeOf(item)
		if err != nil {
			return err
		}
		if tagType != l.Type {
			return fmt.Errorf("list item %d has tag %#x, list holds %#x", i, tagType, l.Type)
		}
		if err := writePayload(w, item, depth+1); err != nil {
			return err
		}
	}
	return nil
}
